package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkDecl(name string, params ...ParameterSpec) Declaration {
	return Declaration{
		Descriptor: OperationDescriptor{
			Name:       name,
			Parameters: params,
			Tags:       []string{TagCheck},
			Returns:    ReturnReport,
		},
		Handler: "noop",
	}
}

func optionalDir(name, sub string) ParameterSpec {
	return ParameterSpec{
		Name:    name,
		Kind:    KindDirectory,
		Default: &DefaultPolicy{SubPath: sub},
	}
}

func TestBuild_DuplicateNames(t *testing.T) {
	_, err := Build("example.com/mod", []Declaration{
		checkDecl("check-readme"),
		checkDecl("check-readme"),
	})

	var malformed *MalformedDeclarationError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "check-readme", malformed.Op)
}

func TestBuild_ContradictoryParameter(t *testing.T) {
	_, err := Build("example.com/mod", []Declaration{
		{
			Descriptor: OperationDescriptor{
				Name: "generate",
				Parameters: []ParameterSpec{{
					Name:     "source",
					Kind:     KindDirectory,
					Required: true,
					Default:  &DefaultPolicy{SubPath: "sdk"},
				}},
			},
		},
	})

	var malformed *MalformedDeclarationError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "required")
}

func TestBuild_CheckWithRequiredParameter(t *testing.T) {
	// A check-tagged operation with a required parameter must fail the
	// catalog build, not get silently dropped from discovery.
	_, err := Build("example.com/mod", []Declaration{
		checkDecl("check-lint", ParameterSpec{
			Name:     "target",
			Kind:     KindDirectory,
			Required: true,
		}),
	})

	var decl *DeclarationError
	require.ErrorAs(t, err, &decl)
	assert.Equal(t, "check-lint", decl.Op)
	assert.Equal(t, "target", decl.Param)
}

func TestChecks_OnlyTaggedAndDiscoverable(t *testing.T) {
	cat, err := Build("example.com/mod", []Declaration{
		checkDecl("check-readme", optionalDir("source", "sdk")),
		checkDecl("check-docs", optionalDir("docs", "sdk/docs")),
		{
			// Tagged nothing: callable, but never listed as a check.
			Descriptor: OperationDescriptor{
				Name: "generate",
				Parameters: []ParameterSpec{
					{Name: "schema", Kind: KindFile, Required: true},
				},
				Returns: ReturnContext,
			},
		},
	})
	require.NoError(t, err)

	checks := cat.Checks()
	require.Len(t, checks, 2)

	// The iff property: listed <=> tagged check && every param non-required.
	listed := map[string]bool{}
	for _, c := range checks {
		listed[c.Name] = true
	}
	for _, op := range cat.Operations() {
		want := op.HasTag(TagCheck) && op.Discoverable()
		assert.Equal(t, want, listed[op.Name], "operation %s", op.Name)
	}
}

func TestFindByHandler(t *testing.T) {
	cat, err := Build("example.com/mod", []Declaration{
		checkDecl("check-readme", optionalDir("source", "sdk")),
		{
			// Hosts look codegen operations up by handler, so the
			// manifest author picks the operation name freely.
			Descriptor: OperationDescriptor{
				Name: "regen-sdk",
				Parameters: []ParameterSpec{
					{Name: "schema", Kind: KindFile, Required: true},
				},
				Returns: ReturnContext,
			},
			Handler: "generate",
		},
	})
	require.NoError(t, err)

	decl, ok := cat.FindByHandler("generate")
	require.True(t, ok)
	assert.Equal(t, "regen-sdk", decl.Descriptor.Name)

	_, ok = cat.FindByHandler("verify-generated")
	assert.False(t, ok)
}

func TestGet_Unknown(t *testing.T) {
	cat, err := Build("example.com/mod", nil)
	require.NoError(t, err)

	_, err = cat.Get("nope")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCatalog_QueriesReturnCopies(t *testing.T) {
	cat, err := Build("example.com/mod", []Declaration{
		checkDecl("check-readme", optionalDir("source", "sdk")),
	})
	require.NoError(t, err)

	got := cat.Checks()
	got[0].Parameters[0].Default.SubPath = "mutated"
	got[0].Tags[0] = "mutated"

	again := cat.Checks()
	assert.Equal(t, "sdk", again[0].Parameters[0].Default.SubPath)
	assert.Equal(t, TagCheck, again[0].Tags[0])
}
