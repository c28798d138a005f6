package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
module: github.com/acme/sdk-dev
sdk: sdk
language: go
operations:
  - name: check-readme
    description: SDK README exists
    tags: [check]
    image: alpine:3.22
    params:
      - name: source
        kind: Directory
        from: sdk
    exec:
      - [test, -f, "{{mount:source}}/README.md"]
  - name: check-structure
    description: required SDK layout is present
    tags: [check]
    handler: structure
    params:
      - name: source
        kind: Directory
        from: .
  - name: generate
    description: regenerate the SDK from a schema document
    returns: context
    handler: generate
    params:
      - name: schema
        kind: File
        required: true
      - name: source
        kind: Directory
        from: sdk
`

func TestLoad_Sample(t *testing.T) {
	cat, m, err := Load([]byte(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, "github.com/acme/sdk-dev", m.Module)
	assert.Equal(t, "sdk", m.SDK)
	assert.Equal(t, "go", m.Language)

	checks := cat.Checks()
	require.Len(t, checks, 2)
	assert.Equal(t, "check-readme", checks[0].Name)
	assert.Equal(t, "check-structure", checks[1].Name)

	gen, err := cat.Get("generate")
	require.NoError(t, err)
	assert.Equal(t, ReturnContext, gen.Descriptor.Returns)
	assert.True(t, gen.Descriptor.Parameters[0].Required)
	assert.False(t, gen.Descriptor.Parameters[1].Required)

	readme, err := cat.Get("check-readme")
	require.NoError(t, err)
	require.NotNil(t, readme.Exec)
	assert.Equal(t, "alpine:3.22", readme.Exec.Image)
	require.Len(t, readme.Exec.Steps, 1)
}

func TestParseManifest_InvalidModulePath(t *testing.T) {
	_, _, err := Load([]byte("module: \"not a module path!\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid module path")
}

func TestLoad_ExplicitRequiredPlusDefaultIsMalformed(t *testing.T) {
	manifest := `
module: github.com/acme/sdk-dev
operations:
  - name: check-readme
    tags: [check]
    handler: noop
    params:
      - name: source
        kind: Directory
        required: true
        from: sdk
`
	_, _, err := Load([]byte(manifest))
	var malformed *MalformedDeclarationError
	require.ErrorAs(t, err, &malformed)
}

func TestLoad_UnknownKind(t *testing.T) {
	manifest := `
module: github.com/acme/sdk-dev
operations:
  - name: check-readme
    handler: noop
    params:
      - name: source
        kind: Blob
        from: sdk
`
	_, _, err := Load([]byte(manifest))
	var malformed *MalformedDeclarationError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "unknown kind")
}

func TestLoad_ExecAndHandlerIsMalformed(t *testing.T) {
	manifest := `
module: github.com/acme/sdk-dev
operations:
  - name: check-readme
    handler: structure
    image: alpine:3.22
    exec:
      - ["true"]
`
	_, _, err := Load([]byte(manifest))
	var malformed *MalformedDeclarationError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, "both")
}
