package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modcheck-dev/modcheck/internal/catalog"
	"github.com/modcheck-dev/modcheck/internal/codegen"
	"github.com/modcheck-dev/modcheck/internal/invoke"
	"github.com/modcheck-dev/modcheck/internal/structure"
	"github.com/modcheck-dev/modcheck/internal/workspace"
)

func sdkTree(t *testing.T) (workspace.Context, string) {
	t.Helper()
	root := t.TempDir()
	sdk := filepath.Join(root, "sdk")
	for _, rel := range structure.RequiredPaths("go") {
		full := filepath.Join(sdk, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte("x\n"), 0644))
	}
	anchor, err := workspace.New(root)
	require.NoError(t, err)
	return anchor, sdk
}

func structureOp() catalog.OperationDescriptor {
	return catalog.OperationDescriptor{Name: "check-structure", Tags: []string{catalog.TagCheck}}
}

func TestStructureHandler_CompleteTree(t *testing.T) {
	anchor, sdk := sdkTree(t)
	source, err := workspace.New(sdk)
	require.NoError(t, err)

	h := Handlers(Config{Language: "go"})[HandlerStructure]
	result := h(context.Background(), structureOp(), invoke.Bound{
		Anchor: anchor,
		Dirs:   map[string]workspace.Context{"source": source},
	})
	assert.True(t, result.Succeeded())
}

func TestStructureHandler_MissingRuntimeManifest(t *testing.T) {
	anchor, sdk := sdkTree(t)
	require.NoError(t, os.Remove(filepath.Join(sdk, "runtime", "dagger.json")))
	source, err := workspace.New(sdk)
	require.NoError(t, err)

	h := Handlers(Config{Language: "go"})[HandlerStructure]
	result := h(context.Background(), structureOp(), invoke.Bound{
		Anchor: anchor,
		Dirs:   map[string]workspace.Context{"source": source},
	})
	assert.Equal(t, invoke.ExecutionFailed, result.Kind)
	assert.Contains(t, result.Message, "runtime/dagger.json")
	assert.Equal(t, 1, result.ExitCode())
}

// treeGenerator copies the committed sdk tree and applies edits, standing
// in for the external generator tool.
type treeGenerator struct {
	t     *testing.T
	extra map[string]string
}

func (g *treeGenerator) Generate(ctx context.Context, schema string, source workspace.Context) (workspace.Context, error) {
	out := g.t.TempDir()
	err := filepath.Walk(source.Root(), func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(source.Root(), path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		dest := filepath.Join(out, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		return os.WriteFile(dest, data, 0644)
	})
	if err != nil {
		return workspace.Context{}, err
	}
	for rel, content := range g.extra {
		dest := filepath.Join(out, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return workspace.Context{}, err
		}
		if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
			return workspace.Context{}, err
		}
	}
	return workspace.New(out)
}

func verifyOp() catalog.OperationDescriptor {
	return catalog.OperationDescriptor{Name: "check-generated", Tags: []string{catalog.TagCheck}}
}

func TestVerifyHandler_CleanTree(t *testing.T) {
	anchor, _ := sdkTree(t)
	schema := filepath.Join(anchor.Root(), "schema.json")
	require.NoError(t, os.WriteFile(schema, []byte("{}"), 0644))

	cfg := Config{
		Language: "go",
		Bridge: &codegen.Bridge{
			Generator:     &treeGenerator{t: t},
			SourceSubPath: "sdk",
		},
	}
	h := Handlers(cfg)[HandlerVerifyGenerated]
	result := h(context.Background(), verifyOp(), invoke.Bound{
		Anchor: anchor,
		Files:  map[string]string{"schema": schema},
	})
	assert.True(t, result.Succeeded(), "message: %s", result.Message)
}

func TestVerifyHandler_DriftNamesExactFile(t *testing.T) {
	anchor, _ := sdkTree(t)
	schema := filepath.Join(anchor.Root(), "schema.json")
	require.NoError(t, os.WriteFile(schema, []byte("{}"), 0644))

	cfg := Config{
		Language: "go",
		Bridge: &codegen.Bridge{
			Generator:     &treeGenerator{t: t, extra: map[string]string{"runtime/new_binding.go": "package dag\n"}},
			SourceSubPath: "sdk",
		},
	}
	h := Handlers(cfg)[HandlerVerifyGenerated]
	result := h(context.Background(), verifyOp(), invoke.Bound{
		Anchor: anchor,
		Files:  map[string]string{"schema": schema},
	})
	assert.Equal(t, invoke.Drift, result.Kind)
	assert.Equal(t, []string{"runtime/new_binding.go"}, result.ChangedPaths)
	assert.Equal(t, 1, result.ExitCode())
}

func TestGenerateHandler_ReturnsArtifacts(t *testing.T) {
	anchor, _ := sdkTree(t)
	schema := filepath.Join(anchor.Root(), "schema.json")
	require.NoError(t, os.WriteFile(schema, []byte("{}"), 0644))

	cfg := Config{
		Bridge: &codegen.Bridge{Generator: &treeGenerator{t: t}, SourceSubPath: "sdk"},
	}
	h := Handlers(cfg)[HandlerGenerate]
	result := h(context.Background(), catalog.OperationDescriptor{Name: "generate"}, invoke.Bound{
		Anchor: anchor,
		Files:  map[string]string{"schema": schema},
	})
	require.True(t, result.Succeeded())
	require.NotNil(t, result.Artifacts)
	assert.DirExists(t, result.Artifacts.Root())
}

func TestHandlers_NoBridgeIsNotImplemented(t *testing.T) {
	anchor, _ := sdkTree(t)
	h := Handlers(Config{Language: "go"})[HandlerVerifyGenerated]
	result := h(context.Background(), verifyOp(), invoke.Bound{
		Anchor: anchor,
		Files:  map[string]string{"schema": "whatever.json"},
	})
	assert.Equal(t, invoke.NotImplemented, result.Kind)
}
