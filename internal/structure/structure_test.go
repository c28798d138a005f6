package structure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeTree(t *testing.T, language string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range RequiredPaths(language) {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte("x\n"), 0644))
	}
	return root
}

func TestRequiredPaths_LanguageSpecialization(t *testing.T) {
	paths := RequiredPaths("go")
	assert.Contains(t, paths, "runtime/main.go")
	assert.Contains(t, paths, "runtime/runtime/dag/wrappers.go")

	paths = RequiredPaths("python")
	assert.Contains(t, paths, "runtime/main.py")

	// Unknown language: no guessed extensions, static entries remain.
	paths = RequiredPaths("cobol")
	assert.Contains(t, paths, "runtime/dagger.json")
	for _, p := range paths {
		assert.NotContains(t, p, "{{ext}}")
	}
}

func TestVerify_CompleteTree(t *testing.T) {
	root := completeTree(t, "go")
	missing, err := Verify(root, "go")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestVerify_MissingRuntimeManifest(t *testing.T) {
	root := completeTree(t, "go")
	require.NoError(t, os.Remove(filepath.Join(root, "runtime", "dagger.json")))

	missing, err := Verify(root, "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"runtime/dagger.json"}, missing)
}
