package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "module.yaml", cfg.ManifestPath)
	assert.Equal(t, "docker", cfg.ContainerCLI)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, 10*time.Minute, cfg.InvocationTimeout)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".modcheck"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".modcheck", "config.yaml"), []byte(`
container_cli: podman
parallelism: 8
generator_image: generator:v2
generator_command: [codegen, --schema, /mnt/schema.json]
`), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "podman", cfg.ContainerCLI)
	assert.Equal(t, 8, cfg.Parallelism)
	assert.Equal(t, "generator:v2", cfg.GeneratorImage)
	assert.Equal(t, []string{"codegen", "--schema", "/mnt/schema.json"}, cfg.GeneratorCommand)

	// Untouched keys keep their defaults.
	assert.Equal(t, "module.yaml", cfg.ManifestPath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".modcheck"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".modcheck", "config.yaml"),
		[]byte("container_cli: podman\n"), 0644))

	t.Setenv("MODCHECK_CONTAINER_CLI", "nerdctl")
	t.Setenv("MODCHECK_INVOCATION_TIMEOUT", "90s")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "nerdctl", cfg.ContainerCLI)
	assert.Equal(t, 90*time.Second, cfg.InvocationTimeout)
}

func TestLoad_RejectsNonPositiveParallelism(t *testing.T) {
	t.Setenv("MODCHECK_PARALLELISM", "-1")
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestLoad_RejectsMalformedEnvValues(t *testing.T) {
	// A set-but-unparseable variable must error, not fall back to the
	// default as if it were unset.
	t.Run("parallelism", func(t *testing.T) {
		t.Setenv("MODCHECK_PARALLELISM", "many")
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MODCHECK_PARALLELISM")
	})

	t.Run("pulls per minute", func(t *testing.T) {
		t.Setenv("MODCHECK_PULLS_PER_MINUTE", "30ish")
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MODCHECK_PULLS_PER_MINUTE")
	})

	t.Run("invocation timeout", func(t *testing.T) {
		t.Setenv("MODCHECK_INVOCATION_TIMEOUT", "soon")
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MODCHECK_INVOCATION_TIMEOUT")
	})
}
