// Package config holds host-side configuration for modcheck. Module
// behavior (operations, parameters, defaults) lives in the module
// manifest; this package only configures the harness around it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved harness configuration. Precedence, lowest to
// highest: defaults, .modcheck/config.yaml under the project root,
// MODCHECK_* environment variables.
type Config struct {
	// ManifestPath is the module manifest location, relative to the
	// project root.
	// Default: "module.yaml"
	ManifestPath string `yaml:"manifest"`

	// ContainerCLI is the container runtime binary used by the local
	// sandbox engine.
	// Default: "docker"
	ContainerCLI string `yaml:"container_cli"`

	// Parallelism bounds concurrent check runs.
	// Default: 4
	Parallelism int `yaml:"parallelism"`

	// PullsPerMinute rate-limits image pulls across concurrent runs.
	// Zero disables the limit.
	// Default: 30
	PullsPerMinute int `yaml:"pulls_per_minute"`

	// InvocationTimeout bounds each invocation at the sandbox boundary.
	// Zero means no per-invocation deadline.
	// Default: 10m
	InvocationTimeout time.Duration `yaml:"invocation_timeout"`

	// HistoryPath is the run-history database, relative to the project
	// root.
	// Default: ".modcheck/history.db"
	HistoryPath string `yaml:"history"`

	// GeneratorImage is the codegen tool image. Empty leaves codegen
	// handlers unconfigured (they report NotImplemented).
	GeneratorImage string `yaml:"generator_image"`

	// GeneratorCommand is the codegen invocation inside the image.
	GeneratorCommand []string `yaml:"generator_command"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ManifestPath:      "module.yaml",
		ContainerCLI:      "docker",
		Parallelism:       4,
		PullsPerMinute:    30,
		InvocationTimeout: 10 * time.Minute,
		HistoryPath:       filepath.Join(".modcheck", "history.db"),
	}
}

// Load resolves the configuration for a project root.
func Load(root string) (Config, error) {
	cfg := Default()

	path := filepath.Join(root, ".modcheck", "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Parallelism <= 0 {
		return Config{}, fmt.Errorf("parallelism must be positive, got %d", cfg.Parallelism)
	}
	return cfg, nil
}

// applyEnv overlays MODCHECK_* variables. A variable that is set but does
// not parse is a hard error, same as a malformed config file.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("MODCHECK_MANIFEST"); v != "" {
		cfg.ManifestPath = v
	}
	if v := os.Getenv("MODCHECK_CONTAINER_CLI"); v != "" {
		cfg.ContainerCLI = v
	}
	if v := os.Getenv("MODCHECK_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing MODCHECK_PARALLELISM %q: %w", v, err)
		}
		cfg.Parallelism = n
	}
	if v := os.Getenv("MODCHECK_PULLS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing MODCHECK_PULLS_PER_MINUTE %q: %w", v, err)
		}
		cfg.PullsPerMinute = n
	}
	if v := os.Getenv("MODCHECK_INVOCATION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing MODCHECK_INVOCATION_TIMEOUT %q: %w", v, err)
		}
		cfg.InvocationTimeout = d
	}
	if v := os.Getenv("MODCHECK_HISTORY"); v != "" {
		cfg.HistoryPath = v
	}
	if v := os.Getenv("MODCHECK_GENERATOR_IMAGE"); v != "" {
		cfg.GeneratorImage = v
	}
	return nil
}
