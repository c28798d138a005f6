package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modcheck-dev/modcheck/internal/builtin"
	"github.com/modcheck-dev/modcheck/internal/catalog"
	"github.com/modcheck-dev/modcheck/internal/codegen"
	"github.com/modcheck-dev/modcheck/internal/config"
	"github.com/modcheck-dev/modcheck/internal/invoke"
	"github.com/modcheck-dev/modcheck/internal/sandbox"
	"github.com/modcheck-dev/modcheck/internal/storage"
	"github.com/modcheck-dev/modcheck/internal/workspace"
)

// host is the assembled harness for one command invocation: configuration,
// the anchor context, the loaded catalog, and the invoker around them.
type host struct {
	cfg      config.Config
	anchor   workspace.Context
	catalog  *catalog.Catalog
	manifest *catalog.Manifest
	invoker  *invoke.Invoker
}

// loadHost resolves the project root once and builds everything from it.
// Load-time catalog errors are fatal here, before any check is visible.
func loadHost() (*host, error) {
	anchor, err := workspace.New(rootFlag)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}

	cfg, err := config.Load(anchor.Root())
	if err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(anchor.Root(), cfg.ManifestPath)
	if manifestFlag != "" {
		manifestPath = manifestFlag
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading module manifest: %w", err)
	}
	cat, manifest, err := catalog.Load(data)
	if err != nil {
		return nil, err
	}

	engine := sandbox.NewLocalEngine(cfg.ContainerCLI, cfg.PullsPerMinute)

	var bridge *codegen.Bridge
	if cfg.GeneratorImage != "" {
		bridge = &codegen.Bridge{
			Generator: &codegen.ExecGenerator{
				Engine:  engine,
				Image:   cfg.GeneratorImage,
				Command: cfg.GeneratorCommand,
			},
			SourceSubPath: manifest.SDK,
		}
	}

	inv := invoke.New(cat, engine, builtin.Handlers(builtin.Config{
		Language: manifest.Language,
		Bridge:   bridge,
	}))
	inv.Timeout = cfg.InvocationTimeout

	return &host{cfg: cfg, anchor: anchor, catalog: cat, manifest: manifest, invoker: inv}, nil
}

// handlerOp returns the name of the manifest operation wired to the given
// built-in handler.
func (h *host) handlerOp(handler string) (string, error) {
	decl, ok := h.catalog.FindByHandler(handler)
	if !ok {
		return "", fmt.Errorf("manifest declares no operation with handler %q", handler)
	}
	return decl.Descriptor.Name, nil
}

// record persists results to the run history, best effort: a history
// write failure never changes a check's outcome.
func (h *host) record(ctx context.Context, results ...*invoke.Result) {
	store, err := storage.Open(filepath.Join(h.anchor.Root(), h.cfg.HistoryPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: run history unavailable: %v\n", err)
		return
	}
	defer store.Close()
	for _, r := range results {
		if err := store.Record(ctx, r); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: recording run: %v\n", err)
		}
	}
}
