// Package codegen bridges the catalog to the external code generator: it
// feeds a schema-introspection document to the generator and returns the
// generated tree as a context, subject to the same context rules as every
// other operation.
package codegen

import (
	"context"
	"fmt"

	"github.com/modcheck-dev/modcheck/internal/sandbox"
	"github.com/modcheck-dev/modcheck/internal/workspace"
)

// Generator turns a schema document plus the current source tree into a
// generated tree. The concrete generator is an external tool; this package
// only knows how to feed it and collect its output.
type Generator interface {
	Generate(ctx context.Context, schema string, source workspace.Context) (workspace.Context, error)
}

// ExecGenerator runs the generator as exec steps inside the sandbox
// engine, with the schema document and source tree mounted read-only and
// the output tree captured from a dedicated mount.
type ExecGenerator struct {
	Engine sandbox.Engine

	// Image is the generator tool image.
	Image string

	// Command is the generator invocation. The arguments may reference
	// the fixed container paths SchemaPath, SourcePath and OutputPath.
	Command []string
}

// Container paths the generator contract fixes.
const (
	SchemaPath = "/mnt/schema.json"
	SourcePath = "/mnt/source"
	OutputPath = "/out"
)

// Generate implements Generator. schema is the host path of the
// introspection document.
func (g *ExecGenerator) Generate(ctx context.Context, schema string, source workspace.Context) (workspace.Context, error) {
	result, err := g.Engine.Run(ctx, sandbox.RunSpec{
		Image:        g.Image,
		Steps:        [][]string{g.Command},
		Mounts:       map[string]workspace.Context{SourcePath: source},
		FileMounts:   map[string]string{SchemaPath: schema},
		OutputMounts: []string{OutputPath},
	})
	if err != nil {
		return workspace.Context{}, err
	}
	if result.ExitCode != 0 {
		return workspace.Context{}, fmt.Errorf("generator exited with status %d: %s",
			result.ExitCode, result.StderrTail)
	}
	out, ok := result.OutputMounts[OutputPath]
	if !ok {
		return workspace.Context{}, fmt.Errorf("generator produced no output mount at %s", OutputPath)
	}
	return out, nil
}

// Bridge resolves the source tree against the anchor and delegates to the
// generator. The anchor arrives from the caller like every other context;
// the bridge never derives it.
type Bridge struct {
	Generator Generator

	// SourceSubPath is the sub-path of the anchor holding the tree the
	// generator reads (typically the SDK sub-path from the manifest).
	SourceSubPath string
}

// Generate resolves the source tree and returns the generated tree.
func (b *Bridge) Generate(ctx context.Context, schema string, anchor workspace.Context) (workspace.Context, error) {
	source, err := workspace.Resolve(workspace.Context{}, anchor, b.SourceSubPath)
	if err != nil {
		return workspace.Context{}, err
	}
	return b.Generator.Generate(ctx, schema, source)
}
