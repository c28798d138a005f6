// Package builtin provides the Go-implemented operation bodies that a
// module manifest may reference by handler name, alongside its sandboxed
// exec operations.
package builtin

import (
	"context"
	"strings"

	"github.com/modcheck-dev/modcheck/internal/catalog"
	"github.com/modcheck-dev/modcheck/internal/codegen"
	"github.com/modcheck-dev/modcheck/internal/invoke"
)

// Config carries what the built-in bodies need from the loaded module.
type Config struct {
	// Language is the manifest's declared source language, used by the
	// structural layout check.
	Language string

	// Bridge connects codegen handlers to the external generator. Nil
	// when the host has no generator configured; the codegen handlers
	// then report NotImplemented.
	Bridge *codegen.Bridge
}

// Handler names the manifest may reference.
const (
	HandlerStructure       = "structure"
	HandlerGenerate        = "generate"
	HandlerVerifyGenerated = "verify-generated"
)

// Handlers assembles the built-in handler table.
func Handlers(cfg Config) map[string]invoke.Handler {
	return map[string]invoke.Handler{
		HandlerStructure:       structureHandler(cfg),
		HandlerGenerate:        generateHandler(cfg),
		HandlerVerifyGenerated: verifyHandler(cfg),
	}
}

// structureHandler validates the persisted layout contract against the
// bound source tree. The required paths are data, not per-check logic; a
// missing path is a check failure citing the path, never an opaque error.
func structureHandler(cfg Config) invoke.Handler {
	return func(ctx context.Context, op catalog.OperationDescriptor, b invoke.Bound) *invoke.Result {
		source, ok := b.Dirs["source"]
		if !ok {
			source = b.Anchor
		}
		missing, err := structureVerify(source.Root(), cfg.Language)
		if err != nil {
			return invoke.Failf(op.Name, invoke.InfrastructureError, "%v", err)
		}
		if len(missing) > 0 {
			return invoke.Failf(op.Name, invoke.ExecutionFailed,
				"required paths missing under %s:\n  %s",
				source.Root(), strings.Join(missing, "\n  "))
		}
		return invoke.Success(op.Name)
	}
}

// generateHandler regenerates the tree from the bound schema document and
// returns it as the invocation's artifact context.
func generateHandler(cfg Config) invoke.Handler {
	return func(ctx context.Context, op catalog.OperationDescriptor, b invoke.Bound) *invoke.Result {
		if cfg.Bridge == nil {
			return invoke.Failf(op.Name, invoke.NotImplemented, "no generator configured for this host")
		}
		schema, ok := b.Files["schema"]
		if !ok {
			return invoke.Failf(op.Name, invoke.MissingArgument, "required parameter %q was not supplied", "schema")
		}
		generated, err := cfg.Bridge.Generate(ctx, schema, b.Anchor)
		if err != nil {
			return generatorFailure(op.Name, err)
		}
		result := invoke.Success(op.Name)
		result.Artifacts = &generated
		return result
	}
}

// verifyHandler regenerates and structurally diffs against the committed
// tree, reporting Drift with the changed paths rather than a bare boolean.
func verifyHandler(cfg Config) invoke.Handler {
	return func(ctx context.Context, op catalog.OperationDescriptor, b invoke.Bound) *invoke.Result {
		if cfg.Bridge == nil {
			return invoke.Failf(op.Name, invoke.NotImplemented, "no generator configured for this host")
		}
		schema, ok := b.Files["schema"]
		if !ok {
			return invoke.Failf(op.Name, invoke.MissingArgument, "required parameter %q was not supplied", "schema")
		}
		report, err := codegen.Verify(ctx, cfg.Bridge, schema, b.Anchor)
		if err != nil {
			return generatorFailure(op.Name, err)
		}
		if !report.Clean() {
			result := invoke.Failf(op.Name, invoke.Drift,
				"generated output differs from committed tree:\n%s", report.Summary())
			result.ChangedPaths = report.ChangedPaths()
			return result
		}
		return invoke.Success(op.Name)
	}
}
