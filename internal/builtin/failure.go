package builtin

import (
	"context"
	"errors"

	"github.com/modcheck-dev/modcheck/internal/invoke"
	"github.com/modcheck-dev/modcheck/internal/sandbox"
	"github.com/modcheck-dev/modcheck/internal/structure"
	"github.com/modcheck-dev/modcheck/internal/workspace"
)

// structureVerify is indirected for the structure handler.
var structureVerify = structure.Verify

// generatorFailure maps an error from the generator boundary onto the
// invocation failure taxonomy.
func generatorFailure(opName string, err error) *invoke.Result {
	var perr *workspace.PathResolutionError
	if errors.As(err, &perr) {
		return invoke.Failf(opName, invoke.PathResolution, "%v", perr)
	}
	var prov *sandbox.ProvisionError
	if errors.As(err, &prov) {
		return invoke.Failf(opName, invoke.InfrastructureError, "%v", prov)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return invoke.Failf(opName, invoke.Timeout, "generator deadline elapsed: %v", err)
	}
	return invoke.Failf(opName, invoke.InfrastructureError, "generator: %v", err)
}
