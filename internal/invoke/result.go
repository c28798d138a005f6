package invoke

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modcheck-dev/modcheck/internal/workspace"
)

// Status is the top-level outcome of an invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// FailureKind classifies a failed invocation. The kinds split into two
// bands: "the check logic failed" (ExecutionFailed, Drift, NotImplemented)
// and "the tooling broke" (everything else). CI callers rely on the split
// to tell a red build from a broken harness.
type FailureKind string

const (
	// ExecutionFailed: the sandboxed body ran and exited non-zero. The
	// expected way for a check to fail.
	ExecutionFailed FailureKind = "execution_failed"

	// Drift: freshly generated output differs from the committed tree.
	Drift FailureKind = "drift"

	// NotImplemented: the operation is declared but has no body. Reported
	// distinctly so an unimplemented check can never masquerade as a pass.
	NotImplemented FailureKind = "not_implemented"

	// InfrastructureError: the sandbox could not be provisioned.
	InfrastructureError FailureKind = "infrastructure_error"

	// Timeout: the invocation deadline elapsed.
	Timeout FailureKind = "timeout"

	// PathResolution: a default context's sub-path is absent under the
	// anchor.
	PathResolution FailureKind = "path_resolution"

	// MissingArgument: a required parameter was not supplied.
	MissingArgument FailureKind = "missing_argument"
)

// Result is the normalized outcome of one invocation. Results are owned by
// their invocation and never shared or reused across runs.
type Result struct {
	// ID uniquely identifies this invocation.
	ID string

	// Operation is the invoked operation's name.
	Operation string

	Status Status
	Kind   FailureKind

	// Message is the diagnostic payload: stderr tail, missing paths,
	// drift listing, or resolver detail.
	Message string

	// ChangedPaths lists differing relative paths for Drift failures.
	ChangedPaths []string

	// Artifacts holds the output tree for context-returning operations.
	Artifacts *workspace.Context

	StartedAt time.Time
	Duration  time.Duration
}

// Succeeded reports a clean pass.
func (r *Result) Succeeded() bool { return r.Status == StatusSuccess }

// ExitCode maps the result to the CLI contract: 0 success, 1 check logic
// failed, 2 tooling broken.
func (r *Result) ExitCode() int {
	if r.Status == StatusSuccess {
		return 0
	}
	switch r.Kind {
	case ExecutionFailed, Drift, NotImplemented:
		return 1
	default:
		return 2
	}
}

// Success builds a passing result for the named operation.
func Success(op string) *Result {
	return &Result{ID: uuid.NewString(), Operation: op, Status: StatusSuccess}
}

// Failf builds a failed result with a formatted diagnostic.
func Failf(op string, kind FailureKind, format string, args ...interface{}) *Result {
	return &Result{
		ID:        uuid.NewString(),
		Operation: op,
		Status:    StatusFailure,
		Kind:      kind,
		Message:   fmt.Sprintf(format, args...),
	}
}
