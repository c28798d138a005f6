// Package sandbox defines the isolated execution boundary operation bodies
// run behind, and a local container-CLI implementation of it.
//
// The engine is a collaborator, not part of the discovery core: it accepts
// an image plus ordered exec steps and mounted contexts, and reports exit
// status and output trees. Everything above it treats a non-zero exit as a
// check outcome and a provisioning error as broken tooling; the two must
// never be conflated.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/modcheck-dev/modcheck/internal/workspace"
)

// RunSpec describes one sandboxed run.
type RunSpec struct {
	// Image is the container image reference.
	Image string

	// Steps are executed in order inside the same container filesystem.
	// Execution stops at the first failing step.
	Steps [][]string

	// Mounts maps a container path to the host context mounted there,
	// read-only.
	Mounts map[string]workspace.Context

	// FileMounts maps a container path to a single host file, read-only.
	FileMounts map[string]string

	// OutputMounts lists container paths whose contents are captured
	// after the run and returned as fresh contexts.
	OutputMounts []string

	// Timeout bounds the whole run, pull included. Zero means the
	// caller's context deadline alone applies.
	Timeout time.Duration
}

// RunResult is the outcome of a run that the engine managed to start.
type RunResult struct {
	// ExitCode is the exit status of the first failing step, or zero.
	ExitCode int

	// StderrTail holds the last portion of stderr, enough for a CI log
	// to say what failed without shipping the whole stream.
	StderrTail string

	// OutputMounts holds a context per requested output path.
	OutputMounts map[string]workspace.Context
}

// Engine runs sandboxed exec steps. A non-zero exit is NOT an error: it
// comes back inside RunResult. The error return is reserved for runs the
// engine could not start or complete for infrastructure reasons.
type Engine interface {
	Run(ctx context.Context, spec RunSpec) (*RunResult, error)
}

// ProvisionError indicates the sandbox itself could not be provisioned
// (image pull failure, missing container runtime, mount setup failure).
// Callers map it to an infrastructure failure, distinct from a check that
// ran and failed.
type ProvisionError struct {
	Image string
	Err   error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning sandbox (image %s): %v", e.Image, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }
