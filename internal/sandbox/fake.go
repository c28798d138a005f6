package sandbox

import (
	"context"
	"sync"

	"github.com/modcheck-dev/modcheck/internal/workspace"
)

// Fake is a scripted Engine for tests. Results are keyed by image; the
// zero value reports exit 0 for everything. It records every spec it sees
// so tests can assert on mount wiring.
type Fake struct {
	mu      sync.Mutex
	results map[string]fakeOutcome
	specs   []RunSpec
}

type fakeOutcome struct {
	result *RunResult
	err    error
}

// NewFake returns an empty scripted engine.
func NewFake() *Fake {
	return &Fake{results: make(map[string]fakeOutcome)}
}

// Script sets the outcome for runs of the given image.
func (f *Fake) Script(image string, result *RunResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[image] = fakeOutcome{result: result, err: err}
}

// Specs returns a copy of every RunSpec passed to Run so far.
func (f *Fake) Specs() []RunSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RunSpec(nil), f.specs...)
}

// Run implements Engine.
func (f *Fake) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.specs = append(f.specs, spec)
	outcome, ok := f.results[spec.Image]
	f.mu.Unlock()

	if !ok {
		return &RunResult{ExitCode: 0, OutputMounts: map[string]workspace.Context{}}, nil
	}
	if outcome.err != nil {
		return nil, outcome.err
	}
	r := *outcome.result
	return &r, nil
}
