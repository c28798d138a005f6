package invoke

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/modcheck-dev/modcheck/internal/workspace"
)

// DefaultParallelism bounds concurrent check runs when the caller does not
// say otherwise.
const DefaultParallelism = 4

// RunChecks invokes every named check concurrently with bounded
// parallelism. Each check gets its own invocation (and therefore its own
// derived contexts and sandbox); a failure in one never aborts the others.
// Results come back in the order the names were given.
func RunChecks(ctx context.Context, inv *Invoker, names []string, anchor workspace.Context, parallelism int) []*Result {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	sem := semaphore.NewWeighted(int64(parallelism))

	results := make([]*Result, len(names))
	var wg sync.WaitGroup

	for i, name := range names {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context gone: report the remaining checks as timed out
			// rather than hanging or dropping them silently.
			results[i] = Failf(name, Timeout, "check run canceled before start: %v", err)
			continue
		}

		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := inv.Invoke(ctx, name, nil, anchor)
			if err != nil {
				result = Failf(name, InfrastructureError, "%v", err)
			}
			results[i] = result
		}(i, name)
	}

	wg.Wait()
	return results
}

// WorstExitCode folds a result set into the CLI's aggregate exit code: the
// highest band observed wins.
func WorstExitCode(results []*Result) int {
	worst := 0
	for _, r := range results {
		if code := r.ExitCode(); code > worst {
			worst = code
		}
	}
	return worst
}
