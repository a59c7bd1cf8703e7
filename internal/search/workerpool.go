package search

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// pool runs a fixed number of independent "build or evaluate one
// candidate" tasks concurrently and blocks until all complete, adapted
// from the teacher's pkg/jobs.Queue goroutine/channel shape (§4.8): where
// that queue is a long-lived retrying dispatcher, a driver's per-iteration
// population is a one-shot fan-out/fan-in with no retry semantics — a
// task either returns a candidate or is dropped, the same as the
// reference's per-ant/per-particle behavior when construction fails.
type pool struct {
	workers int
	logger  *zap.Logger
}

func newPool(logger *zap.Logger) *pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := runtime.GOMAXPROCS(0)
	if w < 1 {
		w = 1
	}
	return &pool{workers: w, logger: logger}
}

// run executes task(i) for i in [0, n) across p.workers goroutines and
// returns the results in index order. Per §5, each task is expected to
// carry its own seeded RNG — the pool itself holds no shared mutable
// state across tasks.
func (p *pool) run(ctx context.Context, n int, task func(ctx context.Context, i int) any) []any {
	results := make([]any, n)
	if n == 0 {
		return results
	}
	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	workers := p.workers
	if workers > n {
		workers = n
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				results[i] = task(ctx, i)
			}
		}()
	}
	wg.Wait()
	return results
}
