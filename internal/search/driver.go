// Package search implements the three interchangeable population-based
// search strategies (§4.6): CO (ant-colony/greedy-randomized), BC
// (bee-colony), and PSO (particle-swarm). All three share the
// Constructor, the Neighborhood Operator, and the Evaluator; they differ
// only in population-level control logic, factored here as a common
// Driver interface (§9 redesign flag: "three near-duplicate drivers").
package search

import (
	"context"
	"math/rand"

	"github.com/noah-isme/timetable-engine/internal/domain"
	"github.com/noah-isme/timetable-engine/internal/evaluator"
)

// Driver is the common shape every search strategy implements: build an
// initial population, advance it by one iteration, and report the best
// candidate seen so far. State is opaque to the runner — each driver
// owns its own population/pheromone/velocity representation.
type Driver interface {
	InitPopulation(ctx context.Context) error
	Iterate(ctx context.Context, iteration int) error
	BestOf() (*domain.Candidate, evaluator.Cost)
}

// CancelFunc reports whether the run should stop at the current
// iteration boundary (§5: "cancellation is cooperative at iteration
// boundaries").
type CancelFunc func() bool

// RunResult is what every driver run produces.
type RunResult struct {
	Best      *domain.Candidate
	Cost      evaluator.Cost
	History   []float64 // best cost observed at the end of each iteration
	Iterations int
}

// Run drives a Driver through up to maxIterations iterations, checking
// cancel between each one, and returns the global best seen. The
// monotonicity testable property (§8) follows directly: History is built
// only from BestOf, which every driver only updates on strict
// improvement.
func Run(ctx context.Context, d Driver, maxIterations int, cancel CancelFunc) (RunResult, error) {
	if err := d.InitPopulation(ctx); err != nil {
		return RunResult{}, err
	}
	res := RunResult{}
	for i := 0; i < maxIterations; i++ {
		if cancel != nil && cancel() {
			break
		}
		select {
		case <-ctx.Done():
			best, cost := d.BestOf()
			res.Best, res.Cost, res.Iterations = best, cost, i
			return res, ctx.Err()
		default:
		}
		if err := d.Iterate(ctx, i); err != nil {
			return res, err
		}
		_, cost := d.BestOf()
		res.History = append(res.History, cost.Total())
		res.Iterations = i + 1
	}
	best, cost := d.BestOf()
	res.Best, res.Cost = best, cost
	return res, nil
}

// seededRNGs returns n independently seeded RNGs, one per worker, so
// concurrent population construction never contends on a shared source
// (§5).
func seededRNGs(n int, seed int64) []*rand.Rand {
	out := make([]*rand.Rand, n)
	for i := 0; i < n; i++ {
		out[i] = rand.New(rand.NewSource(seed + int64(i)*104729))
	}
	return out
}
