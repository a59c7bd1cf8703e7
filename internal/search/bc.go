package search

import (
	"context"
	"math/rand"

	"github.com/noah-isme/timetable-engine/internal/constructor"
	"github.com/noah-isme/timetable-engine/internal/domain"
	"github.com/noah-isme/timetable-engine/internal/evaluator"
	"github.com/noah-isme/timetable-engine/internal/neighborhood"
	"go.uber.org/zap"
)

// BCParams mirrors the reference's bee-colony constants (§6.4).
type BCParams struct {
	NumEmployed   int
	NumOnlooker   int
	NumIterations int
	Limit         int // stagnation-trial threshold before scout replacement
	Seed          int64
}

func DefaultBCParams() BCParams {
	return BCParams{NumEmployed: 30, NumOnlooker: 30, NumIterations: 10, Limit: 5}
}

type foodSource struct {
	candidate *domain.Candidate
	cost      evaluator.Cost
	trials    int
}

// BCState is the bee-colony driver's state: a pool of food sources with a
// per-source stagnation-trial count (§4.6).
type BCState struct {
	model  *domain.Model
	params BCParams
	logger *zap.Logger
	pool   *pool

	sources  []foodSource
	best     *domain.Candidate
	bestCost evaluator.Cost
	hasBest  bool
	rng      *rand.Rand
}

func NewBC(model *domain.Model, params BCParams, logger *zap.Logger) *BCState {
	return &BCState{model: model, params: params, logger: logger, pool: newPool(logger), rng: rand.New(rand.NewSource(params.Seed + 7))}
}

func (s *BCState) InitPopulation(ctx context.Context) error {
	rngs := seededRNGs(s.params.NumEmployed, s.params.Seed)
	results := s.pool.run(ctx, s.params.NumEmployed, func(ctx context.Context, i int) any {
		cand, _, _ := constructor.Build(s.model, rngs[i], nil)
		cost := evaluator.Evaluate(s.model, cand)
		return foodSource{cand, cost, 0}
	})
	s.sources = make([]foodSource, 0, len(results))
	for _, r := range results {
		if fs, ok := r.(foodSource); ok {
			s.sources = append(s.sources, fs)
			s.trackBest(fs)
		}
	}
	return nil
}

func (s *BCState) trackBest(fs foodSource) {
	if !s.hasBest || fs.cost.Total() < s.bestCost.Total() {
		s.best, s.bestCost, s.hasBest = fs.candidate, fs.cost, true
	}
}

func (s *BCState) Iterate(ctx context.Context, iteration int) error {
	s.employedPhase(ctx, iteration)
	s.onlookerPhase(ctx, iteration)
	s.scoutPhase(ctx, iteration)
	return nil
}

func (s *BCState) employedPhase(ctx context.Context, iteration int) {
	rngs := seededRNGs(len(s.sources), s.params.Seed+int64(iteration)*131+1)
	results := s.pool.run(ctx, len(s.sources), func(ctx context.Context, i int) any {
		return s.mutateAndAccept(s.sources[i], rngs[i])
	})
	for i, r := range results {
		if fs, ok := r.(foodSource); ok {
			s.sources[i] = fs
			s.trackBest(fs)
		}
	}
}

// onlookerPhase has NumOnlooker bees each pick a source by roulette over
// inverted fitness (lower cost -> higher selection weight) and mutate it,
// applying the same accept rule as the employed phase (§4.6).
func (s *BCState) onlookerPhase(ctx context.Context, iteration int) {
	weights := make([]float64, len(s.sources))
	total := 0.0
	for i, fs := range s.sources {
		w := 1.0 / (1.0 + fs.cost.Total())
		weights[i] = w
		total += w
	}
	picks := make([]int, s.params.NumOnlooker)
	for k := 0; k < s.params.NumOnlooker; k++ {
		picks[k] = rouletteSelect(weights, total, s.rng)
	}
	rngs := seededRNGs(len(picks), s.params.Seed+int64(iteration)*271+2)
	results := s.pool.run(ctx, len(picks), func(ctx context.Context, k int) any {
		idx := picks[k]
		return onlookerResult{idx, s.mutateAndAccept(s.sources[idx], rngs[k])}
	})
	for _, r := range results {
		or, ok := r.(onlookerResult)
		if !ok {
			continue
		}
		s.sources[or.index] = or.source
		s.trackBest(or.source)
	}
}

type onlookerResult struct {
	index  int
	source foodSource
}

func rouletteSelect(weights []float64, total float64, rng *rand.Rand) int {
	if total <= 0 || len(weights) == 0 {
		return rng.Intn(max1(len(weights)))
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func (s *BCState) mutateAndAccept(fs foodSource, rng *rand.Rand) foodSource {
	neighbor := neighborhood.Apply(s.model, fs.candidate, rng)
	cost := evaluator.Evaluate(s.model, neighbor)
	if cost.Total() < fs.cost.Total() {
		return foodSource{neighbor, cost, 0}
	}
	return foodSource{fs.candidate, fs.cost, fs.trials + 1}
}

// scoutPhase rebuilds any source whose stagnation-trial count exceeds
// Limit from scratch via the Constructor, resetting its trials (§4.6).
func (s *BCState) scoutPhase(ctx context.Context, iteration int) {
	var scoutIdx []int
	for i, fs := range s.sources {
		if fs.trials > s.params.Limit {
			scoutIdx = append(scoutIdx, i)
		}
	}
	if len(scoutIdx) == 0 {
		return
	}
	rngs := seededRNGs(len(scoutIdx), s.params.Seed+int64(iteration)*577+3)
	results := s.pool.run(ctx, len(scoutIdx), func(ctx context.Context, k int) any {
		cand, _, _ := constructor.Build(s.model, rngs[k], nil)
		cost := evaluator.Evaluate(s.model, cand)
		return foodSource{cand, cost, 0}
	})
	for k, idx := range scoutIdx {
		if fs, ok := results[k].(foodSource); ok {
			s.sources[idx] = fs
			s.trackBest(fs)
		}
	}
}

func (s *BCState) BestOf() (*domain.Candidate, evaluator.Cost) { return s.best, s.bestCost }
