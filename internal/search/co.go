package search

import (
	"context"

	"github.com/noah-isme/timetable-engine/internal/constructor"
	"github.com/noah-isme/timetable-engine/internal/domain"
	"github.com/noah-isme/timetable-engine/internal/evaluator"
	"go.uber.org/zap"
)

// COParams mirrors the reference constants exactly (§6.4).
type COParams struct {
	NumAnts       int
	NumIterations int
	Rho           float64 // evaporation rate
	Alpha         float64 // pheromone weight (reserved; bias is optional per §4.6)
	Beta          float64 // heuristic weight (reserved)
	Q             float64 // deposit constant
	Seed          int64
}

// DefaultCOParams returns the reference's fixed constants.
func DefaultCOParams() COParams {
	return COParams{NumAnts: 60, NumIterations: 10, Rho: 0.5, Alpha: 1, Beta: 2, Q: 100}
}

// COState is the ant-colony driver's state: a pheromone map keyed by
// activity code and the best candidate found so far.
type COState struct {
	model  *domain.Model
	params COParams
	logger *zap.Logger
	pool   *pool

	pheromone map[string]float64
	best      *domain.Candidate
	bestCost  evaluator.Cost
	hasBest   bool
}

// NewCO builds a fresh CO driver over model.
func NewCO(model *domain.Model, params COParams, logger *zap.Logger) *COState {
	return &COState{model: model, params: params, logger: logger, pool: newPool(logger)}
}

func (s *COState) InitPopulation(ctx context.Context) error {
	s.pheromone = make(map[string]float64, len(s.model.Activities))
	for _, a := range s.model.Activities {
		s.pheromone[a.Code] = 1.0
	}
	return s.runGeneration(ctx, 0)
}

func (s *COState) Iterate(ctx context.Context, iteration int) error {
	return s.runGeneration(ctx, iteration+1)
}

// runGeneration builds NumAnts candidates in parallel (§4.8), evaporates
// pheromone, deposits on the iteration/global best, and updates the
// tracked global best (§4.6).
func (s *COState) runGeneration(ctx context.Context, iteration int) error {
	rngs := seededRNGs(s.params.NumAnts, s.params.Seed+int64(iteration)*1009)
	results := s.pool.run(ctx, s.params.NumAnts, func(ctx context.Context, i int) any {
		cand, _, _ := constructor.Build(s.model, rngs[i], nil)
		cost := evaluator.Evaluate(s.model, cand)
		return candidateResult{cand, cost}
	})

	var iterBest *domain.Candidate
	var iterBestCost evaluator.Cost
	iterHasBest := false
	for _, r := range results {
		cr, ok := r.(candidateResult)
		if !ok {
			continue
		}
		if !iterHasBest || cr.cost.Total() < iterBestCost.Total() {
			iterBest, iterBestCost, iterHasBest = cr.candidate, cr.cost, true
		}
	}
	if !iterHasBest {
		return nil
	}

	for code := range s.pheromone {
		s.pheromone[code] *= 1 - s.params.Rho
	}
	deposit := s.params.Q / (1 + iterBestCost.Total())
	for _, sess := range iterBest.Sessions {
		s.pheromone[sess.ActivityCode] += deposit
	}

	if !s.hasBest || iterBestCost.Total() < s.bestCost.Total() {
		s.best, s.bestCost, s.hasBest = iterBest, iterBestCost, true
	}
	return nil
}

func (s *COState) BestOf() (*domain.Candidate, evaluator.Cost) { return s.best, s.bestCost }

type candidateResult struct {
	candidate *domain.Candidate
	cost      evaluator.Cost
}
