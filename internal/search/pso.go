package search

import (
	"context"
	"math/rand"

	"github.com/noah-isme/timetable-engine/internal/availability"
	"github.com/noah-isme/timetable-engine/internal/constructor"
	"github.com/noah-isme/timetable-engine/internal/domain"
	"github.com/noah-isme/timetable-engine/internal/evaluator"
	"go.uber.org/zap"
)

// PSOParams mirrors the reference's particle-swarm constants (§6.4). W,
// C1, C2 are fragment-selection rates, not true velocity coefficients —
// PSO here has no velocity vector, per §4.6 ("velocity is conceptual").
type PSOParams struct {
	NumParticles  int
	NumIterations int
	W, C1, C2     float64
	Seed          int64
	// RepairResidue runs a final Constructor pass over activities the
	// fragment-merge dropped (Open Question 2). Defaults true.
	RepairResidue bool
}

func DefaultPSOParams() PSOParams {
	return PSOParams{NumParticles: 60, NumIterations: 10, W: 0.5, C1: 1.5, C2: 2.0, RepairResidue: true}
}

type particle struct {
	candidate *domain.Candidate
	cost      evaluator.Cost
	personalBest     *domain.Candidate
	personalBestCost evaluator.Cost
}

// PSOState is the particle-swarm driver's state.
type PSOState struct {
	model  *domain.Model
	params PSOParams
	logger *zap.Logger
	pool   *pool

	particles []particle
	best      *domain.Candidate
	bestCost  evaluator.Cost
	hasBest   bool
}

func NewPSO(model *domain.Model, params PSOParams, logger *zap.Logger) *PSOState {
	return &PSOState{model: model, params: params, logger: logger, pool: newPool(logger)}
}

func (s *PSOState) InitPopulation(ctx context.Context) error {
	rngs := seededRNGs(s.params.NumParticles, s.params.Seed)
	results := s.pool.run(ctx, s.params.NumParticles, func(ctx context.Context, i int) any {
		cand, _, _ := constructor.Build(s.model, rngs[i], nil)
		cost := evaluator.Evaluate(s.model, cand)
		return particle{candidate: cand, cost: cost, personalBest: cand, personalBestCost: cost}
	})
	s.particles = make([]particle, 0, len(results))
	for _, r := range results {
		if p, ok := r.(particle); ok {
			s.particles = append(s.particles, p)
			s.trackBest(p)
		}
	}
	return nil
}

func (s *PSOState) trackBest(p particle) {
	if !s.hasBest || p.personalBestCost.Total() < s.bestCost.Total() {
		s.best, s.bestCost, s.hasBest = p.personalBest, p.personalBestCost, true
	}
}

func (s *PSOState) Iterate(ctx context.Context, iteration int) error {
	globalBest := s.best
	rngs := seededRNGs(len(s.particles), s.params.Seed+int64(iteration)*911+5)
	results := s.pool.run(ctx, len(s.particles), func(ctx context.Context, i int) any {
		return s.mergeParticle(s.particles[i], globalBest, rngs[i])
	})
	for i, r := range results {
		if p, ok := r.(particle); ok {
			s.particles[i] = p
			s.trackBest(p)
		}
	}
	return nil
}

// mergeParticle rebuilds one particle as the disjoint union of three
// fragments (§4.6): a subset of the current particle at rate W, a subset
// of its personal best at rate C1, a subset of the global best at rate
// C2. Each fragment is accepted session-by-session, only if it does not
// conflict with whatever has already been committed. Optionally repairs
// any activity the merge dropped (Open Question 2).
func (s *PSOState) mergeParticle(p particle, globalBest *domain.Candidate, rng *rand.Rand) particle {
	ix := availability.New()
	var merged []domain.ScheduledSession

	mergeFragment := func(sessions []domain.ScheduledSession, rate float64) {
		order := rng.Perm(len(sessions))
		for _, idx := range order {
			sess := sessions[idx]
			if rng.Float64() > clamp01(rate) {
				continue
			}
			if !ix.CanPlace(sess.Teacher, sess.Room, sess.Day, sess.Periods, sess.Subgroups) {
				continue
			}
			ix.Commit(sess.Teacher, sess.Room, sess.Day, sess.Periods, sess.Subgroups)
			merged = append(merged, sess)
		}
	}

	mergeFragment(p.candidate.Sessions, s.params.W)
	mergeFragment(p.personalBest.Sessions, s.params.C1)
	if globalBest != nil {
		mergeFragment(globalBest.Sessions, s.params.C2)
	}

	if s.params.RepairResidue {
		merged = s.repairResidue(merged, ix, rng)
	}

	cand := &domain.Candidate{Sessions: merged}
	cost := evaluator.Evaluate(s.model, cand)

	next := particle{candidate: cand, cost: cost, personalBest: p.personalBest, personalBestCost: p.personalBestCost}
	if cost.Total() < p.personalBestCost.Total() {
		next.personalBest, next.personalBestCost = cand, cost
	}
	return next
}

// repairResidue places any activity entirely absent from merged via a
// single Constructor pass, restricted to the remaining free occupancy.
// The reference never does this (Open Question 2); doing it strictly
// improves fitness and never removes an already-merged session.
func (s *PSOState) repairResidue(merged []domain.ScheduledSession, ix availability.Indices, rng *rand.Rand) []domain.ScheduledSession {
	placedCount := map[string]int{}
	placedSubgroups := map[string]map[string]bool{}
	for _, sess := range merged {
		placedCount[sess.ActivityCode]++
		if sess.IsSplit {
			if placedSubgroups[sess.ActivityCode] == nil {
				placedSubgroups[sess.ActivityCode] = map[string]bool{}
			}
			for _, sg := range sess.Subgroups {
				placedSubgroups[sess.ActivityCode][sg] = true
			}
		}
	}
	for _, act := range s.model.Activities {
		if placedCount[act.Code] > 0 {
			continue
		}
		newSessions, _ := buildOneMissingActivity(s.model, rng, ix, act)
		merged = append(merged, newSessions...)
	}
	return merged
}

// buildOneMissingActivity places a fully-unplaced activity using the
// shared Constructor logic (via constructor.PlaceOne per subgroup slice).
func buildOneMissingActivity(model *domain.Model, rng *rand.Rand, ix availability.Indices, act domain.Activity) ([]domain.ScheduledSession, bool) {
	if act.Type != domain.ActivityLab {
		sess, ok := constructor.PlaceOne(model, rng, ix, act, act.SubgroupIDs, false)
		if !ok {
			return nil, false
		}
		return []domain.ScheduledSession{sess}, true
	}
	var out []domain.ScheduledSession
	for _, sg := range act.SubgroupIDs {
		sess, ok := constructor.PlaceOne(model, rng, ix, act, []string{sg}, true)
		if !ok {
			return out, false
		}
		out = append(out, sess)
	}
	return out, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (s *PSOState) BestOf() (*domain.Candidate, evaluator.Cost) { return s.best, s.bestCost }
