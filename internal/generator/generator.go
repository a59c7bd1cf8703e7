// Package generator implements generate() (§6.4): the CLI-driven entry
// point that loads the domain model, runs CO, BC, and PSO in sequence,
// and persists, scores, and notifies on each algorithm's best candidate.
// There is no HTTP surface here — this package is invoked directly by
// cmd/generate, the way the reference's generate() is a script entry
// point rather than a request handler.
package generator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/conflictcheck"
	"github.com/noah-isme/timetable-engine/internal/domain"
	"github.com/noah-isme/timetable-engine/internal/evaluator"
	"github.com/noah-isme/timetable-engine/internal/export"
	"github.com/noah-isme/timetable-engine/internal/loader"
	"github.com/noah-isme/timetable-engine/internal/metrics"
	"github.com/noah-isme/timetable-engine/internal/search"
	"github.com/noah-isme/timetable-engine/internal/semester"
	"github.com/noah-isme/timetable-engine/internal/service"
	"github.com/noah-isme/timetable-engine/pkg/config"
)

// Algorithm tags one of the three drivers, used both as the persisted
// algorithm tag and the metrics label.
type Algorithm string

const (
	AlgorithmCO  Algorithm = "CO"
	AlgorithmBC  Algorithm = "BC"
	AlgorithmPSO Algorithm = "PSO"
)

// RunOutcome summarizes one algorithm's completed run, returned from
// Generate for CLI reporting and test assertions.
type RunOutcome struct {
	Algorithm  Algorithm
	Cost       evaluator.Cost
	Iterations int
	PDFs       map[string][]byte // semester tag -> rendered PDF
}

// Generator wires the loader, the three search drivers, persistence, the
// notification sink, and PDF export into one generate() call.
type Generator struct {
	store  loader.Store
	writer loader.ResultWriter
	sink   NotificationSink
	cfg    config.AlgorithmConfig
	logger *zap.Logger
	reg    *metrics.Registry
	cache  *service.CacheService
}

// New constructs a Generator. cache may be nil (CacheService.Enabled()
// reports false for a nil receiver, so callers that skip Redis still work).
func New(store loader.Store, writer loader.ResultWriter, sink NotificationSink, cfg config.AlgorithmConfig, logger *zap.Logger, reg *metrics.Registry, cache *service.CacheService) *Generator {
	if sink == nil {
		sink = NewMemorySink()
	}
	return &Generator{store: store, writer: writer, sink: sink, cfg: cfg, logger: logger, reg: reg, cache: cache}
}

// Generate runs the full sequential pipeline and returns one RunOutcome
// per algorithm. A Data error from the loader aborts before any driver
// runs; a failure persisting one algorithm's results does not prevent the
// remaining algorithms from running.
func (g *Generator) Generate(ctx context.Context) ([]RunOutcome, error) {
	ld := loader.New(g.store, g.cfg.StudentsPerSubgroup, g.cfg.LabRoomCapacityCeiling)
	model, err := ld.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate: load model: %w", err)
	}

	specs := []struct {
		algo  Algorithm
		build func() search.Driver
		iters int
	}{
		{AlgorithmCO, func() search.Driver { return search.NewCO(model, g.coParams(), g.logger) }, g.cfg.COIterations},
		{AlgorithmBC, func() search.Driver { return search.NewBC(model, g.bcParams(), g.logger) }, g.cfg.BCIterations},
		{AlgorithmPSO, func() search.Driver { return search.NewPSO(model, g.psoParams(), g.logger) }, g.cfg.PSOIterations},
	}

	outcomes := make([]RunOutcome, 0, len(specs))
	for _, spec := range specs {
		outcome, err := g.runOne(ctx, model, spec.algo, spec.build(), spec.iters)
		if err != nil {
			if g.logger != nil {
				g.logger.Error("algorithm run failed", zap.String("algorithm", string(spec.algo)), zap.Error(err))
			}
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (g *Generator) runOne(ctx context.Context, model *domain.Model, algo Algorithm, driver search.Driver, iterations int) (RunOutcome, error) {
	start := time.Now()
	result, err := search.Run(ctx, driver, iterations, nil)
	if g.reg != nil {
		g.reg.ObserveIteration(string(algo), time.Since(start))
	}
	if err != nil {
		return RunOutcome{}, fmt.Errorf("%s run: %w", algo, err)
	}
	if result.Best == nil {
		return RunOutcome{}, fmt.Errorf("%s produced no candidate", algo)
	}

	if g.reg != nil {
		g.reg.SetBestCost(string(algo), "hard", result.Cost.Hard)
		g.reg.SetBestCost(string(algo), "soft", result.Cost.Soft)
	}

	bySemester := semester.Partition(result.Best)
	for tag, sessions := range bySemester {
		verdict := conflictcheck.Check(conflictcheck.Timetable{ID: tag, Algorithm: string(algo)}, sessions, nil)
		for _, d := range verdict {
			if g.reg != nil {
				g.reg.RecordConflictOutcome(string(d.Stage), string(d.Dimension))
			}
		}

		if g.writer != nil {
			if _, err := g.writer.CreateTimetable(ctx, tag, string(algo), sessions); err != nil {
				if g.logger != nil {
					g.logger.Error("persist timetable failed", zap.String("semester", tag), zap.String("algorithm", string(algo)), zap.Error(err))
				}
				continue
			}
			if err := g.writer.UpsertScore(ctx, tag, string(algo), result.Cost.Hard, result.Cost.Soft); err != nil && g.logger != nil {
				g.logger.Warn("upsert latest_score failed", zap.String("semester", tag), zap.Error(err))
			}
			if err := g.writer.InsertNotification(ctx, tag, string(algo), result.Cost.Hard, result.Cost.Soft); err != nil && g.logger != nil {
				g.logger.Warn("insert notification record failed", zap.String("semester", tag), zap.Error(err))
			}
		}

		if g.cache.Enabled() {
			scoreKey := fmt.Sprintf("latest_score:%s:%s", tag, algo)
			if err := g.cache.Set(ctx, scoreKey, result.Cost, 0); err != nil && g.logger != nil {
				g.logger.Warn("cache latest_score failed", zap.String("key", scoreKey), zap.Error(err))
			}
			verdictKey := fmt.Sprintf("conflict_verdict:%s:%s", tag, algo)
			if err := g.cache.Set(ctx, verdictKey, verdict, 10*time.Minute); err != nil && g.logger != nil {
				g.logger.Warn("cache conflict verdict failed", zap.String("key", verdictKey), zap.Error(err))
			}
		}

		_ = g.sink.Notify(ctx, Notification{
			Algorithm: string(algo),
			Semester:  tag,
			HardCost:  result.Cost.Hard,
			SoftCost:  result.Cost.Soft,
			CreatedAt: time.Now().UTC(),
		})
	}

	pdfs, err := export.RenderAll(result.Best, model.Days)
	if err != nil && g.logger != nil {
		g.logger.Warn("pdf export failed", zap.String("algorithm", string(algo)), zap.Error(err))
	}

	return RunOutcome{Algorithm: algo, Cost: result.Cost, Iterations: result.Iterations, PDFs: pdfs}, nil
}

func (g *Generator) coParams() search.COParams {
	p := search.DefaultCOParams()
	if g.cfg.COAnts > 0 {
		p.NumAnts = g.cfg.COAnts
	}
	if g.cfg.COIterations > 0 {
		p.NumIterations = g.cfg.COIterations
	}
	if g.cfg.CORho > 0 {
		p.Rho = g.cfg.CORho
	}
	if g.cfg.COAlpha > 0 {
		p.Alpha = g.cfg.COAlpha
	}
	if g.cfg.COBeta > 0 {
		p.Beta = g.cfg.COBeta
	}
	if g.cfg.COQ > 0 {
		p.Q = g.cfg.COQ
	}
	return p
}

func (g *Generator) bcParams() search.BCParams {
	p := search.DefaultBCParams()
	if g.cfg.BCEmployed > 0 {
		p.NumEmployed = g.cfg.BCEmployed
	}
	if g.cfg.BCOnlooker > 0 {
		p.NumOnlooker = g.cfg.BCOnlooker
	}
	if g.cfg.BCIterations > 0 {
		p.NumIterations = g.cfg.BCIterations
	}
	if g.cfg.BCLimit > 0 {
		p.Limit = g.cfg.BCLimit
	}
	return p
}

func (g *Generator) psoParams() search.PSOParams {
	p := search.DefaultPSOParams()
	if g.cfg.PSOParticles > 0 {
		p.NumParticles = g.cfg.PSOParticles
	}
	if g.cfg.PSOIterations > 0 {
		p.NumIterations = g.cfg.PSOIterations
	}
	if g.cfg.PSOInertia > 0 {
		p.W = g.cfg.PSOInertia
	}
	if g.cfg.PSOCognitive > 0 {
		p.C1 = g.cfg.PSOCognitive
	}
	if g.cfg.PSOSocial > 0 {
		p.C2 = g.cfg.PSOSocial
	}
	p.RepairResidue = g.cfg.PSORepairResidue
	return p
}
