// Command generate is the CLI driver surface (§6.4): it loads the
// timetable domain from Postgres, runs CO, BC, and PSO sequentially, and
// persists/notifies/exports each algorithm's best candidate. There is no
// HTTP request behind this — it is invoked directly, e.g. by a cron job
// or a deploy-time batch step.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/noah-isme/timetable-engine/internal/generator"
	"github.com/noah-isme/timetable-engine/internal/loader"
	"github.com/noah-isme/timetable-engine/internal/metrics"
	"github.com/noah-isme/timetable-engine/internal/repository"
	"github.com/noah-isme/timetable-engine/internal/service"
	"github.com/noah-isme/timetable-engine/pkg/cache"
	"github.com/noah-isme/timetable-engine/pkg/config"
	"github.com/noah-isme/timetable-engine/pkg/database"
	"github.com/noah-isme/timetable-engine/pkg/jobs"
	"github.com/noah-isme/timetable-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	reg := metrics.New()

	var sink generator.NotificationSink = generator.NewMemorySink()
	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis-backed features disabled", "error", err)
	} else {
		defer redisClient.Close()
		redisSink := generator.NewRedisSink(redisClient, "timetable:notifications")
		queuedSink := generator.NewQueuedSink(redisSink, jobs.QueueConfig{Workers: 2, Logger: logr})
		defer queuedSink.Close()
		sink = queuedSink
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, reg, 0, logr, true)
	}

	store := loader.NewPostgres(db)

	timeout := cfg.Algorithm.GenerationTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	gen := generator.New(store, store, sink, cfg.Algorithm, logr, reg, cacheSvc)
	outcomes, err := gen.Generate(ctx)
	if err != nil {
		logr.Sugar().Fatalw("generate failed", "error", err)
	}

	for _, o := range outcomes {
		logr.Sugar().Infow("algorithm run complete",
			"algorithm", o.Algorithm,
			"hard_cost", o.Cost.Hard,
			"soft_cost", o.Cost.Soft,
			"iterations", o.Iterations,
		)
	}

	if len(outcomes) == 0 {
		logr.Sugar().Error("no algorithm produced a result")
		os.Exit(1)
	}
}
