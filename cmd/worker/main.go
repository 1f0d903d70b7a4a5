package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/myuon/flowit-sub001/cmd/worker/worker"
	"github.com/myuon/flowit-sub001/common/bootstrap"
	"github.com/myuon/flowit-sub001/common/cache"
	"github.com/myuon/flowit-sub001/common/condition"
	"github.com/myuon/flowit-sub001/common/db"
	"github.com/myuon/flowit-sub001/common/events"
	"github.com/myuon/flowit-sub001/common/executor"
	"github.com/myuon/flowit-sub001/common/httpclient"
	"github.com/myuon/flowit-sub001/common/node"
	"github.com/myuon/flowit-sub001/common/nodes"
	"github.com/myuon/flowit-sub001/common/repository"
	"github.com/myuon/flowit-sub001/common/schedule"
	"github.com/myuon/flowit-sub001/common/security"
	"github.com/myuon/flowit-sub001/common/server"
)

func main() {
	ctx := context.Background()

	components, err := bootstrap.Setup(ctx, "worker",
		bootstrap.WithDBInitHook(func(database *db.DB) error {
			return repository.EnsureSchema(ctx, database)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap worker: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	cfg := components.Config
	log := components.Logger

	// Node registry with the full built-in set; outbound HTTP goes through
	// the configured guards.
	registry := node.NewRegistry(log)
	guard := security.NewGuard(cfg.Security.AllowPrivateHosts, cfg.Security.BlockedHosts)
	nodes.RegisterAll(registry, nodes.Deps{
		Evaluator: condition.NewEvaluator(),
		HTTP:      httpclient.New(guard, log),
	})

	// Repositories and run infrastructure
	executionRepo := repository.NewExecutionRepository(components.DB)
	versionRepo := repository.NewVersionRepository(components.DB)
	workflowRepo := repository.NewWorkflowRepository(components.DB)
	logRepo := repository.NewExecutionLogRepository(components.DB)
	scheduleRepo := repository.NewScheduleRepository(components.DB)

	// Version DSL cache: shared through Redis when available, per-process
	// otherwise.
	var versionCache cache.Cache = cache.NewMemoryCache()
	if components.Redis != nil {
		versionCache = cache.NewRedisCache(components.Redis)
	}
	defer versionCache.Close()

	var publisher events.Publisher = events.Nop{}
	if components.Redis != nil {
		publisher = events.NewRedisPublisher(components.Redis, log)
	}

	w := worker.New(
		executionRepo,
		versionRepo,
		logRepo,
		versionCache,
		executor.New(registry, log),
		publisher,
		log,
		worker.Options{
			PollInterval:    cfg.Worker.PollInterval,
			BatchSize:       cfg.Worker.BatchSize,
			VersionCacheTTL: cfg.Worker.VersionCacheTTL,
		},
	)

	// Cron trigger scheduler rides inside the worker process
	var trigger *schedule.Scheduler
	if cfg.Scheduler.Enabled {
		trigger = schedule.New(scheduleRepo, workflowRepo, executionRepo,
			cfg.Scheduler.RefreshInterval, log)
		if err := trigger.Start(ctx); err != nil {
			log.Error("Failed to start schedule trigger scheduler", "error", err)
			os.Exit(1)
		}
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Health endpoint; Prometheus metrics ride the telemetry server
	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.HealthHandler("worker"))
	healthServer := server.New("worker", cfg.Service.Port, mux, log)
	go func() {
		if err := healthServer.Start(runCtx); err != nil {
			log.Error("Health server error", "error", err)
		}
	}()

	w.Run(runCtx)

	if trigger != nil {
		trigger.Stop()
	}
}
