package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	votepipeline "votary/contexts/ledger-core/vote-pipeline"
	"votary/contexts/ledger-core/vote-pipeline/adapters/memory"
	pipelinepostgres "votary/contexts/ledger-core/vote-pipeline/adapters/postgres"
	pipelineworkers "votary/contexts/ledger-core/vote-pipeline/application/workers"
	"votary/internal/platform/config"
	"votary/internal/platform/db"
	"votary/internal/platform/httpserver"
	"votary/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	relay         pipelineworkers.BroadcastRelay
	janitor       pipelineworkers.IdempotencyJanitor
	relayEnabled  bool
	sweepEnabled  bool
	pollInterval  time.Duration
	sweepInterval time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := pipelinepostgres.NewRepository(pg.DB, logger)

	// The unconfirmed-transaction pool is node-local state, not durable
	// storage, so it stays in process even when accounts live in postgres.
	pool := memory.NewStore(nil)

	module := votepipeline.NewModule(votepipeline.Dependencies{
		Accounts:              repo,
		Pool:                  pool,
		Journal:               repo,
		Idempotency:           repo,
		Outbox:                repo,
		Clock:                 pipelinepostgres.SystemClock{},
		IDGen:                 pipelinepostgres.UUIDGenerator{},
		VerifySecondPublicKey: cfg.VerifySecondPublicKey,
		IdempotencyTTL:        7 * 24 * time.Hour,
		QueueDepth:            cfg.SequencerQueueDepth,
		Logger:                logger,
	})

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewBus(cfg.BusBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := pipelinepostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		relay: pipelineworkers.BroadcastRelay{
			Outbox:    repo,
			Publisher: bus,
			Clock:     pipelinepostgres.SystemClock{},
			Topic:     cfg.BroadcastTopic,
			BatchSize: 100,
			Logger:    logger,
		},
		janitor: pipelineworkers.IdempotencyJanitor{
			Idempotency: repo,
			Clock:       pipelinepostgres.SystemClock{},
			Logger:      logger,
		},
		relayEnabled:  cfg.EnableBroadcastRelay,
		sweepEnabled:  cfg.EnableIdempotencySweep,
		pollInterval:  2 * time.Second,
		sweepInterval: time.Minute,
		logger:        logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"relay_enabled", w.relayEnabled,
		"sweep_enabled", w.sweepEnabled,
		"poll_interval", w.pollInterval.String(),
	)

	group, ctx := errgroup.WithContext(ctx)

	if w.relayEnabled {
		group.Go(func() error {
			return runEvery(ctx, w.pollInterval, w.relay.RunOnce)
		})
	}
	if w.sweepEnabled {
		group.Go(func() error {
			return runEvery(ctx, w.sweepInterval, w.janitor.RunOnce)
		})
	}
	return group.Wait()
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func runEvery(ctx context.Context, interval time.Duration, step func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := step(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
