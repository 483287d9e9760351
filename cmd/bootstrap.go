package cmd

import (
	"context"
	"fmt"
	"net/http"

	"roleboard/core/cache"
	"roleboard/core/config"
	"roleboard/core/database"
	"roleboard/core/logger"
	"roleboard/core/metrics"
	"roleboard/core/storage"
	"roleboard/core/telemetry"
	"roleboard/core/upstream"
	"roleboard/feature/holdrate"
	"roleboard/feature/integrity"
	"roleboard/feature/ranking"
	"roleboard/feature/scoring"
	"roleboard/feature/snapshot"
	"roleboard/feature/snapshot/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application holds the services shared by the server and the one-shot commands.
type application struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	metrics *metrics.Metrics
	cache   cache.Cache
	storage storage.Client
	archive *snapshot.Archive

	snapshots *snapshot.Service
	ranking   *ranking.Service
	holdRate  *holdrate.Service

	shutdownTracing func(context.Context) error
}

// bootstrap loads configuration and wires every service. The caller must
// Close the returned app.
func bootstrap(ctx context.Context) (*application, error) {
	// 1. Load Configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Initialize Logger
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)

	a := &application{cfg: cfg, logger: logg, metrics: metrics.New()}

	// 3. Tracing
	a.shutdownTracing, err = telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	// 4. Connect to Database
	a.db, err = database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(a.db, models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 5. Ranking cache
	a.cache = cache.New(cfg.Redis)
	if r, ok := a.cache.(*cache.Redis); ok {
		if err := r.Ping(ctx); err != nil {
			logg.Warn("Redis unreachable, ranking reads will hit the database", zap.Error(err))
		}
	}

	// 6. Raw-data archive (optional)
	if cfg.Storage.Enabled && cfg.Refresh.Archive {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			return nil, fmt.Errorf("failed to prepare bucket %s: %w", cfg.Storage.Bucket, err)
		}
		a.storage = client
		a.archive = snapshot.NewArchive(client, cfg.Storage.Bucket)
	}

	// 7. Score function
	scorer, err := scoring.New(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("failed to load score script: %w", err)
	}
	if _, ok := scorer.(scoring.Unavailable); ok {
		logg.Warn("No score script configured, geared characters will be stored as 0/0")
	}

	// 8. Services
	accounts := snapshot.NewAccounts(a.db)
	a.snapshots = snapshot.NewService(cfg.Refresh, snapshot.Deps{
		Accounts: accounts,
		Client:   upstream.NewClient(cfg.Upstream, &http.Client{Timeout: cfg.Upstream.Timeout}),
		Scorer:   scorer,
		Store:    snapshot.NewStore(a.db),
		Archive:  a.archive,
		Logger:   logg,
		Metrics:  a.metrics,
	})

	engine := ranking.NewEngine(a.db, cfg.Ranking)
	a.ranking = ranking.NewService(engine, a.cache, cfg.Redis.TTL, accounts, logg, a.metrics)
	a.snapshots.AddListener(a.ranking)
	accounts.AddListener(a.ranking)

	a.holdRate = holdrate.NewService(cfg.HoldRate, holdrate.NewAggregator(a.db, cfg.HoldRate.ActiveDays), logg, a.metrics)

	return a, nil
}

// Close releases the cache, database and tracer.
func (a *application) Close(ctx context.Context) {
	if r, ok := a.cache.(*cache.Redis); ok {
		_ = r.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// integrityDeps exposes what the integrity checks inspect.
func (a *application) integrityDeps() integrity.Deps {
	deps := integrity.Deps{
		DB:     a.db,
		Models: models.All(),
		Bucket: a.cfg.Storage.Bucket,
		Region: a.cfg.Storage.Region,
		Logger: a.logger,
	}
	if a.storage != nil {
		deps.Storage = a.storage
	}
	if r, ok := a.cache.(*cache.Redis); ok {
		deps.Cache = r
	}
	return deps
}
