package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/automaton-query/internal/application"
	appai "github.com/bryanwahyu/automaton-query/internal/application/ai"
	appscans "github.com/bryanwahyu/automaton-query/internal/application/scans"
	"github.com/bryanwahyu/automaton-query/internal/config"
	domai "github.com/bryanwahyu/automaton-query/internal/domain/ai"
	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
	"github.com/bryanwahyu/automaton-query/internal/infra/ai/openai"
	"github.com/bryanwahyu/automaton-query/internal/infra/ai/prompt"
	mysqlp "github.com/bryanwahyu/automaton-query/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/automaton-query/internal/infra/db/postgres"
	"github.com/bryanwahyu/automaton-query/internal/infra/executor/local"
	"github.com/bryanwahyu/automaton-query/internal/infra/storage"
	"github.com/bryanwahyu/automaton-query/internal/middleware"
)

// App is the wired pipeline shared by the CLI and the dashboard.
type App struct {
	Scans    *appscans.Service
	AI       *appai.Service
	Checkers map[string]middleware.HealthChecker

	closers []func() error
}

// Close releases database connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// Build wires config into a ready Service. reg may be nil to skip metrics.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg prometheus.Registerer) (*App, error) {
	app := &App{Checkers: map[string]middleware.HealthChecker{}}

	store, err := app.recordStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Checkers["store"] = &middleware.StoreHealthChecker{Store: store}

	var metrics *appscans.Metrics
	if reg != nil {
		metrics = appscans.MustNewMetrics(reg)
	}

	svc := &appscans.Service{
		Planner: domain.NewPlanner(),
		Invoker: &appscans.ToolInvoker{
			Process:  local.NewRunner(),
			Policy:   cfg.RetryPolicy(),
			Commands: cfg.CommandOptions(),
			Metrics:  metrics,
			Logger:   &logger,
		},
		Store:   store,
		Log:     storage.NewLogFile(cfg.Storage.LogPath),
		Clock:   application.SystemClock{},
		Metrics: metrics,
		Logger:  &logger,
	}

	// init minio (opsional)
	if cfg.Minio.Enabled {
		archive, err := storage.NewArchive(ctx, storage.MinioOptions{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
			Prefix:    cfg.Minio.Prefix,
			LogPath:   cfg.Storage.LogPath,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		svc.Archive = archive
		logger.Info().Str("bucket", cfg.Minio.BucketName).Msg("record archive enabled")
	}
	app.Scans = svc

	var analyst domai.Client = prompt.Local{}
	if cfg.OpenAI.APIKey != "" {
		analyst = openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
		logger.Info().Str("model", cfg.OpenAI.Model).Msg("openai analyst enabled")
	} else {
		logger.Debug().Msg("openai api key not set, using local analyst")
	}
	app.AI = appai.NewService(analyst, store)

	return app, nil
}

func (a *App) recordStore(ctx context.Context, cfg *config.Config) (domain.RecordStore, error) {
	switch cfg.Storage.Driver {
	case config.DriverFile, "":
		return storage.NewFileStore(cfg.Storage.ResultsPath), nil

	case config.DriverMySQL:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		repo := mysqlp.NewRecordRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("mysql schema: %w", err)
		}
		a.Checkers["database"] = &middleware.DatabaseHealthChecker{DB: repo}
		return repo, nil

	case config.DriverPostgres:
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		repo := postgresp.NewRecordRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		a.Checkers["database"] = &middleware.DatabaseHealthChecker{DB: repo}
		return repo, nil

	default:
		return nil, fmt.Errorf("storage driver %q not supported", cfg.Storage.Driver)
	}
}
