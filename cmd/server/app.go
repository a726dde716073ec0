package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/kioku-api/internal/config"
	"github.com/phrazzld/kioku-api/internal/curriculum"
	"github.com/phrazzld/kioku-api/internal/domain/srs"
	"github.com/phrazzld/kioku-api/internal/platform/database"
	"github.com/phrazzld/kioku-api/internal/platform/logger"
	"github.com/phrazzld/kioku-api/internal/platform/sqlstore"
	"github.com/phrazzld/kioku-api/internal/platform/tracing"
	"github.com/phrazzld/kioku-api/internal/scope"
	"github.com/phrazzld/kioku-api/internal/service/auth"
	"github.com/phrazzld/kioku-api/internal/service/card_review"
	"github.com/phrazzld/kioku-api/internal/service/progress"
	"github.com/phrazzld/kioku-api/internal/store"
	"go.opentelemetry.io/otel/trace"
)

// application holds the shared dependencies of the server so they can be
// wired once and closed together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	tracerProvider trace.TracerProvider
	curriculum     *curriculum.Curriculum

	cardStore        store.CardStore
	memoryStateStore store.MemoryStateStore
	reviewLogStore   store.ReviewLogStore
	scopeStore       store.ScopeStore

	levelResolver     *scope.LevelResolver
	jwtService        auth.JWTService
	cardReviewService card_review.CardReviewService
	progressService   progress.Service
}

// run loads configuration and either executes a migration command or serves
// until ctx is canceled.
func run(ctx context.Context, configPath, migrateCommand string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))

	db, dialect, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}()

	if migrateCommand != "" {
		return database.Migrate(ctx, db, dialect, migrateCommand, log)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, dialect, database.MigrateUp, log); err != nil {
			return err
		}
	}

	tp, err := tracing.Setup(cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	app, err := newApplication(cfg, log, db, dialect, tp)
	if err != nil {
		return err
	}
	if cfg.Database.SeedCurriculum {
		if err := app.seedCurriculum(ctx, time.Now().UTC()); err != nil {
			return err
		}
	}
	return app.Run(ctx)
}

// newApplication wires stores, resolvers and services over an open database.
func newApplication(
	cfg *config.Config,
	log *slog.Logger,
	db *sql.DB,
	dialect database.Dialect,
	tp trace.TracerProvider,
) (*application, error) {
	app := &application{
		config:         cfg,
		logger:         log,
		db:             db,
		tracerProvider: tp,
	}

	var err error
	app.curriculum, err = curriculum.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load curriculum: %w", err)
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	log.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	params, err := srs.NewParams(srs.ParamsConfig{
		Weights:          cfg.Scheduler.Weights,
		DesiredRetention: cfg.Scheduler.DesiredRetention,
		MaximumInterval:  cfg.Scheduler.MaximumInterval,
		LearningSteps:    cfg.Scheduler.LearningSteps,
		RelearningSteps:  cfg.Scheduler.RelearningSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure scheduler: %w", err)
	}
	srsService, err := srs.NewServiceWithParams(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	app.cardStore = sqlstore.NewCardStore(db, dialect, log)
	app.memoryStateStore = sqlstore.NewMemoryStateStore(db, dialect, log)
	app.reviewLogStore = sqlstore.NewReviewLogStore(db, dialect, log)
	app.scopeStore = sqlstore.NewScopeStore(db, dialect, log)

	app.levelResolver = scope.NewLevelResolver(app.scopeStore, app.cardStore, app.curriculum)
	resolver := scope.NewKindResolver(app.levelResolver, scope.NewDeckResolver(app.scopeStore, app.cardStore))

	app.cardReviewService = card_review.NewCardReviewService(
		card_review.Stores{
			DB:     db,
			Cards:  app.cardStore,
			States: app.memoryStateStore,
			Logs:   app.reviewLogStore,
		},
		resolver,
		srsService,
		log,
		card_review.WithTracerProvider(tp),
	)
	app.progressService = progress.NewService(progress.Deps{
		Cards:      app.cardStore,
		States:     app.memoryStateStore,
		Logs:       app.reviewLogStore,
		Scopes:     app.scopeStore,
		Resolver:   resolver,
		Curriculum: app.curriculum,
	}, log)

	log.Info("application initialized")
	return app, nil
}

// seedCurriculum inserts the curated kanji cards in a single transaction.
func (app *application) seedCurriculum(ctx context.Context, now time.Time) error {
	ctx = logger.WithLogger(ctx, app.logger)
	return store.RunInTransaction(ctx, app.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := curriculum.Seed(ctx, app.cardStore.WithTx(tx), app.curriculum, now); err != nil {
			return fmt.Errorf("failed to seed curriculum: %w", err)
		}
		return nil
	})
}

// Run serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
