package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/clindevdep/RSS/internal/config"
	"github.com/clindevdep/RSS/internal/domain"
	"github.com/clindevdep/RSS/internal/fingerprint"
	"github.com/clindevdep/RSS/internal/infrastructure/email"
	"github.com/clindevdep/RSS/internal/infrastructure/inoreader"
	"github.com/clindevdep/RSS/internal/infrastructure/scheduler"
	"github.com/clindevdep/RSS/internal/infrastructure/storage"
	"github.com/clindevdep/RSS/internal/logging"
	"github.com/clindevdep/RSS/internal/ports"
	"github.com/clindevdep/RSS/internal/render"
	"github.com/clindevdep/RSS/internal/scoring"
	"github.com/clindevdep/RSS/internal/usecase"
)

// Application wires configuration into the curation pipeline and its
// lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	scheduler *usecase.Scheduler
	closeDB   func() error
}

// New builds a runnable application instance. Configuration or wiring
// problems are fatal here, before any durable state is touched.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	engine := fingerprint.NewEngine()

	tracker, newsletters, closeDB, err := buildStores(ctx, cfg, engine)
	if err != nil {
		return nil, err
	}

	model := scoring.DefaultModel()
	if path := cfg.Curation.TopicModelPath; path != "" {
		model, err = scoring.LoadModel(path)
		if err != nil {
			return nil, err
		}
	}
	scorer, err := scoring.NewScorer(model)
	if err != nil {
		return nil, err
	}
	baseLogger.Info("topic model loaded", "version", scorer.ModelVersion())

	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, err
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      inoreader.NewScanner(nil, cfg.Source.ListURL, cfg.Source.Cookie),
		Tracker:     tracker,
		Newsletters: newsletters,
		Scorer:      scorer,
		Renderer:    renderer,
		Sender: email.NewSender(
			cfg.Email.Host, cfg.Email.Port,
			cfg.Email.Username, cfg.Email.Password,
			cfg.Email.From, cfg.Email.Recipient,
		),
		Logger: logging.Component(baseLogger, "pipeline"),
		Settings: domain.GenerationSettings{
			MinScoreThreshold: cfg.Curation.MinScoreThreshold,
			ArticlesPerRun:    cfg.Curation.ArticlesPerRun,
			PriorityRatio:     cfg.Curation.PriorityRatio,
			RetentionDays:     cfg.Curation.RetentionDays,
		},
		FetchLimit:      cfg.Source.FetchLimit,
		ActiveHourStart: cfg.Schedule.ActiveHourStart,
		ActiveHourEnd:   cfg.Schedule.ActiveHourEnd,
	})

	driver := scheduler.NewIntervalScheduler(cfg.Schedule.Interval)
	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		scheduler: usecase.NewScheduler(driver, pipeline, logging.Component(baseLogger, "scheduler"), cfg.Schedule.Location()),
		closeDB:   closeDB,
	}, nil
}

func buildStores(ctx context.Context, cfg config.Config, engine *fingerprint.Engine) (ports.SentStore, ports.NewsletterStore, func() error, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.Storage.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		store := storage.NewPostgresStore(db, engine)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return store, store, db.Close, nil

	case config.BackendFile:
		store, err := storage.OpenFileStore(cfg.Storage.StatePath, engine)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, func() error { return nil }, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// Run starts the recurring schedule and blocks until the context is
// cancelled or a termination signal arrives.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("digest scheduler started",
		"interval", a.cfg.Schedule.Interval,
		"active_hours", fmt.Sprintf("%02d:00-%02d:00", a.cfg.Schedule.ActiveHourStart, a.cfg.Schedule.ActiveHourEnd))

	<-ctx.Done()

	if err := a.scheduler.Stop(context.Background()); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}
	if a.closeDB != nil {
		if err := a.closeDB(); err != nil {
			a.logger.Warn("close storage", "error", err)
		}
	}
	return nil
}
