// Package app wires configuration, adapters and use cases into a
// runnable service.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"ComplianceRadar/internal/config"
	"ComplianceRadar/internal/dateutil"
	"ComplianceRadar/internal/handler"
	"ComplianceRadar/internal/infrastructure/fetch"
	"ComplianceRadar/internal/infrastructure/llm"
	"ComplianceRadar/internal/infrastructure/scheduler"
	"ComplianceRadar/internal/infrastructure/storage"
	"ComplianceRadar/internal/infrastructure/telegram"
	"ComplianceRadar/internal/logging"
	"ComplianceRadar/internal/ports"
	"ComplianceRadar/internal/source"
	"ComplianceRadar/internal/urlcanon"
	"ComplianceRadar/internal/usecase"
)

// Application holds the wired components and their lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	router    http.Handler
	ingestor  *usecase.Ingestor
	scheduler ports.Scheduler
	notifier  *telegram.Notifier
}

// New builds the application from configuration. The database handle is
// opened lazily; connectivity faults surface on first use.
func New(cfg config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.RequestTimeout}

	registry := source.NewRegistry()
	registry.Register(fetch.NewSFC(cfg.Sources.SFC, cfg.HTTP, httpClient, logging.Component(logger, "source.sfc")))
	registry.Register(fetch.NewHKMA(cfg.Sources.HKMA, cfg.HTTP, httpClient, logging.Component(logger, "source.hkma")))
	registry.Register(fetch.NewSEC(cfg.Sources.SEC, cfg.HTTP, httpClient, logging.Component(logger, "source.sec")))
	registry.Register(fetch.NewHKEXEnglish(cfg.Sources.HKEX, cfg.HTTP, httpClient, logging.Component(logger, "source.hkex-en")))
	registry.Register(fetch.NewHKEXChinese(cfg.Sources.HKEX, cfg.HTTP, httpClient, logging.Component(logger, "source.hkex-zh")))

	store := storage.NewPostgresStore(db, logging.Component(logger, "storage"))

	var summarizer ports.Summarizer
	if cfg.Summarizer.APIKey != "" {
		summarizer = llm.NewOpenAISummarizer(cfg.Summarizer, logging.Component(logger, "summarizer"))
	}

	ingestor := usecase.NewIngestor(usecase.IngestorDeps{
		Registry:   registry,
		Store:      store,
		Summarizer: summarizer,
		Logger:     logging.Component(logger, "ingestor"),
	})
	service := usecase.NewNewsService(store, logging.Component(logger, "service"))

	canon := urlcanon.New(logging.Component(logger, "urlcanon"))
	newsHandler := handler.NewNewsHandler(ingestor, service, canon, logging.Component(logger, "handler"))
	router := handler.NewRouter(newsHandler, cfg.Server.AllowedOrigins)

	app := &Application{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		router:   router,
		ingestor: ingestor,
		notifier: telegram.NewNotifier(cfg.Notifications.Telegram),
	}

	if cfg.Scheduler.Enabled {
		daily, err := scheduler.NewDailyScheduler(cfg.Scheduler.CronExpression)
		if err != nil {
			return nil, fmt.Errorf("build scheduler: %w", err)
		}
		app.scheduler = daily
	}

	return app, nil
}

// Run starts the scheduler and serves the HTTP API until the context is
// canceled.
func (a *Application) Run(ctx context.Context) error {
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx, a.scheduledRun); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer a.scheduler.Stop(context.Background())
	}

	srv := &http.Server{Addr: a.cfg.Server.Addr, Handler: a.router}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return a.db.Close()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	}
}

// scheduledRun is the recurring ingestion job: it ingests the current
// Hong Kong day with enrichment on and publishes a digest when a
// notification channel is configured. Failures are logged, never fatal.
func (a *Application) scheduledRun(t time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	day := t.In(dateutil.HKLocation())
	result, err := a.ingestor.RunForDate(ctx, day, usecase.IngestOptions{Enrich: true, User: "scheduler"})
	if err != nil {
		a.logger.Error("scheduled ingestion failed", "error", err)
		return
	}

	a.logger.Info("scheduled ingestion finished",
		"records", len(result.Records), "failedSources", len(result.Warnings))

	if !a.notifier.Configured() {
		return
	}
	digest := fmt.Sprintf("Compliance news for %s: %d new records, %d source failures",
		dateutil.FormatISO(day), len(result.Records), len(result.Warnings))
	if err := a.notifier.PublishDigest(ctx, digest); err != nil {
		a.logger.Warn("digest publish failed", "error", err)
	}
}
