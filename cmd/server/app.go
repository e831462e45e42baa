package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/studyquest/internal/config"
	"github.com/phrazzld/studyquest/internal/deck"
	"github.com/phrazzld/studyquest/internal/events"
	"github.com/phrazzld/studyquest/internal/extract"
	"github.com/phrazzld/studyquest/internal/generation"
	"github.com/phrazzld/studyquest/internal/ingest"
	"github.com/phrazzld/studyquest/internal/ocr"
	"github.com/phrazzld/studyquest/internal/pipeline"
	"github.com/phrazzld/studyquest/internal/platform/filestore"
	"github.com/phrazzld/studyquest/internal/platform/llm"
	"github.com/phrazzld/studyquest/internal/platform/metrics"
	"github.com/phrazzld/studyquest/internal/platform/postgres"
	"github.com/phrazzld/studyquest/internal/preview"
	"github.com/phrazzld/studyquest/internal/store"
	"github.com/phrazzld/studyquest/internal/study"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	metrics  *metrics.Collector
	emitter  *events.InMemoryEventEmitter
	previews *preview.Registry
	files    *ingest.Store
	pipeline *pipeline.Pipeline
	exporter *deck.Exporter

	maxUploadBytes int64
}

// appOption overrides a dependency, mainly for tests.
type appOption func(*appDeps)

type appDeps struct {
	generator generation.Generator
	extractor pipeline.TextExtractor
}

func withGenerator(g generation.Generator) appOption {
	return func(d *appDeps) { d.generator = g }
}

func withExtractor(e pipeline.TextExtractor) appOption {
	return func(d *appDeps) { d.extractor = e }
}

// newApplication wires every component from cfg. The durable file list is
// restored before it returns.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...appOption) (*application, error) {
	var deps appDeps
	for _, opt := range opts {
		opt(&deps)
	}

	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
		emitter: events.NewInMemoryEventEmitter(logger),
	}
	app.previews = preview.NewRegistry(logger)

	maxUpload, err := cfg.Storage.MaxUploadBytes()
	if err != nil {
		return nil, err
	}
	app.maxUploadBytes = maxUpload

	meta, err := app.setupStorage(ctx)
	if err != nil {
		return nil, err
	}

	app.files = ingest.NewStore(meta, app.previews, ingest.Config{
		SessionID:      cfg.Storage.SessionID,
		MaxUploadBytes: maxUpload,
	}, logger,
		ingest.WithEmitter(app.emitter),
		ingest.WithMetrics(app.metrics.StoredFiles, app.metrics.StorageWarnings),
	)
	if _, err := app.files.Restore(ctx); err != nil {
		// The session still works; uploads will try to persist again.
		logger.Error("Failed to restore file list, starting empty", "error", err)
	}

	generator := deps.generator
	if generator == nil {
		generator, err = llm.NewGenerator(ctx, cfg.LLM, logger)
		if err != nil {
			app.cleanup(ctx)
			return nil, err
		}
	}

	extractor := deps.extractor
	if extractor == nil {
		factory := ocr.NewTesseractFactory(ocr.ConfigFromApp(cfg.OCR), nil, logger)
		extractor = extract.NewExtractor(factory, cfg.OCR.Language, logger)
	}

	app.pipeline = pipeline.New(app.files, extractor, generator, study.NewNavigator(), logger,
		pipeline.WithEmitter(app.emitter),
		pipeline.WithMetrics(app.metrics),
	)

	format, err := deck.ParseFormat(cfg.Deck.Format, deck.FormatJSON)
	if err != nil {
		app.cleanup(ctx)
		return nil, err
	}
	sink, err := deck.NewDirSink(cfg.Deck.ExportDir, logger)
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to prepare deck export dir: %w", err)
	}
	app.exporter = deck.NewExporter(sink, format, logger)

	logger.Info("Application initialized successfully",
		"session_id", cfg.Storage.SessionID,
		"restored_files", len(app.files.Records()))
	return app, nil
}

// setupStorage opens the configured metadata backend.
func (app *application) setupStorage(ctx context.Context) (store.FileRecordStore, error) {
	cfg := app.config
	switch cfg.Storage.Backend {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.Database.URL, app.logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db, app.logger); err != nil {
			_ = db.Close()
			return nil, err
		}
		app.db = db
		return postgres.NewPostgresFileRecordStore(db, app.logger), nil
	case "file":
		quota, err := cfg.Storage.QuotaBytes()
		if err != nil {
			return nil, err
		}
		fs, err := filestore.New(cfg.Storage.Dir, quota, app.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open metadata store: %w", err)
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Run serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup ends the session and closes the database.
func (app *application) cleanup(ctx context.Context) {
	if app.files != nil {
		app.files.Close(ctx)
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}
	app.logger.Info("Application shutdown completed")
}
