// Package main implements the StudyQuest server, which ingests study
// material, turns it into flashcards through an external language model and
// serves the study session over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/phrazzld/studyquest/internal/config"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/platform/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: ./config.yaml when present)")
	migrateOnly := flag.Bool("migrate", false, "apply database migrations and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *migrateOnly); err != nil {
		log.Fatalf("studyquest: %v", err)
	}
}

// run loads configuration, sets up logging and either migrates or serves
// until ctx is canceled.
func run(ctx context.Context, configPath string, migrateOnly bool) error {
	cfg, err := loadAppConfig(configPath)
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	if migrateOnly {
		return runMigrations(ctx, cfg, l)
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// loadAppConfig loads the application configuration from the environment
// and an optional config file.
func loadAppConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"storage_backend", cfg.Storage.Backend,
		"llm_provider", cfg.LLM.Provider)
	if cfg.Database.URL != "" {
		slog.Debug("Database configuration", "url", postgres.MaskURL(cfg.Database.URL))
	}
	if cfg.LLM.GeminiAPIKey != "" {
		slog.Debug("Gemini configuration", "api_key_present", true)
	}
	return cfg, nil
}

// runMigrations applies pending migrations against the configured database.
func runMigrations(ctx context.Context, cfg *config.Config, l *slog.Logger) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required to run migrations")
	}
	db, err := postgres.Open(ctx, cfg.Database.URL, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.Error("Error closing database connection", "error", err)
		}
	}()

	if err := postgres.Migrate(ctx, db, l); err != nil {
		return err
	}
	l.Info("Migrations applied")
	return nil
}
