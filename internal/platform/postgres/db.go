package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

const pingTimeout = 5 * time.Second

// Open opens a pgx-backed *sql.DB and verifies connectivity.
func Open(ctx context.Context, dbURL string, log *slog.Logger) (*sql.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database URL is empty: check your configuration")
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "postgres", "url", MaskURL(dbURL))

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		log.ErrorContext(ctx, "database ping failed", "error", err)

		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("database ping timed out after %s: %w", pingTimeout, err)
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return nil, fmt.Errorf("network error connecting to database: %w", err)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.InfoContext(ctx, "database connection established")
	return db, nil
}

// MaskURL hides the password of a database URL for logging.
func MaskURL(dbURL string) string {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	if parsed.User == nil {
		return dbURL
	}
	// Redacted writes the mask after escaping userinfo, so it survives as-is.
	return strings.Replace(parsed.Redacted(), ":xxxxx@", ":****@", 1)
}
