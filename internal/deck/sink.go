package deck

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/phrazzld/studyquest/internal/platform/logger"
)

// Sink receives finished artifacts.
type Sink interface {
	Write(ctx context.Context, artifact *Artifact) error
}

// DirSink writes artifacts into a directory, replacing files atomically.
type DirSink struct {
	dir    string
	logger *slog.Logger
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string, log *slog.Logger) (*DirSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("export dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &DirSink{dir: dir, logger: log.With("component", "deck_sink")}, nil
}

// Path returns where an artifact with fileName is written.
func (s *DirSink) Path(fileName string) string {
	return filepath.Join(s.dir, filepath.Base(fileName))
}

// Write implements Sink.
func (s *DirSink) Write(ctx context.Context, artifact *Artifact) error {
	path := s.Path(artifact.FileName)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, artifact.Data, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "deck written",
		"path", path,
		"bytes", len(artifact.Data))
	return nil
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, artifact *Artifact) error

// Write implements Sink.
func (f SinkFunc) Write(ctx context.Context, artifact *Artifact) error {
	return f(ctx, artifact)
}
