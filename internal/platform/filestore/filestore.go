package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/docker/go-units"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/store"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	snapshotVersion = 1
	entity          = "file_record"
)

// ErrInvalidSession is returned for session IDs that cannot name a file.
var ErrInvalidSession = errors.New("invalid session id")

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// snapshot is the on-disk document.
type snapshot struct {
	Version   int                 `msgpack:"version"`
	SessionID string              `msgpack:"session_id"`
	SavedAt   time.Time           `msgpack:"saved_at"`
	Records   []domain.FileRecord `msgpack:"records"`
}

// Store keeps session snapshots under a directory.
type Store struct {
	dir    string
	quota  int64
	logger *slog.Logger
}

var _ store.FileRecordStore = (*Store)(nil)

// New creates a Store rooted at dir. quota is the maximum snapshot size in
// bytes; zero or less disables the limit.
func New(dir string, quota int64, log *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage dir required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{dir: abs, quota: quota, logger: log.With("component", "filestore")}, nil
}

// Load implements store.FileRecordStore.
func (s *Store) Load(ctx context.Context, sessionID string) ([]domain.FileRecord, error) {
	path, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.FileRecord{}, nil
		}
		return nil, store.NewStoreError(entity, "load", "read snapshot", err)
	}

	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, store.NewStoreError(entity, "load", "decode snapshot", err)
	}
	if snap.Records == nil {
		snap.Records = []domain.FileRecord{}
	}
	for i := range snap.Records {
		if snap.Records[i].Category == "" {
			snap.Records[i].Category = domain.CategoryOf(snap.Records[i].Type)
		}
	}

	logger.FromContextOrDefault(ctx, s.logger).DebugContext(ctx, "snapshot loaded",
		"session_id", sessionID,
		"records", len(snap.Records),
		"size", units.HumanSize(float64(len(data))))
	return snap.Records, nil
}

// Save implements store.FileRecordStore.
func (s *Store) Save(ctx context.Context, sessionID string, records []domain.FileRecord) error {
	path, err := s.path(sessionID)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(snapshot{
		Version:   snapshotVersion,
		SessionID: sessionID,
		SavedAt:   time.Now().UTC(),
		Records:   records,
	})
	if err != nil {
		return store.NewStoreError(entity, "save", "encode snapshot", err)
	}

	if s.quota > 0 && int64(len(data)) > s.quota {
		return store.NewStoreError(entity, "save",
			fmt.Sprintf("snapshot of %s exceeds quota of %s",
				units.HumanSize(float64(len(data))), units.HumanSize(float64(s.quota))),
			store.ErrStorageQuotaExceeded)
	}

	if err := writeAtomic(path, data); err != nil {
		if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
			return store.NewStoreError(entity, "save", "medium full", fmt.Errorf("%w: %v", store.ErrStorageQuotaExceeded, err))
		}
		return store.NewStoreError(entity, "save", "write snapshot", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).DebugContext(ctx, "snapshot saved",
		"session_id", sessionID,
		"records", len(records),
		"bytes", len(data))
	return nil
}

func (s *Store) path(sessionID string) (string, error) {
	if !sessionPattern.MatchString(sessionID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
	}
	return filepath.Join(s.dir, sessionID+".msgpack"), nil
}

func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
