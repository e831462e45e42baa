package store

import (
	"context"

	"github.com/phrazzld/studyquest/internal/domain"
)

// FileRecordStore persists the ordered FileRecord sequence of a session.
// Save replaces the whole sequence; implementations must keep order and
// round-trip every field.
type FileRecordStore interface {
	// Load returns the saved sequence, or an empty slice when the session
	// has never been saved.
	Load(ctx context.Context, sessionID string) ([]domain.FileRecord, error)

	// Save replaces the session's sequence. Returns an error wrapping
	// ErrStorageQuotaExceeded when the medium is full.
	Save(ctx context.Context, sessionID string, records []domain.FileRecord) error
}
