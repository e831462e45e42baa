package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/store"
)

const (
	selectRecordsQuery = `SELECT id, name, size_mb, type, category, date, is_text_file
FROM file_records
WHERE session_id = $1
ORDER BY position`

	deleteRecordsQuery = `DELETE FROM file_records WHERE session_id = $1`

	insertRecordQuery = `INSERT INTO file_records
(session_id, id, position, name, size_mb, type, category, date, is_text_file)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

// PostgresFileRecordStore implements store.FileRecordStore on a
// file_records table keyed by session.
type PostgresFileRecordStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.FileRecordStore = (*PostgresFileRecordStore)(nil)

// NewPostgresFileRecordStore creates a store on an open database.
// If logger is nil, a default logger will be used.
func NewPostgresFileRecordStore(db *sql.DB, log *slog.Logger) *PostgresFileRecordStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresFileRecordStore{
		db:     db,
		logger: log.With(slog.String("component", "file_record_store")),
	}
}

// Load implements store.FileRecordStore.Load.
func (s *PostgresFileRecordStore) Load(ctx context.Context, sessionID string) ([]domain.FileRecord, error) {
	return loadRecords(ctx, s.db, sessionID)
}

func loadRecords(ctx context.Context, db store.DBTX, sessionID string) ([]domain.FileRecord, error) {
	rows, err := db.QueryContext(ctx, selectRecordsQuery, sessionID)
	if err != nil {
		return nil, store.NewStoreError("file_record", "load", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	records := []domain.FileRecord{}
	for rows.Next() {
		var r domain.FileRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.SizeMB, &r.Type, &r.Category, &r.Date, &r.IsTextFile); err != nil {
			return nil, store.NewStoreError("file_record", "load", "scan failed", MapError(err))
		}
		r.Date = r.Date.UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("file_record", "load", "iteration failed", MapError(err))
	}
	return records, nil
}

// Save implements store.FileRecordStore.Save. The session's rows are
// replaced in one transaction so a failed write leaves the old sequence.
func (s *PostgresFileRecordStore) Save(ctx context.Context, sessionID string, records []domain.FileRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for i := range records {
		if err := records[i].Validate(); err != nil {
			return store.NewStoreError("file_record", "save",
				fmt.Sprintf("record %d invalid", i), fmt.Errorf("%w: %v", store.ErrInvalidEntity, err))
		}
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteRecordsQuery, sessionID); err != nil {
			return MapError(err)
		}
		for i, r := range records {
			if _, err := tx.ExecContext(ctx, insertRecordQuery,
				sessionID, r.ID, i, r.Name, r.SizeMB, r.Type, r.Category, r.Date.UTC(), r.IsTextFile,
			); err != nil {
				return MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		log.WarnContext(ctx, "failed to save file records",
			"session_id", sessionID,
			"error", err)
		return store.NewStoreError("file_record", "save", "transaction failed", err)
	}

	log.DebugContext(ctx, "file records saved",
		"session_id", sessionID,
		"records", len(records))
	return nil
}
