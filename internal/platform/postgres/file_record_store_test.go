package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresFileRecordStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresFileRecordStore(db, nil), mock
}

func testRecords() []domain.FileRecord {
	date := time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC)
	return []domain.FileRecord{
		{ID: "a", Name: "notes.txt", SizeMB: 0.1, Type: "txt", Category: domain.CategoryOthers, Date: date, IsTextFile: true},
		{ID: "b", Name: "scan.png", SizeMB: 2.4, Type: "png", Category: domain.CategoryImages, Date: date.Add(time.Minute)},
	}
}

func TestLoad(t *testing.T) {
	s, mock := newMockStore(t)
	want := testRecords()

	rows := sqlmock.NewRows([]string{"id", "name", "size_mb", "type", "category", "date", "is_text_file"})
	for _, r := range want {
		rows.AddRow(r.ID, r.Name, r.SizeMB, r.Type, r.Category, r.Date, r.IsTextFile)
	}
	mock.ExpectQuery(regexp.QuoteMeta(selectRecordsQuery)).WithArgs("default").WillReturnRows(rows)

	got, err := s.Load(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_EmptySession(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectRecordsQuery)).WithArgs("none").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "size_mb", "type", "category", "date", "is_text_file"}))

	got, err := s.Load(context.Background(), "none")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoad_QueryError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectRecordsQuery)).WillReturnError(errors.New("connection reset"))

	_, err := s.Load(context.Background(), "default")
	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "load", storeErr.Operation)
}

func TestSave_ReplacesRowsInOrder(t *testing.T) {
	s, mock := newMockStore(t)
	records := testRecords()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteRecordsQuery)).WithArgs("default").
		WillReturnResult(sqlmock.NewResult(0, 3))
	for i, r := range records {
		mock.ExpectExec(regexp.QuoteMeta(insertRecordQuery)).
			WithArgs("default", r.ID, i, r.Name, r.SizeMB, r.Type, r.Category, r.Date, r.IsTextFile).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, s.Save(context.Background(), "default", records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_DiskFullIsQuotaError(t *testing.T) {
	s, mock := newMockStore(t)
	records := testRecords()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteRecordsQuery)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(insertRecordQuery)).
		WillReturnError(&pgconn.PgError{Code: diskFullCode, Message: "could not extend file"})
	mock.ExpectRollback()

	err := s.Save(context.Background(), "default", records)
	require.Error(t, err)
	assert.True(t, store.IsQuotaError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_InvalidRecordSkipsDatabase(t *testing.T) {
	s, mock := newMockStore(t)

	err := s.Save(context.Background(), "default", []domain.FileRecord{{ID: "x"}})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrInvalidEntity},
		{"check", &pgconn.PgError{Code: checkViolationCode}, store.ErrInvalidEntity},
		{"not null", &pgconn.PgError{Code: notNullViolationCode}, store.ErrInvalidEntity},
		{"disk full", &pgconn.PgError{Code: diskFullCode}, store.ErrStorageQuotaExceeded},
		{"program limit", &pgconn.PgError{Code: programLimitExceededCode}, store.ErrStorageQuotaExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, MapError(tt.err), tt.want)
		})
	}

	assert.NoError(t, MapError(nil))
	plain := errors.New("plain")
	assert.Equal(t, plain, MapError(plain))
}

func TestMaskURL(t *testing.T) {
	assert.Equal(t, "postgres://app:****@db:5432/studyquest",
		MaskURL("postgres://app:secret@db:5432/studyquest"))
	assert.Equal(t, "postgres://db/studyquest", MaskURL("postgres://db/studyquest"))
	assert.Equal(t, "postgres://app:****@db/studyquest?sslmode=disable",
		MaskURL("postgres://app:p%40ss%2Aword@db/studyquest?sslmode=disable"))
	assert.Equal(t, "postgres://app@db/studyquest", MaskURL("postgres://app@db/studyquest"))
	assert.NotContains(t, MaskURL("postgres://app:hunter2@db/studyquest"), "hunter2")
}
