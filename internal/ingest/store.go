package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/events"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/preview"
	"github.com/phrazzld/studyquest/internal/store"
)

// Upload is one file received from the client.
type Upload struct {
	Name      string
	MediaType string
	Data      []byte
}

// IngestResult reports the records created by one Ingest call. Warning is
// set when the metadata could not be persisted.
type IngestResult struct {
	Records []domain.FileRecord `json:"records"`
	Warning string              `json:"warning,omitempty"`
}

// DeleteResult reports the outcome of Delete.
type DeleteResult struct {
	Deleted          bool   `json:"deleted"`
	ReleasedPreviews int    `json:"releasedPreviews"`
	Warning          string `json:"warning,omitempty"`
}

// PreviewRegistry issues preview handles for files and drops them again.
type PreviewRegistry interface {
	Create(fileID string, content domain.FileContent) (preview.Handle, error)
	ReleaseFile(fileID string) int
	ReleaseAll() int
}

// Gauge receives the current number of records.
type Gauge interface {
	Set(float64)
}

// Counter counts persistence warnings.
type Counter interface {
	Inc()
}

// Config holds the store's limits.
type Config struct {
	SessionID      string
	MaxUploadBytes int64
}

// Option customizes a Store.
type Option func(*Store)

// WithEmitter publishes mutations to emitter.
func WithEmitter(emitter events.EventEmitter) Option {
	return func(s *Store) { s.emitter = emitter }
}

// WithMetrics reports the record count and storage warnings.
func WithMetrics(files Gauge, warnings Counter) Option {
	return func(s *Store) {
		s.filesGauge = files
		s.warnings = warnings
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store holds the session's file records and in-memory content.
type Store struct {
	cfg      Config
	meta     store.FileRecordStore
	previews PreviewRegistry
	emitter  events.EventEmitter
	logger   *slog.Logger
	now      func() time.Time

	filesGauge Gauge
	warnings   Counter

	// saveMu orders snapshot writes after the mutations that produced them.
	saveMu   sync.Mutex
	mu       sync.RWMutex
	records  []domain.FileRecord
	contents map[string]domain.FileContent
}

// NewStore creates a Store persisting through meta. previews may be nil.
func NewStore(meta store.FileRecordStore, previews PreviewRegistry, cfg Config, log *slog.Logger, opts ...Option) *Store {
	if meta == nil {
		panic("metadata store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.SessionID == "" {
		cfg.SessionID = "default"
	}
	s := &Store{
		cfg:      cfg,
		meta:     meta,
		previews: previews,
		logger:   log.With("component", "ingest", "session_id", cfg.SessionID),
		now:      time.Now,
		records:  []domain.FileRecord{},
		contents: make(map[string]domain.FileContent),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest validates every upload, then appends one record per upload and
// registers its content. An invalid upload rejects the whole call before
// any state changes.
func (s *Store) Ingest(ctx context.Context, uploads []Upload) (IngestResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(uploads) == 0 {
		return IngestResult{}, ErrNoUploads
	}
	for _, u := range uploads {
		if err := s.validate(u); err != nil {
			log.WarnContext(ctx, "upload rejected", "name", u.Name, "error", err)
			return IngestResult{}, err
		}
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	now := s.now()
	added := make([]domain.FileRecord, 0, len(uploads))
	contents := make([]domain.FileContent, 0, len(uploads))
	for _, u := range uploads {
		id, err := uuid.NewV7()
		if err != nil {
			return IngestResult{}, fmt.Errorf("generate file id: %w", err)
		}
		record, err := domain.NewFileRecord(id.String(), u.Name, int64(len(u.Data)), now)
		if err != nil {
			return IngestResult{}, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
		}
		added = append(added, *record)
		contents = append(contents, domain.FileContent{
			FileID:    record.ID,
			Name:      record.Name,
			MediaType: u.MediaType,
			Data:      bytes.Clone(u.Data),
		})
	}

	s.mu.Lock()
	s.records = append(s.records, added...)
	for _, c := range contents {
		s.contents[c.FileID] = c
	}
	snapshot := slices.Clone(s.records)
	s.mu.Unlock()

	for _, r := range added {
		log.InfoContext(ctx, "file ingested",
			"file_id", r.ID,
			"name", r.Name,
			"type", r.Type,
			"category", r.Category,
			"size_mb", r.SizeMB,
			"is_text_file", r.IsTextFile)
	}

	result := IngestResult{Records: added}
	result.Warning = s.persist(ctx, snapshot)
	s.publish(ctx, events.TypeFileIngested, events.FileIngestedPayload{Records: added})
	return result, nil
}

// Delete removes the record, its content and every preview handle for id.
// Deleting an unknown id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) (DeleteResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if id == "" {
		return DeleteResult{}, domain.ErrEmptyFileID
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	idx := slices.IndexFunc(s.records, func(r domain.FileRecord) bool { return r.ID == id })
	_, hadContent := s.contents[id]
	delete(s.contents, id)
	if idx >= 0 {
		s.records = slices.Delete(s.records, idx, idx+1)
	}
	snapshot := slices.Clone(s.records)
	s.mu.Unlock()

	var released int
	if s.previews != nil {
		released = s.previews.ReleaseFile(id)
	}

	if idx < 0 {
		log.DebugContext(ctx, "delete of unknown file ignored",
			"file_id", id,
			"had_content", hadContent)
		return DeleteResult{ReleasedPreviews: released}, nil
	}

	log.InfoContext(ctx, "file deleted", "file_id", id, "released_previews", released)

	result := DeleteResult{Deleted: true, ReleasedPreviews: released}
	result.Warning = s.persist(ctx, snapshot)
	s.publish(ctx, events.TypeFileDeleted, events.FileDeletedPayload{FileID: id})
	return result, nil
}

// CreatePreview issues a preview handle for id. It holds the mutation lock
// across the content lookup and registration, so a concurrent Delete either
// runs first and the request fails, or runs after and releases the handle.
func (s *Store) CreatePreview(ctx context.Context, id string) (preview.Handle, error) {
	if id == "" {
		return preview.Handle{}, domain.ErrEmptyFileID
	}
	if s.previews == nil {
		return preview.Handle{}, ErrPreviewsDisabled
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if _, ok := s.Record(id); !ok {
		return preview.Handle{}, fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	content, ok := s.Content(id)
	if !ok {
		return preview.Handle{}, fmt.Errorf("%w: %s", ErrContentUnavailable, id)
	}

	handle, err := s.previews.Create(id, content)
	if err != nil {
		return preview.Handle{}, fmt.Errorf("create preview for %s: %w", id, err)
	}

	logger.FromContextOrDefault(ctx, s.logger).DebugContext(ctx, "preview created",
		"file_id", id,
		"media_type", handle.MediaType,
		"bytes", len(handle.Data))
	return handle, nil
}

// Records returns a copy of the ordered record sequence.
func (s *Store) Records() []domain.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

// Search returns the records whose name contains query, ignoring case, in
// upload order. A blank query matches every record.
func (s *Store) Search(query string) []domain.FileRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	if query == "" {
		return slices.Clone(s.records)
	}
	matches := []domain.FileRecord{}
	for _, r := range s.records {
		if strings.Contains(strings.ToLower(r.Name), query) {
			matches = append(matches, r)
		}
	}
	return matches
}

// Record returns the record for id.
func (s *Store) Record(id string) (domain.FileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return domain.FileRecord{}, false
}

// Content returns the in-memory content for id. Records restored from the
// durable store have no content.
func (s *Store) Content(id string) (domain.FileContent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contents[id]
	return c, ok
}

// Restore replaces the in-memory sequence with the durable one.
func (s *Store) Restore(ctx context.Context) ([]domain.FileRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	records, err := s.meta.Load(ctx, s.cfg.SessionID)
	if err != nil {
		log.ErrorContext(ctx, "failed to restore file records", "error", err)
		return nil, fmt.Errorf("restore session %q: %w", s.cfg.SessionID, err)
	}

	s.mu.Lock()
	s.records = slices.Clone(records)
	if s.records == nil {
		s.records = []domain.FileRecord{}
	}
	n := len(s.records)
	s.mu.Unlock()

	if s.filesGauge != nil {
		s.filesGauge.Set(float64(n))
	}
	log.InfoContext(ctx, "file records restored", "records", n)
	return slices.Clone(records), nil
}

// Close ends the session: all content is dropped and every preview handle
// released. Records stay durable.
func (s *Store) Close(ctx context.Context) {
	s.mu.Lock()
	dropped := len(s.contents)
	s.contents = make(map[string]domain.FileContent)
	s.mu.Unlock()

	var released int
	if s.previews != nil {
		released = s.previews.ReleaseAll()
	}

	logger.FromContextOrDefault(ctx, s.logger).InfoContext(ctx, "session closed",
		"dropped_contents", dropped,
		"released_previews", released)
}

func (s *Store) validate(u Upload) error {
	if _, err := domain.NewFileRecord("pending", u.Name, int64(len(u.Data)), time.Time{}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(u.Data)) > s.cfg.MaxUploadBytes {
		return fmt.Errorf("%w: %s is %s, limit is %s", ErrUploadTooLarge, u.Name,
			units.HumanSize(float64(len(u.Data))), units.HumanSize(float64(s.cfg.MaxUploadBytes)))
	}
	return nil
}

// persist saves snapshot and returns a user-facing warning on failure.
func (s *Store) persist(ctx context.Context, snapshot []domain.FileRecord) string {
	if s.filesGauge != nil {
		s.filesGauge.Set(float64(len(snapshot)))
	}

	err := s.meta.Save(ctx, s.cfg.SessionID, snapshot)
	if err == nil {
		return ""
	}

	warning := "File list could not be saved; it will be lost when the session ends."
	if store.IsQuotaError(err) {
		warning = "Storage is full; the file list was kept for this session but could not be saved."
	}

	logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "failed to persist file records",
		"records", len(snapshot),
		"quota_exceeded", store.IsQuotaError(err),
		"error", err)
	if s.warnings != nil {
		s.warnings.Inc()
	}
	s.publish(ctx, events.TypeStorageWarning, events.StorageWarningPayload{Message: warning})
	return warning
}

func (s *Store) publish(ctx context.Context, eventType string, payload any) {
	if err := events.Emit(ctx, s.emitter, eventType, payload); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "failed to publish event",
			"event_type", eventType,
			"error", err)
	}
}
