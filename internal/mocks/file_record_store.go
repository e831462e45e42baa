package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/store"
)

// MockFileRecordStore implements store.FileRecordStore for testing. Without
// custom functions it behaves like an in-memory store.
type MockFileRecordStore struct {
	LoadFn func(ctx context.Context, sessionID string) ([]domain.FileRecord, error)
	SaveFn func(ctx context.Context, sessionID string, records []domain.FileRecord) error

	mu       sync.Mutex
	sessions map[string][]domain.FileRecord

	SaveCalls struct {
		mu        sync.Mutex
		Count     int
		Snapshots [][]domain.FileRecord
	}
}

var _ store.FileRecordStore = (*MockFileRecordStore)(nil)

// NewMockFileRecordStore creates a mock pre-loaded with records for sessionID.
func NewMockFileRecordStore(sessionID string, records []domain.FileRecord) *MockFileRecordStore {
	m := &MockFileRecordStore{}
	if records != nil {
		m.sessions = map[string][]domain.FileRecord{sessionID: slices.Clone(records)}
	}
	return m
}

// Load implements store.FileRecordStore.
func (m *MockFileRecordStore) Load(ctx context.Context, sessionID string) ([]domain.FileRecord, error) {
	if m.LoadFn != nil {
		return m.LoadFn(ctx, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	records := slices.Clone(m.sessions[sessionID])
	if records == nil {
		records = []domain.FileRecord{}
	}
	return records, nil
}

// Save implements store.FileRecordStore.
func (m *MockFileRecordStore) Save(ctx context.Context, sessionID string, records []domain.FileRecord) error {
	m.SaveCalls.mu.Lock()
	m.SaveCalls.Count++
	m.SaveCalls.Snapshots = append(m.SaveCalls.Snapshots, slices.Clone(records))
	m.SaveCalls.mu.Unlock()

	if m.SaveFn != nil {
		return m.SaveFn(ctx, sessionID, records)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = make(map[string][]domain.FileRecord)
	}
	m.sessions[sessionID] = slices.Clone(records)
	return nil
}

// SaveCount returns the number of Save calls.
func (m *MockFileRecordStore) SaveCount() int {
	m.SaveCalls.mu.Lock()
	defer m.SaveCalls.mu.Unlock()
	return m.SaveCalls.Count
}

// LastSaved returns the most recent snapshot passed to Save.
func (m *MockFileRecordStore) LastSaved() []domain.FileRecord {
	m.SaveCalls.mu.Lock()
	defer m.SaveCalls.mu.Unlock()
	if len(m.SaveCalls.Snapshots) == 0 {
		return nil
	}
	return m.SaveCalls.Snapshots[len(m.SaveCalls.Snapshots)-1]
}
