package mocks

import (
	"fmt"
	"sync"

	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/preview"
)

// MockPreviewRegistry records preview creation and releases.
type MockPreviewRegistry struct {
	mu          sync.Mutex
	Created     []string
	Released    []string
	ReleaseAlls int

	// CreateErr is returned from Create when set.
	CreateErr error

	// PerFile is returned from ReleaseFile.
	PerFile int
}

// Create implements ingest.PreviewRegistry.
func (m *MockPreviewRegistry) Create(fileID string, content domain.FileContent) (preview.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return preview.Handle{}, m.CreateErr
	}
	m.Created = append(m.Created, fileID)
	return preview.Handle{
		Token:     fmt.Sprintf("token-%d", len(m.Created)),
		FileID:    fileID,
		MediaType: content.MediaType,
		Data:      content.Data,
	}, nil
}

// ReleaseFile implements ingest.PreviewRegistry.
func (m *MockPreviewRegistry) ReleaseFile(fileID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Released = append(m.Released, fileID)
	return m.PerFile
}

// ReleaseAll implements ingest.PreviewRegistry.
func (m *MockPreviewRegistry) ReleaseAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseAlls++
	return 0
}

// ReleasedFiles returns the ids passed to ReleaseFile.
func (m *MockPreviewRegistry) ReleasedFiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Released...)
}
