package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/generation"
)

// MockGenerator implements generation.Generator for testing
type MockGenerator struct {
	// GenerateFlashcardsFn allows test cases to mock the GenerateFlashcards behavior
	GenerateFlashcardsFn func(ctx context.Context, text string) (domain.FlashcardBatch, error)

	// Default response values
	Batch domain.FlashcardBatch
	Err   error

	// Call tracking for verification
	GenerateFlashcardsCalls struct {
		mu       sync.Mutex
		Count    int
		Texts    []string
		Contexts []context.Context
	}
}

var _ generation.Generator = (*MockGenerator)(nil)

// GenerateFlashcards implements the generation.Generator interface
func (m *MockGenerator) GenerateFlashcards(ctx context.Context, text string) (domain.FlashcardBatch, error) {
	m.GenerateFlashcardsCalls.mu.Lock()
	m.GenerateFlashcardsCalls.Count++
	m.GenerateFlashcardsCalls.Texts = append(m.GenerateFlashcardsCalls.Texts, text)
	m.GenerateFlashcardsCalls.Contexts = append(m.GenerateFlashcardsCalls.Contexts, ctx)
	m.GenerateFlashcardsCalls.mu.Unlock()

	if m.GenerateFlashcardsFn != nil {
		return m.GenerateFlashcardsFn(ctx, text)
	}
	return m.Batch, m.Err
}

// CallCount returns the number of GenerateFlashcards calls.
func (m *MockGenerator) CallCount() int {
	m.GenerateFlashcardsCalls.mu.Lock()
	defer m.GenerateFlashcardsCalls.mu.Unlock()
	return m.GenerateFlashcardsCalls.Count
}

// NewMockGeneratorWithBatch creates a MockGenerator that returns batch
func NewMockGeneratorWithBatch(batch domain.FlashcardBatch) *MockGenerator {
	return &MockGenerator{Batch: batch}
}

// NewMockGeneratorWithError creates a MockGenerator that returns the specified error
func NewMockGeneratorWithError(err error) *MockGenerator {
	return &MockGenerator{Err: err}
}

// SampleBatch returns a full batch of distinct cards.
func SampleBatch() domain.FlashcardBatch {
	return domain.FlashcardBatch{
		{Question: "What does mitochondria produce?", Answer: "ATP"},
		{Question: "Where does photosynthesis occur?", Answer: "In the chloroplasts"},
		{Question: "What is osmosis?", Answer: "Diffusion of water across a membrane"},
		{Question: "What carries genetic information?", Answer: "DNA"},
		{Question: "What is the basic unit of life?", Answer: "The cell"},
	}
}
