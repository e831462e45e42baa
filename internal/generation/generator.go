package generation

import (
	"context"

	"github.com/phrazzld/studyquest/internal/domain"
)

// Generator defines the interface for generating flashcards from text.
// This interface serves as a boundary between the application core and
// external AI/LLM services.
type Generator interface {
	// GenerateFlashcards sends text to the generation service and returns
	// exactly domain.BatchSize cards.
	//
	// Errors are classified with the sentinels in errors.go:
	// ErrServiceUnavailable, ErrModelNotInstalled, ErrTimeout,
	// *TransportError and *ParseError.
	GenerateFlashcards(ctx context.Context, text string) (domain.FlashcardBatch, error)
}
