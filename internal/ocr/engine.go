package ocr

import (
	"context"
	"errors"

	"github.com/phrazzld/studyquest/internal/domain"
)

var (
	// ErrLanguageUnavailable is returned when the language model is not installed.
	ErrLanguageUnavailable = errors.New("ocr language model unavailable")

	// ErrEngineReleased is returned when a released engine is used again.
	ErrEngineReleased = errors.New("ocr engine already released")

	// ErrNoPages is returned when a PDF rasterizes to nothing.
	ErrNoPages = errors.New("no pages rendered")
)

// Engine recognizes text in one file. Engines are not reusable across
// extractions; callers must Release every engine they acquire.
type Engine interface {
	// LoadLanguage prepares the language model, e.g. "eng" or "eng+deu".
	LoadLanguage(ctx context.Context, lang string) error

	// Recognize returns the raw recognized text of content.
	Recognize(ctx context.Context, content domain.FileContent) (string, error)

	// Release frees everything the engine holds. It is safe to call twice.
	Release() error
}

// Factory creates engines.
type Factory interface {
	Acquire(ctx context.Context) (Engine, error)
}
