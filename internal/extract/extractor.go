package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/ocr"
	"github.com/phrazzld/studyquest/internal/platform/logger"
)

// Method names the strategy that produced a Result.
type Method string

// Extraction strategies.
const (
	MethodPDFText Method = "pdf-text"
	MethodPlain   Method = "plain-text"
	MethodOCR     Method = "ocr"
)

// Result is extracted text plus the strategy that produced it.
type Result struct {
	Text   string
	Method Method
}

// Extractor implements the extraction policy.
type Extractor struct {
	ocr      ocr.Factory
	language string
	logger   *slog.Logger
}

// NewExtractor creates an Extractor that falls back to engines from factory.
// An empty language selects "eng".
func NewExtractor(factory ocr.Factory, language string, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	if language == "" {
		language = "eng"
	}
	return &Extractor{ocr: factory, language: language, logger: log.With("component", "extract")}
}

// ExtractText returns the plain text of content or an *ExtractionError.
func (e *Extractor) ExtractText(ctx context.Context, content domain.FileContent) (string, error) {
	res, err := e.Extract(ctx, content)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Extract behaves like ExtractText and also reports the strategy used.
func (e *Extractor) Extract(ctx context.Context, content domain.FileContent) (Result, error) {
	log := logger.FromContextOrDefault(ctx, e.logger).With("file", content.Name)

	if isPDF(content) {
		text, err := pdfText(content.Data)
		switch {
		case err != nil:
			log.DebugContext(ctx, "pdf text layer unreadable, falling back to ocr", "error", err)
		case strings.TrimSpace(text) != "":
			log.InfoContext(ctx, "text extracted", "method", MethodPDFText, "chars", len(text))
			return Result{Text: strings.TrimSpace(text), Method: MethodPDFText}, nil
		default:
			log.DebugContext(ctx, "pdf has no text layer, falling back to ocr")
		}
	} else if isPlainText(content) {
		text, err := decodeText(content.Data)
		if err != nil {
			return Result{}, &ExtractionError{Reason: ReasonDecode, Err: err}
		}
		if strings.TrimSpace(text) == "" {
			return Result{}, &ExtractionError{Reason: ReasonEmpty}
		}
		log.InfoContext(ctx, "text extracted", "method", MethodPlain, "chars", len(text))
		return Result{Text: text, Method: MethodPlain}, nil
	}

	text, err := e.recognize(ctx, log, content)
	if err != nil {
		return Result{}, err
	}
	log.InfoContext(ctx, "text extracted", "method", MethodOCR, "chars", len(text))
	return Result{Text: text, Method: MethodOCR}, nil
}

// recognize runs one scoped OCR engine over content. The engine is released
// on every path once acquired.
func (e *Extractor) recognize(ctx context.Context, log *slog.Logger, content domain.FileContent) (text string, err error) {
	if e.ocr == nil {
		return "", &ExtractionError{Reason: ReasonRecognition, Err: errors.New("no recognition engine configured")}
	}

	engine, err := e.ocr.Acquire(ctx)
	if err != nil {
		return "", &ExtractionError{Reason: ReasonRecognition, Err: err}
	}
	defer func() {
		if relErr := engine.Release(); relErr != nil {
			log.WarnContext(ctx, "failed to release ocr engine", "error", relErr)
		}
	}()

	if err := engine.LoadLanguage(ctx, e.language); err != nil {
		return "", &ExtractionError{Reason: ReasonRecognition, Err: err}
	}

	raw, err := engine.Recognize(ctx, content)
	if err != nil {
		return "", &ExtractionError{Reason: ReasonRecognition, Err: err}
	}

	text = strings.TrimSpace(raw)
	if text == "" {
		return "", &ExtractionError{Reason: ReasonEmpty}
	}
	return text, nil
}
