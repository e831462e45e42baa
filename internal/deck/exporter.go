package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/xuri/excelize/v2"
)

// Format selects the artifact encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

const (
	mediaTypeJSON = "application/json"
	mediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetName     = "Flashcards"
)

var (
	// ErrInvalidDeck is returned when an encoded deck fails schema validation.
	ErrInvalidDeck = errors.New("invalid deck")

	// ErrUnsupportedFormat is returned for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported deck format")
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Artifact is one exported deck.
type Artifact struct {
	FileName  string
	MediaType string
	Format    Format
	Data      []byte
	Deck      domain.FlashcardDeck
}

// ParseFormat accepts "" as the default format.
func ParseFormat(s string, fallback Format) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return fallback, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// SanitizeName replaces every non-alphanumeric character with "_".
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "_")
}

// Exporter builds artifacts and hands them to a Sink. It keeps nothing
// after SaveDeck returns.
type Exporter struct {
	sink   Sink
	format Format
	now    func() time.Time
	logger *slog.Logger
}

// NewExporter creates an Exporter. A nil sink only builds artifacts.
func NewExporter(sink Sink, format Format, log *slog.Logger) *Exporter {
	if format == "" {
		format = FormatJSON
	}
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{
		sink:   sink,
		format: format,
		now:    time.Now,
		logger: log.With("component", "deck"),
	}
}

// SaveDeck exports batch under name in the default format.
func (e *Exporter) SaveDeck(ctx context.Context, name string, batch domain.FlashcardBatch) (*Artifact, error) {
	return e.SaveDeckAs(ctx, name, batch, e.format)
}

// SaveDeckAs exports batch under name. A blank name or an empty batch is a
// silent no-op returning nil, nil.
func (e *Exporter) SaveDeckAs(ctx context.Context, name string, batch domain.FlashcardBatch, format Format) (*Artifact, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	if strings.TrimSpace(name) == "" || len(batch) == 0 {
		log.DebugContext(ctx, "deck export skipped",
			"blank_name", strings.TrimSpace(name) == "",
			"cards", len(batch))
		return nil, nil
	}

	deck, err := domain.NewFlashcardDeck(name, batch, e.now())
	if err != nil {
		return nil, err
	}

	jsonData, err := json.MarshalIndent(deck, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode deck: %w", err)
	}
	if err := ValidateJSON(jsonData); err != nil {
		return nil, err
	}

	artifact := &Artifact{Deck: *deck, Format: format}
	base := SanitizeName(deck.Name)
	switch format {
	case FormatJSON:
		artifact.FileName = base + ".json"
		artifact.MediaType = mediaTypeJSON
		artifact.Data = jsonData
	case FormatXLSX:
		data, err := encodeXLSX(deck)
		if err != nil {
			return nil, err
		}
		artifact.FileName = base + ".xlsx"
		artifact.MediaType = mediaTypeXLSX
		artifact.Data = data
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if e.sink != nil {
		if err := e.sink.Write(ctx, artifact); err != nil {
			log.ErrorContext(ctx, "failed to write deck", "file", artifact.FileName, "error", err)
			return nil, fmt.Errorf("write deck %s: %w", artifact.FileName, err)
		}
	}

	log.InfoContext(ctx, "deck exported",
		"file", artifact.FileName,
		"format", format,
		"cards", len(deck.Cards))
	return artifact, nil
}

func encodeXLSX(deck *domain.FlashcardDeck) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   deck.Name,
		Created: deck.CreatedAt.Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("xlsx props: %w", err)
	}

	write := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheetName, cell, v)
	}

	for i, h := range []string{"#", "Question", "Answer"} {
		if err := write(i+1, 1, h); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
	}
	for i, card := range deck.Cards {
		row := i + 2
		for col, v := range []any{strconv.Itoa(i + 1), card.Question, card.Answer} {
			if err := write(col+1, row, v); err != nil {
				return nil, fmt.Errorf("xlsx row %d: %w", row, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 5)
	_ = f.SetColWidth(sheetName, "B", "C", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
