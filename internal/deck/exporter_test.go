package deck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func fullBatch() domain.FlashcardBatch {
	return domain.FlashcardBatch{
		{Question: "What is a cell?", Answer: "The basic unit of life"},
		{Question: "What is DNA?", Answer: "Genetic material"},
		{Question: "What is ATP?", Answer: "Energy currency"},
		{Question: "What is osmosis?", Answer: "Water diffusion"},
		{Question: "What is RNA?", Answer: "A nucleic acid"},
	}
}

type recordingSink struct {
	artifacts []*Artifact
	err       error
}

func (s *recordingSink) Write(_ context.Context, a *Artifact) error {
	if s.err != nil {
		return s.err
	}
	s.artifacts = append(s.artifacts, a)
	return nil
}

func newTestExporter(sink Sink, format Format) *Exporter {
	e := NewExporter(sink, format, nil)
	e.now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	return e
}

func TestSaveDeck_NoOps(t *testing.T) {
	sink := &recordingSink{}
	e := newTestExporter(sink, FormatJSON)

	tests := []struct {
		name  string
		deck  string
		batch domain.FlashcardBatch
	}{
		{"blank name", "", fullBatch()},
		{"whitespace name", "   ", fullBatch()},
		{"empty batch", "Midterm", domain.FlashcardBatch{}},
		{"nil batch", "Midterm", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := e.SaveDeck(context.Background(), tt.deck, tt.batch)
			assert.NoError(t, err)
			assert.Nil(t, a)
		})
	}
	assert.Empty(t, sink.artifacts)
}

func TestSaveDeck_JSON(t *testing.T) {
	sink := &recordingSink{}
	e := newTestExporter(sink, FormatJSON)
	batch := fullBatch()

	a, err := e.SaveDeck(context.Background(), "Midterm", batch)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "Midterm.json", a.FileName)
	assert.Equal(t, "application/json", a.MediaType)
	require.Len(t, sink.artifacts, 1)

	var decoded struct {
		Name      string             `json:"name"`
		Cards     []domain.Flashcard `json:"cards"`
		CreatedAt time.Time          `json:"createdAt"`
	}
	require.NoError(t, json.Unmarshal(a.Data, &decoded))
	assert.Equal(t, "Midterm", decoded.Name)
	assert.Equal(t, []domain.Flashcard(batch), decoded.Cards)
	assert.Equal(t, time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), decoded.CreatedAt)
}

func TestSaveDeck_DoesNotMutateBatch(t *testing.T) {
	e := newTestExporter(nil, FormatJSON)
	batch := fullBatch()
	original := batch.Clone()

	a, err := e.SaveDeck(context.Background(), "Midterm", batch)
	require.NoError(t, err)
	a.Deck.Cards[0].Question = "changed"

	assert.Equal(t, original, batch)
}

func TestSaveDeck_SanitizesName(t *testing.T) {
	e := newTestExporter(nil, FormatJSON)

	a, err := e.SaveDeck(context.Background(), " Bio 101: Cells/Part 2 ", fullBatch())
	require.NoError(t, err)
	assert.Equal(t, "Bio_101__Cells_Part_2.json", a.FileName)
	assert.Equal(t, "Bio 101: Cells/Part 2", a.Deck.Name)
}

func TestSaveDeck_XLSX(t *testing.T) {
	e := newTestExporter(nil, FormatJSON)

	a, err := e.SaveDeckAs(context.Background(), "Midterm", fullBatch(), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "Midterm.xlsx", a.FileName)

	f, err := excelize.OpenReader(bytes.NewReader(a.Data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, domain.BatchSize+1)
	assert.Equal(t, []string{"#", "Question", "Answer"}, rows[0])
	assert.Equal(t, []string{"1", "What is a cell?", "The basic unit of life"}, rows[1])
}

func TestSaveDeck_RejectsBlankCard(t *testing.T) {
	e := newTestExporter(nil, FormatJSON)
	batch := fullBatch()
	batch[2].Answer = ""

	_, err := e.SaveDeck(context.Background(), "Midterm", batch)
	assert.ErrorIs(t, err, ErrInvalidDeck)
}

func TestSaveDeck_SinkError(t *testing.T) {
	boom := errors.New("read-only fs")
	e := newTestExporter(&recordingSink{err: boom}, FormatJSON)

	a, err := e.SaveDeck(context.Background(), "Midterm", fullBatch())
	assert.Nil(t, a)
	assert.ErrorIs(t, err, boom)
}

func TestSaveDeck_UnsupportedFormat(t *testing.T) {
	e := newTestExporter(nil, FormatJSON)
	_, err := e.SaveDeckAs(context.Background(), "Midterm", fullBatch(), Format("csv"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("", FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat(" JSON ", FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("pdf", FormatJSON)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink, err := NewDirSink(dir, nil)
	require.NoError(t, err)
	e := newTestExporter(sink, FormatJSON)

	_, err = e.SaveDeck(context.Background(), "Midterm", fullBatch())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "Midterm.json"))
	require.NoError(t, err)
	assert.NoError(t, ValidateJSON(data))

	_, err = os.Stat(filepath.Join(dir, "Midterm.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestValidateJSON(t *testing.T) {
	assert.NoError(t, ValidateJSON([]byte(`{"name":"x","cards":[{"question":"q","answer":"a"}],"createdAt":"2026-10-18T09:00:00Z"}`)))
	assert.ErrorIs(t, ValidateJSON([]byte(`{"name":"x","cards":[],"createdAt":"2026-10-18T09:00:00Z"}`)), ErrInvalidDeck)
	assert.ErrorIs(t, ValidateJSON([]byte(`{"name":"x","cards":[{"question":"q","answer":"a"}],"createdAt":"yesterday"}`)), ErrInvalidDeck)
	assert.ErrorIs(t, ValidateJSON([]byte(`not json`)), ErrInvalidDeck)
}
