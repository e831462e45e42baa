package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/studyquest/internal/api/shared"
	"github.com/phrazzld/studyquest/internal/deck"
	"github.com/phrazzld/studyquest/internal/domain"
)

// DeckExporter builds deck artifacts.
type DeckExporter interface {
	SaveDeck(ctx context.Context, name string, batch domain.FlashcardBatch) (*deck.Artifact, error)
	SaveDeckAs(ctx context.Context, name string, batch domain.FlashcardBatch, format deck.Format) (*deck.Artifact, error)
}

// BatchSource supplies the batch currently being studied.
type BatchSource interface {
	Batch() domain.FlashcardBatch
}

// SaveDeckRequest is the body of POST /api/decks. An empty format uses the
// exporter's default.
type SaveDeckRequest struct {
	Name   string `json:"name"`
	Format string `json:"format" validate:"omitempty,oneof=json xlsx JSON XLSX"`
}

// DeckHandler exports the current batch as a downloadable deck.
type DeckHandler struct {
	exporter DeckExporter
	batches  BatchSource
	logger   *slog.Logger
}

// NewDeckHandler creates a DeckHandler.
func NewDeckHandler(exporter DeckExporter, batches BatchSource, log *slog.Logger) *DeckHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DeckHandler{exporter: exporter, batches: batches, logger: log.With("handler", "decks")}
}

// Save handles POST /api/decks. A blank name or an empty batch writes
// nothing and answers 204.
func (h *DeckHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveDeckRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		respondError(w, r, err)
		return
	}

	batch := h.batches.Batch()
	var (
		artifact *deck.Artifact
		err      error
	)
	if req.Format == "" {
		artifact, err = h.exporter.SaveDeck(r.Context(), req.Name, batch)
	} else {
		var format deck.Format
		format, err = deck.ParseFormat(req.Format, deck.FormatJSON)
		if err == nil {
			artifact, err = h.exporter.SaveDeckAs(r.Context(), req.Name, batch, format)
		}
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	if artifact == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", artifact.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write deck", "file", artifact.FileName, "error", err)
	}
}
