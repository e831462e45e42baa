package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/studyquest/internal/api/shared"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/pipeline"
)

// Processor runs the extraction and generation pipeline.
type Processor interface {
	ProcessFile(ctx context.Context, fileID string) (*pipeline.Result, error)
	ProcessText(ctx context.Context, text string) (*pipeline.Result, error)
	State() domain.PipelineState
	Occupant() (string, bool)
	UserMessage(err error) string
}

// GenerateTextRequest is the body of POST /api/flashcards.
type GenerateTextRequest struct {
	Text string `json:"text" validate:"required"`
}

// PipelineStatusResponse is the body of GET /api/pipeline.
type PipelineStatusResponse struct {
	State    domain.PipelineState `json:"state"`
	Occupant string               `json:"occupant,omitempty"`
}

// FlashcardHandler starts generation runs.
type FlashcardHandler struct {
	proc   Processor
	logger *slog.Logger
}

// NewFlashcardHandler creates a FlashcardHandler.
func NewFlashcardHandler(proc Processor, log *slog.Logger) *FlashcardHandler {
	if log == nil {
		log = slog.Default()
	}
	return &FlashcardHandler{proc: proc, logger: log.With("handler", "flashcards")}
}

// GenerateFromFile handles POST /api/files/{id}/flashcards.
func (h *FlashcardHandler) GenerateFromFile(w http.ResponseWriter, r *http.Request) {
	result, err := h.proc.ProcessFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondRunError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// GenerateFromText handles POST /api/flashcards.
func (h *FlashcardHandler) GenerateFromText(w http.ResponseWriter, r *http.Request) {
	var req GenerateTextRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.proc.ProcessText(r.Context(), req.Text)
	if err != nil {
		h.respondRunError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Status handles GET /api/pipeline.
func (h *FlashcardHandler) Status(w http.ResponseWriter, r *http.Request) {
	occupant, _ := h.proc.Occupant()
	shared.RespondWithJSON(w, r, http.StatusOK, PipelineStatusResponse{
		State:    h.proc.State(),
		Occupant: occupant,
	})
}

// respondRunError renders pipeline failures with the pipeline's own wording,
// which names the generation endpoint when it is unreachable.
func (h *FlashcardHandler) respondRunError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), h.proc.UserMessage(err), err)
}
