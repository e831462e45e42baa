package api

import (
	"net/http"

	"github.com/phrazzld/studyquest/internal/api/shared"
	"github.com/phrazzld/studyquest/internal/study"
)

// Navigator moves through the current batch.
type Navigator interface {
	Current() study.Snapshot
	Next() study.Snapshot
	Prev() study.Snapshot
	Flip() study.Snapshot
	Go(i int) study.Snapshot
}

// GoRequest is the body of POST /api/study/go.
type GoRequest struct {
	Index *int `json:"index" validate:"required"`
}

// StudyHandler exposes navigation over the loaded batch.
type StudyHandler struct {
	nav Navigator
}

// NewStudyHandler creates a StudyHandler.
func NewStudyHandler(nav Navigator) *StudyHandler {
	return &StudyHandler{nav: nav}
}

// Current handles GET /api/study.
func (h *StudyHandler) Current(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.nav.Current())
}

// Next handles POST /api/study/next.
func (h *StudyHandler) Next(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.nav.Next())
}

// Prev handles POST /api/study/prev.
func (h *StudyHandler) Prev(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.nav.Prev())
}

// Flip handles POST /api/study/flip.
func (h *StudyHandler) Flip(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.nav.Flip())
}

// Go handles POST /api/study/go. Out-of-range indexes are clamped.
func (h *StudyHandler) Go(w http.ResponseWriter, r *http.Request) {
	var req GoRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		respondError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, h.nav.Go(*req.Index))
}
