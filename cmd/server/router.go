package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/studyquest/internal/api"
	apiMiddleware "github.com/phrazzld/studyquest/internal/api/middleware"
)

// setupRouter creates the router with every route and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	fileHandler := api.NewFileHandler(app.files, app.previews, app.maxUploadBytes, app.logger)
	flashcardHandler := api.NewFlashcardHandler(app.pipeline, app.logger)
	studyHandler := api.NewStudyHandler(app.pipeline.Navigator())
	deckHandler := api.NewDeckHandler(app.exporter, app.pipeline.Navigator(), app.logger)
	eventHandler := api.NewEventHandler(app.emitter, api.DefaultHeartbeat, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/files", fileHandler.Upload)
		r.Get("/files", fileHandler.List)
		r.Delete("/files/{id}", fileHandler.Delete)
		r.Post("/files/{id}/previews", fileHandler.CreatePreview)
		r.Get("/previews/{token}", fileHandler.GetPreview)

		r.Post("/files/{id}/flashcards", flashcardHandler.GenerateFromFile)
		r.Post("/flashcards", flashcardHandler.GenerateFromText)
		r.Get("/pipeline", flashcardHandler.Status)

		r.Get("/study", studyHandler.Current)
		r.Post("/study/next", studyHandler.Next)
		r.Post("/study/prev", studyHandler.Prev)
		r.Post("/study/flip", studyHandler.Flip)
		r.Post("/study/go", studyHandler.Go)

		r.Post("/decks", deckHandler.Save)

		r.Get("/events", eventHandler.Stream)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})
	r.Handle("/metrics", app.metrics.Handler())

	return r
}
