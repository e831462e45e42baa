package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/docker/go-units"
	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/studyquest/internal/api/shared"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/ingest"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/preview"
)

// multipartMemory is how much of a multipart upload is buffered in memory
// before spilling to temp files.
const multipartMemory = 32 << 20

// FileService is the ingestion store as seen by the API.
type FileService interface {
	Ingest(ctx context.Context, uploads []ingest.Upload) (ingest.IngestResult, error)
	Delete(ctx context.Context, id string) (ingest.DeleteResult, error)
	Search(query string) []domain.FileRecord
	CreatePreview(ctx context.Context, id string) (preview.Handle, error)
}

// PreviewService resolves preview handles.
type PreviewService interface {
	Get(token string) (preview.Handle, bool)
}

// FileHandler serves uploads, listing, deletion and previews.
type FileHandler struct {
	files          FileService
	previews       PreviewService
	maxUploadBytes int64
	logger         *slog.Logger
}

// PreviewResponse describes a newly issued preview handle.
type PreviewResponse struct {
	Token     string `json:"token"`
	MediaType string `json:"mediaType"`
	URL       string `json:"url"`
}

// FileListResponse is the body of GET /api/files.
type FileListResponse struct {
	Files []domain.FileRecord `json:"files"`
}

// NewFileHandler creates a FileHandler. maxUploadBytes bounds each file;
// zero disables the check here and leaves it to the store.
func NewFileHandler(files FileService, previews PreviewService, maxUploadBytes int64, log *slog.Logger) *FileHandler {
	if log == nil {
		log = slog.Default()
	}
	return &FileHandler{
		files:          files,
		previews:       previews,
		maxUploadBytes: maxUploadBytes,
		logger:         log.With("handler", "files"),
	}
}

// Upload handles POST /api/files with a multipart "files" field.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		log.DebugContext(r.Context(), "invalid multipart body", "error", err)
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Expected a multipart upload", err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	uploads := make([]ingest.Upload, 0, len(headers))
	for _, fh := range headers {
		upload, err := h.readPart(fh)
		if err != nil {
			respondError(w, r, err)
			return
		}
		uploads = append(uploads, upload)
	}

	result, err := h.files.Ingest(r.Context(), uploads)
	if err != nil {
		respondError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

func (h *FileHandler) readPart(fh *multipart.FileHeader) (ingest.Upload, error) {
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return ingest.Upload{}, fmt.Errorf("%w: %s is %s", ingest.ErrUploadTooLarge, fh.Filename, units.HumanSize(float64(fh.Size)))
	}
	f, err := fh.Open()
	if err != nil {
		return ingest.Upload{}, fmt.Errorf("open part %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return ingest.Upload{}, fmt.Errorf("read part %s: %w", fh.Filename, err)
	}
	return ingest.Upload{
		Name:      fh.Filename,
		MediaType: fh.Header.Get("Content-Type"),
		Data:      data,
	}, nil
}

// List handles GET /api/files. The optional q parameter keeps only files
// whose name contains it, ignoring case.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, FileListResponse{Files: h.files.Search(r.URL.Query().Get("q"))})
}

// Delete handles DELETE /api/files/{id}. Unknown ids succeed.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	result, err := h.files.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if result.Warning != "" {
		shared.RespondWithJSON(w, r, http.StatusOK, result)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreatePreview handles POST /api/files/{id}/previews.
func (h *FileHandler) CreatePreview(w http.ResponseWriter, r *http.Request) {
	handle, err := h.files.CreatePreview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, PreviewResponse{
		Token:     handle.Token,
		MediaType: handle.MediaType,
		URL:       "/api/previews/" + handle.Token,
	})
}

// GetPreview handles GET /api/previews/{token}.
func (h *FileHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.previews.Get(chi.URLParam(r, "token"))
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Preview not found or released")
		return
	}
	w.Header().Set("Content-Type", handle.MediaType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(handle.Data); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).WarnContext(r.Context(), "failed to write preview", "error", err)
	}
}
