package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/studyquest/internal/api/shared"
	"github.com/phrazzld/studyquest/internal/deck"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/extract"
	"github.com/phrazzld/studyquest/internal/generation"
	"github.com/phrazzld/studyquest/internal/ingest"
	"github.com/phrazzld/studyquest/internal/pipeline"
	"github.com/phrazzld/studyquest/internal/preview"
	"github.com/phrazzld/studyquest/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, pipeline.ErrBusy):
		return http.StatusConflict

	case errors.Is(err, pipeline.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrContentUnavailable):
		return http.StatusGone

	case errors.Is(err, ingest.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrInvalidUpload),
		errors.Is(err, ingest.ErrNoUploads),
		errors.Is(err, domain.ErrEmptyFileID),
		errors.Is(err, preview.ErrEmptyFileID),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, generation.ErrEmptyText),
		errors.Is(err, deck.ErrInvalidDeck),
		errors.Is(err, deck.ErrUnsupportedFormat),
		errors.Is(err, shared.ErrInvalidBody),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	case errors.Is(err, extract.ErrExtraction):
		return http.StatusUnprocessableEntity

	case errors.Is(err, generation.ErrServiceUnavailable),
		errors.Is(err, ingest.ErrPreviewsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, generation.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, generation.ErrModelNotInstalled),
		errors.Is(err, generation.ErrParse),
		errors.Is(err, generation.ErrUnknownTransport):
		return http.StatusBadGateway

	case errors.Is(err, store.ErrStorageQuotaExceeded):
		return http.StatusInsufficientStorage

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-friendly message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(validationErrs)
	case errors.Is(err, shared.ErrInvalidBody):
		return "Invalid request body"
	case errors.Is(err, ingest.ErrUploadTooLarge):
		return "File is larger than the upload limit"
	case errors.Is(err, ingest.ErrInvalidUpload):
		return "Every uploaded file needs a name"
	case errors.Is(err, ingest.ErrNoUploads):
		return "No files were uploaded"
	case errors.Is(err, domain.ErrEmptyFileID), errors.Is(err, preview.ErrEmptyFileID):
		return "File ID is required"
	case errors.Is(err, deck.ErrUnsupportedFormat):
		return "Unsupported deck format"
	case errors.Is(err, deck.ErrInvalidDeck):
		return "Deck contains blank cards"
	case errors.Is(err, ingest.ErrPreviewsDisabled):
		return "Previews are not available"
	case errors.Is(err, pipeline.ErrBusy),
		errors.Is(err, pipeline.ErrFileNotFound),
		errors.Is(err, pipeline.ErrContentUnavailable),
		errors.Is(err, extract.ErrExtraction),
		errors.Is(err, generation.ErrEmptyText),
		errors.Is(err, generation.ErrServiceUnavailable),
		errors.Is(err, generation.ErrModelNotInstalled),
		errors.Is(err, generation.ErrTimeout),
		errors.Is(err, generation.ErrParse),
		errors.Is(err, generation.ErrUnknownTransport):
		return pipeline.UserMessage(err, "")
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a short message naming
// the first failing field.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}
	fe := errs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// respondError writes err with its mapped status and safe message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
