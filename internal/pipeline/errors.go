package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/studyquest/internal/extract"
	"github.com/phrazzld/studyquest/internal/generation"
	"github.com/phrazzld/studyquest/internal/ingest"
	"github.com/phrazzld/studyquest/internal/redact"
)

var (
	// ErrBusy is matched by every *BusyError.
	ErrBusy = errors.New("pipeline is busy")

	// ErrFileNotFound is returned for ids with no record.
	ErrFileNotFound = ingest.ErrFileNotFound

	// ErrContentUnavailable is returned when a record exists but its content
	// was lost, typically after a restart.
	ErrContentUnavailable = ingest.ErrContentUnavailable

	// ErrInternal is matched by every *PanicError.
	ErrInternal = errors.New("internal pipeline failure")
)

// PanicError carries a value recovered from a panicking run.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInternal, e.Value)
}

// Is makes errors.Is(err, ErrInternal) hold for any PanicError.
func (e *PanicError) Is(target error) bool {
	return target == ErrInternal
}

// BusyError reports that another run holds the slot.
type BusyError struct {
	Occupant  string
	Requested string
}

func (e *BusyError) Error() string {
	if e.Occupant == "" {
		return ErrBusy.Error()
	}
	return fmt.Sprintf("%s: processing %s", ErrBusy, e.Occupant)
}

// Is makes errors.Is(err, ErrBusy) hold for any BusyError.
func (e *BusyError) Is(target error) bool {
	return target == ErrBusy
}

// UserMessage renders err as one short message for the learner. endpoint is
// the generation service location shown when it cannot be reached.
func UserMessage(err error, endpoint string) string {
	if err == nil {
		return ""
	}

	var extractionErr *extract.ExtractionError
	var transportErr *generation.TransportError

	switch {
	case errors.Is(err, ErrBusy):
		return "Another file is still being processed. Try again when it finishes."
	case errors.Is(err, ErrFileNotFound):
		return "That file no longer exists."
	case errors.Is(err, ErrContentUnavailable):
		return "This file's content is no longer available. Upload it again to generate flashcards."
	case errors.As(err, &extractionErr):
		switch extractionErr.Reason {
		case extract.ReasonEmpty:
			return "No text could be found in this file."
		case extract.ReasonDecode:
			return "The text in this file could not be decoded."
		default:
			return "Text recognition failed for this file."
		}
	case errors.Is(err, generation.ErrEmptyText):
		return "There is no text to generate flashcards from."
	case errors.Is(err, generation.ErrServiceUnavailable):
		if endpoint == "" {
			return "The flashcard service could not be reached. Check that it is running."
		}
		return fmt.Sprintf("The flashcard service could not be reached. Check that it is running at %s.", endpoint)
	case errors.Is(err, generation.ErrModelNotInstalled):
		return "The configured model is not installed on the flashcard service."
	case errors.Is(err, generation.ErrTimeout):
		return "The flashcard service took too long to respond. Try again."
	case errors.Is(err, generation.ErrParse):
		return "The flashcard service returned a response that could not be read."
	case errors.As(err, &transportErr):
		msg := strings.TrimSpace(redact.String(transportErr.Msg))
		if msg == "" {
			return "Flashcard generation failed."
		}
		return "Flashcard generation failed: " + msg
	default:
		return "Something went wrong. Please try again."
	}
}

// errorClass labels err for metrics.
func errorClass(err error) string {
	var extractionErr *extract.ExtractionError
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &extractionErr):
		return "extraction_" + extractionErr.Reason
	case errors.Is(err, generation.ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, generation.ErrModelNotInstalled):
		return "model_not_installed"
	case errors.Is(err, generation.ErrTimeout):
		return "timeout"
	case errors.Is(err, generation.ErrParse):
		return "parse"
	case errors.Is(err, generation.ErrUnknownTransport):
		return "transport"
	case errors.Is(err, generation.ErrEmptyText):
		return "empty_text"
	case errors.Is(err, ErrInternal):
		return "internal"
	default:
		return "other"
	}
}
