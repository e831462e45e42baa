package extract

import (
	"errors"
	"fmt"
)

// Reasons carried by ExtractionError.
const (
	ReasonEmpty       = "empty"
	ReasonDecode      = "decode"
	ReasonRecognition = "recognition"
)

// ErrExtraction is matched by every *ExtractionError.
var ErrExtraction = errors.New("text extraction failed")

// ExtractionError reports why no text could be obtained from a file.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrExtraction, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrExtraction, e.Reason)
}

// Unwrap returns the underlying cause, if any.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrExtraction) hold for any ExtractionError.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}
