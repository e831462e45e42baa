package generation

import (
	"errors"
	"fmt"
)

// Common errors returned by the generation package
var (
	// ErrServiceUnavailable is returned when the generation service cannot be reached.
	ErrServiceUnavailable = errors.New("generation service unavailable")

	// ErrModelNotInstalled is returned when the service does not know the requested model.
	ErrModelNotInstalled = errors.New("generation model not installed")

	// ErrTimeout is returned when the request exceeds its deadline.
	ErrTimeout = errors.New("generation request timed out")

	// ErrUnknownTransport is matched by every *TransportError.
	ErrUnknownTransport = errors.New("generation transport failure")

	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("unparseable generation response")

	// ErrEmptyText is returned when there is no text to generate from.
	ErrEmptyText = errors.New("text to generate from cannot be empty")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// TransportError carries the underlying message of a failure that is not one
// of the classified transport errors.
type TransportError struct {
	Msg string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownTransport, e.Msg)
}

// Unwrap returns the underlying error, if any.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUnknownTransport) hold for any TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrUnknownTransport
}

// ParseError reports why a received body could not be turned into cards.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrParse, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrParse, e.Reason)
}

// Unwrap returns the underlying decode error, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrParse) hold for any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
