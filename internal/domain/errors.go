package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyFileName is returned when an upload has no usable name.
	ErrEmptyFileName = errors.New("file name cannot be empty")

	// ErrEmptyFileID is returned when a record is missing its identifier.
	ErrEmptyFileID = errors.New("file ID cannot be empty")

	// ErrNegativeSize is returned when a file reports a negative size.
	ErrNegativeSize = errors.New("file size cannot be negative")

	// ErrBatchSize is returned when a batch does not hold exactly BatchSize cards.
	ErrBatchSize = errors.New("flashcard batch must contain exactly 5 cards")

	// ErrEmptyDeckName is returned when a deck is created without a name.
	ErrEmptyDeckName = errors.New("deck name cannot be empty")
)
