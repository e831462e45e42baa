package ingest

import (
	"errors"

	"github.com/phrazzld/studyquest/internal/store"
)

var (
	// ErrInvalidUpload is returned when an upload has no usable name.
	ErrInvalidUpload = errors.New("invalid upload")

	// ErrUploadTooLarge is returned when an upload exceeds the size limit.
	ErrUploadTooLarge = errors.New("upload exceeds maximum size")

	// ErrNoUploads is returned when Ingest is called with nothing to add.
	ErrNoUploads = errors.New("no files uploaded")

	// ErrFileNotFound is returned for ids with no record.
	ErrFileNotFound = errors.New("file not found")

	// ErrContentUnavailable is returned when a record exists but its content
	// was lost, typically after a restart.
	ErrContentUnavailable = errors.New("file content unavailable")

	// ErrPreviewsDisabled is returned by CreatePreview on a store built
	// without a preview registry.
	ErrPreviewsDisabled = errors.New("previews are not enabled")

	// ErrStorageQuotaExceeded is the durable medium's "full" condition.
	ErrStorageQuotaExceeded = store.ErrStorageQuotaExceeded
)
