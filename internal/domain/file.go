package domain

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
)

// MB is the unit FileRecord sizes are reported in.
const MB = 1024 * 1024

// textExtensions lists the extensions that are read directly as text.
var textExtensions = map[string]struct{}{
	"txt":      {},
	"text":     {},
	"md":       {},
	"markdown": {},
	"rtf":      {},
	"csv":      {},
	"json":     {},
	"log":      {},
	"html":     {},
	"htm":      {},
	"xml":      {},
	"yaml":     {},
	"yml":      {},
	"ini":      {},
	"cfg":      {},
}

// Upload categories shown on the storage page.
const (
	CategoryDocuments = "documents"
	CategoryImages    = "images"
	CategoryOthers    = "others"
)

var categoryByExtension = map[string]string{
	"pdf":  CategoryDocuments,
	"docx": CategoryDocuments,
	"jpg":  CategoryImages,
	"jpeg": CategoryImages,
	"png":  CategoryImages,
	"gif":  CategoryImages,
}

// FileRecord is the durable metadata describing an uploaded file.
// It never carries the file's binary content.
type FileRecord struct {
	ID         string    `json:"id" msgpack:"id"`
	Name       string    `json:"name" msgpack:"name"`
	SizeMB     float64   `json:"sizeMB" msgpack:"size_mb"`
	Type       string    `json:"type" msgpack:"type"`
	Category   string    `json:"category" msgpack:"category"`
	Date       time.Time `json:"date" msgpack:"date"`
	IsTextFile bool      `json:"isTextFile" msgpack:"is_text_file"`
}

// NewFileRecord builds a record for an upload of the given name and byte size.
// The ID is supplied by the caller so that identity generation stays with the
// ingestion store.
func NewFileRecord(id, name string, sizeBytes int64, uploadedAt time.Time) (*FileRecord, error) {
	if sizeBytes < 0 {
		return nil, ErrNegativeSize
	}

	ext := Extension(name)
	record := &FileRecord{
		ID:         id,
		Name:       strings.TrimSpace(name),
		SizeMB:     SizeInMB(sizeBytes),
		Type:       ext,
		Category:   CategoryOf(ext),
		Date:       uploadedAt.UTC(),
		IsTextFile: IsTextExtension(ext),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the FileRecord has valid data.
func (r *FileRecord) Validate() error {
	if r.ID == "" {
		return ErrEmptyFileID
	}
	if r.Name == "" {
		return ErrEmptyFileName
	}
	if r.SizeMB < 0 {
		return ErrNegativeSize
	}
	return nil
}

// String renders the record for logs.
func (r FileRecord) String() string {
	return fmt.Sprintf("%s (%s, %.1f MB)", r.Name, r.Type, r.SizeMB)
}

// SizeInMB converts a byte count to megabytes rounded to one decimal place.
func SizeInMB(sizeBytes int64) float64 {
	return math.Round(float64(sizeBytes)/MB*10) / 10
}

// Extension returns the lowercased extension of name without the leading dot.
// A name without a dot yields an empty string.
func Extension(name string) string {
	ext := filepath.Ext(strings.TrimSpace(name))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsTextExtension reports whether ext belongs to the recognized plain-text set.
func IsTextExtension(ext string) bool {
	_, ok := textExtensions[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ok
}

// CategoryOf files an extension under documents, images or others.
func CategoryOf(ext string) string {
	if c, ok := categoryByExtension[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return c
	}
	return CategoryOthers
}

// FileContent is the raw payload of an uploaded file. It lives only in
// process memory for the lifetime of a session.
type FileContent struct {
	FileID    string
	Name      string
	MediaType string
	Data      []byte
}

// Extension returns the lowercased extension of the content's file name.
func (c FileContent) Extension() string {
	return Extension(c.Name)
}
