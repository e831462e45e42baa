// Package preview issues short-lived preview handles for uploaded files.
// A handle holds a derived rendition (thumbnail, text prefix or the raw
// bytes) under an opaque token and is valid until released.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
)

const (
	// ThumbnailSize bounds both dimensions of image thumbnails.
	ThumbnailSize = 320
	// TextPrefixBytes is the maximum size of a text preview.
	TextPrefixBytes = 2048
)

// ErrEmptyFileID is returned when a preview is requested without a file id.
var ErrEmptyFileID = errors.New("preview requires a file id")

var imageExtensions = map[string]imaging.Format{
	"jpg":  imaging.JPEG,
	"jpeg": imaging.JPEG,
	"png":  imaging.PNG,
	"gif":  imaging.GIF,
	"bmp":  imaging.BMP,
	"tif":  imaging.TIFF,
	"tiff": imaging.TIFF,
}

// Handle is a released-on-demand preview of one file.
type Handle struct {
	Token     string
	FileID    string
	MediaType string
	Data      []byte
	CreatedAt time.Time
}

// Registry tracks live handles by token and by file.
type Registry struct {
	mu      sync.Mutex
	handles map[string]Handle
	byFile  map[string]map[string]struct{}
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		handles: make(map[string]Handle),
		byFile:  make(map[string]map[string]struct{}),
		logger:  log.With("component", "preview"),
	}
}

// Create renders content and registers a new handle for fileID.
func (r *Registry) Create(fileID string, content domain.FileContent) (Handle, error) {
	if fileID == "" {
		return Handle{}, ErrEmptyFileID
	}

	mediaType, data := render(content)
	h := Handle{
		Token:     uuid.NewString(),
		FileID:    fileID,
		MediaType: mediaType,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.handles[h.Token] = h
	tokens, ok := r.byFile[fileID]
	if !ok {
		tokens = make(map[string]struct{})
		r.byFile[fileID] = tokens
	}
	tokens[h.Token] = struct{}{}
	r.mu.Unlock()

	r.logger.Debug("preview created",
		"file_id", fileID,
		"media_type", mediaType,
		"bytes", len(data))
	return h, nil
}

// Get returns the handle for token if it is still live.
func (r *Registry) Get(token string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[token]
	return h, ok
}

// ReleaseFile releases every handle issued for fileID and returns how many
// were released.
func (r *Registry) ReleaseFile(fileID string) int {
	r.mu.Lock()
	tokens := r.byFile[fileID]
	for token := range tokens {
		delete(r.handles, token)
	}
	delete(r.byFile, fileID)
	r.mu.Unlock()

	if len(tokens) > 0 {
		r.logger.Debug("previews released", "file_id", fileID, "count", len(tokens))
	}
	return len(tokens)
}

// ReleaseAll releases every live handle.
func (r *Registry) ReleaseAll() int {
	r.mu.Lock()
	n := len(r.handles)
	r.handles = make(map[string]Handle)
	r.byFile = make(map[string]map[string]struct{})
	r.mu.Unlock()

	if n > 0 {
		r.logger.Debug("all previews released", "count", n)
	}
	return n
}

// Len reports the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

func render(content domain.FileContent) (string, []byte) {
	ext := content.Extension()

	if _, ok := imageExtensions[ext]; ok {
		if thumb, err := thumbnail(content.Data); err == nil {
			return "image/jpeg", thumb
		}
	}

	if domain.IsTextExtension(ext) {
		return "text/plain; charset=utf-8", textPrefix(content.Data, TextPrefixBytes)
	}

	mediaType := content.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return mediaType, bytes.Clone(content.Data)
}

func thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img = imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// textPrefix cuts data to at most limit bytes without splitting a rune.
func textPrefix(data []byte, limit int) []byte {
	if len(data) <= limit {
		return bytes.Clone(data)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return bytes.Clone(data[:cut])
}
