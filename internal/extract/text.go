package extract

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/phrazzld/studyquest/internal/domain"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

var errInvalidUTF8 = errors.New("content is not valid UTF-8")

// isPlainText reports whether content is one of the directly readable kinds.
func isPlainText(content domain.FileContent) bool {
	if domain.IsTextExtension(content.Extension()) {
		return true
	}
	mediaType := baseMediaType(content.MediaType)
	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return true
	case mediaType == "application/json", mediaType == "application/xml":
		return true
	default:
		return false
	}
}

// isPDF reports whether content declares itself a PDF.
func isPDF(content domain.FileContent) bool {
	return content.Extension() == "pdf" || baseMediaType(content.MediaType) == "application/pdf"
}

// baseMediaType lowercases a media type and drops its parameters.
func baseMediaType(mediaType string) string {
	mediaType, _, _ = strings.Cut(mediaType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// decodeText decodes UTF-8 (with or without BOM) and BOM-marked UTF-16.
func decodeText(data []byte) (string, error) {
	hasUTF16BOM := bytes.HasPrefix(data, bomUTF16BE) || bytes.HasPrefix(data, bomUTF16LE)
	if !hasUTF16BOM && !utf8.Valid(data) {
		return "", errInvalidUTF8
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
