package generation

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/phrazzld/studyquest/internal/domain"
)

// DefaultMaxInputChars bounds the amount of text sent in one request.
const DefaultMaxInputChars = 2000

//go:embed prompts/flashcards.tmpl
var defaultPromptTemplate string

// promptData represents the data passed to the prompt template
type promptData struct {
	Text  string
	Count int
}

// PromptBuilder renders generation prompts from a template.
type PromptBuilder struct {
	tmpl     *template.Template
	maxChars int
}

// NewPromptBuilder parses the template at path, or the embedded default when
// path is empty. maxChars <= 0 selects DefaultMaxInputChars.
func NewPromptBuilder(path string, maxChars int) (*PromptBuilder, error) {
	content := defaultPromptTemplate
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				ErrInvalidConfig, path, err)
		}
		content = string(raw)
	}

	tmpl, err := template.New("flashcards").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}

	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}

	return &PromptBuilder{tmpl: tmpl, maxChars: maxChars}, nil
}

// Build truncates text and renders the prompt. Blank text yields ErrEmptyText.
func (b *PromptBuilder) Build(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	var buf bytes.Buffer
	data := promptData{Text: Truncate(text, b.maxChars), Count: domain.BatchSize}
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// Truncate returns at most the first n characters (runes) of text.
func Truncate(text string, n int) string {
	if n <= 0 {
		return text
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
