package generation

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/phrazzld/studyquest/internal/domain"
)

// arrayPattern matches from the first '[' to the last ']' so nested arrays
// and prose on either side are tolerated.
var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// ParseBatch extracts the first JSON array from a model reply and coerces it
// into exactly domain.BatchSize cards. Missing or blank fields are replaced
// by positional placeholders; short arrays are padded and long arrays are
// truncated.
func ParseBatch(reply string) (domain.FlashcardBatch, error) {
	literal := arrayPattern.FindString(reply)
	if literal == "" {
		return nil, &ParseError{Reason: "no JSON array in response"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(literal), &items); err != nil {
		return nil, &ParseError{Reason: "malformed JSON array", Err: err}
	}
	if len(items) == 0 {
		return nil, &ParseError{Reason: "empty JSON array"}
	}

	batch := make(domain.FlashcardBatch, 0, domain.BatchSize)
	for i, item := range items {
		if i == domain.BatchSize {
			break
		}
		batch = append(batch, cardAt(i, item))
	}
	for i := len(batch); i < domain.BatchSize; i++ {
		batch = append(batch, domain.PlaceholderCard(i))
	}

	return batch, nil
}

// cardAt maps one array element; anything that is not an object with string
// fields falls back to placeholders field by field.
func cardAt(i int, raw json.RawMessage) domain.Flashcard {
	card := domain.PlaceholderCard(i)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return card
	}
	if q, ok := stringField(fields, "question"); ok {
		card.Question = q
	}
	if a, ok := stringField(fields, "answer"); ok {
		card.Answer = a
	}
	return card
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
