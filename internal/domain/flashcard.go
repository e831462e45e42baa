package domain

import (
	"fmt"
	"strings"
	"time"
)

// BatchSize is the number of cards every generation run produces.
const BatchSize = 5

// Flashcard is a single question/answer pair.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// PlaceholderCard returns the card used in place of a missing card at the
// zero-based position i.
func PlaceholderCard(i int) Flashcard {
	return Flashcard{
		Question: PlaceholderQuestion(i),
		Answer:   PlaceholderAnswer(i),
	}
}

// PlaceholderQuestion returns the question used when position i has none.
func PlaceholderQuestion(i int) string {
	return fmt.Sprintf("Question %d", i+1)
}

// PlaceholderAnswer returns the answer used when position i has none.
func PlaceholderAnswer(i int) string {
	return fmt.Sprintf("Answer %d", i+1)
}

// FlashcardBatch is the ordered output of one generation run.
type FlashcardBatch []Flashcard

// Validate checks that the batch holds exactly BatchSize cards with
// non-blank questions and answers.
func (b FlashcardBatch) Validate() error {
	if len(b) != BatchSize {
		return ErrBatchSize
	}
	for i, card := range b {
		if strings.TrimSpace(card.Question) == "" || strings.TrimSpace(card.Answer) == "" {
			return fmt.Errorf("%w: card %d is blank", ErrValidation, i+1)
		}
	}
	return nil
}

// Clone returns an independent copy of the batch.
func (b FlashcardBatch) Clone() FlashcardBatch {
	if b == nil {
		return nil
	}
	out := make(FlashcardBatch, len(b))
	copy(out, b)
	return out
}

// FlashcardDeck is a named snapshot of a batch, ready for export.
type FlashcardDeck struct {
	Name      string      `json:"name"`
	Cards     []Flashcard `json:"cards"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewFlashcardDeck snapshots cards under name. The cards are copied so the
// deck never aliases the caller's batch.
func NewFlashcardDeck(name string, cards FlashcardBatch, createdAt time.Time) (*FlashcardDeck, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyDeckName
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: deck has no cards", ErrValidation)
	}
	return &FlashcardDeck{
		Name:      name,
		Cards:     cards.Clone(),
		CreatedAt: createdAt.UTC(),
	}, nil
}
