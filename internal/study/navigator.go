// Package study tracks the learner's position in the current flashcard
// batch.
package study

import (
	"sync"

	"github.com/phrazzld/studyquest/internal/domain"
)

// Snapshot is the navigator's visible state.
type Snapshot struct {
	Card    *domain.Flashcard `json:"card,omitempty"`
	Index   int               `json:"index"`
	Total   int               `json:"total"`
	Flipped bool              `json:"flipped"`
}

// Navigator is safe for concurrent use.
type Navigator struct {
	mu      sync.RWMutex
	cards   domain.FlashcardBatch
	index   int
	flipped bool
}

// NewNavigator returns an empty navigator.
func NewNavigator() *Navigator {
	return &Navigator{}
}

// Load replaces the batch and resets to the first card, unflipped.
func (n *Navigator) Load(batch domain.FlashcardBatch) Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cards = batch.Clone()
	n.index = 0
	n.flipped = false
	return n.snapshot()
}

// Next moves forward one card, stopping at the last.
func (n *Navigator) Next() Snapshot {
	return n.move(func(i int) int { return i + 1 })
}

// Prev moves back one card, stopping at the first.
func (n *Navigator) Prev() Snapshot {
	return n.move(func(i int) int { return i - 1 })
}

// Go jumps to index i, clamped to the batch.
func (n *Navigator) Go(i int) Snapshot {
	return n.move(func(int) int { return i })
}

// Flip toggles between question and answer.
func (n *Navigator) Flip() Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.cards) > 0 {
		n.flipped = !n.flipped
	}
	return n.snapshot()
}

// Current returns the current state.
func (n *Navigator) Current() Snapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.snapshot()
}

// Batch returns a copy of the loaded batch.
func (n *Navigator) Batch() domain.FlashcardBatch {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cards.Clone()
}

func (n *Navigator) move(step func(int) int) Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.cards) == 0 {
		return n.snapshot()
	}
	n.index = min(max(step(n.index), 0), len(n.cards)-1)
	n.flipped = false
	return n.snapshot()
}

// snapshot must be called with mu held.
func (n *Navigator) snapshot() Snapshot {
	s := Snapshot{Index: n.index, Total: len(n.cards), Flipped: n.flipped}
	if len(n.cards) > 0 {
		card := n.cards[n.index]
		s.Card = &card
	}
	return s
}
