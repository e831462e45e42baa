package pipeline

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// Slot admits at most one occupant.
type Slot struct {
	sem *semaphore.Weighted

	mu       sync.Mutex
	occupant string
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	return &Slot{sem: semaphore.NewWeighted(1)}
}

// TryAcquire takes the slot for occupant without waiting. It returns a
// *BusyError naming the current occupant when the slot is taken.
func (s *Slot) TryAcquire(occupant string) (*Lease, error) {
	if !s.sem.TryAcquire(1) {
		current, _ := s.Occupant()
		return nil, &BusyError{Occupant: current, Requested: occupant}
	}
	s.mu.Lock()
	s.occupant = occupant
	s.mu.Unlock()
	return &Lease{slot: s, occupant: occupant}, nil
}

// Occupant reports who holds the slot.
func (s *Slot) Occupant() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.occupant, s.occupant != ""
}

// Lease is proof of holding the slot. It is passed down the run so every
// step acts on behalf of the same occupant.
type Lease struct {
	slot     *Slot
	occupant string
	once     sync.Once
}

// Occupant names what the lease was taken for.
func (l *Lease) Occupant() string {
	return l.occupant
}

// Release frees the slot. Calls after the first are no-ops.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.slot.mu.Lock()
		l.slot.occupant = ""
		l.slot.mu.Unlock()
		l.slot.sem.Release(1)
	})
}
