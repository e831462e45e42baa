package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrSubscriberFull is returned when a ChannelHandler drops an event.
var ErrSubscriberFull = errors.New("event subscriber buffer full")

// ChannelHandler forwards events to a buffered channel without blocking the
// emitter. Events arriving while the buffer is full are dropped and counted.
type ChannelHandler struct {
	ch      chan *Event
	dropped atomic.Int64

	mu     sync.Mutex
	closed bool
}

// NewChannelHandler creates a handler with the given buffer size.
func NewChannelHandler(buffer int) *ChannelHandler {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelHandler{ch: make(chan *Event, buffer)}
}

// Events returns the receive side of the subscription.
func (h *ChannelHandler) Events() <-chan *Event {
	return h.ch
}

// Dropped returns how many events were discarded.
func (h *ChannelHandler) Dropped() int64 {
	return h.dropped.Load()
}

// HandleEvent implements EventHandler.
func (h *ChannelHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	select {
	case h.ch <- event:
		return nil
	default:
		h.dropped.Add(1)
		return ErrSubscriberFull
	}
}

// Close closes the channel. Later events are ignored.
func (h *ChannelHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.ch)
	}
}
