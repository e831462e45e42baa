package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/studyquest/internal/events"
	"github.com/phrazzld/studyquest/internal/platform/logger"
)

// DefaultHeartbeat is how often an idle stream sends a comment frame.
const DefaultHeartbeat = 15 * time.Second

const subscriberBuffer = 64

// Subscriptions registers and removes event subscribers.
type Subscriptions interface {
	RegisterHandler(handler events.EventHandler)
	RemoveHandler(handler events.EventHandler)
}

// EventHandler streams published events as server-sent events.
type EventHandler struct {
	subs      Subscriptions
	heartbeat time.Duration
	logger    *slog.Logger
}

// NewEventHandler creates an EventHandler. A non-positive heartbeat uses
// DefaultHeartbeat.
func NewEventHandler(subs Subscriptions, heartbeat time.Duration, log *slog.Logger) *EventHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	if log == nil {
		log = slog.Default()
	}
	return &EventHandler{subs: subs, heartbeat: heartbeat, logger: log.With("handler", "events")}
}

// Stream handles GET /api/events. It runs until the client disconnects.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)
	rc := http.NewResponseController(w)

	sub := events.NewChannelHandler(subscriberBuffer)
	h.subs.RegisterHandler(sub)
	defer func() {
		h.subs.RemoveHandler(sub)
		sub.Close()
		if dropped := sub.Dropped(); dropped > 0 {
			log.WarnContext(ctx, "event subscriber dropped events", "dropped", dropped)
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.ErrorContext(ctx, "event stream cannot flush", "error", err)
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, event.Payload); err != nil {
				log.DebugContext(ctx, "event stream closed", "error", err)
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				log.DebugContext(ctx, "event stream closed", "error", err)
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
