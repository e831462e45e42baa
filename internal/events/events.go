package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
)

// Event types.
const (
	TypeFileIngested   = "file.ingested"
	TypeFileDeleted    = "file.deleted"
	TypeStorageWarning = "storage.warning"
	TypePipelineState  = "pipeline.state"
)

// Event represents a state change published to subscribers.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Payload contains the type-specific delta serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// FileIngestedPayload lists the records appended by one upload.
type FileIngestedPayload struct {
	Records []domain.FileRecord `json:"records"`
}

// FileDeletedPayload names the removed record.
type FileDeletedPayload struct {
	FileID string `json:"file_id"`
}

// StorageWarningPayload reports a non-fatal persistence failure.
type StorageWarningPayload struct {
	Message string `json:"message"`
}

// PipelineStatePayload reports a pipeline transition.
type PipelineStatePayload struct {
	State    domain.PipelineState `json:"state"`
	Occupant string               `json:"occupant,omitempty"`
	Message  string               `json:"message,omitempty"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}

// Emit builds and publishes an event. A nil emitter is a no-op.
func Emit(ctx context.Context, emitter EventEmitter, eventType string, payload interface{}) error {
	if emitter == nil {
		return nil
	}
	event, err := NewEvent(eventType, payload)
	if err != nil {
		return err
	}
	return emitter.EmitEvent(ctx, event)
}
