package telemetry

import (
	"context"
	"log"
	"time"
)

// Event types published by this service.
const (
	EventPartnerBound     = "partner.bound"
	EventVideoProvisioned = "video.provisioned"
	EventChatReplied      = "chat.replied"
	EventAuditLog         = "audit.log"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// EventEmitter wraps domain events into a versioned envelope and publishes
// them with the event type as routing key.
type EventEmitter struct {
	publisher   Publisher
	service     string
	environment string
}

type EventEnvelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	RequestID     string `json:"request_id"`
	UserID        *int   `json:"user_id,omitempty"`
	Payload       any    `json:"payload,omitempty"`
}

func NewEventEmitter(publisher Publisher, service, environment string) *EventEmitter {
	return &EventEmitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one event. Failures are logged, not propagated; events are
// observability, not part of the request contract.
func (e *EventEmitter) Emit(ctx context.Context, eventType, requestID string, userID *int, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := EventEnvelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, eventType, envelope); err != nil {
		log.Printf("event publish failed type=%s: %v", eventType, err)
	}
}
