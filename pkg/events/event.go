package events

import (
	"context"
	"time"
)

// Domain event codes. Each is published on the subject "events.<code>".
const (
	VerificationSubmitted = "VERIFICATION_SUBMITTED"
	VerificationCompleted = "VERIFICATION_COMPLETED"
	VerificationApproved  = "VERIFICATION_APPROVED"
	VerificationRejected  = "VERIFICATION_REJECTED"
	VerificationDisputed  = "VERIFICATION_DISPUTED"
	SystemBroadcast       = "SYSTEM_BROADCAST"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "VERIFICATION_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// String reads a string value from the payload.
func String(e Event, key string) string {
	v, _ := e.Payload()[key].(string)
	return v
}

// Publisher delivers events to the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when no bus is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
