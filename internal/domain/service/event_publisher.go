package service

import (
	"context"
	"time"
)

// Event types published to the message bus.
const (
	EventUserRegistered     = "user.registered"
	EventChatMessageCreated = "chat.message.created"
)

// Event is a domain event handed to the message bus for async consumers.
type Event struct {
	RequestID  string            `json:"request_id,omitempty"` // For distributed tracing
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishEvent publishes a domain event for async processing
	PublishEvent(ctx context.Context, event *Event) error

	// Close releases any resources held by the publisher
	Close() error
}
