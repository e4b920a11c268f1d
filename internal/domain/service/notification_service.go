package service

import (
	"context"

	"github.com/google/uuid"
)

// NotificationService defines the interface for push notification delivery.
// Each user is addressed through a per-user topic, so offline devices pick
// the notification up without the server tracking device tokens.
type NotificationService interface {
	// SendToUser pushes a notification to every device subscribed to the
	// user's topic.
	SendToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error
}
