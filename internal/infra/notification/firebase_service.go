// Package notification delivers push notifications through Firebase Cloud
// Messaging. Users are addressed via per-user topics, so the server never
// tracks individual device tokens.
package notification

import (
	"context"

	"meets/config"
	"meets/internal/domain/service"
	"meets/internal/errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const userTopicPrefix = "user-"

type firebaseService struct {
	client *messaging.Client
}

// NewFirebaseService creates a new Firebase notification service instance
func NewFirebaseService(ctx context.Context, cfg *config.Config) (service.NotificationService, error) {
	opt := option.WithCredentialsFile(cfg.Firebase.CredentialsPath)
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get messaging client")
	}

	return &firebaseService{
		client: client,
	}, nil
}

// SendToUser pushes a notification to every device subscribed to the user's
// topic. Devices subscribe to their owner's topic at login.
func (s *firebaseService) SendToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	message := &messaging.Message{
		Topic: userTopicPrefix + userID.String(),
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := s.client.Send(ctx, message); err != nil {
		return errors.Wrap(err, "failed to send notification")
	}

	return nil
}
