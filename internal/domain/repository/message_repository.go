package repository

import (
	"context"
	"errors"
	"time"

	"meets/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrMessageNotFound is returned when no message matches the lookup key.
var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines persistence operations for chat messages.
type MessageRepository interface {
	// Create persists a new message. A preset CreatedAt is kept, otherwise
	// the store assigns the current time.
	Create(ctx context.Context, message *entity.Message) error

	// CreateBatch persists several messages in one insert, keeping preset
	// CreatedAt values.
	CreateBatch(ctx context.Context, messages []entity.Message) error

	// FindByID returns the message with the given id.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Message, error)

	// Delete removes the message permanently.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListRecent returns the newest messages of a chat, newest first,
	// capped at limit.
	ListRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]entity.Message, error)

	// ListPage returns one page of chat history, newest first, skipping
	// offset rows.
	ListPage(ctx context.Context, chatID uuid.UUID, offset, limit int) ([]entity.Message, error)

	// CountByChat returns the total number of messages in the chat.
	CountByChat(ctx context.Context, chatID uuid.UUID) (int64, error)

	// CountAfter counts messages in the chat created strictly after the
	// given time, excluding those sent by excludeSender.
	CountAfter(ctx context.Context, chatID uuid.UUID, after time.Time, excludeSender uuid.UUID) (int64, error)

	// LatestCreatedAt returns the creation time of the newest message in
	// the chat, or nil when the chat has no messages.
	LatestCreatedAt(ctx context.Context, chatID uuid.UUID) (*time.Time, error)
}
