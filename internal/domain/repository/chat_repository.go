package repository

import (
	"context"
	"errors"
	"time"

	"meets/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrChatNotFound is returned when no chat matches the lookup key.
var ErrChatNotFound = errors.New("chat not found")

// ErrChatExists is returned when creating a chat whose name is taken.
var ErrChatExists = errors.New("chat name already exists")

// ChatRepository defines persistence operations for chat rooms, their
// participants and per-participant read markers.
type ChatRepository interface {
	// FindByName retrieves a chat by its unique name.
	FindByName(ctx context.Context, name string) (*entity.Chat, error)

	// FindByID retrieves a chat by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Chat, error)

	// Create persists a new chat room. Returns ErrChatExists when the name
	// is taken.
	Create(ctx context.Context, chat *entity.Chat) error

	// AddParticipant joins a user into a chat. Adding an existing
	// participant is a no-op.
	AddParticipant(ctx context.Context, chatID, userID uuid.UUID) error

	// IsParticipant reports whether the user belongs to the chat.
	IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error)

	// ListParticipants returns the members of a chat.
	ListParticipants(ctx context.Context, chatID uuid.UUID) ([]entity.UserSummary, error)

	// ListForUser returns the chats the user participates in, most
	// recently active first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]entity.Chat, error)

	// Touch bumps the chat's updated_at so chat lists sort by recency.
	Touch(ctx context.Context, chatID uuid.UUID, at time.Time) error

	// UpsertReadMarker records how far the user has read. The stored
	// marker only ever moves forward.
	UpsertReadMarker(ctx context.Context, chatID, userID uuid.UUID, markedAt time.Time) error

	// ReadMarker returns the user's read marker for the chat, or nil when
	// the user has never marked it.
	ReadMarker(ctx context.Context, chatID, userID uuid.UUID) (*entity.ChatRead, error)

	// ListPartnerIDs returns the distinct ids of every user sharing at
	// least one chat with the given user, excluding the user themself.
	ListPartnerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
