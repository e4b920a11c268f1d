package usecase

import (
	"context"
	"time"

	"meets/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// CreateChatInput defines the data required to open a room between exactly
// two users.
type CreateChatInput struct {
	Name           string
	CreatorID      uuid.UUID
	ParticipantIDs []uuid.UUID
}

// SendMessageInput defines the data required to post a message to a room.
// A non-nil CreatedAt carries the client-supplied timestamp into the ledger.
type SendMessageInput struct {
	ChatName  string
	SenderID  uuid.UUID
	Content   string
	CreatedAt *time.Time
}

// BatchMessageInput is one entry of a batch ingestion request.
type BatchMessageInput struct {
	Content   string
	CreatedAt *time.Time
}

// SendMessagesInput defines a batch ingestion request. Every message is
// posted to the same room on behalf of the same sender.
type SendMessagesInput struct {
	ChatName string
	SenderID uuid.UUID
	Messages []BatchMessageInput
}

// ListMessagesInput defines a history page request. Page is 1-indexed,
// PerPage is bounded to 1..30.
type ListMessagesInput struct {
	ChatName string
	UserID   uuid.UUID
	Page     int
	PerPage  int
}

// ChatUsecase defines the chat room, delivery and pagination business operations.
type ChatUsecase interface {
	// CreateChat opens a room between exactly two participants. The name
	// is the uniqueness key: a taken name fails regardless of who the
	// participants are.
	CreateChat(ctx context.Context, input CreateChatInput) (*entity.Chat, error)

	// JoinChat joins the caller into the room with the given name,
	// creating the room when the name is free. This is the invite-link
	// and websocket entry path.
	JoinChat(ctx context.Context, name string, userID uuid.UUID) (*entity.Chat, error)

	// GetChats returns the caller's chat list, most recently active
	// first, each with the other participants, a window of recent
	// messages, the total message count and the caller's unread count.
	GetChats(ctx context.Context, userID uuid.UUID) ([]entity.ChatSummary, error)

	// GetMessages returns one page of room history, newest first.
	// Callers must be room participants.
	GetMessages(ctx context.Context, input ListMessagesInput) (*entity.MessagePage, error)

	// SendMessage persists a message in the room and returns it with the
	// sender summary attached. Delivery to connected clients is the
	// websocket gateway's concern, not this method's.
	SendMessage(ctx context.Context, input SendMessageInput) (*entity.Message, error)

	// SendMessages persists a batch of messages in the room within one
	// transaction. Membership is checked once for the whole batch.
	SendMessages(ctx context.Context, input SendMessagesInput) (int, error)

	// DeleteMessage removes a message permanently. Only the author may
	// delete it.
	DeleteMessage(ctx context.Context, messageID, callerID uuid.UUID) error

	// CountNewMessages returns the caller's unread count for the room.
	CountNewMessages(ctx context.Context, chatName string, userID uuid.UUID) (int64, error)

	// MarkRead advances the caller's read marker so the room's unread
	// count drops to zero. The marker never moves backwards.
	MarkRead(ctx context.Context, chatName string, userID uuid.UUID) error

	// FollowingToChat lists the users the caller follows who do not yet
	// share any room with the caller.
	FollowingToChat(ctx context.Context, userID uuid.UUID) ([]entity.UserSummary, error)

	// InviteCandidates lists the users the caller follows who are not yet
	// in the given room.
	InviteCandidates(ctx context.Context, chatName string, userID uuid.UUID) ([]entity.UserSummary, error)

	// InviteQR renders the room's join link as a PNG QR code.
	InviteQR(ctx context.Context, chatName string, userID uuid.UUID) ([]byte, error)
}
