package entity

import (
	"time"

	"github.com/google/uuid"
)

// Chat is a named conversation room. The name is the uniqueness key: joining
// an existing name adds the caller as a participant instead of creating a
// second room.
type Chat struct {
	ID           uuid.UUID
	Name         string
	Participants []UserSummary // Loaded on demand; nil when not requested.
	CreatedAt    time.Time
	UpdatedAt    time.Time // Bumped whenever a message lands, so chat lists sort by recency.
}

// Message is a single chat message inside a room.
type Message struct {
	ID        uuid.UUID
	ChatID    uuid.UUID
	SenderID  uuid.UUID
	Sender    *UserSummary // Loaded on demand; nil when not requested.
	Content   string
	CreatedAt time.Time
}

// ChatRead records how far a participant has read into a room. Messages
// created after MarkedAt count as unread for that participant.
type ChatRead struct {
	ChatID   uuid.UUID
	UserID   uuid.UUID
	MarkedAt time.Time
}

// ChatSummary is one row of a user's chat list: the room, the other
// participants, a window of recent messages, the total message count and
// the caller's unread count.
type ChatSummary struct {
	Chat         Chat
	Others       []UserSummary
	Messages     []Message
	MessageCount int64
	UnreadCount  int64
}

// MessagePage is one page of room history, newest first. HasMore is false
// when the page reached the beginning of the room.
type MessagePage struct {
	Messages []Message
	Page     int
	PerPage  int
	HasMore  bool
}
