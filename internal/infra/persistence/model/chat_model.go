package model

import (
	"time"

	"github.com/google/uuid"
)

// ChatModel mirrors the 'chats' table. The room name is the uniqueness key.
type ChatModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Name      string    `gorm:"type:varchar(100);unique;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (ChatModel) TableName() string {
	return "chats"
}

// ChatParticipantModel mirrors the 'chat_participants' join table.
type ChatParticipantModel struct {
	ChatID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (ChatParticipantModel) TableName() string {
	return "chat_participants"
}

// MessageModel mirrors the 'messages' table. The (chat_id, created_at)
// index backs both history pagination and unread counting.
type MessageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	ChatID    uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_chat_created,priority:1"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_messages_chat_created,priority:2"`
}

// TableName explicitly sets the table name for GORM.
func (MessageModel) TableName() string {
	return "messages"
}

// ChatReadModel mirrors the 'chat_reads' table, one row per participant
// holding the read marker.
type ChatReadModel struct {
	ChatID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	MarkedAt time.Time `gorm:"not null"`
}

// TableName explicitly sets the table name for GORM.
func (ChatReadModel) TableName() string {
	return "chat_reads"
}
