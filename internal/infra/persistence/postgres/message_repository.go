package postgres

import (
	"context"
	"time"

	"meets/internal/domain/entity"
	domainerrors "meets/internal/domain/errors"
	"meets/internal/domain/repository"
	"meets/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// messageRepository implements the domain.MessageRepository interface using GORM.
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository is the constructor for messageRepository.
func NewMessageRepository(db *gorm.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

// messageRow joins a message with its sender's summary.
type messageRow struct {
	ID            uuid.UUID
	ChatID        uuid.UUID
	SenderID      uuid.UUID
	Content       string
	CreatedAt     time.Time
	SenderName    string
	SenderPicture string
}

func (r messageRow) toDomain() entity.Message {
	return entity.Message{
		ID:       r.ID,
		ChatID:   r.ChatID,
		SenderID: r.SenderID,
		Sender: &entity.UserSummary{
			ID:      r.SenderID,
			Name:    r.SenderName,
			Picture: r.SenderPicture,
		},
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}

// Create persists a new message. A preset CreatedAt survives, so callers may
// carry a client-supplied timestamp into the ledger.
func (repo *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	messageM := &model.MessageModel{
		ID:        message.ID,
		ChatID:    message.ChatID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}

	if err := repo.db.WithContext(ctx).Create(messageM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrChatNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create message")
	}

	message.ID = messageM.ID
	message.CreatedAt = messageM.CreatedAt

	return nil
}

// CreateBatch persists several messages with a single insert.
func (repo *messageRepository) CreateBatch(ctx context.Context, messages []entity.Message) error {
	if len(messages) == 0 {
		return nil
	}

	messageMs := make([]model.MessageModel, 0, len(messages))
	for _, message := range messages {
		messageMs = append(messageMs, model.MessageModel{
			ID:        message.ID,
			ChatID:    message.ChatID,
			SenderID:  message.SenderID,
			Content:   message.Content,
			CreatedAt: message.CreatedAt,
		})
	}

	if err := repo.db.WithContext(ctx).Create(&messageMs).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrChatNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create messages")
	}

	return nil
}

// FindByID returns the message with the given id.
func (repo *messageRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	var messageM model.MessageModel
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&messageM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMessageNotFound
		}

		return nil, errors.Wrap(err, "failed to find message")
	}

	return &entity.Message{
		ID:        messageM.ID,
		ChatID:    messageM.ChatID,
		SenderID:  messageM.SenderID,
		Content:   messageM.Content,
		CreatedAt: messageM.CreatedAt,
	}, nil
}

// Delete removes the message permanently.
func (repo *messageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.MessageModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete message")
	}
	if result.RowsAffected == 0 {
		return repository.ErrMessageNotFound
	}

	return nil
}

// ListRecent returns the newest messages of a chat, newest first.
func (repo *messageRepository) ListRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]entity.Message, error) {
	return repo.listPage(ctx, chatID, 0, limit)
}

// ListPage returns one page of chat history, newest first, skipping offset
// rows.
func (repo *messageRepository) ListPage(ctx context.Context, chatID uuid.UUID, offset, limit int) ([]entity.Message, error) {
	return repo.listPage(ctx, chatID, offset, limit)
}

func (repo *messageRepository) listPage(ctx context.Context, chatID uuid.UUID, offset, limit int) ([]entity.Message, error) {
	var rows []messageRow
	err := repo.db.WithContext(ctx).
		Table("messages").
		Select("messages.id, messages.chat_id, messages.sender_id, messages.content, messages.created_at, "+
			"users.name AS sender_name, COALESCE(profiles.picture, '') AS sender_picture").
		Joins("JOIN users ON users.id = messages.sender_id").
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id").
		Where("messages.chat_id = ?", chatID).
		Order("messages.created_at DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list messages")
	}

	messages := make([]entity.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.toDomain())
	}

	return messages, nil
}

// CountByChat returns the total number of messages in the chat.
func (repo *messageRepository) CountByChat(ctx context.Context, chatID uuid.UUID) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&model.MessageModel{}).
		Where("chat_id = ?", chatID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count messages")
	}

	return count, nil
}

// CountAfter counts messages created strictly after the given time,
// excluding those sent by excludeSender.
func (repo *messageRepository) CountAfter(ctx context.Context, chatID uuid.UUID, after time.Time, excludeSender uuid.UUID) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&model.MessageModel{}).
		Where("chat_id = ? AND created_at > ? AND sender_id <> ?", chatID, after, excludeSender).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread messages")
	}

	return count, nil
}

// LatestCreatedAt returns the creation time of the newest message in the
// chat, or nil when the chat has no messages.
func (repo *messageRepository) LatestCreatedAt(ctx context.Context, chatID uuid.UUID) (*time.Time, error) {
	var messageM model.MessageModel
	err := repo.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		First(&messageM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to find latest message")
	}

	createdAt := messageM.CreatedAt

	return &createdAt, nil
}
