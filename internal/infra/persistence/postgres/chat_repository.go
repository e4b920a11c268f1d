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
	"gorm.io/gorm/clause"
)

// chatRepository implements the domain.ChatRepository interface using GORM.
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository is the constructor for chatRepository.
func NewChatRepository(db *gorm.DB) repository.ChatRepository {
	return &chatRepository{db: db}
}

// FindByName retrieves a chat by its unique name.
func (repo *chatRepository) FindByName(ctx context.Context, name string) (*entity.Chat, error) {
	var chatM model.ChatModel
	err := repo.db.WithContext(ctx).
		Where("name = ?", name).
		First(&chatM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrChatNotFound
		}

		return nil, errors.Wrap(err, "failed to find chat by name")
	}

	return toChatDomain(&chatM), nil
}

// FindByID retrieves a chat by ID.
func (repo *chatRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Chat, error) {
	var chatM model.ChatModel
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&chatM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrChatNotFound
		}

		return nil, errors.Wrap(err, "failed to find chat by id")
	}

	return toChatDomain(&chatM), nil
}

// Create persists a new chat room.
func (repo *chatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	chatM := &model.ChatModel{
		ID:   chat.ID,
		Name: chat.Name,
	}

	if err := repo.db.WithContext(ctx).Create(chatM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrChatExists
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create chat")
	}

	chat.ID = chatM.ID
	chat.CreatedAt = chatM.CreatedAt
	chat.UpdatedAt = chatM.UpdatedAt

	return nil
}

// AddParticipant joins a user into a chat. Adding an existing participant is
// a no-op.
func (repo *chatRepository) AddParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	participant := &model.ChatParticipantModel{
		ChatID: chatID,
		UserID: userID,
	}

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(participant).Error
	if err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrChatNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to add chat participant")
	}

	return nil
}

// IsParticipant reports whether the user belongs to the chat.
func (repo *chatRepository) IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&model.ChatParticipantModel{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check chat participant")
	}

	return count > 0, nil
}

// ListParticipants returns the members of a chat.
func (repo *chatRepository) ListParticipants(ctx context.Context, chatID uuid.UUID) ([]entity.UserSummary, error) {
	var rows []userSummaryRow
	err := repo.db.WithContext(ctx).
		Table("chat_participants").
		Select("users.id, users.name, COALESCE(profiles.picture, '') AS picture").
		Joins("JOIN users ON users.id = chat_participants.user_id").
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id").
		Where("chat_participants.chat_id = ?", chatID).
		Order("users.name").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat participants")
	}

	return toSummaries(rows), nil
}

// ListForUser returns the chats the user participates in, most recently
// active first.
func (repo *chatRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]entity.Chat, error) {
	var chatMs []model.ChatModel
	err := repo.db.WithContext(ctx).
		Table("chats").
		Joins("JOIN chat_participants ON chat_participants.chat_id = chats.id").
		Where("chat_participants.user_id = ?", userID).
		Order("chats.updated_at DESC").
		Find(&chatMs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chats for user")
	}

	chats := make([]entity.Chat, 0, len(chatMs))
	for i := range chatMs {
		chats = append(chats, *toChatDomain(&chatMs[i]))
	}

	return chats, nil
}

// Touch bumps the chat's updated_at so chat lists sort by recency.
func (repo *chatRepository) Touch(ctx context.Context, chatID uuid.UUID, at time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ChatModel{}).
		Where("id = ?", chatID).
		Update("updated_at", at)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to touch chat")
	}
	if result.RowsAffected == 0 {
		return repository.ErrChatNotFound
	}

	return nil
}

// UpsertReadMarker records how far the user has read. GREATEST keeps the
// marker monotonic under concurrent updates.
func (repo *chatRepository) UpsertReadMarker(ctx context.Context, chatID, userID uuid.UUID, markedAt time.Time) error {
	readM := &model.ChatReadModel{
		ChatID:   chatID,
		UserID:   userID,
		MarkedAt: markedAt,
	}

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"marked_at": gorm.Expr("GREATEST(chat_reads.marked_at, EXCLUDED.marked_at)"),
			}),
		}).
		Create(readM).Error
	if err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrChatNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to upsert read marker")
	}

	return nil
}

// ReadMarker returns the user's read marker for the chat, or nil when the
// user has never marked it.
func (repo *chatRepository) ReadMarker(ctx context.Context, chatID, userID uuid.UUID) (*entity.ChatRead, error) {
	var readM model.ChatReadModel
	err := repo.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&readM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to read chat marker")
	}

	return &entity.ChatRead{
		ChatID:   readM.ChatID,
		UserID:   readM.UserID,
		MarkedAt: readM.MarkedAt,
	}, nil
}

// ListPartnerIDs returns the distinct ids of every user sharing at least one
// chat with the given user.
func (repo *chatRepository) ListPartnerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := repo.db.WithContext(ctx).
		Table("chat_participants AS others").
		Select("DISTINCT others.user_id").
		Joins("JOIN chat_participants AS mine ON mine.chat_id = others.chat_id").
		Where("mine.user_id = ? AND others.user_id <> ?", userID, userID).
		Scan(&ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat partners")
	}

	return ids, nil
}

func toChatDomain(chatM *model.ChatModel) *entity.Chat {
	return &entity.Chat{
		ID:        chatM.ID,
		Name:      chatM.Name,
		CreatedAt: chatM.CreatedAt,
		UpdatedAt: chatM.UpdatedAt,
	}
}
