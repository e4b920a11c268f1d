package repository

import (
	"context"
	"time"

	"meets/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockChatRepository is a mock implementation of repository.ChatRepository.
type MockChatRepository struct {
	mock.Mock
}

// NewMockChatRepository creates a mock whose expectations are asserted when
// the test finishes.
func NewMockChatRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockChatRepository {
	m := &MockChatRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockChatRepository) FindByName(ctx context.Context, name string) (*entity.Chat, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Chat), args.Error(1)
}

func (m *MockChatRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Chat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Chat), args.Error(1)
}

func (m *MockChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	return m.Called(ctx, chat).Error(0)
}

func (m *MockChatRepository) AddParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	return m.Called(ctx, chatID, userID).Error(0)
}

func (m *MockChatRepository) IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, chatID, userID)

	return args.Bool(0), args.Error(1)
}

func (m *MockChatRepository) ListParticipants(ctx context.Context, chatID uuid.UUID) ([]entity.UserSummary, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.UserSummary), args.Error(1)
}

func (m *MockChatRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]entity.Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.Chat), args.Error(1)
}

func (m *MockChatRepository) ListPartnerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockChatRepository) Touch(ctx context.Context, chatID uuid.UUID, at time.Time) error {
	return m.Called(ctx, chatID, at).Error(0)
}

func (m *MockChatRepository) UpsertReadMarker(ctx context.Context, chatID, userID uuid.UUID, markedAt time.Time) error {
	return m.Called(ctx, chatID, userID, markedAt).Error(0)
}

func (m *MockChatRepository) ReadMarker(ctx context.Context, chatID, userID uuid.UUID) (*entity.ChatRead, error) {
	args := m.Called(ctx, chatID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.ChatRead), args.Error(1)
}
