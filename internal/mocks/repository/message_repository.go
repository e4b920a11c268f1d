package repository

import (
	"context"
	"time"

	"meets/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockMessageRepository is a mock implementation of repository.MessageRepository.
type MockMessageRepository struct {
	mock.Mock
}

// NewMockMessageRepository creates a mock whose expectations are asserted
// when the test finishes.
func NewMockMessageRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMessageRepository {
	m := &MockMessageRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockMessageRepository) CreateBatch(ctx context.Context, messages []entity.Message) error {
	return m.Called(ctx, messages).Error(0)
}

func (m *MockMessageRepository) ListRecent(ctx context.Context, chatID uuid.UUID, limit int) ([]entity.Message, error) {
	args := m.Called(ctx, chatID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.Message), args.Error(1)
}

func (m *MockMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Message), args.Error(1)
}

func (m *MockMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMessageRepository) ListPage(ctx context.Context, chatID uuid.UUID, offset, limit int) ([]entity.Message, error) {
	args := m.Called(ctx, chatID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.Message), args.Error(1)
}

func (m *MockMessageRepository) CountByChat(ctx context.Context, chatID uuid.UUID) (int64, error) {
	args := m.Called(ctx, chatID)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) CountAfter(ctx context.Context, chatID uuid.UUID, after time.Time, excludeSender uuid.UUID) (int64, error) {
	args := m.Called(ctx, chatID, after, excludeSender)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageRepository) LatestCreatedAt(ctx context.Context, chatID uuid.UUID) (*time.Time, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*time.Time), args.Error(1)
}
