package repository

import (
	"context"

	"meets/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPostRepository is a mock implementation of repository.PostRepository.
type MockPostRepository struct {
	mock.Mock
}

// NewMockPostRepository creates a mock whose expectations are asserted when
// the test finishes.
func NewMockPostRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPostRepository {
	m := &MockPostRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockPostRepository) FindByID(ctx context.Context, id, viewerID uuid.UUID) (*entity.Post, error) {
	args := m.Called(ctx, id, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostRepository) Create(ctx context.Context, post *entity.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostRepository) Update(ctx context.Context, post *entity.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostRepository) ListFeed(ctx context.Context, authorIDs []uuid.UUID, viewerID uuid.UUID, limit, offset int) ([]entity.Post, error) {
	args := m.Called(ctx, authorIDs, viewerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.Post), args.Error(1)
}

func (m *MockPostRepository) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	args := m.Called(ctx, authorID)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) ListByAuthor(ctx context.Context, authorID, viewerID uuid.UUID) ([]entity.Post, error) {
	args := m.Called(ctx, authorID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.Post), args.Error(1)
}

func (m *MockPostRepository) Like(ctx context.Context, postID, userID uuid.UUID) error {
	return m.Called(ctx, postID, userID).Error(0)
}

func (m *MockPostRepository) Unlike(ctx context.Context, postID, userID uuid.UUID) error {
	return m.Called(ctx, postID, userID).Error(0)
}

func (m *MockPostRepository) DeleteLikesByUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockPostRepository) DeleteByAuthor(ctx context.Context, authorID uuid.UUID) error {
	return m.Called(ctx, authorID).Error(0)
}
