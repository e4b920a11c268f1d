// Package repository provides hand-written testify mocks for the domain
// repository interfaces.
package repository

import (
	"context"
	"time"

	"meets/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a mock whose expectations are asserted when
// the test finishes.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) UpdateRefreshTokenHash(ctx context.Context, userID uuid.UUID, hash *string) error {
	return m.Called(ctx, userID, hash).Error(0)
}

func (m *MockUserRepository) UpdateResetToken(ctx context.Context, userID uuid.UUID, hash *string, expiresAt *time.Time) error {
	return m.Called(ctx, userID, hash, expiresAt).Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}

func (m *MockUserRepository) UpsertProfile(ctx context.Context, profile *entity.Profile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockUserRepository) SearchByName(ctx context.Context, nameFragment string, limit int) ([]entity.UserSummary, error) {
	args := m.Called(ctx, nameFragment, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.UserSummary), args.Error(1)
}

func (m *MockUserRepository) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	return m.Called(ctx, followerID, followeeID).Error(0)
}

func (m *MockUserRepository) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	return m.Called(ctx, followerID, followeeID).Error(0)
}

func (m *MockUserRepository) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)

	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) CountFollows(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	args := m.Called(ctx, userID)

	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ListFollowers(ctx context.Context, userID uuid.UUID) ([]entity.UserSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.UserSummary), args.Error(1)
}

func (m *MockUserRepository) ListFollowing(ctx context.Context, userID uuid.UUID) ([]entity.UserSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]entity.UserSummary), args.Error(1)
}

func (m *MockUserRepository) DeleteFollowEdges(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}
