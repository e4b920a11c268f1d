package repository

import (
	"context"

	domainrepo "meets/internal/domain/repository"

	"github.com/stretchr/testify/mock"
)

// MockTransactionManager is a mock implementation of repository.TransactionManager.
type MockTransactionManager struct {
	mock.Mock
}

// NewMockTransactionManager creates a mock whose expectations are asserted
// when the test finishes.
func NewMockTransactionManager(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTransactionManager {
	m := &MockTransactionManager{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockTransactionManager) Execute(ctx context.Context, fn func(txRepoFactory domainrepo.RepositoryFactory) error) error {
	return m.Called(ctx, fn).Error(0)
}

// MockRepositoryFactory is a mock implementation of repository.RepositoryFactory.
type MockRepositoryFactory struct {
	mock.Mock
}

// NewMockRepositoryFactory creates a mock whose expectations are asserted
// when the test finishes.
func NewMockRepositoryFactory(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepositoryFactory {
	m := &MockRepositoryFactory{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockRepositoryFactory) UserRepo() domainrepo.UserRepository {
	return m.Called().Get(0).(domainrepo.UserRepository)
}

func (m *MockRepositoryFactory) ChatRepo() domainrepo.ChatRepository {
	return m.Called().Get(0).(domainrepo.ChatRepository)
}

func (m *MockRepositoryFactory) MessageRepo() domainrepo.MessageRepository {
	return m.Called().Get(0).(domainrepo.MessageRepository)
}

func (m *MockRepositoryFactory) PostRepo() domainrepo.PostRepository {
	return m.Called().Get(0).(domainrepo.PostRepository)
}
