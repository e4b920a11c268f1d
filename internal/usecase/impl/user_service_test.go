package impl

import (
	"context"
	"testing"

	"meets/internal/domain/entity"
	domainerrors "meets/internal/domain/errors"
	"meets/internal/domain/repository"
	mockRepo "meets/internal/mocks/repository"
	mockSvc "meets/internal/mocks/service"
	"meets/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// userServiceFixtures holds all test dependencies for user service tests.
type userServiceFixtures struct {
	service   usecase.UserUsecase
	txManager *mockRepo.MockTransactionManager
	userRepo  *mockRepo.MockUserRepository
	postRepo  *mockRepo.MockPostRepository
	hasher    *mockSvc.MockPasswordHasher
}

func createTestUserService(t *testing.T) userServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	userRepo := mockRepo.NewMockUserRepository(t)
	postRepo := mockRepo.NewMockPostRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)

	service := NewUserService(UserServiceParams{
		TxManager: txManager,
		UserRepo:  userRepo,
		PostRepo:  postRepo,
		Hasher:    hasher,
		Logger:    newDiscardLogger(),
	})

	return userServiceFixtures{
		service:   service,
		txManager: txManager,
		userRepo:  userRepo,
		postRepo:  postRepo,
		hasher:    hasher,
	}
}

func TestUserService_GetProfile_Success(t *testing.T) {
	fix := createTestUserService(t)
	ctx := context.Background()

	user := &entity.User{
		ID:   uuid.New(),
		Name: "Alice",
		Profile: &entity.Profile{
			Picture: "https://example.com/alice.jpg",
			Bio:     "hello",
		},
	}

	fix.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	fix.userRepo.On("CountFollows", ctx, user.ID).Return(int64(3), int64(5), nil)
	fix.postRepo.On("CountByAuthor", ctx, user.ID).Return(int64(7), nil)

	output, err := fix.service.GetProfile(ctx, user.ID)

	require.NoError(t, err)
	assert.Equal(t, "Alice", output.Name)
	assert.Equal(t, "hello", output.Bio)
	assert.Equal(t, int64(3), output.Followers)
	assert.Equal(t, int64(5), output.Following)
	assert.Equal(t, int64(7), output.Posts)
}

func TestUserService_GetProfile_UserNotFound(t *testing.T) {
	fix := createTestUserService(t)
	ctx := context.Background()
	userID := uuid.New()

	fix.userRepo.On("FindByID", ctx, userID).Return(nil, repository.ErrUserNotFound)

	output, err := fix.service.GetProfile(ctx, userID)

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrUserNotFound))
}

func TestUserService_UpsertProfile_RenamesUser(t *testing.T) {
	fix := createTestUserService(t)
	ctx := context.Background()

	user := &entity.User{ID: uuid.New(), Name: "Old Name"}
	input := usecase.UpsertProfileInput{
		UserID:  user.ID,
		Name:    "New Name",
		Picture: "https://example.com/pic.jpg",
		Bio:     "bio",
	}

	fix.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	fix.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(repository.RepositoryFactory) error)

			factory := mockRepo.NewMockRepositoryFactory(t)
			txUserRepo := mockRepo.NewMockUserRepository(t)
			factory.On("UserRepo").Return(txUserRepo)

			txUserRepo.On("Update", ctx, mock.MatchedBy(func(u *entity.User) bool {
				return u.Name == "New Name"
			})).Return(nil)
			txUserRepo.On("UpsertProfile", ctx, mock.MatchedBy(func(p *entity.Profile) bool {
				return p.UserID == user.ID && p.Picture == input.Picture && p.Bio == input.Bio
			})).Return(nil)

			require.NoError(t, fn(factory))
		}).
		Return(nil)

	profile, err := fix.service.UpsertProfile(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, input.Bio, profile.Bio)
}

func TestUserService_SearchUsers_EmptyQuery(t *testing.T) {
	fix := createTestUserService(t)

	summaries, err := fix.service.SearchUsers(context.Background(), "   ")

	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestUserService_SearchUsers(t *testing.T) {
	fix := createTestUserService(t)
	ctx := context.Background()

	expected := []entity.UserSummary{{ID: uuid.New(), Name: "Alice"}}
	fix.userRepo.On("SearchByName", ctx, "Ali", searchResultLimit).Return(expected, nil)

	summaries, err := fix.service.SearchUsers(ctx, "Ali")

	require.NoError(t, err)
	assert.Equal(t, expected, summaries)
}

func TestUserService_Follow_Self(t *testing.T) {
	fix := createTestUserService(t)
	userID := uuid.New()

	err := fix.service.Follow(context.Background(), userID, userID)

	assert.True(t, errors.Is(err, domainerrors.ErrSelfFollow))
}

func TestUserService_Follow_AlreadyFollowing(t *testing.T) {
	fix := createTestUserService(t)
	ctx := context.Background()
	followerID, followeeID := uuid.New(), uuid.New()

	fix.userRepo.On("Follow", ctx, followerID, followeeID).Return(repository.ErrFollowExists)

	err := fix.service.Follow(ctx, followerID, followeeID)

	assert.True(t, errors.Is(err, domainerrors.ErrAlreadyFollowing))
}

func TestUserService_Unfollow_NotFollowing(t *testing.T) {
	fix := createTestUserService(t)
	ctx := context.Background()
	followerID, followeeID := uuid.New(), uuid.New()

	fix.userRepo.On("Unfollow", ctx, followerID, followeeID).Return(repository.ErrFollowNotFound)

	err := fix.service.Unfollow(ctx, followerID, followeeID)

	assert.True(t, errors.Is(err, domainerrors.ErrNotFollowing))
}

func TestUserService_DeleteAccount_Success(t *testing.T) {
	fix := createTestUserService(t)
	ctx := context.Background()

	user := &entity.User{ID: uuid.New(), PasswordHash: "hashed"}

	fix.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	fix.hasher.On("Check", "Password123!", "hashed").Return(true)
	fix.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(repository.RepositoryFactory) error)

			factory := mockRepo.NewMockRepositoryFactory(t)
			txUserRepo := mockRepo.NewMockUserRepository(t)
			txPostRepo := mockRepo.NewMockPostRepository(t)
			factory.On("UserRepo").Return(txUserRepo)
			factory.On("PostRepo").Return(txPostRepo)

			txPostRepo.On("DeleteLikesByUser", ctx, user.ID).Return(nil)
			txPostRepo.On("DeleteByAuthor", ctx, user.ID).Return(nil)
			txUserRepo.On("DeleteFollowEdges", ctx, user.ID).Return(nil)
			txUserRepo.On("Delete", ctx, user.ID).Return(nil)

			require.NoError(t, fn(factory))
		}).
		Return(nil)

	require.NoError(t, fix.service.DeleteAccount(ctx, usecase.DeleteAccountInput{
		UserID:   user.ID,
		Password: "Password123!",
	}))
}

func TestUserService_DeleteAccount_WrongPassword(t *testing.T) {
	fix := createTestUserService(t)
	ctx := context.Background()

	user := &entity.User{ID: uuid.New(), PasswordHash: "hashed"}

	fix.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	fix.hasher.On("Check", "wrong", "hashed").Return(false)

	err := fix.service.DeleteAccount(ctx, usecase.DeleteAccountInput{
		UserID:   user.ID,
		Password: "wrong",
	})

	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
}
