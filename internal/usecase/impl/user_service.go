package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "meets/internal/delivery/context"
	"meets/internal/domain/entity"
	domainerrors "meets/internal/domain/errors"
	"meets/internal/domain/repository"
	"meets/internal/domain/service"
	"meets/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const searchResultLimit = 20

// userService implements the UserUsecase interface.
type userService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	postRepo  repository.PostRepository
	hasher    service.PasswordHasher
	logger    *slog.Logger
}

// UserServiceParams holds dependencies for userService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	PostRepo  repository.PostRepository
	Hasher    service.PasswordHasher
	Logger    *slog.Logger
}

// NewUserService is the constructor for userService.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		postRepo:  params.PostRepo,
		hasher:    params.Hasher,
		logger:    params.Logger,
	}
}

func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CurrentUser returns the signed-in user's basic information.
func (srv *userService) CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrUserNotFound.WrapMessage("user not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find current user")
	}

	return user, nil
}

// GetProfile returns a user's public profile with its counters.
func (srv *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*usecase.ProfileOutput, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrUserNotFound.WrapMessage("user not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	followers, following, err := srv.userRepo.CountFollows(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count follows")
	}

	posts, err := srv.postRepo.CountByAuthor(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count posts")
	}

	output := &usecase.ProfileOutput{
		Name:      user.Name,
		Posts:     posts,
		Followers: followers,
		Following: following,
	}
	if user.Profile != nil {
		output.Picture = user.Profile.Picture
		output.Bio = user.Profile.Bio
	}

	return output, nil
}

// UpsertProfile creates or updates the caller's profile. A non-empty name
// also renames the account.
func (srv *userService) UpsertProfile(ctx context.Context, input usecase.UpsertProfileInput) (*entity.Profile, error) {
	user, err := srv.userRepo.FindByID(ctx, input.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrUserNotFound.WrapMessage("user not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	profile := &entity.Profile{
		UserID:  input.UserID,
		Picture: input.Picture,
		Bio:     input.Bio,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		if input.Name != "" && input.Name != user.Name {
			user.Name = input.Name
			if err := userRepo.Update(ctx, user); err != nil {
				return errors.Wrap(err, "failed to rename user")
			}
		}

		return userRepo.UpsertProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Profile upserted", slog.String("userID", input.UserID.String()))

	return profile, nil
}

// SearchUsers returns users whose name contains the query.
func (srv *userService) SearchUsers(ctx context.Context, query string) ([]entity.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []entity.UserSummary{}, nil
	}

	summaries, err := srv.userRepo.SearchByName(ctx, query, searchResultLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search users")
	}

	return summaries, nil
}

// Follow adds a follow edge from followerID to followeeID.
func (srv *userService) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return domainerrors.ErrSelfFollow.WrapMessage("cannot follow yourself")
	}

	if err := srv.userRepo.Follow(ctx, followerID, followeeID); err != nil {
		switch {
		case errors.Is(err, repository.ErrFollowExists):
			return domainerrors.ErrAlreadyFollowing.WrapMessage("already following")
		case errors.Is(err, repository.ErrUserNotFound):
			return domainerrors.ErrUserNotFound.WrapMessage("user not found")
		}

		return errors.Wrap(err, "failed to follow user")
	}

	srv.log(ctx).Info("Follow created",
		slog.String("followerID", followerID.String()),
		slog.String("followeeID", followeeID.String()),
	)

	return nil
}

// Unfollow removes the follow edge.
func (srv *userService) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if err := srv.userRepo.Unfollow(ctx, followerID, followeeID); err != nil {
		if errors.Is(err, repository.ErrFollowNotFound) {
			return domainerrors.ErrNotFollowing.WrapMessage("not following")
		}

		return errors.Wrap(err, "failed to unfollow user")
	}

	return nil
}

// IsFollowing reports whether followerID follows followeeID.
func (srv *userService) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	following, err := srv.userRepo.IsFollowing(ctx, followerID, followeeID)
	if err != nil {
		return false, errors.Wrap(err, "failed to check follow state")
	}

	return following, nil
}

// Followers lists the users following the given user.
func (srv *userService) Followers(ctx context.Context, userID uuid.UUID) ([]entity.UserSummary, error) {
	summaries, err := srv.userRepo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list followers")
	}

	return summaries, nil
}

// Following lists the users the given user follows.
func (srv *userService) Following(ctx context.Context, userID uuid.UUID) ([]entity.UserSummary, error) {
	summaries, err := srv.userRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list following")
	}

	return summaries, nil
}

// DeleteAccount removes the account and every dependent row in one
// transaction, after confirming the password.
func (srv *userService) DeleteAccount(ctx context.Context, input usecase.DeleteAccountInput) error {
	user, err := srv.userRepo.FindByID(ctx, input.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return domainerrors.ErrUserNotFound.WrapMessage("user not found")
	}
	if err != nil {
		return errors.Wrap(err, "failed to find user")
	}

	if !user.HasPassword() {
		return domainerrors.ErrPasswordLoginUnavailable.WrapMessage("account is federated through Google")
	}
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		return domainerrors.ErrInvalidCredentials.WrapMessage("password mismatch")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		postRepo := repoFactory.PostRepo()

		if err := postRepo.DeleteLikesByUser(ctx, user.ID); err != nil {
			return errors.Wrap(err, "failed to delete likes")
		}
		if err := postRepo.DeleteByAuthor(ctx, user.ID); err != nil {
			return errors.Wrap(err, "failed to delete posts")
		}
		if err := userRepo.DeleteFollowEdges(ctx, user.ID); err != nil {
			return errors.Wrap(err, "failed to delete follow edges")
		}

		return userRepo.Delete(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Account deleted", slog.String("userID", input.UserID.String()))

	return nil
}
