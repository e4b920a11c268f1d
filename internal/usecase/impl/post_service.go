package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "meets/internal/delivery/context"
	"meets/internal/domain/entity"
	domainerrors "meets/internal/domain/errors"
	"meets/internal/domain/repository"
	"meets/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	defaultFeedPageSize = 20
	maxFeedPageSize     = 100
)

// postService implements the PostUsecase interface.
type postService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// PostServiceParams holds dependencies for postService, injected by Fx.
type PostServiceParams struct {
	fx.In

	PostRepo repository.PostRepository
	UserRepo repository.UserRepository
	Logger   *slog.Logger
}

// NewPostService is the constructor for postService.
func NewPostService(params PostServiceParams) usecase.PostUsecase {
	return &postService{
		postRepo: params.PostRepo,
		userRepo: params.UserRepo,
		logger:   params.Logger,
	}
}

func (srv *postService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreatePost publishes a new post by the author.
func (srv *postService) CreatePost(ctx context.Context, input usecase.CreatePostInput) (*entity.Post, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("post content is empty")
	}

	post := &entity.Post{
		AuthorID: input.AuthorID,
		Content:  input.Content,
		ImageURL: input.ImageURL,
	}
	if err := srv.postRepo.Create(ctx, post); err != nil {
		return nil, errors.Wrap(err, "failed to create post")
	}

	srv.log(ctx).Info("Post created",
		slog.String("postID", post.ID.String()),
		slog.String("authorID", input.AuthorID.String()),
	)

	return srv.postRepo.FindByID(ctx, post.ID, input.AuthorID)
}

// UpdatePost edits a post. Only the author may edit.
func (srv *postService) UpdatePost(ctx context.Context, input usecase.UpdatePostInput) (*entity.Post, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("post content is empty")
	}

	post, err := srv.requireOwnership(ctx, input.PostID, input.AuthorID)
	if err != nil {
		return nil, err
	}

	post.Content = input.Content
	post.ImageURL = input.ImageURL
	if err := srv.postRepo.Update(ctx, post); err != nil {
		return nil, errors.Wrap(err, "failed to update post")
	}

	return srv.postRepo.FindByID(ctx, post.ID, input.AuthorID)
}

// DeletePost removes a post and its likes. Only the author may delete.
func (srv *postService) DeletePost(ctx context.Context, postID, callerID uuid.UUID) error {
	if _, err := srv.requireOwnership(ctx, postID, callerID); err != nil {
		return err
	}

	if err := srv.postRepo.Delete(ctx, postID); err != nil {
		return errors.Wrap(err, "failed to delete post")
	}

	srv.log(ctx).Info("Post deleted", slog.String("postID", postID.String()))

	return nil
}

// GetPost returns a single post with like state for the viewer.
func (srv *postService) GetPost(ctx context.Context, postID, viewerID uuid.UUID) (*entity.Post, error) {
	post, err := srv.postRepo.FindByID(ctx, postID, viewerID)
	if errors.Is(err, repository.ErrPostNotFound) {
		return nil, domainerrors.ErrPostNotFound.WrapMessage("post not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find post")
	}

	return post, nil
}

// Feed returns posts from the viewer and the users they follow, newest first.
func (srv *postService) Feed(ctx context.Context, input usecase.FeedInput) ([]entity.Post, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultFeedPageSize
	}
	if limit > maxFeedPageSize {
		limit = maxFeedPageSize
	}

	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	following, err := srv.userRepo.ListFollowing(ctx, input.ViewerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list following")
	}

	// The viewer's own posts belong in their feed too.
	authorIDs := make([]uuid.UUID, 0, len(following)+1)
	authorIDs = append(authorIDs, input.ViewerID)
	for _, followee := range following {
		authorIDs = append(authorIDs, followee.ID)
	}

	posts, err := srv.postRepo.ListFeed(ctx, authorIDs, input.ViewerID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list feed")
	}

	return posts, nil
}

// PostsByUser returns a user's posts, newest first.
func (srv *postService) PostsByUser(ctx context.Context, authorID, viewerID uuid.UUID) ([]entity.Post, error) {
	posts, err := srv.postRepo.ListByAuthor(ctx, authorID, viewerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list posts by author")
	}

	return posts, nil
}

// Like adds the caller's like to a post.
func (srv *postService) Like(ctx context.Context, postID, userID uuid.UUID) error {
	if err := srv.postRepo.Like(ctx, postID, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrLikeExists):
			return domainerrors.ErrAlreadyLiked.WrapMessage("already liked")
		case errors.Is(err, repository.ErrPostNotFound):
			return domainerrors.ErrPostNotFound.WrapMessage("post not found")
		}

		return errors.Wrap(err, "failed to like post")
	}

	return nil
}

// Unlike removes the caller's like from a post.
func (srv *postService) Unlike(ctx context.Context, postID, userID uuid.UUID) error {
	if err := srv.postRepo.Unlike(ctx, postID, userID); err != nil {
		return errors.Wrap(err, "failed to unlike post")
	}

	return nil
}

// requireOwnership resolves the post and checks the caller authored it.
func (srv *postService) requireOwnership(ctx context.Context, postID, callerID uuid.UUID) (*entity.Post, error) {
	post, err := srv.postRepo.FindByID(ctx, postID, callerID)
	if errors.Is(err, repository.ErrPostNotFound) {
		return nil, domainerrors.ErrPostNotFound.WrapMessage("post not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find post")
	}
	if post.AuthorID != callerID {
		return nil, domainerrors.ErrPostOwnershipViolation.WrapMessage("caller is not the author")
	}

	return post, nil
}
