package usecase

import (
	"context"

	"meets/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// CreatePostInput defines the data required to publish a post.
type CreatePostInput struct {
	AuthorID uuid.UUID
	Content  string
	ImageURL string
}

// UpdatePostInput defines the editable post fields.
type UpdatePostInput struct {
	PostID   uuid.UUID
	AuthorID uuid.UUID
	Content  string
	ImageURL string
}

// FeedInput defines a feed page request.
type FeedInput struct {
	ViewerID uuid.UUID
	Limit    int
	Offset   int
}

// PostUsecase defines the feed and like business operations.
type PostUsecase interface {
	// CreatePost publishes a new post by the author.
	CreatePost(ctx context.Context, input CreatePostInput) (*entity.Post, error)

	// UpdatePost edits a post. Only the author may edit.
	UpdatePost(ctx context.Context, input UpdatePostInput) (*entity.Post, error)

	// DeletePost removes a post and its likes. Only the author may delete.
	DeletePost(ctx context.Context, postID, callerID uuid.UUID) error

	// GetPost returns a single post with like state for the viewer.
	GetPost(ctx context.Context, postID, viewerID uuid.UUID) (*entity.Post, error)

	// Feed returns posts from the viewer and the users they follow,
	// newest first.
	Feed(ctx context.Context, input FeedInput) ([]entity.Post, error)

	// PostsByUser returns a user's posts, newest first.
	PostsByUser(ctx context.Context, authorID, viewerID uuid.UUID) ([]entity.Post, error)

	// Like adds the caller's like to a post.
	Like(ctx context.Context, postID, userID uuid.UUID) error

	// Unlike removes the caller's like from a post.
	Unlike(ctx context.Context, postID, userID uuid.UUID) error
}
