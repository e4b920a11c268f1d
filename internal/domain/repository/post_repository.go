package repository

import (
	"context"
	"errors"

	"meets/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrPostNotFound is returned when no post matches the lookup key.
var ErrPostNotFound = errors.New("post not found")

// ErrLikeExists is returned when liking a post twice.
var ErrLikeExists = errors.New("like already exists")

// PostRepository defines persistence operations for feed posts and likes.
type PostRepository interface {
	// FindByID retrieves a post by ID, with like count and whether
	// viewerID has liked it.
	FindByID(ctx context.Context, id, viewerID uuid.UUID) (*entity.Post, error)

	// Create persists a new post.
	Create(ctx context.Context, post *entity.Post) error

	// Update modifies an existing post.
	Update(ctx context.Context, post *entity.Post) error

	// Delete removes the post and its likes.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListFeed returns posts authored by the given users, newest first,
	// with like counts and viewer like state.
	ListFeed(ctx context.Context, authorIDs []uuid.UUID, viewerID uuid.UUID, limit, offset int) ([]entity.Post, error)

	// CountByAuthor returns the number of posts the user has authored.
	CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error)

	// ListByAuthor returns the author's posts, newest first.
	ListByAuthor(ctx context.Context, authorID, viewerID uuid.UUID) ([]entity.Post, error)

	// Like adds a like edge from userID to the post.
	Like(ctx context.Context, postID, userID uuid.UUID) error

	// Unlike removes the like edge. Removing an absent like is a no-op.
	Unlike(ctx context.Context, postID, userID uuid.UUID) error

	// DeleteLikesByUser removes every like the user has placed.
	DeleteLikesByUser(ctx context.Context, userID uuid.UUID) error

	// DeleteByAuthor removes every post the user has authored, with their likes.
	DeleteByAuthor(ctx context.Context, authorID uuid.UUID) error
}
