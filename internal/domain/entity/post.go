package entity

import (
	"time"

	"github.com/google/uuid"
)

// Post is a single feed entry authored by a user.
type Post struct {
	ID        uuid.UUID
	AuthorID  uuid.UUID
	Author    *UserSummary // Loaded on demand; nil when not requested.
	Content   string
	ImageURL  string
	LikeCount int64
	LikedByMe bool // Whether the requesting user has liked this post.
	CreatedAt time.Time
	UpdatedAt time.Time
}
