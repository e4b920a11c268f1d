package usecase

import (
	"context"

	"meets/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// UpsertProfileInput defines the editable profile fields.
type UpsertProfileInput struct {
	UserID  uuid.UUID
	Name    string
	Picture string
	Bio     string
}

// DeleteAccountInput requires the password as confirmation before the
// account and its relations are removed.
type DeleteAccountInput struct {
	UserID   uuid.UUID
	Password string
}

// --- Output DTOs ---

// ProfileOutput is the public view of a user's profile.
type ProfileOutput struct {
	Name      string
	Picture   string
	Bio       string
	Posts     int64
	Followers int64
	Following int64
}

// UserUsecase defines the user, profile and follow-graph business operations.
type UserUsecase interface {
	// CurrentUser returns the signed-in user's basic information.
	CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// GetProfile returns a user's public profile with its counters.
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileOutput, error)

	// UpsertProfile creates or updates the caller's profile.
	UpsertProfile(ctx context.Context, input UpsertProfileInput) (*entity.Profile, error)

	// SearchUsers returns users whose name contains the query.
	SearchUsers(ctx context.Context, query string) ([]entity.UserSummary, error)

	// Follow adds a follow edge from followerID to followeeID.
	Follow(ctx context.Context, followerID, followeeID uuid.UUID) error

	// Unfollow removes the follow edge.
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error

	// IsFollowing reports whether followerID follows followeeID.
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)

	// Followers lists the users following the given user.
	Followers(ctx context.Context, userID uuid.UUID) ([]entity.UserSummary, error)

	// Following lists the users the given user follows.
	Following(ctx context.Context, userID uuid.UUID) ([]entity.UserSummary, error)

	// DeleteAccount removes the account and every dependent row in one
	// transaction, after confirming the password.
	DeleteAccount(ctx context.Context, input DeleteAccountInput) error
}
