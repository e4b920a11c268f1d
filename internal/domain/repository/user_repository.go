// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"
	"time"

	"meets/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when creating a user whose email is taken.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrFollowExists is returned when a follow edge already exists.
var ErrFollowExists = errors.New("follow edge already exists")

// ErrFollowNotFound is returned when removing a follow edge that does not exist.
var ErrFollowNotFound = errors.New("follow edge not found")

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// Update modifies an existing user entity in the storage.
	Update(ctx context.Context, user *entity.User) error

	// Delete removes the user row. Dependent rows (follows, likes) are
	// removed by the caller within the same transaction.
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateRefreshTokenHash overwrites the stored refresh token hash.
	// A nil hash signs the user out.
	UpdateRefreshTokenHash(ctx context.Context, userID uuid.UUID, hash *string) error

	// UpdateResetToken stores the pending password-reset token hash and its
	// expiry. Nil values clear a pending reset.
	UpdateResetToken(ctx context.Context, userID uuid.UUID, hash *string, expiresAt *time.Time) error

	// UpdatePassword replaces the password hash.
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	// UpsertProfile creates or updates the user's public profile.
	UpsertProfile(ctx context.Context, profile *entity.Profile) error

	// SearchByName returns users whose name contains the given fragment,
	// case-insensitively.
	SearchByName(ctx context.Context, nameFragment string, limit int) ([]entity.UserSummary, error)

	// Follow adds a follow edge from followerID to followeeID.
	Follow(ctx context.Context, followerID, followeeID uuid.UUID) error

	// Unfollow removes the follow edge from followerID to followeeID.
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error

	// IsFollowing reports whether the follow edge exists.
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)

	// CountFollows returns the number of followers of and accounts
	// followed by the given user.
	CountFollows(ctx context.Context, userID uuid.UUID) (followers, following int64, err error)

	// ListFollowers returns the users following the given user.
	ListFollowers(ctx context.Context, userID uuid.UUID) ([]entity.UserSummary, error)

	// ListFollowing returns the users the given user follows.
	ListFollowing(ctx context.Context, userID uuid.UUID) ([]entity.UserSummary, error)

	// DeleteFollowEdges removes every follow edge touching the user, in
	// both directions.
	DeleteFollowEdges(ctx context.Context, userID uuid.UUID) error
}
