// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity in the system, representing a unique "person" or "account".
// It carries both identity and credential state: the password hash, the hash of the
// currently valid refresh token (a user holds at most one live session), and the
// password-reset token state.
type User struct {
	ID                  uuid.UUID  // The Global Unique Identifier (GUID) for the user.
	Email               string     // The user's primary contact email, used as the login identifier.
	Name                string     // The user's display name.
	PasswordHash        string     // bcrypt hash of the password. Empty for accounts created via Google sign-in.
	HashedRefreshToken  *string    // SHA-256 hash of the active refresh token. Nil when the user is signed out.
	ResetTokenHash      *string    // bcrypt hash of the pending password-reset token. Nil when no reset is pending.
	ResetTokenExpiresAt *time.Time // Expiry of the pending reset token.
	Profile             *Profile   // A pointer to the user's public profile. Nil when not loaded.
	CreatedAt           time.Time  // Timestamp of when this account was created.
	UpdatedAt           time.Time  // Timestamp of the last modification to this user's data.
}

// HasPassword reports whether this account can authenticate with a password.
// Accounts federated through Google carry an empty password hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Profile holds the public-facing attributes of a user.
type Profile struct {
	UserID    uuid.UUID // Foreign Key that links this profile to a core User entity.
	Picture   string    // URL of the user's avatar image.
	Bio       string    // Free-form self description.
	UpdatedAt time.Time // Timestamp of the last modification to this profile.
}

// UserSummary is the trimmed view of a user embedded in lists such as
// followers, search results and chat participant listings.
type UserSummary struct {
	ID      uuid.UUID
	Name    string
	Picture string
}
