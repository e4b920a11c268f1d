// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"meets/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// SignUpInput defines the data required to register a new account.
type SignUpInput struct {
	Email    string
	Name     string
	Password string
}

// SignInInput defines the data required to sign in with a password.
type SignInInput struct {
	Email    string
	Password string
}

// ResetPasswordInput carries the reset token together with the new password.
type ResetPasswordInput struct {
	UserID   uuid.UUID
	Token    string
	Password string
}

// --- Output DTOs ---

// AuthOutput returns the token pair issued after sign-up, sign-in, refresh
// or a completed Google flow.
type AuthOutput struct {
	Tokens *entity.TokenPair
	User   *entity.User
}

// PasswordResetOutput identifies the issued reset so the client can build
// the reset form link itself when mail delivery is unavailable.
type PasswordResetOutput struct {
	UserID uuid.UUID
	Token  string
}

// AuthUsecase defines the authentication and session business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	// SignUp registers a new account and signs it in.
	SignUp(ctx context.Context, input SignUpInput) (*AuthOutput, error)

	// SignIn verifies the password and issues a fresh token pair. The
	// stored refresh token hash is replaced, ending any previous session.
	SignIn(ctx context.Context, input SignInInput) (*AuthOutput, error)

	// Refresh rotates the session: it validates the presented refresh
	// token against the stored hash and issues a new pair.
	Refresh(ctx context.Context, refreshToken string) (*AuthOutput, error)

	// SignOut clears the stored refresh token hash, ending the session.
	SignOut(ctx context.Context, userID uuid.UUID) error

	// RequestPasswordReset issues a one-time reset token, mails its link
	// to the account's address and returns the token for clients that
	// drive the reset flow themselves.
	RequestPasswordReset(ctx context.Context, email string) (*PasswordResetOutput, error)

	// VerifyResetToken checks a pending reset token without consuming it.
	VerifyResetToken(ctx context.Context, userID uuid.UUID, token string) error

	// ResetPassword consumes the reset token, replaces the password and
	// revokes any active session.
	ResetPassword(ctx context.Context, input ResetPasswordInput) error

	// GoogleAuthURL builds the Google consent page URL for the given
	// CSRF state.
	GoogleAuthURL(state string) string

	// GoogleCallback completes the Google flow: it exchanges the code,
	// finds or creates the matching account and signs it in.
	GoogleCallback(ctx context.Context, code string) (*AuthOutput, error)
}
