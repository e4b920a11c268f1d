package service

import (
	"context"

	"meets/internal/domain/entity"
)

// OAuthService defines the server-side OAuth authorization-code flow against
// Google. The handler redirects the browser to AuthCodeURL and later trades
// the callback code for the user's identity.
type OAuthService interface {
	// AuthCodeURL builds the Google consent page URL carrying the given
	// CSRF state.
	AuthCodeURL(state string) string

	// ExchangeCode trades an authorization code for the user's verified
	// Google identity.
	ExchangeCode(ctx context.Context, code string) (*entity.GoogleUserInfo, error)
}
