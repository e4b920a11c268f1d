// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"
)

// TokenPair bundles the short-lived access token with the long-lived refresh
// token handed to a client after sign-in, sign-up or a successful refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// GoogleUserInfo carries the identity claims returned by Google after an
// OAuth authorization-code exchange.
type GoogleUserInfo struct {
	Sub           string // Google's stable unique ID for the user.
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// PasswordReset captures the outcome of a forgot-password request: the raw
// token is mailed to the user and never persisted, only its hash is stored.
type PasswordReset struct {
	RawToken  string
	ExpiresAt time.Time
}
