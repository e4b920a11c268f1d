// Package google implements the server-side Google OAuth authorization-code
// flow on top of golang.org/x/oauth2.
package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"meets/config"
	"meets/internal/domain/entity"
	"meets/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthService handles the Google OAuth code exchange.
type OAuthService struct {
	config *oauth2.Config

	// Endpoint override for tests.
	userInfoURL string
}

// NewOAuthService creates a new Google OAuth service
func NewOAuthService(cfg *config.Config) service.OAuthService {
	return &OAuthService{
		config: &oauth2.Config{
			ClientID:     cfg.GoogleOAuth.ClientID,
			ClientSecret: cfg.GoogleOAuth.ClientSecret,
			RedirectURL:  cfg.GoogleOAuth.RedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     googleoauth.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthCodeURL constructs the Google consent page URL carrying the given
// CSRF state.
func (s *OAuthService) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode trades an authorization code for the user's verified Google
// identity: code -> access token -> userinfo.
func (s *OAuthService) ExchangeCode(ctx context.Context, code string) (*entity.GoogleUserInfo, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange code for token")
	}

	return s.fetchUserInfo(ctx, token)
}

func (s *OAuthService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*entity.GoogleUserInfo, error) {
	resp, err := s.config.Client(ctx, token).Get(s.userInfoURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return nil, errors.Errorf("user info request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var googleUser struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, errors.Wrap(err, "failed to decode user info response")
	}

	return &entity.GoogleUserInfo{
		Sub:           googleUser.ID,
		Email:         googleUser.Email,
		EmailVerified: googleUser.VerifiedEmail,
		Name:          googleUser.Name,
		Picture:       googleUser.Picture,
	}, nil
}
