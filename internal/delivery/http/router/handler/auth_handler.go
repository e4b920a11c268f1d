// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"meets/config"
	"meets/internal/delivery/http/middleware"
	"meets/internal/delivery/http/response"
	"meets/internal/domain/service"
	"meets/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const oauthStateCookie = "oauth_state"

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	uc          usecase.AuthUsecase
	tokens      service.TokenService
	frontendURL string
	cookieCfg   *config.FrontendConfig
	logger      *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, tokens service.TokenService, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	frontendURL := ""
	if cfg.Frontend != nil {
		frontendURL = cfg.Frontend.BaseURL
	}

	return &AuthHandler{
		uc:          uc,
		tokens:      tokens,
		frontendURL: frontendURL,
		cookieCfg:   cfg.Frontend,
		logger:      logger,
	}
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type requestResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
	Token    string `json:"token" validate:"required"`
	UserID   string `json:"userId" validate:"required,uuid"`
}

type authResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

func newAuthResponse(output *usecase.AuthOutput) authResponse {
	return authResponse{
		AccessToken:  output.Tokens.AccessToken,
		RefreshToken: output.Tokens.RefreshToken,
		User: userResponse{
			ID:    output.User.ID,
			Email: output.User.Email,
			Name:  output.User.Name,
		},
	}
}

// SignUp handles the account registration request.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid sign-up input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.SignUp(c.Request().Context(), usecase.SignUpInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newAuthResponse(output), "Account created")
}

// SignIn handles the password login request.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid sign-in input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.SignIn(c.Request().Context(), usecase.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newAuthResponse(output), "Signed in")
}

// Refresh rotates the session. The refresh token travels as the bearer
// token of this request.
func (h *AuthHandler) Refresh(c echo.Context) error {
	refreshToken, err := middleware.BearerToken(c)
	if err != nil {
		return err
	}

	output, err := h.uc.Refresh(c.Request().Context(), refreshToken)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newAuthResponse(output), "Session renewed")
}

// SignOut ends the caller's session.
func (h *AuthHandler) SignOut(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}

	if err := h.uc.SignOut(c.Request().Context(), userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Signed out"}, "Signed out")
}

// Profile returns the identity baked into the caller's access token. It is
// a cheap session probe that never touches the database.
func (h *AuthHandler) Profile(c echo.Context) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return err
	}
	email, err := middleware.CurrentEmail(c)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"userId": userID.String(),
		"email":  email,
	}, "Profile")
}

// GoogleLogin redirects the browser to the Google consent page, pinning a
// CSRF state cookie for the callback to verify.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusTemporaryRedirect, h.uc.GoogleAuthURL(state))
}

// GoogleCallback completes the Google flow and hands the tokens to the web
// client through cookies before redirecting back to it.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return response.BadRequest(c, "OAUTH_CODE_INVALID", "Missing authorization code")
	}

	stateCookie, err := c.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		return response.Forbidden(c, "OAUTH_STATE_MISMATCH", "OAuth state mismatch")
	}

	output, err := h.uc.GoogleCallback(c.Request().Context(), code)
	if err != nil {
		return errors.WithStack(err)
	}

	// The access token stays a session cookie; the refresh cookie lives as
	// long as the refresh token it carries.
	h.setTokenCookie(c, "access_token", output.Tokens.AccessToken, 0)
	h.setTokenCookie(c, "refresh_token", output.Tokens.RefreshToken, h.tokens.RefreshTokenTTL())

	return c.Redirect(http.StatusTemporaryRedirect, h.frontendURL)
}

// RequestPasswordReset mails a reset link to the account's address.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req requestResetRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid reset request input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{
		"message": "Reset email sent",
		"userId":  output.UserID.String(),
		"token":   output.Token,
	}, "Reset email sent")
}

// ResetPassword consumes the mailed token and replaces the password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid reset input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid user ID")
	}

	err = h.uc.ResetPassword(c.Request().Context(), usecase.ResetPasswordInput{
		UserID:   userID,
		Token:    req.Token,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Password reset"}, "Password reset")
}

// VerifyResetToken lets the web client check a reset link before showing
// the new-password form.
func (h *AuthHandler) VerifyResetToken(c echo.Context) error {
	token, err := url.PathUnescape(c.Param("token"))
	if err != nil || token == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid reset token")
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid user ID")
	}

	if err := h.uc.VerifyResetToken(c.Request().Context(), userID, token); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]bool{"valid": true}, "Reset token valid")
}

func (h *AuthHandler) setTokenCookie(c echo.Context, name, value string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   strings.HasPrefix(h.frontendURL, "https://"),
	}
	if ttl > 0 {
		cookie.MaxAge = int(ttl.Seconds())
	}
	if h.cookieCfg != nil && h.cookieCfg.CookieDomain != "" {
		cookie.Domain = h.cookieCfg.CookieDomain
	}
	c.SetCookie(cookie)
}
