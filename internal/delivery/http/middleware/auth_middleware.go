package middleware

import (
	"net/http"
	"strings"

	"meets/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Context keys set by the authentication middleware.
const (
	ContextKeyUserID = "userID"
	ContextKeyEmail  = "userEmail"
)

// AuthMiddleware provides middleware for JWT authentication.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate validates the bearer access token and stores the caller's
// identity on the request context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return err
		}

		claims, err := m.tokenSvc.ValidateAccessToken(tokenString)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyEmail, claims.Email)

		return next(c)
	}
}

// CurrentUserID returns the authenticated caller's ID. It only works behind
// the Authenticate middleware.
func CurrentUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(ContextKeyUserID).(uuid.UUID)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Missing authentication")
	}

	return userID, nil
}

// CurrentEmail returns the authenticated caller's email. It only works
// behind the Authenticate middleware.
func CurrentEmail(c echo.Context) (string, error) {
	email, ok := c.Get(ContextKeyEmail).(string)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing authentication")
	}

	return email, nil
}

// BearerToken extracts the raw bearer token, used by the refresh endpoint
// which carries the refresh token instead of an access token.
func BearerToken(c echo.Context) (string, error) {
	return bearerToken(c)
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid token format, must be Bearer token")
	}

	return tokenString, nil
}
