// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"meets/config"
	deliverycontext "meets/internal/delivery/context"
	"meets/internal/domain/entity"
	domainerrors "meets/internal/domain/errors"
	"meets/internal/domain/repository"
	"meets/internal/domain/service"
	"meets/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const defaultResetTokenTTL = time.Hour

// authService implements the AuthUsecase interface.
type authService struct {
	txManager      repository.TransactionManager
	userRepo       repository.UserRepository
	hasher         service.PasswordHasher
	tokenService   service.TokenService
	oauthService   service.OAuthService
	mailer         service.Mailer
	eventPublisher service.EventPublisher
	frontendURL    string
	resetTokenTTL  time.Duration
	logger         *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager      repository.TransactionManager
	UserRepo       repository.UserRepository
	Hasher         service.PasswordHasher
	TokenService   service.TokenService
	OAuthService   service.OAuthService
	Mailer         service.Mailer
	EventPublisher service.EventPublisher
	Config         *config.Config
	Logger         *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	resetTokenTTL := defaultResetTokenTTL
	if params.Config.Auth != nil && params.Config.Auth.ResetTokenTTL > 0 {
		resetTokenTTL = params.Config.Auth.ResetTokenTTL
	}

	frontendURL := ""
	if params.Config.Frontend != nil {
		frontendURL = params.Config.Frontend.BaseURL
	}

	return &authService{
		txManager:      params.TxManager,
		userRepo:       params.UserRepo,
		hasher:         params.Hasher,
		tokenService:   params.TokenService,
		oauthService:   params.OAuthService,
		mailer:         params.Mailer,
		eventPublisher: params.EventPublisher,
		frontendURL:    frontendURL,
		resetTokenTTL:  resetTokenTTL,
		logger:         params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// SignUp registers a new account and signs it in.
func (srv *authService) SignUp(ctx context.Context, input usecase.SignUpInput) (*usecase.AuthOutput, error) {
	srv.log(ctx).Info("Starting sign-up", slog.String("email", input.Email))

	_, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err == nil {
		return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("email already in use")
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to check existing email")
	}

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, domainerrors.ErrPasswordHashFailed.WrapMessage("failed to hash password")
	}

	user := &entity.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: passwordHash,
		// Every account starts with an empty profile so later updates are
		// always plain upserts.
		Profile: &entity.Profile{},
	}
	if err := srv.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := srv.issueSession(ctx, srv.userRepo, user)
	if err != nil {
		return nil, err
	}

	srv.publishEvent(ctx, service.EventUserRegistered, map[string]string{
		"user_id": user.ID.String(),
	})

	return &usecase.AuthOutput{Tokens: tokens, User: user}, nil
}

// SignIn verifies the password and issues a fresh token pair, replacing any
// previous session.
func (srv *authService) SignIn(ctx context.Context, input usecase.SignInInput) (*usecase.AuthOutput, error) {
	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		// Unknown address and wrong password answer differently on
		// purpose, matching the client's expectations.
		return nil, domainerrors.ErrUserNotFound.WrapMessage("no account for this email")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	if !user.HasPassword() {
		return nil, domainerrors.ErrPasswordLoginUnavailable.WrapMessage("account is federated through Google")
	}
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("password mismatch")
	}

	tokens, err := srv.issueSession(ctx, srv.userRepo, user)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User signed in", slog.String("userID", user.ID.String()))

	return &usecase.AuthOutput{Tokens: tokens, User: user}, nil
}

// Refresh rotates the session: the presented refresh token must match the
// stored hash, and a new pair replaces it.
func (srv *authService) Refresh(ctx context.Context, refreshToken string) (*usecase.AuthOutput, error) {
	claims, err := srv.tokenService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token rejected")
	}

	user, err := srv.userRepo.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrUserNotFound.WrapMessage("session user no longer exists")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find session user")
	}

	if user.HashedRefreshToken == nil {
		return nil, domainerrors.ErrRefreshTokenMismatch.WrapMessage("no active session")
	}
	if srv.tokenService.HashToken(refreshToken) != *user.HashedRefreshToken {
		return nil, domainerrors.ErrRefreshTokenMismatch.WrapMessage("refresh token superseded")
	}

	tokens, err := srv.issueSession(ctx, srv.userRepo, user)
	if err != nil {
		return nil, err
	}

	return &usecase.AuthOutput{Tokens: tokens, User: user}, nil
}

// SignOut clears the stored refresh token hash, ending the session.
func (srv *authService) SignOut(ctx context.Context, userID uuid.UUID) error {
	if err := srv.userRepo.UpdateRefreshTokenHash(ctx, userID, nil); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrUserNotFound.WrapMessage("user not found")
		}

		return errors.Wrap(err, "failed to clear refresh token")
	}

	srv.log(ctx).Info("User signed out", slog.String("userID", userID.String()))

	return nil
}

// RequestPasswordReset issues a one-time reset token and mails its link.
// The raw token is also returned so the API can hand it to clients that
// drive the reset flow without email.
func (srv *authService) RequestPasswordReset(ctx context.Context, email string) (*usecase.PasswordResetOutput, error) {
	user, err := srv.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrUserNotFound.WrapMessage("no account for this email")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	rawToken, err := generateResetToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate reset token")
	}

	tokenHash, err := srv.hasher.Hash(rawToken)
	if err != nil {
		return nil, domainerrors.ErrPasswordHashFailed.WrapMessage("failed to hash reset token")
	}

	expiresAt := time.Now().Add(srv.resetTokenTTL)
	if err := srv.userRepo.UpdateResetToken(ctx, user.ID, &tokenHash, &expiresAt); err != nil {
		return nil, errors.Wrap(err, "failed to store reset token")
	}

	resetURL := srv.buildResetURL(user.ID, rawToken)
	if err := srv.mailer.SendPasswordReset(ctx, user.Email, user.Name, resetURL); err != nil {
		return nil, errors.Wrap(err, "failed to send reset email")
	}

	srv.log(ctx).Info("Password reset requested", slog.String("userID", user.ID.String()))

	return &usecase.PasswordResetOutput{UserID: user.ID, Token: rawToken}, nil
}

// VerifyResetToken checks a pending reset token without consuming it.
func (srv *authService) VerifyResetToken(ctx context.Context, userID uuid.UUID, token string) error {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return domainerrors.ErrResetTokenInvalid.WrapMessage("unknown user")
	}
	if err != nil {
		return errors.Wrap(err, "failed to find user")
	}

	return srv.checkResetToken(user, token)
}

// ResetPassword consumes the reset token, replaces the password and revokes
// any active session.
func (srv *authService) ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) error {
	user, err := srv.userRepo.FindByID(ctx, input.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return domainerrors.ErrResetTokenInvalid.WrapMessage("unknown user")
	}
	if err != nil {
		return errors.Wrap(err, "failed to find user")
	}

	if err := srv.checkResetToken(user, input.Token); err != nil {
		return err
	}

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return domainerrors.ErrPasswordHashFailed.WrapMessage("failed to hash password")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		if err := userRepo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
			return errors.Wrap(err, "failed to update password")
		}
		if err := userRepo.UpdateResetToken(ctx, user.ID, nil, nil); err != nil {
			return errors.Wrap(err, "failed to clear reset token")
		}
		// A password reset ends the active session as well.
		if err := userRepo.UpdateRefreshTokenHash(ctx, user.ID, nil); err != nil {
			return errors.Wrap(err, "failed to revoke session")
		}

		return nil
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Password reset completed", slog.String("userID", user.ID.String()))

	return nil
}

// GoogleAuthURL builds the Google consent page URL for the given CSRF state.
func (srv *authService) GoogleAuthURL(state string) string {
	return srv.oauthService.AuthCodeURL(state)
}

// GoogleCallback completes the Google flow: exchange the code, find or
// create the matching account, sign it in.
func (srv *authService) GoogleCallback(ctx context.Context, code string) (*usecase.AuthOutput, error) {
	info, err := srv.oauthService.ExchangeCode(ctx, code)
	if err != nil {
		return nil, domainerrors.ErrOAuthCodeInvalid.WrapMessage("authorization code rejected")
	}
	if info.Email == "" {
		return nil, domainerrors.ErrOAuthFailed.WrapMessage("Google returned no email")
	}

	user, err := srv.userRepo.FindByEmail(ctx, info.Email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		// First Google sign-in creates the account. The empty password
		// hash marks it as federated.
		user = &entity.User{
			Email: info.Email,
			Name:  info.Name,
			Profile: &entity.Profile{
				Picture: info.Picture,
			},
		}
		if createErr := srv.userRepo.Create(ctx, user); createErr != nil {
			return nil, createErr
		}

		srv.publishEvent(ctx, service.EventUserRegistered, map[string]string{
			"user_id":  user.ID.String(),
			"provider": "google",
		})
	case err != nil:
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	tokens, err := srv.issueSession(ctx, srv.userRepo, user)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Google sign-in completed", slog.String("userID", user.ID.String()))

	return &usecase.AuthOutput{Tokens: tokens, User: user}, nil
}

// issueSession generates a token pair and stores the refresh token hash,
// replacing whatever session existed before.
func (srv *authService) issueSession(ctx context.Context, userRepo repository.UserRepository, user *entity.User) (*entity.TokenPair, error) {
	tokens, err := srv.tokenService.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate tokens")
	}

	hash := srv.tokenService.HashToken(tokens.RefreshToken)
	if err := userRepo.UpdateRefreshTokenHash(ctx, user.ID, &hash); err != nil {
		return nil, errors.Wrap(err, "failed to store refresh token hash")
	}
	user.HashedRefreshToken = &hash

	return tokens, nil
}

func (srv *authService) checkResetToken(user *entity.User, token string) error {
	if user.ResetTokenHash == nil || user.ResetTokenExpiresAt == nil {
		return domainerrors.ErrResetTokenInvalid.WrapMessage("no pending reset")
	}
	if time.Now().After(*user.ResetTokenExpiresAt) {
		return domainerrors.ErrResetTokenInvalid.WrapMessage("reset token expired")
	}
	if !srv.hasher.Check(token, *user.ResetTokenHash) {
		return domainerrors.ErrResetTokenInvalid.WrapMessage("reset token mismatch")
	}

	return nil
}

func (srv *authService) buildResetURL(userID uuid.UUID, rawToken string) string {
	values := url.Values{}
	values.Set("token", rawToken)
	values.Set("userId", userID.String())

	return strings.TrimRight(srv.frontendURL, "/") + "/reset-password?" + values.Encode()
}

func (srv *authService) publishEvent(ctx context.Context, eventType string, attributes map[string]string) {
	event := &service.Event{
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
		Type:       eventType,
		OccurredAt: time.Now(),
		Attributes: attributes,
	}
	if err := srv.eventPublisher.PublishEvent(ctx, event); err != nil {
		// Event delivery is best-effort; the business operation already
		// succeeded.
		srv.log(ctx).Warn("Failed to publish event",
			slog.String("type", eventType),
			slog.String("error", err.Error()),
		)
	}
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.WithStack(err)
	}

	return hex.EncodeToString(buf), nil
}
