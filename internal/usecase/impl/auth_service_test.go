package impl

import (
	"context"
	"strings"
	"testing"
	"time"

	"meets/internal/domain/entity"
	domainerrors "meets/internal/domain/errors"
	"meets/internal/domain/repository"
	domainsvc "meets/internal/domain/service"
	"meets/internal/infra/auth"
	mockRepo "meets/internal/mocks/repository"
	mockSvc "meets/internal/mocks/service"
	"meets/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// authServiceFixtures holds all test dependencies for auth service tests.
type authServiceFixtures struct {
	service        usecase.AuthUsecase
	txManager      *mockRepo.MockTransactionManager
	userRepo       *mockRepo.MockUserRepository
	hasher         *mockSvc.MockPasswordHasher
	tokenService   *mockSvc.MockTokenService
	oauthService   *mockSvc.MockOAuthService
	mailer         *mockSvc.MockMailer
	eventPublisher *mockSvc.MockEventPublisher
}

func createTestAuthService(t *testing.T) authServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	userRepo := mockRepo.NewMockUserRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	tokenService := mockSvc.NewMockTokenService(t)
	oauthService := mockSvc.NewMockOAuthService(t)
	mailer := mockSvc.NewMockMailer(t)
	eventPublisher := mockSvc.NewMockEventPublisher(t)

	service := NewAuthService(AuthServiceParams{
		TxManager:      txManager,
		UserRepo:       userRepo,
		Hasher:         hasher,
		TokenService:   tokenService,
		OAuthService:   oauthService,
		Mailer:         mailer,
		EventPublisher: eventPublisher,
		Config:         newTestConfig(),
		Logger:         newDiscardLogger(),
	})

	return authServiceFixtures{
		service:        service,
		txManager:      txManager,
		userRepo:       userRepo,
		hasher:         hasher,
		tokenService:   tokenService,
		oauthService:   oauthService,
		mailer:         mailer,
		eventPublisher: eventPublisher,
	}
}

func testTokenPair() *entity.TokenPair {
	return &entity.TokenPair{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
	}
}

func TestAuthService_SignUp_Success(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	input := usecase.SignUpInput{
		Email:    "new@example.com",
		Name:     "New User",
		Password: "Password123!",
	}

	fix.userRepo.On("FindByEmail", ctx, input.Email).
		Return(nil, repository.ErrUserNotFound)
	fix.hasher.On("Hash", input.Password).Return("hashed_password", nil)
	fix.userRepo.On("Create", ctx, mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) {
			user := args.Get(1).(*entity.User)
			user.ID = uuid.New()
		}).
		Return(nil)
	fix.tokenService.On("GenerateTokenPair", mock.AnythingOfType("uuid.UUID"), input.Email).
		Return(testTokenPair(), nil)
	fix.tokenService.On("HashToken", "refresh-token").Return("stored-hash")
	fix.userRepo.On("UpdateRefreshTokenHash", ctx, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("*string")).
		Return(nil)
	fix.eventPublisher.On("PublishEvent", ctx, mock.MatchedBy(func(event *domainsvc.Event) bool {
		return event.Type == domainsvc.EventUserRegistered
	})).Return(nil)

	output, err := fix.service.SignUp(ctx, input)

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, input.Email, output.User.Email)
	assert.Equal(t, "access-token", output.Tokens.AccessToken)
	require.NotNil(t, output.User.HashedRefreshToken)
	assert.Equal(t, "stored-hash", *output.User.HashedRefreshToken)
}

func TestAuthService_SignUp_EmailTaken(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	existing := &entity.User{ID: uuid.New(), Email: "taken@example.com"}
	fix.userRepo.On("FindByEmail", ctx, existing.Email).Return(existing, nil)

	output, err := fix.service.SignUp(ctx, usecase.SignUpInput{
		Email:    existing.Email,
		Name:     "Someone",
		Password: "Password123!",
	})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrUserAlreadyExists))
}

func TestAuthService_SignIn_Success(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	user := &entity.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: "hashed",
	}

	fix.userRepo.On("FindByEmail", ctx, user.Email).Return(user, nil)
	fix.hasher.On("Check", "Password123!", "hashed").Return(true)
	fix.tokenService.On("GenerateTokenPair", user.ID, user.Email).Return(testTokenPair(), nil)
	fix.tokenService.On("HashToken", "refresh-token").Return("stored-hash")
	fix.userRepo.On("UpdateRefreshTokenHash", ctx, user.ID, mock.AnythingOfType("*string")).Return(nil)

	output, err := fix.service.SignIn(ctx, usecase.SignInInput{
		Email:    user.Email,
		Password: "Password123!",
	})

	require.NoError(t, err)
	assert.Equal(t, "refresh-token", output.Tokens.RefreshToken)
}

func TestAuthService_SignIn_UnknownEmail(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	fix.userRepo.On("FindByEmail", ctx, "ghost@example.com").
		Return(nil, repository.ErrUserNotFound)

	output, err := fix.service.SignIn(ctx, usecase.SignInInput{
		Email:    "ghost@example.com",
		Password: "whatever",
	})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrUserNotFound))
}

func TestAuthService_SignIn_WrongPassword(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	user := &entity.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: "hashed"}

	fix.userRepo.On("FindByEmail", ctx, user.Email).Return(user, nil)
	fix.hasher.On("Check", "wrong", "hashed").Return(false)

	output, err := fix.service.SignIn(ctx, usecase.SignInInput{
		Email:    user.Email,
		Password: "wrong",
	})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
}

func TestAuthService_SignIn_FederatedAccount(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	user := &entity.User{ID: uuid.New(), Email: "google@example.com"}

	fix.userRepo.On("FindByEmail", ctx, user.Email).Return(user, nil)

	output, err := fix.service.SignIn(ctx, usecase.SignInInput{
		Email:    user.Email,
		Password: "anything",
	})

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrPasswordLoginUnavailable))
}

func TestAuthService_Refresh_Success(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	storedHash := "current-hash"
	user := &entity.User{
		ID:                 uuid.New(),
		Email:              "user@example.com",
		HashedRefreshToken: &storedHash,
	}
	claims := &domainsvc.Claims{UserID: user.ID, Email: user.Email, Type: domainsvc.TokenTypeRefresh}

	fix.tokenService.On("ValidateRefreshToken", "presented-token").Return(claims, nil)
	fix.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	fix.tokenService.On("HashToken", "presented-token").Return("current-hash")
	fix.tokenService.On("GenerateTokenPair", user.ID, user.Email).Return(testTokenPair(), nil)
	fix.tokenService.On("HashToken", "refresh-token").Return("rotated-hash")
	fix.userRepo.On("UpdateRefreshTokenHash", ctx, user.ID, mock.AnythingOfType("*string")).Return(nil)

	output, err := fix.service.Refresh(ctx, "presented-token")

	require.NoError(t, err)
	require.NotNil(t, output.User.HashedRefreshToken)
	assert.Equal(t, "rotated-hash", *output.User.HashedRefreshToken)
}

func TestAuthService_Refresh_NoActiveSession(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	user := &entity.User{ID: uuid.New(), Email: "user@example.com"}
	claims := &domainsvc.Claims{UserID: user.ID, Email: user.Email, Type: domainsvc.TokenTypeRefresh}

	fix.tokenService.On("ValidateRefreshToken", "presented-token").Return(claims, nil)
	fix.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

	output, err := fix.service.Refresh(ctx, "presented-token")

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrRefreshTokenMismatch))
}

func TestAuthService_Refresh_SupersededToken(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	storedHash := "newer-hash"
	user := &entity.User{
		ID:                 uuid.New(),
		Email:              "user@example.com",
		HashedRefreshToken: &storedHash,
	}
	claims := &domainsvc.Claims{UserID: user.ID, Email: user.Email, Type: domainsvc.TokenTypeRefresh}

	fix.tokenService.On("ValidateRefreshToken", "old-token").Return(claims, nil)
	fix.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	fix.tokenService.On("HashToken", "old-token").Return("old-hash")

	output, err := fix.service.Refresh(ctx, "old-token")

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrRefreshTokenMismatch))
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	fix.tokenService.On("ValidateRefreshToken", "garbage").
		Return(nil, errors.New("token is malformed"))

	output, err := fix.service.Refresh(ctx, "garbage")

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrRefreshTokenInvalid))
}

func TestAuthService_SignOut(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	fix.userRepo.On("UpdateRefreshTokenHash", ctx, userID, (*string)(nil)).Return(nil)

	require.NoError(t, fix.service.SignOut(ctx, userID))
}

func TestAuthService_RequestPasswordReset_Success(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	user := &entity.User{ID: uuid.New(), Email: "user@example.com", Name: "User"}

	fix.userRepo.On("FindByEmail", ctx, user.Email).Return(user, nil)
	fix.hasher.On("Hash", mock.AnythingOfType("string")).Return("token-hash", nil)
	fix.userRepo.On("UpdateResetToken", ctx, user.ID, mock.AnythingOfType("*string"), mock.AnythingOfType("*time.Time")).
		Return(nil)
	fix.mailer.On("SendPasswordReset", ctx, user.Email, user.Name, mock.MatchedBy(func(resetURL string) bool {
		return strings.HasPrefix(resetURL, "https://meets.example.com/reset-password?") &&
			strings.Contains(resetURL, "userId="+user.ID.String())
	})).Return(nil)

	output, err := fix.service.RequestPasswordReset(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, output.UserID)
	assert.NotEmpty(t, output.Token)
}

// A second reset request replaces the stored hash, so the first token must
// stop verifying. Uses the real bcrypt hasher to exercise the whole
// generate-hash-verify path.
func TestAuthService_RequestPasswordReset_SecondRequestInvalidatesFirstToken(t *testing.T) {
	ctx := context.Background()

	txManager := mockRepo.NewMockTransactionManager(t)
	userRepo := mockRepo.NewMockUserRepository(t)
	tokenService := mockSvc.NewMockTokenService(t)
	oauthService := mockSvc.NewMockOAuthService(t)
	mailer := mockSvc.NewMockMailer(t)
	eventPublisher := mockSvc.NewMockEventPublisher(t)

	cfg := newTestConfig()
	cfg.Auth.BcryptCost = bcrypt.MinCost

	service := NewAuthService(AuthServiceParams{
		TxManager:      txManager,
		UserRepo:       userRepo,
		Hasher:         auth.NewBcryptHasher(cfg),
		TokenService:   tokenService,
		OAuthService:   oauthService,
		Mailer:         mailer,
		EventPublisher: eventPublisher,
		Config:         cfg,
		Logger:         newDiscardLogger(),
	})

	user := &entity.User{ID: uuid.New(), Email: "user@example.com", Name: "User"}

	var storedHash string
	var storedExpiry time.Time
	userRepo.On("FindByEmail", ctx, user.Email).Return(user, nil)
	userRepo.On("UpdateResetToken", ctx, user.ID, mock.AnythingOfType("*string"), mock.AnythingOfType("*time.Time")).
		Run(func(args mock.Arguments) {
			storedHash = *args.Get(2).(*string)
			storedExpiry = *args.Get(3).(*time.Time)
		}).
		Return(nil)
	mailer.On("SendPasswordReset", ctx, user.Email, user.Name, mock.AnythingOfType("string")).Return(nil)

	first, err := service.RequestPasswordReset(ctx, user.Email)
	require.NoError(t, err)

	second, err := service.RequestPasswordReset(ctx, user.Email)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	// Only the hash of the second request survives on the user row.
	user.ResetTokenHash = &storedHash
	user.ResetTokenExpiresAt = &storedExpiry
	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

	err = service.VerifyResetToken(ctx, user.ID, first.Token)
	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenInvalid))

	require.NoError(t, service.VerifyResetToken(ctx, user.ID, second.Token))
}

func TestAuthService_VerifyResetToken(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	tokenHash := "token-hash"
	expiresAt := time.Now().Add(time.Hour)
	user := &entity.User{
		ID:                  uuid.New(),
		ResetTokenHash:      &tokenHash,
		ResetTokenExpiresAt: &expiresAt,
	}

	fix.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	fix.hasher.On("Check", "raw-token", tokenHash).Return(true)

	require.NoError(t, fix.service.VerifyResetToken(ctx, user.ID, "raw-token"))
}

func TestAuthService_VerifyResetToken_Expired(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	tokenHash := "token-hash"
	expiresAt := time.Now().Add(-time.Minute)
	user := &entity.User{
		ID:                  uuid.New(),
		ResetTokenHash:      &tokenHash,
		ResetTokenExpiresAt: &expiresAt,
	}

	fix.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

	err := fix.service.VerifyResetToken(ctx, user.ID, "raw-token")

	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenInvalid))
}

func TestAuthService_VerifyResetToken_NoPendingReset(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	user := &entity.User{ID: uuid.New()}

	fix.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

	err := fix.service.VerifyResetToken(ctx, user.ID, "raw-token")

	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenInvalid))
}

func TestAuthService_ResetPassword_Success(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	tokenHash := "token-hash"
	expiresAt := time.Now().Add(time.Hour)
	user := &entity.User{
		ID:                  uuid.New(),
		Email:               "user@example.com",
		ResetTokenHash:      &tokenHash,
		ResetTokenExpiresAt: &expiresAt,
	}

	fix.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	fix.hasher.On("Check", "raw-token", tokenHash).Return(true)
	fix.hasher.On("Hash", "NewPassword123!").Return("new-hash", nil)

	fix.txManager.On("Execute", ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(repository.RepositoryFactory) error)

			factory := mockRepo.NewMockRepositoryFactory(t)
			txUserRepo := mockRepo.NewMockUserRepository(t)
			factory.On("UserRepo").Return(txUserRepo)

			txUserRepo.On("UpdatePassword", ctx, user.ID, "new-hash").Return(nil)
			txUserRepo.On("UpdateResetToken", ctx, user.ID, (*string)(nil), (*time.Time)(nil)).Return(nil)
			txUserRepo.On("UpdateRefreshTokenHash", ctx, user.ID, (*string)(nil)).Return(nil)

			require.NoError(t, fn(factory))
		}).
		Return(nil)

	require.NoError(t, fix.service.ResetPassword(ctx, usecase.ResetPasswordInput{
		UserID:   user.ID,
		Token:    "raw-token",
		Password: "NewPassword123!",
	}))
}

func TestAuthService_ResetPassword_BadToken(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	tokenHash := "token-hash"
	expiresAt := time.Now().Add(time.Hour)
	user := &entity.User{
		ID:                  uuid.New(),
		ResetTokenHash:      &tokenHash,
		ResetTokenExpiresAt: &expiresAt,
	}

	fix.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	fix.hasher.On("Check", "forged", tokenHash).Return(false)

	err := fix.service.ResetPassword(ctx, usecase.ResetPasswordInput{
		UserID:   user.ID,
		Token:    "forged",
		Password: "NewPassword123!",
	})

	assert.True(t, errors.Is(err, domainerrors.ErrResetTokenInvalid))
}

func TestAuthService_GoogleCallback_NewAccount(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	info := &entity.GoogleUserInfo{
		Sub:     "google-sub",
		Email:   "google@example.com",
		Name:    "Google User",
		Picture: "https://example.com/photo.jpg",
	}

	fix.oauthService.On("ExchangeCode", ctx, "auth-code").Return(info, nil)
	fix.userRepo.On("FindByEmail", ctx, info.Email).Return(nil, repository.ErrUserNotFound)
	fix.userRepo.On("Create", ctx, mock.MatchedBy(func(user *entity.User) bool {
		return user.Email == info.Email && !user.HasPassword() &&
			user.Profile != nil && user.Profile.Picture == info.Picture
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.User).ID = uuid.New()
	}).Return(nil)
	fix.eventPublisher.On("PublishEvent", ctx, mock.MatchedBy(func(event *domainsvc.Event) bool {
		return event.Type == domainsvc.EventUserRegistered && event.Attributes["provider"] == "google"
	})).Return(nil)
	fix.tokenService.On("GenerateTokenPair", mock.AnythingOfType("uuid.UUID"), info.Email).
		Return(testTokenPair(), nil)
	fix.tokenService.On("HashToken", "refresh-token").Return("stored-hash")
	fix.userRepo.On("UpdateRefreshTokenHash", ctx, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("*string")).
		Return(nil)

	output, err := fix.service.GoogleCallback(ctx, "auth-code")

	require.NoError(t, err)
	assert.Equal(t, info.Email, output.User.Email)
}

func TestAuthService_GoogleCallback_ExistingAccount(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	user := &entity.User{ID: uuid.New(), Email: "google@example.com", Name: "Google User"}
	info := &entity.GoogleUserInfo{Sub: "google-sub", Email: user.Email, Name: user.Name}

	fix.oauthService.On("ExchangeCode", ctx, "auth-code").Return(info, nil)
	fix.userRepo.On("FindByEmail", ctx, user.Email).Return(user, nil)
	fix.tokenService.On("GenerateTokenPair", user.ID, user.Email).Return(testTokenPair(), nil)
	fix.tokenService.On("HashToken", "refresh-token").Return("stored-hash")
	fix.userRepo.On("UpdateRefreshTokenHash", ctx, user.ID, mock.AnythingOfType("*string")).Return(nil)

	output, err := fix.service.GoogleCallback(ctx, "auth-code")

	require.NoError(t, err)
	assert.Equal(t, user.ID, output.User.ID)
}

func TestAuthService_GoogleCallback_BadCode(t *testing.T) {
	fix := createTestAuthService(t)
	ctx := context.Background()

	fix.oauthService.On("ExchangeCode", ctx, "bad-code").
		Return(nil, errors.New("exchange rejected"))

	output, err := fix.service.GoogleCallback(ctx, "bad-code")

	assert.Nil(t, output)
	assert.True(t, errors.Is(err, domainerrors.ErrOAuthCodeInvalid))
}
