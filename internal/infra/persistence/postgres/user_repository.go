package postgres

import (
	"context"
	"time"

	"meets/internal/domain/entity"
	domainerrors "meets/internal/domain/errors"
	"meets/internal/domain/repository"
	"meets/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a domain interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// userSummaryRow is the scan target for joined user/profile listings.
type userSummaryRow struct {
	ID      uuid.UUID
	Name    string
	Picture string
}

func (r userSummaryRow) toDomain() entity.UserSummary {
	return entity.UserSummary{ID: r.ID, Name: r.Name, Picture: r.Picture}
}

// FindByID retrieves a single user by their unique ID, preloading the profile.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Preload("Profile").
		Where("id = ?", id).
		First(&userM).Error
	if err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	// Map the persistence model back to a pure domain entity before returning.
	return toUserDomain(&userM), nil
}

// FindByEmail retrieves a single user by their email address, preloading the profile.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Preload("Profile").
		Where("email = ?", email).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user entity, including its profile, to the database.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("missing required user information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	// Update the user entity with the generated ID and timestamps
	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt
	if user.Profile != nil && userM.Profile != nil {
		user.Profile.UserID = userM.Profile.UserID
		user.Profile.UpdatedAt = userM.Profile.UpdatedAt
	}

	return nil
}

// Update modifies an existing user entity in the database.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"email": userM.Email,
			"name":  userM.Name,
		})
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// Delete removes the user row. Dependent rows are removed by the caller
// within the same transaction.
func (repo *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("user_id = ?", id).
		Delete(&model.ProfileModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete profile")
	}

	result = repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.UserModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// UpdateRefreshTokenHash overwrites the stored refresh token hash.
// A nil hash signs the user out.
func (repo *userRepository) UpdateRefreshTokenHash(ctx context.Context, userID uuid.UUID, hash *string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", userID).
		Update("hashed_refresh_token", hash)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update refresh token hash")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// UpdateResetToken stores the pending password-reset token hash and expiry.
// Nil values clear a pending reset.
func (repo *userRepository) UpdateResetToken(ctx context.Context, userID uuid.UUID, hash *string, expiresAt *time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"reset_token_hash":       hash,
			"reset_token_expires_at": expiresAt,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update reset token")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// UpdatePassword replaces the password hash.
func (repo *userRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update password")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// UpsertProfile creates or updates the user's public profile.
func (repo *userRepository) UpsertProfile(ctx context.Context, profile *entity.Profile) error {
	profileM := &model.ProfileModel{
		UserID:  profile.UserID,
		Picture: profile.Picture,
		Bio:     profile.Bio,
	}

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"picture", "bio", "updated_at"}),
		}).
		Create(profileM).Error
	if err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrUserNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to upsert profile")
	}

	profile.UpdatedAt = profileM.UpdatedAt

	return nil
}

// SearchByName returns users whose name contains the given fragment,
// case-insensitively.
func (repo *userRepository) SearchByName(ctx context.Context, nameFragment string, limit int) ([]entity.UserSummary, error) {
	var rows []userSummaryRow
	err := repo.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.name, COALESCE(profiles.picture, '') AS picture").
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id").
		Where("users.name ILIKE ?", "%"+nameFragment+"%").
		Order("users.name").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to search users by name")
	}

	return toSummaries(rows), nil
}

// Follow adds a follow edge from followerID to followeeID.
func (repo *userRepository) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	edge := &model.UserFollowModel{
		FollowerID: followerID,
		FolloweeID: followeeID,
	}

	if err := repo.db.WithContext(ctx).Create(edge).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrFollowExists
		}
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrUserNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create follow edge")
	}

	return nil
}

// Unfollow removes the follow edge from followerID to followeeID.
func (repo *userRepository) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&model.UserFollowModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete follow edge")
	}
	if result.RowsAffected == 0 {
		return repository.ErrFollowNotFound
	}

	return nil
}

// IsFollowing reports whether the follow edge exists.
func (repo *userRepository) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&model.UserFollowModel{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check follow edge")
	}

	return count > 0, nil
}

// CountFollows returns the number of followers of and accounts followed by
// the given user.
func (repo *userRepository) CountFollows(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	var followers, following int64

	err := repo.db.WithContext(ctx).
		Model(&model.UserFollowModel{}).
		Where("followee_id = ?", userID).
		Count(&followers).Error
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to count followers")
	}

	err = repo.db.WithContext(ctx).
		Model(&model.UserFollowModel{}).
		Where("follower_id = ?", userID).
		Count(&following).Error
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to count following")
	}

	return followers, following, nil
}

// ListFollowers returns the users following the given user.
func (repo *userRepository) ListFollowers(ctx context.Context, userID uuid.UUID) ([]entity.UserSummary, error) {
	var rows []userSummaryRow
	err := repo.db.WithContext(ctx).
		Table("user_follows").
		Select("users.id, users.name, COALESCE(profiles.picture, '') AS picture").
		Joins("JOIN users ON users.id = user_follows.follower_id").
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id").
		Where("user_follows.followee_id = ?", userID).
		Order("users.name").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list followers")
	}

	return toSummaries(rows), nil
}

// ListFollowing returns the users the given user follows.
func (repo *userRepository) ListFollowing(ctx context.Context, userID uuid.UUID) ([]entity.UserSummary, error) {
	var rows []userSummaryRow
	err := repo.db.WithContext(ctx).
		Table("user_follows").
		Select("users.id, users.name, COALESCE(profiles.picture, '') AS picture").
		Joins("JOIN users ON users.id = user_follows.followee_id").
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id").
		Where("user_follows.follower_id = ?", userID).
		Order("users.name").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list following")
	}

	return toSummaries(rows), nil
}

// DeleteFollowEdges removes every follow edge touching the user, in both directions.
func (repo *userRepository) DeleteFollowEdges(ctx context.Context, userID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("follower_id = ? OR followee_id = ?", userID, userID).
		Delete(&model.UserFollowModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete follow edges")
	}

	return nil
}

func toSummaries(rows []userSummaryRow) []entity.UserSummary {
	summaries := make([]entity.UserSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, row.toDomain())
	}

	return summaries
}

// toUserDomain maps a persistence model to a pure domain entity.
func toUserDomain(userM *model.UserModel) *entity.User {
	user := &entity.User{
		ID:                  userM.ID,
		Email:               userM.Email,
		Name:                userM.Name,
		PasswordHash:        userM.PasswordHash,
		HashedRefreshToken:  userM.HashedRefreshToken,
		ResetTokenHash:      userM.ResetTokenHash,
		ResetTokenExpiresAt: userM.ResetTokenExpiresAt,
		CreatedAt:           userM.CreatedAt,
		UpdatedAt:           userM.UpdatedAt,
	}
	if userM.Profile != nil {
		user.Profile = &entity.Profile{
			UserID:    userM.Profile.UserID,
			Picture:   userM.Profile.Picture,
			Bio:       userM.Profile.Bio,
			UpdatedAt: userM.Profile.UpdatedAt,
		}
	}

	return user
}

// fromUserDomain maps a domain entity to its persistence model.
func fromUserDomain(user *entity.User) *model.UserModel {
	userM := &model.UserModel{
		ID:                  user.ID,
		Email:               user.Email,
		Name:                user.Name,
		PasswordHash:        user.PasswordHash,
		HashedRefreshToken:  user.HashedRefreshToken,
		ResetTokenHash:      user.ResetTokenHash,
		ResetTokenExpiresAt: user.ResetTokenExpiresAt,
	}
	if user.Profile != nil {
		userM.Profile = &model.ProfileModel{
			UserID:  user.Profile.UserID,
			Picture: user.Profile.Picture,
			Bio:     user.Profile.Bio,
		}
	}

	return userM
}
