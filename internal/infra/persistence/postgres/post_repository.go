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
)

// postRepository implements the domain.PostRepository interface using GORM.
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository is the constructor for postRepository.
func NewPostRepository(db *gorm.DB) repository.PostRepository {
	return &postRepository{db: db}
}

// postRow joins a post with its author summary, like count and viewer like state.
type postRow struct {
	ID            uuid.UUID
	AuthorID      uuid.UUID
	Content       string
	ImageURL      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	AuthorName    string
	AuthorPicture string
	LikeCount     int64
	LikedByMe     bool
}

func (r postRow) toDomain() entity.Post {
	return entity.Post{
		ID:       r.ID,
		AuthorID: r.AuthorID,
		Author: &entity.UserSummary{
			ID:      r.AuthorID,
			Name:    r.AuthorName,
			Picture: r.AuthorPicture,
		},
		Content:   r.Content,
		ImageURL:  r.ImageURL,
		LikeCount: r.LikeCount,
		LikedByMe: r.LikedByMe,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const postSelect = "posts.id, posts.author_id, posts.content, posts.image_url, posts.created_at, posts.updated_at, " +
	"users.name AS author_name, COALESCE(profiles.picture, '') AS author_picture, " +
	"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) AS like_count, " +
	"EXISTS(SELECT 1 FROM post_likes WHERE post_likes.post_id = posts.id AND post_likes.user_id = ?) AS liked_by_me"

func (repo *postRepository) baseQuery(ctx context.Context, viewerID uuid.UUID) *gorm.DB {
	return repo.db.WithContext(ctx).
		Table("posts").
		Select(postSelect, viewerID).
		Joins("JOIN users ON users.id = posts.author_id").
		Joins("LEFT JOIN profiles ON profiles.user_id = users.id")
}

// FindByID retrieves a post by ID, with like count and viewer like state.
func (repo *postRepository) FindByID(ctx context.Context, id, viewerID uuid.UUID) (*entity.Post, error) {
	var row postRow
	result := repo.baseQuery(ctx, viewerID).
		Where("posts.id = ?", id).
		Scan(&row)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to find post by id")
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrPostNotFound
	}

	post := row.toDomain()

	return &post, nil
}

// Create persists a new post.
func (repo *postRepository) Create(ctx context.Context, post *entity.Post) error {
	postM := &model.PostModel{
		ID:       post.ID,
		AuthorID: post.AuthorID,
		Content:  post.Content,
		ImageURL: post.ImageURL,
	}

	if err := repo.db.WithContext(ctx).Create(postM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrUserNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create post")
	}

	post.ID = postM.ID
	post.CreatedAt = postM.CreatedAt
	post.UpdatedAt = postM.UpdatedAt

	return nil
}

// Update modifies an existing post.
func (repo *postRepository) Update(ctx context.Context, post *entity.Post) error {
	result := repo.db.WithContext(ctx).
		Model(&model.PostModel{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{
			"content":   post.Content,
			"image_url": post.ImageURL,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update post")
	}
	if result.RowsAffected == 0 {
		return repository.ErrPostNotFound
	}

	return nil
}

// Delete removes the post and its likes.
func (repo *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("post_id = ?", id).
		Delete(&model.PostLikeModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete post likes")
	}

	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.PostModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete post")
	}
	if result.RowsAffected == 0 {
		return repository.ErrPostNotFound
	}

	return nil
}

// ListFeed returns posts authored by the given users, newest first.
func (repo *postRepository) ListFeed(ctx context.Context, authorIDs []uuid.UUID, viewerID uuid.UUID, limit, offset int) ([]entity.Post, error) {
	if len(authorIDs) == 0 {
		return []entity.Post{}, nil
	}

	var rows []postRow
	err := repo.baseQuery(ctx, viewerID).
		Where("posts.author_id IN ?", authorIDs).
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list feed posts")
	}

	return toPosts(rows), nil
}

// CountByAuthor returns the number of posts the user has authored.
func (repo *postRepository) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).
		Model(&model.PostModel{}).
		Where("author_id = ?", authorID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count posts by author")
	}

	return count, nil
}

// ListByAuthor returns the author's posts, newest first.
func (repo *postRepository) ListByAuthor(ctx context.Context, authorID, viewerID uuid.UUID) ([]entity.Post, error) {
	var rows []postRow
	err := repo.baseQuery(ctx, viewerID).
		Where("posts.author_id = ?", authorID).
		Order("posts.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list posts by author")
	}

	return toPosts(rows), nil
}

// Like adds a like edge from userID to the post.
func (repo *postRepository) Like(ctx context.Context, postID, userID uuid.UUID) error {
	like := &model.PostLikeModel{
		PostID: postID,
		UserID: userID,
	}

	if err := repo.db.WithContext(ctx).Create(like).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrLikeExists
		}
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrPostNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create like")
	}

	return nil
}

// Unlike removes the like edge. Removing an absent like is a no-op.
func (repo *postRepository) Unlike(ctx context.Context, postID, userID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&model.PostLikeModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete like")
	}

	return nil
}

// DeleteLikesByUser removes every like the user has placed.
func (repo *postRepository) DeleteLikesByUser(ctx context.Context, userID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.PostLikeModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete likes by user")
	}

	return nil
}

// DeleteByAuthor removes every post the user has authored, with their likes.
func (repo *postRepository) DeleteByAuthor(ctx context.Context, authorID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("post_id IN (?)", repo.db.Model(&model.PostModel{}).Select("id").Where("author_id = ?", authorID)).
		Delete(&model.PostLikeModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete likes for author's posts")
	}

	err = repo.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Delete(&model.PostModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete posts by author")
	}

	return nil
}

func toPosts(rows []postRow) []entity.Post {
	posts := make([]entity.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toDomain())
	}

	return posts
}
