package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/buddies-social/buddies/models"
)

// PostUpdate lists the post fields that may be changed after creation.
type PostUpdate struct {
	Content *string
	Image   *string
}

// PostStore is the data-access layer for feed posts and their counters.
type PostStore struct {
	db *gorm.DB
}

// NewPostStore creates a PostStore over the given connection handle.
func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

// Create inserts a post. Blank content fails with ErrValidation before any
// statement is issued, so no row is ever persisted for invalid input.
func (s *PostStore) Create(ctx context.Context, userID uint, content, image string) (*models.Post, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: post content is required", ErrValidation)
	}
	post := models.Post{UserID: userID, Content: content, Image: image}
	if err := s.db.WithContext(ctx).Omit("User").Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &post, nil
}

// GetByID returns the post or nil when no such row exists.
func (s *PostStore) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return &post, nil
}

// Feed returns posts with author display fields, newest first. Pagination is
// offset based; stable only without concurrent inserts, which is acceptable
// for this domain.
func (s *PostStore) Feed(ctx context.Context, limit, offset int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 10
	}
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	return posts, nil
}

// ByUser returns a user's own posts, newest first.
func (s *PostStore) ByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 10
	}
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("load posts for user %d: %w", userID, err)
	}
	return posts, nil
}

// Search matches query against post content, newest first.
func (s *PostStore) Search(ctx context.Context, query string, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("LOWER(content) LIKE ?", pattern).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return posts, nil
}

// Update applies only the provided fields and refreshes UpdatedAt.
func (s *PostStore) Update(ctx context.Context, id uint, data PostUpdate) error {
	updates := map[string]interface{}{}
	if data.Content != nil {
		if strings.TrimSpace(*data.Content) == "" {
			return fmt.Errorf("%w: post content is required", ErrValidation)
		}
		updates["content"] = *data.Content
	}
	if data.Image != nil {
		updates["image"] = *data.Image
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update post %d: %w", id, err)
	}
	return nil
}

// Like bumps the like counter by one. The increment is an atomic column
// expression so concurrent likes never lose updates.
func (s *PostStore) Like(ctx context.Context, id uint) error {
	return s.bump(ctx, id, "likes")
}

// AddComment bumps the comment counter by one.
func (s *PostStore) AddComment(ctx context.Context, id uint) error {
	return s.bump(ctx, id, "comments")
}

// Share bumps the share counter by one.
func (s *PostStore) Share(ctx context.Context, id uint) error {
	return s.bump(ctx, id, "shares")
}

func (s *PostStore) bump(ctx context.Context, id uint, column string) error {
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("increment %s on post %d: %w", column, id, err)
	}
	return nil
}

// Delete removes a post. Ownership is the caller's concern.
func (s *PostStore) Delete(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}
