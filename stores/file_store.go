package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/buddies-social/buddies/models"
)

// NewFile carries the metadata recorded for an uploaded file. The bytes are
// moved by an external transport; the store only keeps the durable URL.
type NewFile struct {
	UserID     uint
	Name       string
	Type       string
	Size       string
	URL        string
	Visibility models.Visibility
}

// FileUpdate lists the file fields that may be changed after upload.
type FileUpdate struct {
	Name       *string
	Visibility *models.Visibility
}

// FileStore is the data-access layer for uploaded-file metadata.
type FileStore struct {
	db *gorm.DB
}

// NewFileStore creates a FileStore over the given connection handle.
func NewFileStore(db *gorm.DB) *FileStore {
	return &FileStore{db: db}
}

// Upload records file metadata. Visibility defaults to private when omitted.
func (s *FileStore) Upload(ctx context.Context, data NewFile) (*models.File, error) {
	if data.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrValidation)
	}
	if strings.TrimSpace(data.Name) == "" || data.Type == "" || data.Size == "" || data.URL == "" {
		return nil, fmt.Errorf("%w: name, type, size and url are required", ErrValidation)
	}
	visibility := data.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	if !visibility.Valid() {
		return nil, fmt.Errorf("%w: unknown visibility %q", ErrValidation, data.Visibility)
	}

	file := models.File{
		UserID:     data.UserID,
		Name:       data.Name,
		Type:       data.Type,
		Size:       data.Size,
		URL:        data.URL,
		Visibility: visibility,
	}
	if err := s.db.WithContext(ctx).Create(&file).Error; err != nil {
		return nil, fmt.Errorf("record file: %w", err)
	}
	return &file, nil
}

// GetByID returns the file or nil when no such row exists.
func (s *FileStore) GetByID(ctx context.Context, id uint) (*models.File, error) {
	var file models.File
	err := s.db.WithContext(ctx).First(&file, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file %d: %w", id, err)
	}
	return &file, nil
}

// ByUser returns a user's own files, newest first.
func (s *FileStore) ByUser(ctx context.Context, userID uint, limit, offset int) ([]models.File, error) {
	if limit <= 0 {
		limit = 20
	}
	var files []models.File
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("load files for user %d: %w", userID, err)
	}
	return files, nil
}

// Public returns publicly visible files, newest first.
func (s *FileStore) Public(ctx context.Context, limit, offset int) ([]models.File, error) {
	if limit <= 0 {
		limit = 20
	}
	var files []models.File
	err := s.db.WithContext(ctx).
		Where("visibility = ?", models.VisibilityPublic).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("load public files: %w", err)
	}
	return files, nil
}

// Search matches query against file names, newest first. With includeShared
// the scope is the user's own files plus anything public or friends-visible;
// without it only the user's own files match.
func (s *FileStore) Search(ctx context.Context, query string, userID uint, includeShared bool) ([]models.File, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := s.db.WithContext(ctx).Where("LOWER(name) LIKE ?", pattern)
	if includeShared {
		q = q.Where("user_id = ? OR visibility IN ?", userID,
			[]models.Visibility{models.VisibilityPublic, models.VisibilityFriends})
	} else {
		q = q.Where("user_id = ?", userID)
	}

	var files []models.File
	if err := q.Order("created_at DESC, id DESC").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}
	return files, nil
}

// Update applies only the provided fields.
func (s *FileStore) Update(ctx context.Context, id uint, data FileUpdate) error {
	updates := map[string]interface{}{}
	if data.Name != nil {
		if strings.TrimSpace(*data.Name) == "" {
			return fmt.Errorf("%w: file name cannot be empty", ErrValidation)
		}
		updates["name"] = *data.Name
	}
	if data.Visibility != nil {
		if !data.Visibility.Valid() {
			return fmt.Errorf("%w: unknown visibility %q", ErrValidation, *data.Visibility)
		}
		updates["visibility"] = *data.Visibility
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(&models.File{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update file %d: %w", id, err)
	}
	return nil
}

// IncrementDownloads bumps the download counter with an atomic column
// expression, the same discipline as the post counters.
func (s *FileStore) IncrementDownloads(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ?", id).
		UpdateColumn("downloads", gorm.Expr("downloads + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("increment downloads on file %d: %w", id, err)
	}
	return nil
}

// Delete removes a file record. The stored bytes are the transport's concern.
func (s *FileStore) Delete(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&models.File{}, id).Error; err != nil {
		return fmt.Errorf("delete file %d: %w", id, err)
	}
	return nil
}
