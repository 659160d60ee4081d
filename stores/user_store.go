package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/buddies-social/buddies/models"
	"github.com/buddies-social/buddies/utils"
)

// NewUser carries the fields accepted at registration. Password is the
// plaintext credential; it is hashed before anything touches storage.
type NewUser struct {
	Name           string
	Email          string
	Password       string
	ProfileImage   string
	Bio            string
	School         string
	Major          string
	GraduationYear string
	Interests      string
	PrivacySetting models.Visibility
	IsAdmin        bool
}

// UserUpdate lists the profile fields that may be changed after registration.
// Nil fields are left untouched.
type UserUpdate struct {
	Name           *string
	Email          *string
	ProfileImage   *string
	Bio            *string
	School         *string
	Major          *string
	GraduationYear *string
	Interests      *string
	PrivacySetting *models.Visibility
}

// UserStore is the data-access layer for user accounts and profiles.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a UserStore over the given connection handle.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create registers a new account, storing only the bcrypt hash of the
// password. Returns ErrDuplicateEmail when the email is already taken.
func (s *UserStore) Create(ctx context.Context, data NewUser) (*models.User, error) {
	name := strings.TrimSpace(data.Name)
	email := strings.ToLower(strings.TrimSpace(data.Email))
	if name == "" || email == "" || data.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}
	if data.PrivacySetting != "" && !data.PrivacySetting.Valid() {
		return nil, fmt.Errorf("%w: unknown privacy setting %q", ErrValidation, data.PrivacySetting)
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing email: %w", err)
	}

	hash, err := utils.HashPassword(data.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		ProfileImage:   data.ProfileImage,
		Bio:            data.Bio,
		School:         data.School,
		Major:          data.Major,
		GraduationYear: data.GraduationYear,
		Interests:      data.Interests,
		PrivacySetting: data.PrivacySetting,
		IsAdmin:        data.IsAdmin,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// A concurrent registration can still hit the unique index.
		if strings.Contains(strings.ToLower(err.Error()), "unique") || strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Update applies only the provided fields and refreshes UpdatedAt.
func (s *UserStore) Update(ctx context.Context, id uint, data UserUpdate) error {
	updates := map[string]interface{}{}
	if data.Name != nil {
		if strings.TrimSpace(*data.Name) == "" {
			return fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		updates["name"] = strings.TrimSpace(*data.Name)
	}
	if data.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*data.Email))
		if email == "" {
			return fmt.Errorf("%w: email cannot be empty", ErrValidation)
		}
		updates["email"] = email
	}
	if data.ProfileImage != nil {
		updates["profile_image"] = *data.ProfileImage
	}
	if data.Bio != nil {
		updates["bio"] = *data.Bio
	}
	if data.School != nil {
		updates["school"] = *data.School
	}
	if data.Major != nil {
		updates["major"] = *data.Major
	}
	if data.GraduationYear != nil {
		updates["graduation_year"] = *data.GraduationYear
	}
	if data.Interests != nil {
		updates["interests"] = *data.Interests
	}
	if data.PrivacySetting != nil {
		if !data.PrivacySetting.Valid() {
			return fmt.Errorf("%w: unknown privacy setting %q", ErrValidation, *data.PrivacySetting)
		}
		updates["privacy_setting"] = *data.PrivacySetting
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	return nil
}

// GetByID returns the user or nil when no such row exists.
func (s *UserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &user, nil
}

// GetByEmail returns the user or nil when no such row exists.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

// Search matches query case-insensitively against name, email and school.
// Results are ordered by id so pagination stays stable.
func (s *UserStore) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(school) LIKE ?", pattern, pattern, pattern).
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}
