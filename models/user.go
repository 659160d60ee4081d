package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a student account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"size:128;not null" json:"name"`
	Email          string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"size:255" json:"-"`
	Provider       string     `gorm:"size:32" json:"provider,omitempty"`
	ProviderID     string     `gorm:"size:255" json:"-"`
	ProfileImage   string     `gorm:"size:512" json:"profile_image"`
	Bio            string     `gorm:"size:512" json:"bio"`
	School         string     `gorm:"size:255" json:"school"`
	Major          string     `gorm:"size:255" json:"major"`
	GraduationYear string     `gorm:"size:16" json:"graduation_year"`
	Interests      string     `gorm:"type:text" json:"interests"` // JSON array of interest tags
	PrivacySetting Visibility `gorm:"size:16;default:'friends'" json:"privacy_setting"`
	IsAdmin        bool       `gorm:"default:false" json:"is_admin"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps and defaults are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.PrivacySetting == "" {
		u.PrivacySetting = VisibilityFriends
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
