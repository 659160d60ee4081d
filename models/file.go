package models

import "time"

// File records metadata for an uploaded file. Bytes live behind URL on an
// external storage backend; only the metadata is owned here.
type File struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	Type       string     `gorm:"size:128;not null" json:"type"` // MIME type string
	Size       string     `gorm:"size:32;not null" json:"size"`  // display string, e.g. "2.4 MB"
	URL        string     `gorm:"size:1024;not null" json:"url"`
	Visibility Visibility `gorm:"size:16;default:'private'" json:"visibility"`
	Downloads  int        `gorm:"not null;default:0" json:"downloads"`
	CreatedAt  time.Time  `json:"created_at"`
}
