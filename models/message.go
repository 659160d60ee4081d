package models

import "time"

// MessageType distinguishes plain text messages from voice notes.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageVoice MessageType = "voice"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	return t == MessageText || t == MessageVoice
}

// Message is a direct message between two users. Duration is set only for
// voice messages (seconds). The read flag flips false->true exactly once.
type Message struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	SenderID   uint        `gorm:"index;not null" json:"sender_id"`
	ReceiverID uint        `gorm:"index;not null" json:"receiver_id"`
	Content    string      `gorm:"type:text;not null" json:"content"`
	Type       MessageType `gorm:"size:16;default:'text'" json:"type"`
	Duration   *int        `json:"duration,omitempty"`
	Read       bool        `gorm:"not null;default:false" json:"read"`
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`
}
