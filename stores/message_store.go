package stores

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/buddies-social/buddies/models"
	"github.com/buddies-social/buddies/utils"
)

// NewMessage carries the fields accepted when sending a direct message.
type NewMessage struct {
	SenderID   uint
	ReceiverID uint
	Content    string
	Type       models.MessageType
	Duration   *int
}

// ConversationPartner carries only the partner display fields shown in the
// conversation list; the full account record (email, school and so on) never
// leaves the store here.
type ConversationPartner struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image"`
}

// Conversation pairs a conversation partner with the most recent message
// exchanged with them.
type Conversation struct {
	Partner     ConversationPartner `json:"partner"`
	LastMessage models.Message      `json:"last_message"`
}

// MessageStore is the data-access layer for direct messages and the
// per-user conversation list.
type MessageStore struct {
	db *gorm.DB
}

// NewMessageStore creates a MessageStore over the given connection handle.
func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Send inserts a message with the read flag initialized to false. Blank
// content, a voice type without a positive duration, an unknown type, or
// sender == receiver all fail with ErrValidation before any statement runs.
func (s *MessageStore) Send(ctx context.Context, data NewMessage) (*models.Message, error) {
	if data.SenderID == 0 || data.ReceiverID == 0 {
		return nil, fmt.Errorf("%w: sender and receiver are required", ErrValidation)
	}
	if data.SenderID == data.ReceiverID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrValidation)
	}
	if strings.TrimSpace(data.Content) == "" {
		return nil, fmt.Errorf("%w: message content is required", ErrValidation)
	}
	msgType := data.Type
	if msgType == "" {
		msgType = models.MessageText
	}
	if !msgType.Valid() {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrValidation, data.Type)
	}
	if msgType == models.MessageVoice && (data.Duration == nil || *data.Duration <= 0) {
		return nil, fmt.Errorf("%w: voice messages require a positive duration", ErrValidation)
	}

	msg := models.Message{
		SenderID:   data.SenderID,
		ReceiverID: data.ReceiverID,
		Content:    data.Content,
		Type:       msgType,
		Duration:   data.Duration,
		Read:       false,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &msg, nil
}

// GetByID returns the message or nil when no such row exists.
func (s *MessageStore) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message %d: %w", id, err)
	}
	return &msg, nil
}

// Conversation returns the most recent messages exchanged between the two
// users, in chronological ascending order. The query fetches newest first to
// honor the limit, then the slice is reversed; callers depend on the final
// oldest-to-newest order.
func (s *MessageStore) Conversation(ctx context.Context, userID1, userID2 uint, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID1, userID2, userID2, userID1).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Conversations derives the user's conversation list: one entry per distinct
// partner, carrying the most recent message with that partner, ordered by
// recency. Sent and received messages are merged and globally sorted by
// creation time descending before deduplication; keeping the first occurrence
// of each partner in that walk is what guarantees the entry holds the latest
// message even when both directions interleave.
func (s *MessageStore) Conversations(ctx context.Context, userID uint) ([]Conversation, error) {
	var sent []models.Message
	if err := s.db.WithContext(ctx).
		Where("sender_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&sent).Error; err != nil {
		return nil, fmt.Errorf("load sent messages: %w", err)
	}

	var received []models.Message
	if err := s.db.WithContext(ctx).
		Where("receiver_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&received).Error; err != nil {
		return nil, fmt.Errorf("load received messages: %w", err)
	}

	all := make([]models.Message, 0, len(sent)+len(received))
	all = append(all, sent...)
	all = append(all, received...)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	seen := map[uint]bool{}
	latest := make([]models.Message, 0, len(all))
	partnerIDs := make([]uint, 0, len(all))
	for _, msg := range all {
		partnerID := msg.SenderID
		if msg.SenderID == userID {
			partnerID = msg.ReceiverID
		}
		if seen[partnerID] {
			continue
		}
		seen[partnerID] = true
		latest = append(latest, msg)
		partnerIDs = append(partnerIDs, partnerID)
	}
	if len(latest) == 0 {
		return []Conversation{}, nil
	}

	var partners []ConversationPartner
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id, name, profile_image").
		Where("id IN ?", utils.UniqueUint(partnerIDs)).
		Find(&partners).Error; err != nil {
		return nil, fmt.Errorf("load conversation partners: %w", err)
	}
	partnerMap := make(map[uint]ConversationPartner, len(partners))
	for _, p := range partners {
		partnerMap[p.ID] = p
	}

	conversations := make([]Conversation, 0, len(latest))
	for i, msg := range latest {
		conversations = append(conversations, Conversation{
			Partner:     partnerMap[partnerIDs[i]],
			LastMessage: msg,
		})
	}
	return conversations, nil
}

// MarkRead flips the read flag on a single message. Marking an already-read
// message is a no-op success.
func (s *MessageStore) MarkRead(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND `read` = ?", id, false).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("mark message %d read: %w", id, err)
	}
	return nil
}

// MarkAllRead flips the read flag on every unread message from sender to
// receiver. Idempotent: a second call matches no rows and succeeds.
func (s *MessageStore) MarkAllRead(ctx context.Context, senderID, receiverID uint) error {
	err := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND `read` = ?", senderID, receiverID, false).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	return nil
}

// UnreadCount returns how many unread messages the user has received.
func (s *MessageStore) UnreadCount(ctx context.Context, receiverID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND `read` = ?", receiverID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

// Delete removes a message.
func (s *MessageStore) Delete(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&models.Message{}, id).Error; err != nil {
		return fmt.Errorf("delete message %d: %w", id, err)
	}
	return nil
}
