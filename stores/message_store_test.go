package stores

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/buddies-social/buddies/models"
)

func seedMessage(t *testing.T, db *gorm.DB, sender, receiver uint, content string, at time.Time) models.Message {
	t.Helper()
	msg := models.Message{SenderID: sender, ReceiverID: receiver, Content: content, Type: models.MessageText, CreatedAt: at}
	require.NoError(t, db.Create(&msg).Error)
	return msg
}

func TestMessageStoreSendValidation(t *testing.T) {
	db := setupTestDB(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	cases := []NewMessage{
		{SenderID: 0, ReceiverID: 2, Content: "hi"},
		{SenderID: 1, ReceiverID: 0, Content: "hi"},
		{SenderID: 1, ReceiverID: 1, Content: "hi"},
		{SenderID: 1, ReceiverID: 2, Content: "   "},
		{SenderID: 1, ReceiverID: 2, Content: "hi", Type: "video"},
		{SenderID: 1, ReceiverID: 2, Content: "note", Type: models.MessageVoice},
	}
	for _, c := range cases {
		_, err := store.Send(ctx, c)
		assert.ErrorIs(t, err, ErrValidation)
	}

	var count int64
	require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
	assert.Zero(t, count, "no rows persisted for invalid input")
}

func TestMessageStoreSendDefaults(t *testing.T) {
	db := setupTestDB(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	msg, err := store.Send(ctx, NewMessage{SenderID: 1, ReceiverID: 2, Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageText, msg.Type, "type defaults to text")
	assert.False(t, msg.Read, "messages start unread")

	seconds := 12
	voice, err := store.Send(ctx, NewMessage{SenderID: 1, ReceiverID: 2, Content: "voice-note-url", Type: models.MessageVoice, Duration: &seconds})
	require.NoError(t, err)
	require.NotNil(t, voice.Duration)
	assert.Equal(t, 12, *voice.Duration)
}

func TestMessageStoreConversationOrderAndScope(t *testing.T) {
	db := setupTestDB(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	seedMessage(t, db, 1, 2, "oldest", base)
	seedMessage(t, db, 2, 1, "middle", base.Add(time.Minute))
	seedMessage(t, db, 1, 2, "newest", base.Add(2*time.Minute))
	// Noise from other pairs must never leak in.
	seedMessage(t, db, 1, 3, "other pair", base.Add(3*time.Minute))
	seedMessage(t, db, 3, 2, "other pair too", base.Add(4*time.Minute))

	msgs, err := store.Conversation(ctx, 1, 2, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "oldest", msgs[0].Content, "chronological ascending")
	assert.Equal(t, "middle", msgs[1].Content)
	assert.Equal(t, "newest", msgs[2].Content)

	// The limit keeps the most recent messages, still ascending.
	tail, err := store.Conversation(ctx, 2, 1, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "middle", tail[0].Content)
	assert.Equal(t, "newest", tail[1].Content)
}

func TestMessageStoreConversations(t *testing.T) {
	db := setupTestDB(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	userA := seedUser(t, db, "usera")
	userB := seedUser(t, db, "userb")
	userC := seedUser(t, db, "userc")

	base := time.Now().Add(-time.Hour)
	seedMessage(t, db, userA.ID, userB.ID, "hi", base)
	seedMessage(t, db, userB.ID, userA.ID, "hey", base.Add(time.Minute))
	seedMessage(t, db, userC.ID, userA.ID, "bye", base.Add(2*time.Minute))

	convs, err := store.Conversations(ctx, userA.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2, "one entry per partner")

	assert.Equal(t, userC.ID, convs[0].Partner.ID, "most recent conversation first")
	assert.Equal(t, "bye", convs[0].LastMessage.Content)
	assert.Equal(t, userB.ID, convs[1].Partner.ID)
	assert.Equal(t, "hey", convs[1].LastMessage.Content, "latest message wins regardless of direction")
	assert.Equal(t, "userc", convs[0].Partner.Name)

	// Entries carry display fields only, never the partner's account record.
	raw, err := json.Marshal(convs)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "@example.com")
	assert.NotContains(t, string(raw), "privacy_setting")
}

func TestMessageStoreConversationsInterleavedDedup(t *testing.T) {
	db := setupTestDB(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	userA := seedUser(t, db, "inter-a")
	userB := seedUser(t, db, "inter-b")
	userC := seedUser(t, db, "inter-c")

	// Messages with B and C interleave in time; each partner still collapses
	// to a single entry holding its own latest message.
	base := time.Now().Add(-time.Hour)
	seedMessage(t, db, userA.ID, userB.ID, "b1", base)
	seedMessage(t, db, userA.ID, userC.ID, "c1", base.Add(time.Minute))
	seedMessage(t, db, userB.ID, userA.ID, "b2", base.Add(2*time.Minute))
	seedMessage(t, db, userC.ID, userA.ID, "c2", base.Add(3*time.Minute))
	seedMessage(t, db, userA.ID, userB.ID, "b3", base.Add(4*time.Minute))

	convs, err := store.Conversations(ctx, userA.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, userB.ID, convs[0].Partner.ID)
	assert.Equal(t, "b3", convs[0].LastMessage.Content)
	assert.Equal(t, userC.ID, convs[1].Partner.ID)
	assert.Equal(t, "c2", convs[1].LastMessage.Content)
}

func TestMessageStoreConversationsEmpty(t *testing.T) {
	db := setupTestDB(t)
	store := NewMessageStore(db)

	convs, err := store.Conversations(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestMessageStoreReadTracking(t *testing.T) {
	db := setupTestDB(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	first := seedMessage(t, db, 1, 2, "one", base)
	seedMessage(t, db, 1, 2, "two", base.Add(time.Minute))
	seedMessage(t, db, 3, 2, "three", base.Add(2*time.Minute))

	count, err := store.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	require.NoError(t, store.MarkRead(ctx, first.ID))
	// Marking again is a no-op success.
	require.NoError(t, store.MarkRead(ctx, first.ID))

	count, err = store.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, store.MarkAllRead(ctx, 1, 2))
	count, err = store.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "only the 1->2 direction flips")

	// Idempotent second pass.
	require.NoError(t, store.MarkAllRead(ctx, 1, 2))
	count, err = store.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMessageStoreDelete(t *testing.T) {
	db := setupTestDB(t)
	store := NewMessageStore(db)
	ctx := context.Background()

	msg, err := store.Send(ctx, NewMessage{SenderID: 1, ReceiverID: 2, Content: "temp"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, msg.ID))
	got, err := store.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
