package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buddies-social/buddies/models"
	"github.com/buddies-social/buddies/stores"
	"github.com/buddies-social/buddies/utils"
)

// MessageController manages direct messaging and the conversation list.
type MessageController struct {
	db       *gorm.DB
	messages *stores.MessageStore
}

// NewMessageController creates a new MessageController instance.
func NewMessageController(db *gorm.DB) *MessageController {
	return &MessageController{db: db, messages: stores.NewMessageStore(db)}
}

// SendMessage sends a text or voice message to another user. The sender is
// always the authenticated user.
func (m *MessageController) SendMessage(ctx *gin.Context) {
	var req struct {
		ReceiverID uint               `json:"receiver_id" binding:"required"`
		Content    string             `json:"content" binding:"required"`
		Type       models.MessageType `json:"type"`
		Duration   *int               `json:"duration"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	senderID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	msg, err := m.messages.Send(ctx.Request.Context(), stores.NewMessage{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Content:    utils.Sanitize(req.Content),
		Type:       req.Type,
		Duration:   req.Duration,
	})
	if err != nil {
		if errors.Is(err, stores.ErrValidation) {
			utils.Error(ctx, http.StatusBadRequest, 40031, err.Error())
			return
		}
		utils.Sugar.Errorf("send message failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to send message")
		return
	}

	utils.Success(ctx, gin.H{"message": msg})
}

// GetConversation returns the recent messages between the authenticated user
// and a partner, oldest first.
func (m *MessageController) GetConversation(ctx *gin.Context) {
	partnerID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	msgs, err := m.messages.Conversation(ctx.Request.Context(), userID, partnerID, intQuery(ctx, "limit", 50))
	if err != nil {
		utils.Sugar.Errorf("load conversation failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load conversation")
		return
	}
	utils.Success(ctx, gin.H{"items": msgs})
}

// ListConversations returns the user's conversation list: one entry per
// partner with the latest message, most recent conversation first.
func (m *MessageController) ListConversations(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	conversations, err := m.messages.Conversations(ctx.Request.Context(), userID)
	if err != nil {
		utils.Sugar.Errorf("load conversations failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load conversations")
		return
	}
	utils.Success(ctx, gin.H{"items": conversations})
}

// MarkRead flips the read flag on one received message.
func (m *MessageController) MarkRead(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	msg, err := m.messages.GetByID(ctx.Request.Context(), id)
	if err != nil {
		utils.Sugar.Errorf("load message failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load message")
		return
	}
	if msg == nil {
		utils.Error(ctx, http.StatusNotFound, 40430, "message not found")
		return
	}
	if msg.ReceiverID != userID {
		utils.Error(ctx, http.StatusForbidden, 40330, "you can only mark your own messages read")
		return
	}

	if err := m.messages.MarkRead(ctx.Request.Context(), id); err != nil {
		utils.Sugar.Errorf("mark read failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to mark message read")
		return
	}
	utils.Success(ctx, gin.H{"message": "marked read"})
}

// MarkConversationRead flips the read flag on every unread message from the
// given sender to the authenticated user. Safe to repeat.
func (m *MessageController) MarkConversationRead(ctx *gin.Context) {
	senderID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if err := m.messages.MarkAllRead(ctx.Request.Context(), senderID, userID); err != nil {
		utils.Sugar.Errorf("mark conversation read failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to mark conversation read")
		return
	}
	utils.Success(ctx, gin.H{"message": "conversation marked read"})
}

// UnreadCount returns the badge count for the messages dropdown.
func (m *MessageController) UnreadCount(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	count, err := m.messages.UnreadCount(ctx.Request.Context(), userID)
	if err != nil {
		utils.Sugar.Errorf("unread count failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to count unread messages")
		return
	}
	utils.Success(ctx, gin.H{"unread": count})
}

// DeleteMessage removes a message the authenticated user sent.
func (m *MessageController) DeleteMessage(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	msg, err := m.messages.GetByID(ctx.Request.Context(), id)
	if err != nil {
		utils.Sugar.Errorf("load message failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load message")
		return
	}
	if msg == nil {
		utils.Error(ctx, http.StatusNotFound, 40430, "message not found")
		return
	}
	if msg.SenderID != userID {
		utils.Error(ctx, http.StatusForbidden, 40331, "you can only delete messages you sent")
		return
	}

	if err := m.messages.Delete(ctx.Request.Context(), id); err != nil {
		utils.Sugar.Errorf("delete message failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50037, "failed to delete message")
		return
	}
	utils.Success(ctx, gin.H{"message": "message deleted"})
}
