package handler

import (
	"context"
	"net/http"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/usecase/messaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MessagingService interface {
	ViewConversation(ctx context.Context, viewerID, otherID uuid.UUID) (*messaging.Thread, error)
	SendMessage(ctx context.Context, senderID, otherID uuid.UUID, req *messaging.SendMessageRequest) (*domain.Message, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type ConversationHandler struct {
	messaging MessagingService
	logger    *zap.Logger
}

func NewConversationHandler(messaging MessagingService, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{
		messaging: messaging,
		logger:    logger,
	}
}

// Inbox handles GET /conversations
func (h *ConversationHandler) Inbox(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	summaries, err := h.messaging.ListConversations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "failed to list conversations")
		return
	}
	c.JSON(http.StatusOK, toInbox(summaries))
}

// UnreadCount handles GET /conversations/unread-count
func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	n, err := h.messaging.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "failed to count unread messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": n})
}

// GetConversation handles GET /conversations/:userId. Viewing marks the
// caller's messages read.
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	otherID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}

	thread, err := h.messaging.ViewConversation(c.Request.Context(), userID, otherID)
	if err != nil {
		respondError(c, h.logger, err, "failed to load conversation")
		return
	}
	c.JSON(http.StatusOK, toThreadResponse(thread))
}

// SendMessage handles POST /conversations/:userId/messages
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	otherID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}

	var req messaging.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.messaging.SendMessage(c.Request.Context(), userID, otherID, &req)
	if err != nil {
		respondError(c, h.logger, err, "failed to send message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}
