package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxMessageLength  = 2000
	messagePreviewLen = 100
)

// ConversationRole is one of the two directional roles fixed when the
// conversation row is created.
type ConversationRole string

const (
	RoleSender   ConversationRole = "sender"
	RoleReceiver ConversationRole = "receiver"
)

// Conversation is the single row shared by an unordered pair of users.
// SenderID is whoever created the row; later messages in either direction
// do not change the roles.
type Conversation struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	SenderID            uuid.UUID `json:"senderId" db:"sender_id"`
	ReceiverID          uuid.UUID `json:"receiverId" db:"receiver_id"`
	LastMessageAt       time.Time `json:"lastMessageAt" db:"last_message_at"`
	LastMessagePreview  *string   `json:"lastMessagePreview" db:"last_message_preview"`
	SenderUnreadCount   int       `json:"senderUnreadCount" db:"sender_unread_count"`
	ReceiverUnreadCount int       `json:"receiverUnreadCount" db:"receiver_unread_count"`
	CreatedAt           time.Time `json:"createdAt" db:"created_at"`
}

func NewConversation(senderID, receiverID uuid.UUID, now time.Time) *Conversation {
	return &Conversation{
		ID:            uuid.New(),
		SenderID:      senderID,
		ReceiverID:    receiverID,
		LastMessageAt: now,
		CreatedAt:     now,
	}
}

func (c *Conversation) HasUser(userID uuid.UUID) bool {
	return c.SenderID == userID || c.ReceiverID == userID
}

// RoleOf returns the directional role of userID.
func (c *Conversation) RoleOf(userID uuid.UUID) (ConversationRole, error) {
	switch userID {
	case c.SenderID:
		return RoleSender, nil
	case c.ReceiverID:
		return RoleReceiver, nil
	}
	return "", ErrNotParticipant
}

// OtherUserID returns the participant that is not userID.
func (c *Conversation) OtherUserID(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case c.SenderID:
		return c.ReceiverID, true
	case c.ReceiverID:
		return c.SenderID, true
	}
	return uuid.Nil, false
}

// UnreadTargetFor returns the role whose counter a message from senderID
// increments. It is matched against the conversation's stored roles, never
// against the message's own direction.
func (c *Conversation) UnreadTargetFor(senderID uuid.UUID) ConversationRole {
	if c.SenderID == senderID {
		return RoleReceiver
	}
	return RoleSender
}

// UnreadFor returns the unread counter belonging to userID.
func (c *Conversation) UnreadFor(userID uuid.UUID) int {
	role, err := c.RoleOf(userID)
	if err != nil {
		return 0
	}
	if role == RoleSender {
		return c.SenderUnreadCount
	}
	return c.ReceiverUnreadCount
}

// RecordMessage mirrors in memory what the store does when a message lands.
func (c *Conversation) RecordMessage(m *Message) {
	c.LastMessageAt = m.CreatedAt
	preview := MessagePreview(m.Content)
	c.LastMessagePreview = &preview
	if c.UnreadTargetFor(m.SenderID) == RoleReceiver {
		c.ReceiverUnreadCount++
	} else {
		c.SenderUnreadCount++
	}
}

// MarkViewedBy zeroes the viewer's counter. Zeroing twice is a no-op.
func (c *Conversation) MarkViewedBy(viewerID uuid.UUID) {
	role, err := c.RoleOf(viewerID)
	if err != nil {
		return
	}
	if role == RoleSender {
		c.SenderUnreadCount = 0
	} else {
		c.ReceiverUnreadCount = 0
	}
}

// Message is immutable after creation except for Read.
type Message struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ConversationID uuid.UUID `json:"conversationId" db:"conversation_id"`
	SenderID       uuid.UUID `json:"senderId" db:"sender_id"`
	ReceiverID     uuid.UUID `json:"receiverId" db:"receiver_id"`
	Content        string    `json:"content" db:"content"`
	Read           bool      `json:"read" db:"read"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// MessagePreview truncates content to the preview length in runes.
func MessagePreview(content string) string {
	if utf8.RuneCountInString(content) <= messagePreviewLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:messagePreviewLen])
}

// ConversationSummary is one inbox row from the caller's point of view.
type ConversationSummary struct {
	Conversation *Conversation
	PartnerID    uuid.UUID
	PartnerName  string
	PartnerImage *string
	Unread       int
}
