package repository

import (
	"context"
	"time"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/google/uuid"
)

type ConversationRepository interface {
	// Create inserts the row unless the unordered pair already has one, in
	// which case the existing row is returned and created is false.
	Create(ctx context.Context, conversation *domain.Conversation) (existing *domain.Conversation, created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	// GetByUsers matches the pair in either order.
	GetByUsers(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error)
	RecordMessage(ctx context.Context, id uuid.UUID, target domain.ConversationRole, at time.Time, preview string) error
	ResetUnread(ctx context.Context, id uuid.UUID, role domain.ConversationRole) error
	TotalUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*domain.Message, error)
	// MarkReadFor flags every unread message addressed to receiverID in the
	// conversation and returns how many changed.
	MarkReadFor(ctx context.Context, conversationID, receiverID uuid.UUID) (int, error)
}
