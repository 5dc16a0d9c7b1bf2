package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/infrastructure/logger"
	"github.com/flockdir/flock-backend/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MessagingUseCase struct {
	convRepo    repository.ConversationRepository
	msgRepo     repository.MessageRepository
	profileRepo repository.ProfileRepository
	tx          repository.Transactor
	logger      *zap.Logger
	now         func() time.Time
}

func NewMessagingUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	profileRepo repository.ProfileRepository,
	tx repository.Transactor,
	logger *zap.Logger,
) *MessagingUseCase {
	return &MessagingUseCase{
		convRepo:    convRepo,
		msgRepo:     msgRepo,
		profileRepo: profileRepo,
		tx:          tx,
		logger:      logger,
		now:         time.Now,
	}
}

func (uc *MessagingUseCase) WithClock(now func() time.Time) *MessagingUseCase {
	uc.now = now
	return uc
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// Thread is a conversation as seen by one participant.
type Thread struct {
	Conversation *domain.Conversation
	Partner      *domain.Profile
	Messages     []*domain.Message
}

// getOrCreate returns the single conversation for the pair, creating it with
// userID as the sender when none exists.
func (uc *MessagingUseCase) getOrCreate(ctx context.Context, userID, otherID uuid.UUID) (*domain.Conversation, error) {
	conv, err := uc.convRepo.GetByUsers(ctx, userID, otherID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, domain.ErrConversationNotFound) {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	conv, created, err := uc.convRepo.Create(ctx, domain.NewConversation(userID, otherID, uc.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	if created {
		logger.FromContext(ctx, uc.logger).Info("Conversation started",
			zap.String("conversation_id", conv.ID.String()),
			zap.String("sender_id", userID.String()),
			zap.String("receiver_id", otherID.String()),
		)
	}
	return conv, nil
}

// GetOrCreate returns the conversation between userID and otherID.
func (uc *MessagingUseCase) GetOrCreate(ctx context.Context, userID, otherID uuid.UUID) (*domain.Conversation, error) {
	if userID == otherID {
		return nil, domain.ErrCannotMessageSelf
	}
	if _, err := uc.profileRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}
	return uc.getOrCreate(ctx, userID, otherID)
}

// ViewConversation opens the thread with otherID. Opening clears the viewer's
// unread counter and marks every message addressed to the viewer as read;
// opening it again changes nothing.
func (uc *MessagingUseCase) ViewConversation(ctx context.Context, viewerID, otherID uuid.UUID) (*Thread, error) {
	if viewerID == otherID {
		return nil, domain.ErrCannotMessageSelf
	}
	partner, err := uc.profileRepo.GetByID(ctx, otherID)
	if err != nil {
		return nil, err
	}

	thread := &Thread{Partner: partner.PublicView()}
	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		conv, err := uc.getOrCreate(ctx, viewerID, otherID)
		if err != nil {
			return err
		}
		role, err := conv.RoleOf(viewerID)
		if err != nil {
			return err
		}
		if err := uc.convRepo.ResetUnread(ctx, conv.ID, role); err != nil {
			return fmt.Errorf("failed to reset unread count: %w", err)
		}
		conv.MarkViewedBy(viewerID)

		if _, err := uc.msgRepo.MarkReadFor(ctx, conv.ID, viewerID); err != nil {
			return fmt.Errorf("failed to mark messages read: %w", err)
		}
		messages, err := uc.msgRepo.ListByConversation(ctx, conv.ID)
		if err != nil {
			return fmt.Errorf("failed to list messages: %w", err)
		}
		if messages == nil {
			messages = []*domain.Message{}
		}

		thread.Conversation = conv
		thread.Messages = messages
		return nil
	})
	if err != nil {
		return nil, err
	}
	return thread, nil
}

// SendMessage appends a message from senderID to otherID and bumps the
// recipient's unread counter in the same transaction.
func (uc *MessagingUseCase) SendMessage(ctx context.Context, senderID, otherID uuid.UUID, req *SendMessageRequest) (*domain.Message, error) {
	content := strings.TrimSpace(req.Content)
	switch {
	case content == "":
		return nil, domain.NewValidationError("content", "is required")
	case utf8.RuneCountInString(content) > domain.MaxMessageLength:
		return nil, domain.NewValidationError("content", fmt.Sprintf("must be at most %d characters", domain.MaxMessageLength))
	}
	if senderID == otherID {
		return nil, domain.ErrCannotMessageSelf
	}
	if _, err := uc.profileRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}

	var msg *domain.Message
	err := uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		conv, err := uc.getOrCreate(ctx, senderID, otherID)
		if err != nil {
			return err
		}

		msg = &domain.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			SenderID:       senderID,
			ReceiverID:     otherID,
			Content:        content,
			CreatedAt:      uc.now(),
		}
		if err := uc.msgRepo.Create(ctx, msg); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		target := conv.UnreadTargetFor(senderID)
		if err := uc.convRepo.RecordMessage(ctx, conv.ID, target, msg.CreatedAt, domain.MessagePreview(content)); err != nil {
			return fmt.Errorf("failed to update conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, uc.logger).Debug("Message sent",
		zap.String("conversation_id", msg.ConversationID.String()),
		zap.String("sender_id", senderID.String()),
	)
	return msg, nil
}

// ListConversations returns the caller's inbox, most recent first.
func (uc *MessagingUseCase) ListConversations(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	summaries, err := uc.convRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if summaries == nil {
		summaries = []*domain.ConversationSummary{}
	}
	return summaries, nil
}

// UnreadCount sums the caller's counters across every conversation.
func (uc *MessagingUseCase) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := uc.convRepo.TotalUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}
