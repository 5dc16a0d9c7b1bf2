package postgres

import (
	"context"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, content, read, created_at)
		VALUES (:id, :conversation_id, :sender_id, :receiver_id, :content, :read, :created_at)
	`
	_, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, m)
	return err
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*domain.Message, error) {
	var messages []*domain.Message
	query := `
		SELECT id, conversation_id, sender_id, receiver_id, content, read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`
	err := conn(ctx, r.db).SelectContext(ctx, &messages, query, conversationID)
	return messages, err
}

func (r *messageRepository) MarkReadFor(ctx context.Context, conversationID, receiverID uuid.UUID) (int, error) {
	query := `UPDATE messages SET read = true WHERE conversation_id = $1 AND receiver_id = $2 AND read = false`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, conversationID, receiverID)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	return int(rows), err
}
