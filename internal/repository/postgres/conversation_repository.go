package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const conversationColumns = `id, sender_id, receiver_id, last_message_at, last_message_preview,
	sender_unread_count, receiver_unread_count, created_at`

type conversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) repository.ConversationRepository {
	return &conversationRepository{db: db}
}

// Create relies on the unordered pair index: a concurrent insert for the
// same two users loses the race and returns the winner's row.
func (r *conversationRepository) Create(ctx context.Context, c *domain.Conversation) (*domain.Conversation, bool, error) {
	query := `
		INSERT INTO conversations (id, sender_id, receiver_id, last_message_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
		RETURNING id
	`
	var id uuid.UUID
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, c.ID, c.SenderID, c.ReceiverID, c.LastMessageAt, c.CreatedAt).Scan(&id)
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	existing, err := r.GetByUsers(ctx, c.SenderID, c.ReceiverID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	var c domain.Conversation
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	err := conn(ctx, r.db).GetContext(ctx, &c, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *conversationRepository) GetByUsers(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error) {
	var c domain.Conversation
	query := `
		SELECT ` + conversationColumns + ` FROM conversations
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
	`
	err := conn(ctx, r.db).GetContext(ctx, &c, query, userA, userB)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}

type conversationSummaryRow struct {
	domain.Conversation
	PartnerID    uuid.UUID `db:"partner_id"`
	PartnerName  string    `db:"partner_name"`
	PartnerImage *string   `db:"partner_image"`
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	query := `
		SELECT c.id, c.sender_id, c.receiver_id, c.last_message_at, c.last_message_preview,
		       c.sender_unread_count, c.receiver_unread_count, c.created_at,
		       p.id AS partner_id, p.name AS partner_name, p.image AS partner_image
		FROM conversations c
		JOIN profiles p ON p.id = CASE WHEN c.sender_id = $1 THEN c.receiver_id ELSE c.sender_id END
		WHERE c.sender_id = $1 OR c.receiver_id = $1
		ORDER BY c.last_message_at DESC, c.id ASC
	`
	var rows []conversationSummaryRow
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	summaries := make([]*domain.ConversationSummary, 0, len(rows))
	for i := range rows {
		c := rows[i].Conversation
		summaries = append(summaries, &domain.ConversationSummary{
			Conversation: &c,
			PartnerID:    rows[i].PartnerID,
			PartnerName:  rows[i].PartnerName,
			PartnerImage: rows[i].PartnerImage,
			Unread:       c.UnreadFor(userID),
		})
	}
	return summaries, nil
}

// RecordMessage bumps the target counter in SQL so concurrent sends never
// lose an increment.
func (r *conversationRepository) RecordMessage(ctx context.Context, id uuid.UUID, target domain.ConversationRole, at time.Time, preview string) error {
	var query string
	switch target {
	case domain.RoleSender:
		query = `
			UPDATE conversations
			SET sender_unread_count = sender_unread_count + 1, last_message_at = $1, last_message_preview = $2
			WHERE id = $3
		`
	case domain.RoleReceiver:
		query = `
			UPDATE conversations
			SET receiver_unread_count = receiver_unread_count + 1, last_message_at = $1, last_message_preview = $2
			WHERE id = $3
		`
	default:
		return domain.ErrNotParticipant
	}
	return r.execOne(ctx, query, at, preview, id)
}

func (r *conversationRepository) ResetUnread(ctx context.Context, id uuid.UUID, role domain.ConversationRole) error {
	var query string
	switch role {
	case domain.RoleSender:
		query = `UPDATE conversations SET sender_unread_count = 0 WHERE id = $1`
	case domain.RoleReceiver:
		query = `UPDATE conversations SET receiver_unread_count = 0 WHERE id = $1`
	default:
		return domain.ErrNotParticipant
	}
	return r.execOne(ctx, query, id)
}

func (r *conversationRepository) execOne(ctx context.Context, query string, args ...interface{}) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *conversationRepository) TotalUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN sender_id = $1 THEN sender_unread_count ELSE receiver_unread_count END), 0)
		FROM conversations
		WHERE sender_id = $1 OR receiver_id = $1
	`
	var total int
	err := conn(ctx, r.db).GetContext(ctx, &total, query, userID)
	return total, err
}
