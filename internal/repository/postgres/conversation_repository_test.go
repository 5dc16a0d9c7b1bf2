package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var conversationRowColumns = []string{
	"id", "sender_id", "receiver_id", "last_message_at", "last_message_preview",
	"sender_unread_count", "receiver_unread_count", "created_at",
}

func TestConversationRepository_Create(t *testing.T) {
	t.Run("inserts a new pair", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		c := domain.NewConversation(uuid.New(), uuid.New(), time.Now())
		mock.ExpectQuery(`INSERT INTO conversations .+ ON CONFLICT DO NOTHING`).
			WithArgs(c.ID, c.SenderID, c.ReceiverID, c.LastMessageAt, c.CreatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(c.ID.String()))

		got, created, err := NewConversationRepository(db).Create(context.Background(), c)

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, c, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns the existing row when the pair already exists in reverse", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		a, b := uuid.New(), uuid.New()
		existingID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`INSERT INTO conversations`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`SELECT .+ FROM conversations\s+WHERE \(sender_id = \$1 AND receiver_id = \$2\) OR \(sender_id = \$2 AND receiver_id = \$1\)`).
			WithArgs(a, b).
			WillReturnRows(sqlmock.NewRows(conversationRowColumns).
				AddRow(existingID.String(), b.String(), a.String(), now, nil, 0, 2, now))

		got, created, err := NewConversationRepository(db).Create(context.Background(), domain.NewConversation(a, b, now))

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existingID, got.ID)
		assert.Equal(t, b, got.SenderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConversationRepository_RecordMessage(t *testing.T) {
	t.Run("increments the receiver counter atomically", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		id := uuid.New()
		at := time.Now()
		mock.ExpectExec(`SET receiver_unread_count = receiver_unread_count \+ 1`).
			WithArgs(at, "hi", id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewConversationRepository(db).RecordMessage(context.Background(), id, domain.RoleReceiver, at, "hi")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing conversation", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		mock.ExpectExec(`SET sender_unread_count = sender_unread_count \+ 1`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewConversationRepository(db).RecordMessage(context.Background(), uuid.New(), domain.RoleSender, time.Now(), "hi")

		assert.ErrorIs(t, err, domain.ErrConversationNotFound)
	})
}

func TestConversationRepository_ListForUser(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	me, partner := uuid.New(), uuid.New()
	now := time.Now()
	mock.ExpectQuery(`FROM conversations c\s+JOIN profiles p`).
		WithArgs(me).
		WillReturnRows(sqlmock.NewRows(append(conversationRowColumns, "partner_id", "partner_name", "partner_image")).
			AddRow(uuid.New().String(), partner.String(), me.String(), now, "hey", 0, 3, now,
				partner.String(), "Grace", nil))

	summaries, err := NewConversationRepository(db).ListForUser(context.Background(), me)

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Grace", summaries[0].PartnerName)
	assert.Equal(t, 3, summaries[0].Unread)
}

func TestMessageRepository_MarkReadFor(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	convID, receiver := uuid.New(), uuid.New()
	mock.ExpectExec(`UPDATE messages SET read = true`).
		WithArgs(convID, receiver).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewMessageRepository(db).MarkReadFor(context.Background(), convID, receiver)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSessionRepository_GetByTokenHash_NotFound(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	mock.ExpectQuery(`FROM sessions WHERE token_hash = \$1`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewSessionRepository(db).GetByTokenHash(context.Background(), "abc")

	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestLocationRepository_TopCities(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()

	year := 2025
	locID := uuid.New()
	mock.ExpectQuery(`GROUP BY l.id\s+HAVING COUNT\(DISTINCT p.id\) > 0`).
		WithArgs(2025, 6).
		WillReturnRows(sqlmock.NewRows([]string{"id", "city", "state", "country", "lat", "lon", "count"}).
			AddRow(locID.String(), "New York", "NY", "USA", 40.7, -74.0, 4))

	counts, err := NewLocationRepository(db).TopCities(context.Background(), domain.StatsScope{ClassYear: &year}, 6)

	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, locID, counts[0].ID)
	assert.Equal(t, "New York", counts[0].City)
	assert.Equal(t, 4, counts[0].Count)
}
