package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactor_WithinTransaction(t *testing.T) {
	t.Run("commits when fn succeeds and repositories join the tx", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		convID := uuid.New()
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE conversations SET sender_unread_count = 0`).
			WithArgs(convID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewConversationRepository(db)
		err := NewTransactor(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
			return repo.ResetUnread(ctx, convID, "sender")
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := NewTransactor(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
			return boom
		})

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested call reuses the outer transaction", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		tr := NewTransactor(db)
		err := tr.WithinTransaction(context.Background(), func(ctx context.Context) error {
			return tr.WithinTransaction(ctx, func(ctx context.Context) error { return nil })
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
