package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWebhookEvent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWebhookEventRepository(db)
	ctx := context.Background()

	t.Run("First Delivery", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO webhook_events (.+) ON CONFLICT \(event_key\) DO NOTHING`).
			WithArgs("payment-confirmed:tx-1", "payment-confirmed", []byte(`{"amount":150}`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("evt-1"))

		inserted, err := repo.Record(ctx, "payment-confirmed:tx-1", "payment-confirmed", []byte(`{"amount":150}`))
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Replay", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO webhook_events`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		inserted, err := repo.Record(ctx, "payment-confirmed:tx-1", "payment-confirmed", nil)
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
