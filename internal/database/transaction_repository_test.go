package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStatusByLink(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	t.Run("Cancels Pending Only", func(t *testing.T) {
		mock.ExpectExec(`UPDATE transactions SET status = (.+) WHERE reservation_id = (.+) AND status IN \(\$3\)`).
			WithArgs(models.TransactionStatusCancelled, "res-1", models.TransactionStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := repo.SetStatusByLink(ctx, LinkReservation, "res-1", models.TransactionStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Several Source Statuses", func(t *testing.T) {
		mock.ExpectExec(`WHERE maintenance_id = (.+) AND status IN \(\$3, \$4\)`).
			WithArgs(models.TransactionStatusPaid, "m-1", models.TransactionStatusPending, models.TransactionStatusOverdue).
			WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := repo.SetStatusByLink(ctx, LinkMaintenance, "m-1", models.TransactionStatusPaid,
			models.TransactionStatusPending, models.TransactionStatusOverdue)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Link", func(t *testing.T) {
		_, err := repo.SetStatusByLink(ctx, TransactionLink("id; DROP TABLE transactions"), "x", models.TransactionStatusPaid)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSummary(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)

	mock.ExpectQuery(`SELECT type, status, COUNT\(\*\) (.+) GROUP BY type, status`).
		WithArgs("org-1", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"type", "status", "count", "total"}).
			AddRow("INCOME", "PAID", 3, "300.00").
			AddRow("INCOME", "PENDING", 1, "40.00").
			AddRow("EXPENSE", "PAID", 2, "120.50"))

	rows, err := repo.Summary(context.Background(), "org-1", nil, nil)
	require.NoError(t, err)
	summary := models.NewFinanceSummary(rows)
	assert.Equal(t, "300", summary.IncomePaid.String())
	assert.Equal(t, "40", summary.IncomePending.String())
	assert.Equal(t, "179.5", summary.Balance.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
