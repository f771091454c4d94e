package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustCredits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClientRepository(db)
	ctx := context.Background()

	t.Run("Deduct", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE clients SET saldo_creditos = saldo_creditos \+ (.+) RETURNING saldo_creditos`).
			WithArgs(dec("-20"), "client-1").
			WillReturnRows(sqlmock.NewRows([]string{"saldo_creditos"}).AddRow("30.00"))

		balance, err := repo.AdjustCredits(ctx, "client-1", decimal.NewFromInt(-20))
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(30)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Would Go Negative", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE clients SET saldo_creditos`).
			WithArgs(dec("-80"), "client-1").
			WillReturnRows(sqlmock.NewRows([]string{"saldo_creditos"}))

		_, err := repo.AdjustCredits(ctx, "client-1", decimal.NewFromInt(-80))
		assert.True(t, domain.IsInsufficientBalance(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
