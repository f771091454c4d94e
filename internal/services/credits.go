package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
)

// DeductCredits takes amount from a client's stored balance and records the usage as an EXPENSE.
// Must run inside the caller's transaction: the client row stays locked until it ends.
func DeductCredits(ctx context.Context, clients *database.ClientRepository, ledger *database.TransactionRepository,
	orgID, clientID string, amount decimal.Decimal, checkoutID *string) (decimal.Decimal, error) {

	client, err := clients.GetForUpdate(ctx, orgID, clientID)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return client.SaldoCreditos, nil
	}
	if client.SaldoCreditos.LessThan(amount) {
		return decimal.Zero, domain.InsufficientBalanceError{
			Available: client.SaldoCreditos.StringFixed(2),
			Requested: amount.StringFixed(2),
		}
	}

	balance, err := clients.AdjustCredits(ctx, clientID, amount.Neg())
	if err != nil {
		return decimal.Zero, err
	}

	now := time.Now()
	entry := &models.Transaction{
		OrganizationID: orgID,
		Type:           models.TransactionTypeExpense,
		Category:       models.CategoryOther,
		Description:    fmt.Sprintf("Credits used by %s", client.Name),
		Amount:         amount,
		Status:         models.TransactionStatusPaid,
		PaidAt:         &now,
		CheckoutID:     checkoutID,
	}
	if err := ledger.Create(ctx, entry); err != nil {
		return decimal.Zero, err
	}

	return balance, nil
}
