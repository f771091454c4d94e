package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
)

const transactionColumns = `id, organization_id, type, category, description, amount, status, payment_method,
	due_date, paid_at, reservation_id, checkout_id, maintenance_id, parcel_id, charter_id, created_at, updated_at`

// TransactionLink names the foreign key a ledger entry is bulk-updated by
type TransactionLink string

const (
	LinkReservation TransactionLink = "reservation_id"
	LinkCheckout    TransactionLink = "checkout_id"
	LinkMaintenance TransactionLink = "maintenance_id"
	LinkParcel      TransactionLink = "parcel_id"
	LinkCharter     TransactionLink = "charter_id"
)

func (l TransactionLink) valid() bool {
	switch l {
	case LinkReservation, LinkCheckout, LinkMaintenance, LinkParcel, LinkCharter:
		return true
	}
	return false
}

// TransactionRepository handles financial ledger entries
type TransactionRepository struct {
	db Querier
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db Querier) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *TransactionRepository) WithTx(tx *sqlx.Tx) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

// Create inserts a ledger entry
func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (
			organization_id, type, category, description, amount, status, payment_method,
			due_date, paid_at, reservation_id, checkout_id, maintenance_id, parcel_id, charter_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		t.OrganizationID, t.Type, t.Category, t.Description, t.Amount, t.Status, t.PaymentMethod,
		t.DueDate, t.PaidAt, t.ReservationID, t.CheckoutID, t.MaintenanceID, t.ParcelID, t.CharterID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a ledger entry of the organization
func (r *TransactionRepository) GetByID(ctx context.Context, orgID, id string) (*models.Transaction, error) {
	var t models.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND organization_id = $2`
	if err := r.db.GetContext(ctx, &t, query, id, orgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("transaction")
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &t, nil
}

// List returns the ledger entries of an organization, newest first
func (r *TransactionRepository) List(ctx context.Context, orgID string, filter models.TransactionFilter) ([]*models.Transaction, error) {
	conditions := []string{"organization_id = $1"}
	args := []interface{}{orgID}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)

	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, strings.Join(conditions, " AND "), len(args)-1, len(args))

	transactions := []*models.Transaction{}
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// UpdateStatus changes the status of one entry. Moving to PAID stamps paid_at.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, orgID, id string, status models.TransactionStatus) error {
	query := `
		UPDATE transactions
		SET status = $1,
		    paid_at = CASE WHEN $1 = 'PAID' THEN COALESCE(paid_at, NOW()) ELSE paid_at END,
		    updated_at = NOW()
		WHERE id = $2 AND organization_id = $3`

	result, err := r.db.ExecContext(ctx, query, status, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	return requireRow(result, "transaction")
}

// SetStatusByLink moves every entry linked through link that is currently in one of the
// from statuses to the to status, returning how many entries changed.
func (r *TransactionRepository) SetStatusByLink(ctx context.Context, link TransactionLink, linkID string, to models.TransactionStatus, from ...models.TransactionStatus) (int64, error) {
	if !link.valid() {
		return 0, fmt.Errorf("unknown transaction link %q", link)
	}
	if len(from) == 0 {
		from = []models.TransactionStatus{models.TransactionStatusPending}
	}

	args := []interface{}{to, linkID}
	placeholders := make([]string, 0, len(from))
	for _, s := range from {
		args = append(args, s)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(`
		UPDATE transactions
		SET status = $1,
		    paid_at = CASE WHEN $1 = 'PAID' THEN COALESCE(paid_at, NOW()) ELSE paid_at END,
		    updated_at = NOW()
		WHERE %s = $2 AND status IN (%s)`, link, strings.Join(placeholders, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update linked transactions: %w", err)
	}
	return result.RowsAffected()
}

// Summary groups the ledger of an organization by type and status
func (r *TransactionRepository) Summary(ctx context.Context, orgID string, from, to *time.Time) ([]models.FinanceSummaryRow, error) {
	query := `
		SELECT type, status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total
		FROM transactions
		WHERE organization_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		GROUP BY type, status
		ORDER BY type, status`

	rows := []models.FinanceSummaryRow{}
	if err := r.db.SelectContext(ctx, &rows, query, orgID, from, to); err != nil {
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}
	return rows, nil
}

// MarkOverdue flags PENDING entries whose due date has passed
func (r *TransactionRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE transactions SET status = 'OVERDUE', updated_at = NOW()
		WHERE status = 'PENDING' AND due_date IS NOT NULL AND due_date < $1`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue transactions: %w", err)
	}
	return result.RowsAffected()
}
