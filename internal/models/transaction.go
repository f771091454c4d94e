package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
)

// TransactionType is the direction of a ledger entry
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// IsValid checks whether the type is known
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// TransactionStatus is the settlement state of a ledger entry
type TransactionStatus string

const (
	TransactionStatusPending       TransactionStatus = "PENDING"
	TransactionStatusPaid          TransactionStatus = "PAID"
	TransactionStatusCancelled     TransactionStatus = "CANCELLED"
	TransactionStatusOverdue       TransactionStatus = "OVERDUE"
	TransactionStatusPartiallyPaid TransactionStatus = "PARTIALLY_PAID"
)

// IsValid checks whether the status is known
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusPaid, TransactionStatusCancelled,
		TransactionStatusOverdue, TransactionStatusPartiallyPaid:
		return true
	}
	return false
}

// Ledger categories
const (
	CategoryTicketSale  = "VENDA_PASSAGEM"
	CategoryOther       = "OUTROS"
	CategoryMaintenance = "MANUTENCAO"
	CategoryParcel      = "ENCOMENDA"
	CategoryCharter     = "FRETAMENTO"
)

// Transaction is a financial ledger entry
type Transaction struct {
	ID             string            `json:"id" db:"id"`
	OrganizationID string            `json:"organization_id" db:"organization_id"`
	Type           TransactionType   `json:"type" db:"type"`
	Category       string            `json:"category" db:"category"`
	Description    string            `json:"description" db:"description"`
	Amount         decimal.Decimal   `json:"amount" db:"amount"`
	Status         TransactionStatus `json:"status" db:"status"`
	PaymentMethod  *string           `json:"payment_method,omitempty" db:"payment_method"`
	DueDate        *time.Time        `json:"due_date,omitempty" db:"due_date"`
	PaidAt         *time.Time        `json:"paid_at,omitempty" db:"paid_at"`
	ReservationID  *string           `json:"reservation_id,omitempty" db:"reservation_id"`
	CheckoutID     *string           `json:"checkout_id,omitempty" db:"checkout_id"`
	MaintenanceID  *string           `json:"maintenance_id,omitempty" db:"maintenance_id"`
	ParcelID       *string           `json:"parcel_id,omitempty" db:"parcel_id"`
	CharterID      *string           `json:"charter_id,omitempty" db:"charter_id"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// SplitPayment computes the entry and remainder amounts of a checkout.
// The entry is the full net amount unless the payment is partial; the remainder
// is only non-zero for partial payments.
func SplitPayment(total, creditsUsed, entryValue decimal.Decimal, isPartial bool) (entry, remainder decimal.Decimal, err error) {
	if creditsUsed.IsNegative() {
		return decimal.Zero, decimal.Zero, domain.Invalid("credits_used", "cannot be negative")
	}
	if creditsUsed.GreaterThan(total) {
		return decimal.Zero, decimal.Zero, domain.Invalid("credits_used", "cannot exceed the reservation total")
	}

	net := total.Sub(creditsUsed)
	if !isPartial {
		return net, decimal.Zero, nil
	}

	if !entryValue.IsPositive() {
		return decimal.Zero, decimal.Zero, domain.Invalid("entry_value", "must be positive for partial payments")
	}
	if entryValue.GreaterThan(net) {
		return decimal.Zero, decimal.Zero, domain.Invalid("entry_value", "cannot exceed the amount due")
	}

	remainder = net.Sub(entryValue)
	if !remainder.IsPositive() {
		remainder = decimal.Zero
	}
	return entryValue, remainder, nil
}

// CreateTransactionRequest is the request body for POST /api/finance/transactions
type CreateTransactionRequest struct {
	Type          TransactionType    `json:"type" binding:"required"`
	Category      string             `json:"category" binding:"required"`
	Description   string             `json:"description"`
	Amount        decimal.Decimal    `json:"amount"`
	Status        *TransactionStatus `json:"status"`
	PaymentMethod *string            `json:"payment_method"`
	DueDate       *time.Time         `json:"due_date"`
}

// Validate checks a manual ledger entry
func (r *CreateTransactionRequest) Validate() error {
	if !r.Type.IsValid() {
		return domain.Invalid("type", "must be INCOME or EXPENSE")
	}
	if !r.Amount.IsPositive() {
		return domain.Invalid("amount", "must be positive")
	}
	if r.Status != nil && !r.Status.IsValid() {
		return domain.Invalid("status", "unknown transaction status")
	}
	return nil
}

// UpdateTransactionStatusRequest is the request body for PATCH /api/finance/transactions/:id/status
type UpdateTransactionStatusRequest struct {
	Status TransactionStatus `json:"status" binding:"required"`
}

// TransactionFilter narrows ledger listings
type TransactionFilter struct {
	Type   *TransactionType
	Status *TransactionStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// FinanceSummaryRow is one (type, status) bucket of the finance summary
type FinanceSummaryRow struct {
	Type   TransactionType   `json:"type" db:"type"`
	Status TransactionStatus `json:"status" db:"status"`
	Count  int               `json:"count" db:"count"`
	Total  decimal.Decimal   `json:"total" db:"total"`
}

// FinanceSummary aggregates the ledger of an organization
type FinanceSummary struct {
	Rows           []FinanceSummaryRow `json:"rows"`
	IncomePaid     decimal.Decimal     `json:"income_paid"`
	IncomePending  decimal.Decimal     `json:"income_pending"`
	ExpensePaid    decimal.Decimal     `json:"expense_paid"`
	ExpensePending decimal.Decimal     `json:"expense_pending"`
	Balance        decimal.Decimal     `json:"balance"`
}

// NewFinanceSummary folds the grouped rows into totals
func NewFinanceSummary(rows []FinanceSummaryRow) *FinanceSummary {
	s := &FinanceSummary{Rows: rows}
	for _, row := range rows {
		pending := row.Status == TransactionStatusPending || row.Status == TransactionStatusOverdue ||
			row.Status == TransactionStatusPartiallyPaid
		switch {
		case row.Type == TransactionTypeIncome && row.Status == TransactionStatusPaid:
			s.IncomePaid = s.IncomePaid.Add(row.Total)
		case row.Type == TransactionTypeIncome && pending:
			s.IncomePending = s.IncomePending.Add(row.Total)
		case row.Type == TransactionTypeExpense && row.Status == TransactionStatusPaid:
			s.ExpensePaid = s.ExpensePaid.Add(row.Total)
		case row.Type == TransactionTypeExpense && pending:
			s.ExpensePending = s.ExpensePending.Add(row.Total)
		}
	}
	s.Balance = s.IncomePaid.Sub(s.ExpensePaid)
	return s
}
