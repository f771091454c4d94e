package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
)

// PaymentConfirmedRequest is sent by the payment gateway once money has been captured
type PaymentConfirmedRequest struct {
	ReservationID *string         `json:"reservation_id"`
	TransactionID *string         `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod *string         `json:"payment_method"`
}

// Validate checks the payment confirmation payload
func (r *PaymentConfirmedRequest) Validate() error {
	if isBlank(r.ReservationID) && isBlank(r.TransactionID) {
		return domain.Invalid("reservation_id", "reservation_id or transaction_id is required")
	}
	if !r.Amount.IsPositive() {
		return domain.Invalid("amount", "must be positive")
	}
	return nil
}

// IdempotencyKey derives the replay key of the event. A gateway supplied key wins, then the
// gateway transaction id. Two equal installments of one reservation are indistinguishable by
// payload, so a delivery without either is rejected.
func (r *PaymentConfirmedRequest) IdempotencyKey(header string) (string, error) {
	header = strings.TrimSpace(header)
	switch {
	case header != "":
		return "payment-confirmed:" + header, nil
	case !isBlank(r.TransactionID):
		return "payment-confirmed:" + strings.TrimSpace(*r.TransactionID), nil
	default:
		return "", domain.Invalid("transaction_id", "transaction_id or an Idempotency-Key header is required")
	}
}

// CancelReservationRequest is sent by the gateway when a payment is refused or expires
type CancelReservationRequest struct {
	ReservationID *string `json:"reservation_id"`
	TransactionID *string `json:"transaction_id"`
	Reason        *string `json:"reason"`
}

// Validate checks the cancellation payload
func (r *CancelReservationRequest) Validate() error {
	if isBlank(r.ReservationID) && isBlank(r.TransactionID) {
		return domain.Invalid("reservation_id", "reservation_id or transaction_id is required")
	}
	return nil
}

// WebhookEvent records a processed webhook delivery
type WebhookEvent struct {
	ID          string    `json:"id" db:"id"`
	EventKey    string    `json:"event_key" db:"event_key"`
	EventType   string    `json:"event_type" db:"event_type"`
	Payload     []byte    `json:"-" db:"payload"`
	ProcessedAt time.Time `json:"processed_at" db:"processed_at"`
}

// WebhookResult is the response body of the webhook endpoints
type WebhookResult struct {
	Success     bool         `json:"success"`
	Duplicate   bool         `json:"duplicate,omitempty"`
	Reservation *Reservation `json:"reservation,omitempty"`
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
