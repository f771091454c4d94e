package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
)

// MaxPassengersPerCheckout caps one checkout batch
const MaxPassengersPerCheckout = 10

// Checkout owns the ledger entries of one batch of reservations
type Checkout struct {
	ID             string          `json:"id" db:"id"`
	OrganizationID string          `json:"organization_id" db:"organization_id"`
	ClientID       string          `json:"client_id" db:"client_id"`
	TripID         string          `json:"trip_id" db:"trip_id"`
	Total          decimal.Decimal `json:"total" db:"total"`
	CreditsUsed    decimal.Decimal `json:"credits_used" db:"credits_used"`
	EntryValue     decimal.Decimal `json:"entry_value" db:"entry_value"`
	IsPartial      bool            `json:"is_partial" db:"is_partial"`
	PaymentMethod  *string         `json:"payment_method,omitempty" db:"payment_method"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// CheckoutRequest is the request body for POST /api/client/checkout
type CheckoutRequest struct {
	TripID        string           `json:"trip_id" binding:"required"`
	Reservations  []PassengerInput `json:"reservations" binding:"required"`
	CreditsUsed   decimal.Decimal  `json:"credits_used"`
	IsPartial     bool             `json:"is_partial"`
	EntryValue    decimal.Decimal  `json:"entry_value"`
	PaymentMethod *string          `json:"payment_method"`
}

// Total sums the passenger prices of the batch
func (r *CheckoutRequest) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.Reservations {
		total = total.Add(p.Price)
	}
	return total
}

// Validate checks the batch shape. Seat availability is checked against the store later.
func (r *CheckoutRequest) Validate() error {
	if len(r.Reservations) == 0 {
		return domain.Invalid("reservations", "at least one passenger is required")
	}
	if len(r.Reservations) > MaxPassengersPerCheckout {
		return domain.Invalid("reservations", "too many passengers in one checkout")
	}

	seen := make(map[string]bool, len(r.Reservations))
	for i := range r.Reservations {
		p := &r.Reservations[i]
		if strings.TrimSpace(p.PassengerName) == "" {
			return domain.Invalid("passenger_name", "is required for every passenger")
		}
		if err := p.Validate(); err != nil {
			return err
		}
		key := p.seatKey()
		if key == "" {
			continue
		}
		if seen[key] {
			return domain.Conflict("seat", "seat "+p.SeatLabel()+" appears twice in the same checkout")
		}
		seen[key] = true
	}

	if r.CreditsUsed.IsNegative() {
		return domain.Invalid("credits_used", "cannot be negative")
	}
	if r.EntryValue.IsNegative() {
		return domain.Invalid("entry_value", "cannot be negative")
	}

	_, _, err := SplitPayment(r.Total(), r.CreditsUsed, r.EntryValue, r.IsPartial)
	return err
}

// CheckoutResponse is returned after a successful checkout
type CheckoutResponse struct {
	Checkout     *Checkout       `json:"checkout"`
	Reservations []*Reservation  `json:"reservations"`
	Transactions []*Transaction  `json:"transactions"`
	CreditsLeft  decimal.Decimal `json:"credits_left"`
}
