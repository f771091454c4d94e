package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
)

// ReservationStatus represents the lifecycle of one passenger's seat claim
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusCheckedIn ReservationStatus = "CHECKED_IN"
	ReservationStatusUsed      ReservationStatus = "USED"
)

// IsValid checks whether the status is a known reservation status
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCancelled,
		ReservationStatusCheckedIn, ReservationStatusUsed:
		return true
	}
	return false
}

// IsActive reports whether the reservation occupies a seat
func (s ReservationStatus) IsActive() bool {
	return s != ReservationStatusCancelled
}

// IsTerminal reports whether no automatic transition may leave the status
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusCancelled || s == ReservationStatusUsed
}

// reservationTransitions lists the moves allowed through manual staff updates.
// CANCELLED may be reopened by staff; USED never changes.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending:   {ReservationStatusConfirmed, ReservationStatusCancelled},
	ReservationStatusConfirmed: {ReservationStatusCheckedIn, ReservationStatusCancelled, ReservationStatusPending},
	ReservationStatusCheckedIn: {ReservationStatusUsed, ReservationStatusCancelled},
	ReservationStatusCancelled: {ReservationStatusPending, ReservationStatusConfirmed},
	ReservationStatusUsed:      {},
}

// CanTransition checks whether a status change is allowed. Same-status writes are no-ops and allowed.
func CanTransition(from, to ReservationStatus) bool {
	if from == to {
		return true
	}
	for _, next := range reservationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SeatDelta returns the change to apply to trips.seats_available for a status change.
// Leaving CANCELLED takes a seat, entering CANCELLED gives one back.
func SeatDelta(from, to ReservationStatus) int {
	switch {
	case from.IsActive() && !to.IsActive():
		return 1
	case !from.IsActive() && to.IsActive():
		return -1
	default:
		return 0
	}
}

// Reservation is one passenger's claim on one seat of one trip
type Reservation struct {
	ID                string            `json:"id" db:"id"`
	OrganizationID    string            `json:"organization_id" db:"organization_id"`
	TripID            string            `json:"trip_id" db:"trip_id"`
	SeatID            *string           `json:"seat_id,omitempty" db:"seat_id"`
	SeatNumber        *string           `json:"seat_number,omitempty" db:"seat_number"`
	ClientID          *string           `json:"client_id,omitempty" db:"client_id"`
	CheckoutID        *string           `json:"checkout_id,omitempty" db:"checkout_id"`
	PassengerName     string            `json:"passenger_name" db:"passenger_name"`
	PassengerDocument *string           `json:"passenger_document,omitempty" db:"passenger_document"`
	PassengerPhone    *string           `json:"passenger_phone,omitempty" db:"passenger_phone"`
	PassengerEmail    *string           `json:"passenger_email,omitempty" db:"passenger_email"`
	Status            ReservationStatus `json:"status" db:"status"`
	TicketCode        string            `json:"ticket_code" db:"ticket_code"`
	Price             decimal.Decimal   `json:"price" db:"price"`
	AmountPaid        decimal.Decimal   `json:"amount_paid" db:"amount_paid"`
	PaymentMethod     *string           `json:"payment_method,omitempty" db:"payment_method"`
	ExternalPaymentID *string           `json:"external_payment_id,omitempty" db:"external_payment_id"`
	CreditsUsed       decimal.Decimal   `json:"credits_used" db:"credits_used"`
	IsPartial         bool              `json:"is_partial" db:"is_partial"`
	Notes             *string           `json:"notes,omitempty" db:"notes"`
	CreatedBy         *string           `json:"created_by,omitempty" db:"created_by"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`
}

// SeatLabel returns a human readable seat reference for error messages
func (r *Reservation) SeatLabel() string {
	return seatLabel(r.SeatID, r.SeatNumber)
}

// Balance returns what is still owed on the reservation
func (r *Reservation) Balance() decimal.Decimal {
	balance := r.Price.Sub(r.CreditsUsed).Sub(r.AmountPaid)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// AppendNote adds a line to the reservation notes
func (r *Reservation) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if r.Notes == nil || *r.Notes == "" {
		r.Notes = &note
		return
	}
	joined := *r.Notes + "\n" + note
	r.Notes = &joined
}

func seatLabel(seatID, seatNumber *string) string {
	if seatNumber != nil && *seatNumber != "" {
		return *seatNumber
	}
	if seatID != nil && *seatID != "" {
		return *seatID
	}
	return "unassigned"
}

// PassengerInput is one passenger entry of a reservation request
type PassengerInput struct {
	SeatID            *string         `json:"seat_id"`
	SeatNumber        *string         `json:"seat_number"`
	Price             decimal.Decimal `json:"price"`
	PassengerName     string          `json:"passenger_name"`
	PassengerDocument *string         `json:"passenger_document"`
	PassengerPhone    *string         `json:"passenger_phone"`
	PassengerEmail    *string         `json:"passenger_email"`
}

// SeatLabel returns a human readable seat reference for error messages
func (p *PassengerInput) SeatLabel() string {
	return seatLabel(p.SeatID, p.SeatNumber)
}

// HasSeat reports whether the passenger asked for a specific seat
func (p *PassengerInput) HasSeat() bool {
	return (p.SeatID != nil && *p.SeatID != "") || (p.SeatNumber != nil && *p.SeatNumber != "")
}

// seatKey identifies a seat inside one batch
func (p *PassengerInput) seatKey() string {
	if p.SeatID != nil && *p.SeatID != "" {
		return "id:" + *p.SeatID
	}
	if p.SeatNumber != nil && *p.SeatNumber != "" {
		return "number:" + *p.SeatNumber
	}
	return ""
}

// Validate checks a single passenger entry
func (p *PassengerInput) Validate() error {
	if p.Price.IsNegative() {
		return domain.Invalid("price", "cannot be negative")
	}
	return normalizePhone("passenger_phone", &p.PassengerPhone)
}

// CreateReservationRequest is the staff request body for POST /api/reservations
type CreateReservationRequest struct {
	TripID        string             `json:"trip_id" binding:"required"`
	ClientID      *string            `json:"client_id"`
	Status        *ReservationStatus `json:"status"`
	AmountPaid    decimal.Decimal    `json:"amount_paid"`
	PaymentMethod *string            `json:"payment_method"`
	Notes         *string            `json:"notes"`
	PassengerInput
}

// Validate checks the manual reservation request
func (r *CreateReservationRequest) Validate() error {
	if strings.TrimSpace(r.PassengerName) == "" {
		return domain.Invalid("passenger_name", "is required")
	}
	if err := r.PassengerInput.Validate(); err != nil {
		return err
	}
	if r.AmountPaid.IsNegative() {
		return domain.Invalid("amount_paid", "cannot be negative")
	}
	if r.Status != nil && !r.Status.IsValid() {
		return domain.Invalid("status", "unknown reservation status")
	}
	return nil
}

// UpdateReservationRequest is the request body for PUT /api/reservations/:id
type UpdateReservationRequest struct {
	Status            *ReservationStatus `json:"status"`
	PassengerName     *string            `json:"passenger_name"`
	PassengerDocument *string            `json:"passenger_document"`
	PassengerPhone    *string            `json:"passenger_phone"`
	PassengerEmail    *string            `json:"passenger_email"`
	PaymentMethod     *string            `json:"payment_method"`
	AmountPaid        *decimal.Decimal   `json:"amount_paid"`
	Notes             *string            `json:"notes"`
}

// Validate checks the update request
func (r *UpdateReservationRequest) Validate() error {
	if r.Status != nil && !r.Status.IsValid() {
		return domain.Invalid("status", "unknown reservation status")
	}
	if r.PassengerName != nil && strings.TrimSpace(*r.PassengerName) == "" {
		return domain.Invalid("passenger_name", "cannot be empty")
	}
	if r.AmountPaid != nil && r.AmountPaid.IsNegative() {
		return domain.Invalid("amount_paid", "cannot be negative")
	}
	return nil
}

// ReservationFilter narrows reservation listings
type ReservationFilter struct {
	TripID   *string
	ClientID *string
	Status   *ReservationStatus
	Limit    int
	Offset   int
}
