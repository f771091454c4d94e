package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
)

// CharterStatus tracks a charter quote
type CharterStatus string

const (
	CharterStatusQuoted    CharterStatus = "QUOTED"
	CharterStatusConfirmed CharterStatus = "CONFIRMED"
	CharterStatusCancelled CharterStatus = "CANCELLED"
)

// IsValid checks whether the status is known
func (s CharterStatus) IsValid() bool {
	return s == CharterStatusQuoted || s == CharterStatusConfirmed || s == CharterStatusCancelled
}

// Charter is a chartered (fretamento) trip sold as a whole vehicle
type Charter struct {
	ID             string          `json:"id" db:"id"`
	OrganizationID string          `json:"organization_id" db:"organization_id"`
	Code           string          `json:"code" db:"code"`
	ClientID       *string         `json:"client_id,omitempty" db:"client_id"`
	ContactName    string          `json:"contact_name" db:"contact_name"`
	ContactPhone   *string         `json:"contact_phone,omitempty" db:"contact_phone"`
	Origin         string          `json:"origin" db:"origin"`
	Destination    string          `json:"destination" db:"destination"`
	DepartureDate  time.Time       `json:"departure_date" db:"departure_date"`
	ReturnDate     *time.Time      `json:"return_date,omitempty" db:"return_date"`
	Passengers     int             `json:"passengers" db:"passengers"`
	Price          decimal.Decimal `json:"price" db:"price"`
	Status         CharterStatus   `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateCharterRequest is the request body for POST /api/charters
type CreateCharterRequest struct {
	ClientID      *string         `json:"client_id"`
	ContactName   string          `json:"contact_name" binding:"required"`
	ContactPhone  *string         `json:"contact_phone"`
	Origin        string          `json:"origin" binding:"required"`
	Destination   string          `json:"destination" binding:"required"`
	DepartureDate time.Time       `json:"departure_date" binding:"required"`
	ReturnDate    *time.Time      `json:"return_date"`
	Passengers    int             `json:"passengers"`
	Price         decimal.Decimal `json:"price"`
}

// Validate checks the create charter request
func (r *CreateCharterRequest) Validate() error {
	if strings.TrimSpace(r.ContactName) == "" {
		return domain.Invalid("contact_name", "is required")
	}
	if r.ReturnDate != nil && r.ReturnDate.Before(r.DepartureDate) {
		return domain.Invalid("return_date", "must not be before departure_date")
	}
	if r.Passengers < 0 {
		return domain.Invalid("passengers", "cannot be negative")
	}
	if r.Price.IsNegative() {
		return domain.Invalid("price", "cannot be negative")
	}
	return normalizePhone("contact_phone", &r.ContactPhone)
}

// UpdateCharterStatusRequest is the request body for PATCH /api/charters/:id/status
type UpdateCharterStatusRequest struct {
	Status CharterStatus `json:"status" binding:"required"`
}
