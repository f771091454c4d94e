package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
)

// Client is a customer profile holding a stored credit balance
type Client struct {
	ID             string          `json:"id" db:"id"`
	OrganizationID string          `json:"organization_id" db:"organization_id"`
	UserID         *string         `json:"user_id,omitempty" db:"user_id"`
	Name           string          `json:"name" db:"name"`
	Email          *string         `json:"email,omitempty" db:"email"`
	Phone          *string         `json:"phone,omitempty" db:"phone"`
	Document       *string         `json:"document,omitempty" db:"document"`
	SaldoCreditos  decimal.Decimal `json:"saldo_creditos" db:"saldo_creditos"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// NewClientFromUser builds the lazily created client profile of a CLIENT user
func NewClientFromUser(u *User) *Client {
	email := u.Email
	return &Client{
		OrganizationID: u.OrganizationID,
		UserID:         &u.ID,
		Name:           u.FullName,
		Email:          &email,
		Phone:          u.Phone,
		Document:       u.Document,
		SaldoCreditos:  decimal.Zero,
	}
}

// ClientDashboard is the response of GET /api/client/dashboard
type ClientDashboard struct {
	Client       *Client        `json:"client"`
	Reservations []*Reservation `json:"reservations"`
}

// AddCreditsRequest is the request body for POST /api/clients/:id/credits
type AddCreditsRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// Validate checks the add credits request
func (r *AddCreditsRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return domain.Invalid("amount", "must be positive")
	}
	return nil
}
