package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
)

// ParcelStatus tracks a parcel shipment
type ParcelStatus string

const (
	ParcelStatusReceived  ParcelStatus = "RECEIVED"
	ParcelStatusInTransit ParcelStatus = "IN_TRANSIT"
	ParcelStatusDelivered ParcelStatus = "DELIVERED"
	ParcelStatusReturned  ParcelStatus = "RETURNED"
	ParcelStatusCancelled ParcelStatus = "CANCELLED"
)

// IsValid checks whether the status is known
func (s ParcelStatus) IsValid() bool {
	switch s {
	case ParcelStatusReceived, ParcelStatusInTransit, ParcelStatusDelivered,
		ParcelStatusReturned, ParcelStatusCancelled:
		return true
	}
	return false
}

// Parcel is a shipment carried on a trip
type Parcel struct {
	ID             string          `json:"id" db:"id"`
	OrganizationID string          `json:"organization_id" db:"organization_id"`
	TripID         *string         `json:"trip_id,omitempty" db:"trip_id"`
	TrackingCode   string          `json:"tracking_code" db:"tracking_code"`
	SenderName     string          `json:"sender_name" db:"sender_name"`
	SenderPhone    *string         `json:"sender_phone,omitempty" db:"sender_phone"`
	RecipientName  string          `json:"recipient_name" db:"recipient_name"`
	RecipientPhone *string         `json:"recipient_phone,omitempty" db:"recipient_phone"`
	Description    *string         `json:"description,omitempty" db:"description"`
	WeightKg       *float64        `json:"weight_kg,omitempty" db:"weight_kg"`
	Price          decimal.Decimal `json:"price" db:"price"`
	Status         ParcelStatus    `json:"status" db:"status"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty" db:"delivered_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// ParcelTracking is the public view of a parcel
type ParcelTracking struct {
	TrackingCode  string       `json:"tracking_code" db:"tracking_code"`
	Status        ParcelStatus `json:"status" db:"status"`
	RecipientName string       `json:"recipient_name" db:"recipient_name"`
	DeliveredAt   *time.Time   `json:"delivered_at,omitempty" db:"delivered_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// CreateParcelRequest is the request body for POST /api/parcels
type CreateParcelRequest struct {
	TripID         *string         `json:"trip_id"`
	SenderName     string          `json:"sender_name" binding:"required"`
	SenderPhone    *string         `json:"sender_phone"`
	RecipientName  string          `json:"recipient_name" binding:"required"`
	RecipientPhone *string         `json:"recipient_phone"`
	Description    *string         `json:"description"`
	WeightKg       *float64        `json:"weight_kg"`
	Price          decimal.Decimal `json:"price"`
}

// Validate checks the create parcel request
func (r *CreateParcelRequest) Validate() error {
	if strings.TrimSpace(r.SenderName) == "" {
		return domain.Invalid("sender_name", "is required")
	}
	if strings.TrimSpace(r.RecipientName) == "" {
		return domain.Invalid("recipient_name", "is required")
	}
	if r.Price.IsNegative() {
		return domain.Invalid("price", "cannot be negative")
	}
	if r.WeightKg != nil && *r.WeightKg <= 0 {
		return domain.Invalid("weight_kg", "must be positive")
	}
	if err := normalizePhone("sender_phone", &r.SenderPhone); err != nil {
		return err
	}
	return normalizePhone("recipient_phone", &r.RecipientPhone)
}

// UpdateParcelStatusRequest is the request body for PATCH /api/parcels/:id/status
type UpdateParcelStatusRequest struct {
	Status ParcelStatus `json:"status" binding:"required"`
}
