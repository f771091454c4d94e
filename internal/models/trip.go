package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
)

// TripStatus represents the lifecycle of a scheduled departure
type TripStatus string

const (
	TripStatusScheduled TripStatus = "SCHEDULED"
	TripStatusBoarding  TripStatus = "BOARDING"
	TripStatusInTransit TripStatus = "IN_TRANSIT"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
	TripStatusDelayed   TripStatus = "DELAYED"
)

// IsValid checks whether the status is a known trip status
func (s TripStatus) IsValid() bool {
	switch s {
	case TripStatusScheduled, TripStatusBoarding, TripStatusInTransit,
		TripStatusCompleted, TripStatusCancelled, TripStatusDelayed:
		return true
	}
	return false
}

// AcceptsReservations reports whether new seats may still be sold for the trip
func (s TripStatus) AcceptsReservations() bool {
	return s == TripStatusScheduled || s == TripStatusBoarding || s == TripStatusDelayed
}

// SeatClass identifies the price tier of a seat
type SeatClass string

const (
	SeatClassConventional SeatClass = "CONVENTIONAL"
	SeatClassExecutive    SeatClass = "EXECUTIVE"
	SeatClassSleeper      SeatClass = "SLEEPER"
)

// Trip is a scheduled departure with a mutable seat counter
type Trip struct {
	ID                string          `json:"id" db:"id"`
	OrganizationID    string          `json:"organization_id" db:"organization_id"`
	RouteID           *string         `json:"route_id,omitempty" db:"route_id"`
	VehicleID         *string         `json:"vehicle_id,omitempty" db:"vehicle_id"`
	DriverID          *string         `json:"driver_id,omitempty" db:"driver_id"`
	DepartureTime     time.Time       `json:"departure_time" db:"departure_time"`
	ArrivalTime       *time.Time      `json:"arrival_time,omitempty" db:"arrival_time"`
	Status            TripStatus      `json:"status" db:"status"`
	TotalSeats        int             `json:"total_seats" db:"total_seats"`
	SeatsAvailable    int             `json:"seats_available" db:"seats_available"`
	PriceConventional decimal.Decimal `json:"price_conventional" db:"price_conventional"`
	PriceExecutive    decimal.Decimal `json:"price_executive" db:"price_executive"`
	PriceSleeper      decimal.Decimal `json:"price_sleeper" db:"price_sleeper"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// PriceFor returns the trip price for the given seat class
func (t *Trip) PriceFor(class SeatClass) decimal.Decimal {
	switch class {
	case SeatClassExecutive:
		return t.PriceExecutive
	case SeatClassSleeper:
		return t.PriceSleeper
	default:
		return t.PriceConventional
	}
}

// TripAvailability is the query-time view of a trip's seats
type TripAvailability struct {
	TripID             string   `json:"trip_id"`
	TotalSeats         int      `json:"total_seats"`
	ActiveReservations int      `json:"active_reservations"`
	FreeSeats          int      `json:"free_seats"`
	StoredCounter      int      `json:"seats_available"`
	Drift              bool     `json:"drift"`
	OccupiedSeats      []string `json:"occupied_seats"`
}

// NewTripAvailability derives free seats from the active reservation count
func NewTripAvailability(trip *Trip, activeCount int, occupied []string) *TripAvailability {
	free := trip.TotalSeats - activeCount
	if free < 0 {
		free = 0
	}
	if occupied == nil {
		occupied = []string{}
	}
	return &TripAvailability{
		TripID:             trip.ID,
		TotalSeats:         trip.TotalSeats,
		ActiveReservations: activeCount,
		FreeSeats:          free,
		StoredCounter:      trip.SeatsAvailable,
		Drift:              free != trip.SeatsAvailable,
		OccupiedSeats:      occupied,
	}
}

// CreateTripRequest is the request body for POST /api/trips
type CreateTripRequest struct {
	RouteID           *string          `json:"route_id"`
	VehicleID         *string          `json:"vehicle_id"`
	DriverID          *string          `json:"driver_id"`
	DepartureTime     time.Time        `json:"departure_time" binding:"required"`
	ArrivalTime       *time.Time       `json:"arrival_time"`
	TotalSeats        *int             `json:"total_seats"`
	PriceConventional decimal.Decimal  `json:"price_conventional"`
	PriceExecutive    *decimal.Decimal `json:"price_executive"`
	PriceSleeper      *decimal.Decimal `json:"price_sleeper"`
}

// Validate checks the create trip request
func (r *CreateTripRequest) Validate() error {
	if r.ArrivalTime != nil && !r.ArrivalTime.After(r.DepartureTime) {
		return domain.Invalid("arrival_time", "must be after departure_time")
	}
	if r.TotalSeats != nil && *r.TotalSeats <= 0 {
		return domain.Invalid("total_seats", "must be positive")
	}
	if r.PriceConventional.IsNegative() {
		return domain.Invalid("price_conventional", "cannot be negative")
	}
	if r.RouteID != nil {
		if _, err := uuid.Parse(*r.RouteID); err != nil {
			return domain.Invalid("route_id", "must be a valid id")
		}
	}
	if r.VehicleID != nil {
		if _, err := uuid.Parse(*r.VehicleID); err != nil {
			return domain.Invalid("vehicle_id", "must be a valid id")
		}
	}
	return nil
}

// UpdateTripStatusRequest is the request body for PATCH /api/trips/:id/status
type UpdateTripStatusRequest struct {
	Status TripStatus `json:"status" binding:"required"`
}

// TripFilter narrows trip listings
type TripFilter struct {
	Status *TripStatus
	From   *time.Time
	To     *time.Time
}

// SeatDrift is a trip whose stored counter was corrected by reconciliation
type SeatDrift struct {
	TripID         string `json:"trip_id" db:"id"`
	OrganizationID string `json:"organization_id" db:"organization_id"`
	Previous       int    `json:"previous" db:"previous"`
	Actual         int    `json:"actual" db:"actual"`
}
