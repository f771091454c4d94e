package models

import (
	"strings"
	"time"

	"github.com/smarttransit/backoffice-api/internal/domain"
)

// MaxVehicleCapacity bounds the number of seat rows created for one vehicle
const MaxVehicleCapacity = 80

// Route is an origin/destination pair operated by an organization
type Route struct {
	ID                string    `json:"id" db:"id"`
	OrganizationID    string    `json:"organization_id" db:"organization_id"`
	Origin            string    `json:"origin" db:"origin"`
	Destination       string    `json:"destination" db:"destination"`
	DistanceKm        *float64  `json:"distance_km,omitempty" db:"distance_km"`
	EstimatedDuration *int      `json:"estimated_duration_minutes,omitempty" db:"estimated_duration_minutes"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// CreateRouteRequest is the request body for POST /api/routes
type CreateRouteRequest struct {
	Origin            string   `json:"origin" binding:"required"`
	Destination       string   `json:"destination" binding:"required"`
	DistanceKm        *float64 `json:"distance_km"`
	EstimatedDuration *int     `json:"estimated_duration_minutes"`
}

// Validate checks the create route request
func (r *CreateRouteRequest) Validate() error {
	if strings.EqualFold(strings.TrimSpace(r.Origin), strings.TrimSpace(r.Destination)) {
		return domain.Invalid("destination", "must differ from origin")
	}
	if r.DistanceKm != nil && *r.DistanceKm <= 0 {
		return domain.Invalid("distance_km", "must be positive")
	}
	return nil
}

// VehicleStatus is the operational state of a vehicle
type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "ACTIVE"
	VehicleStatusMaintenance VehicleStatus = "MAINTENANCE"
	VehicleStatusInactive    VehicleStatus = "INACTIVE"
)

// Vehicle is a bus of the fleet
type Vehicle struct {
	ID             string        `json:"id" db:"id"`
	OrganizationID string        `json:"organization_id" db:"organization_id"`
	Plate          string        `json:"plate" db:"plate"`
	Model          *string       `json:"model,omitempty" db:"model"`
	Capacity       int           `json:"capacity" db:"capacity"`
	Status         VehicleStatus `json:"status" db:"status"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// Seat belongs to a vehicle. Its availability on a trip is derived from reservations.
type Seat struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	VehicleID      string    `json:"vehicle_id" db:"vehicle_id"`
	SeatNumber     string    `json:"seat_number" db:"seat_number"`
	SeatClass      SeatClass `json:"seat_class" db:"seat_class"`
}

// CreateVehicleRequest is the request body for POST /api/vehicles
type CreateVehicleRequest struct {
	Plate     string     `json:"plate" binding:"required"`
	Model     *string    `json:"model"`
	Capacity  int        `json:"capacity" binding:"required"`
	SeatClass *SeatClass `json:"seat_class"`
}

// Validate checks the create vehicle request
func (r *CreateVehicleRequest) Validate() error {
	r.Plate = strings.ToUpper(strings.TrimSpace(r.Plate))
	if r.Plate == "" {
		return domain.Invalid("plate", "is required")
	}
	if r.Capacity <= 0 || r.Capacity > MaxVehicleCapacity {
		return domain.Invalid("capacity", "must be between 1 and 80")
	}
	if r.SeatClass != nil {
		switch *r.SeatClass {
		case SeatClassConventional, SeatClassExecutive, SeatClassSleeper:
		default:
			return domain.Invalid("seat_class", "unknown seat class")
		}
	}
	return nil
}
