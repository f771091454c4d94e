package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
)

// TripService handles scheduled departures
type TripService struct {
	trips        *database.TripRepository
	fleet        *database.FleetRepository
	availability *AvailabilityService
	logger       *logrus.Logger
}

// NewTripService creates a new TripService
func NewTripService(trips *database.TripRepository, fleet *database.FleetRepository, availability *AvailabilityService, logger *logrus.Logger) *TripService {
	return &TripService{trips: trips, fleet: fleet, availability: availability, logger: logger}
}

// Create schedules a trip. Without an explicit total the vehicle capacity sizes the trip.
func (s *TripService) Create(ctx context.Context, orgID string, req *models.CreateTripRequest) (*models.Trip, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	total := 0
	if req.TotalSeats != nil {
		total = *req.TotalSeats
	}
	if req.VehicleID != nil {
		vehicle, err := s.fleet.GetVehicle(ctx, orgID, *req.VehicleID)
		if err != nil {
			return nil, err
		}
		if total == 0 {
			total = vehicle.Capacity
		}
		if total > vehicle.Capacity {
			return nil, domain.Invalid("total_seats", "cannot exceed the vehicle capacity")
		}
	}
	if total == 0 {
		return nil, domain.Invalid("total_seats", "is required when no vehicle is assigned")
	}

	trip := &models.Trip{
		OrganizationID:    orgID,
		RouteID:           req.RouteID,
		VehicleID:         req.VehicleID,
		DriverID:          req.DriverID,
		DepartureTime:     req.DepartureTime,
		ArrivalTime:       req.ArrivalTime,
		Status:            models.TripStatusScheduled,
		TotalSeats:        total,
		SeatsAvailable:    total,
		PriceConventional: req.PriceConventional,
		PriceExecutive:    req.PriceConventional,
		PriceSleeper:      req.PriceConventional,
	}
	if req.PriceExecutive != nil {
		trip.PriceExecutive = *req.PriceExecutive
	}
	if req.PriceSleeper != nil {
		trip.PriceSleeper = *req.PriceSleeper
	}

	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"trip_id":         trip.ID,
		"departure_time":  trip.DepartureTime,
		"total_seats":     total,
	}).Info("Trip scheduled")
	return trip, nil
}

// Get returns one trip of the organization
func (s *TripService) Get(ctx context.Context, orgID, id string) (*models.Trip, error) {
	return s.trips.GetByID(ctx, orgID, id)
}

// List returns trips matching filter
func (s *TripService) List(ctx context.Context, orgID string, filter models.TripFilter) ([]*models.Trip, error) {
	return s.trips.List(ctx, orgID, filter)
}

// UpdateStatus moves a trip through its lifecycle
func (s *TripService) UpdateStatus(ctx context.Context, orgID, id string, status models.TripStatus) (*models.Trip, error) {
	if !status.IsValid() {
		return nil, domain.Invalid("status", "unknown trip status")
	}
	if err := s.trips.UpdateStatus(ctx, orgID, id, status); err != nil {
		return nil, err
	}
	s.availability.Invalidate(ctx, orgID, id)
	return s.trips.GetByID(ctx, orgID, id)
}

// Availability returns the query-time seat availability of a trip
func (s *TripService) Availability(ctx context.Context, orgID, id string) (*models.TripAvailability, error) {
	return s.availability.Get(ctx, orgID, id)
}
