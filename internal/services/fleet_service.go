package services

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/models"
)

// FleetService handles routes, vehicles and their seat maps
type FleetService struct {
	db     *sqlx.DB
	fleet  *database.FleetRepository
	logger *logrus.Logger
}

// NewFleetService creates a new FleetService
func NewFleetService(db *sqlx.DB, logger *logrus.Logger) *FleetService {
	return &FleetService{db: db, fleet: database.NewFleetRepository(db), logger: logger}
}

// CreateRoute registers an origin/destination pair
func (s *FleetService) CreateRoute(ctx context.Context, orgID string, req *models.CreateRouteRequest) (*models.Route, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	route := &models.Route{
		OrganizationID:    orgID,
		Origin:            strings.TrimSpace(req.Origin),
		Destination:       strings.TrimSpace(req.Destination),
		DistanceKm:        req.DistanceKm,
		EstimatedDuration: req.EstimatedDuration,
	}
	if err := s.fleet.CreateRoute(ctx, route); err != nil {
		return nil, err
	}
	return route, nil
}

// ListRoutes returns the routes of an organization
func (s *FleetService) ListRoutes(ctx context.Context, orgID string) ([]*models.Route, error) {
	return s.fleet.ListRoutes(ctx, orgID)
}

// CreateVehicle registers a vehicle together with seats 1..capacity
func (s *FleetService) CreateVehicle(ctx context.Context, orgID string, req *models.CreateVehicleRequest) (*models.Vehicle, []*models.Seat, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	class := models.SeatClassConventional
	if req.SeatClass != nil {
		class = *req.SeatClass
	}

	vehicle := &models.Vehicle{
		OrganizationID: orgID,
		Plate:          req.Plate,
		Model:          req.Model,
		Capacity:       req.Capacity,
		Status:         models.VehicleStatusActive,
	}

	var seats []*models.Seat
	err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		fleet := s.fleet.WithTx(tx)
		if err := fleet.CreateVehicle(ctx, vehicle); err != nil {
			return err
		}
		created, err := fleet.CreateSeats(ctx, vehicle, class)
		if err != nil {
			return err
		}
		seats = created
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"vehicle_id":      vehicle.ID,
		"plate":           vehicle.Plate,
		"seats":           len(seats),
	}).Info("Vehicle registered")
	return vehicle, seats, nil
}

// ListVehicles returns the vehicles of an organization
func (s *FleetService) ListVehicles(ctx context.Context, orgID string) ([]*models.Vehicle, error) {
	return s.fleet.ListVehicles(ctx, orgID)
}

// ListSeats returns the seat map of a vehicle
func (s *FleetService) ListSeats(ctx context.Context, orgID, vehicleID string) ([]*models.Seat, error) {
	if _, err := s.fleet.GetVehicle(ctx, orgID, vehicleID); err != nil {
		return nil, err
	}
	return s.fleet.ListSeats(ctx, orgID, vehicleID)
}
