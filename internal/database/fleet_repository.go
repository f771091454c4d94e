package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
)

// FleetRepository handles routes, vehicles and the seats of each vehicle
type FleetRepository struct {
	db Querier
}

// NewFleetRepository creates a new FleetRepository
func NewFleetRepository(db Querier) *FleetRepository {
	return &FleetRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *FleetRepository) WithTx(tx *sqlx.Tx) *FleetRepository {
	return &FleetRepository{db: tx}
}

// CreateRoute inserts a route
func (r *FleetRepository) CreateRoute(ctx context.Context, route *models.Route) error {
	query := `
		INSERT INTO routes (organization_id, origin, destination, distance_km, estimated_duration_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		route.OrganizationID, route.Origin, route.Destination, route.DistanceKm, route.EstimatedDuration,
	).Scan(&route.ID, &route.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create route: %w", err)
	}
	return nil
}

// ListRoutes returns the routes of an organization
func (r *FleetRepository) ListRoutes(ctx context.Context, orgID string) ([]*models.Route, error) {
	query := `
		SELECT id, organization_id, origin, destination, distance_km, estimated_duration_minutes, created_at
		FROM routes WHERE organization_id = $1 ORDER BY origin, destination`

	routes := []*models.Route{}
	if err := r.db.SelectContext(ctx, &routes, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routes, nil
}

// GetRoute retrieves a route of the organization
func (r *FleetRepository) GetRoute(ctx context.Context, orgID, id string) (*models.Route, error) {
	var route models.Route
	query := `
		SELECT id, organization_id, origin, destination, distance_km, estimated_duration_minutes, created_at
		FROM routes WHERE id = $1 AND organization_id = $2`

	if err := r.db.GetContext(ctx, &route, query, id, orgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("route")
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return &route, nil
}

const vehicleColumns = `id, organization_id, plate, model, capacity, status, created_at, updated_at`

// CreateVehicle inserts a vehicle. Seats are created separately by CreateSeats.
func (r *FleetRepository) CreateVehicle(ctx context.Context, v *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (organization_id, plate, model, capacity, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		v.OrganizationID, v.Plate, v.Model, v.Capacity, v.Status,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ConflictError{Resource: "vehicle", Msg: "plate " + v.Plate + " already registered", Err: err}
		}
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

// CreateSeats inserts seats numbered 1..capacity for the vehicle
func (r *FleetRepository) CreateSeats(ctx context.Context, v *models.Vehicle, class models.SeatClass) ([]*models.Seat, error) {
	query := `
		INSERT INTO seats (organization_id, vehicle_id, seat_number, seat_class)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	seats := make([]*models.Seat, 0, v.Capacity)
	for n := 1; n <= v.Capacity; n++ {
		seat := &models.Seat{
			OrganizationID: v.OrganizationID,
			VehicleID:      v.ID,
			SeatNumber:     strconv.Itoa(n),
			SeatClass:      class,
		}
		if err := r.db.QueryRowxContext(ctx, query, seat.OrganizationID, seat.VehicleID, seat.SeatNumber, seat.SeatClass).Scan(&seat.ID); err != nil {
			return nil, fmt.Errorf("failed to create seat %d: %w", n, err)
		}
		seats = append(seats, seat)
	}
	return seats, nil
}

// GetVehicle retrieves a vehicle of the organization
func (r *FleetRepository) GetVehicle(ctx context.Context, orgID, id string) (*models.Vehicle, error) {
	var v models.Vehicle
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1 AND organization_id = $2`
	if err := r.db.GetContext(ctx, &v, query, id, orgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("vehicle")
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return &v, nil
}

// ListVehicles returns the vehicles of an organization
func (r *FleetRepository) ListVehicles(ctx context.Context, orgID string) ([]*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE organization_id = $1 ORDER BY plate`
	vehicles := []*models.Vehicle{}
	if err := r.db.SelectContext(ctx, &vehicles, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return vehicles, nil
}

// ListSeats returns the seats of a vehicle in numeric order
func (r *FleetRepository) ListSeats(ctx context.Context, orgID, vehicleID string) ([]*models.Seat, error) {
	query := `
		SELECT id, organization_id, vehicle_id, seat_number, seat_class
		FROM seats WHERE vehicle_id = $1 AND organization_id = $2
		ORDER BY LENGTH(seat_number), seat_number`

	seats := []*models.Seat{}
	if err := r.db.SelectContext(ctx, &seats, query, vehicleID, orgID); err != nil {
		return nil, fmt.Errorf("failed to list seats: %w", err)
	}
	return seats, nil
}

// UpdateVehicleStatus changes the operational state of a vehicle
func (r *FleetRepository) UpdateVehicleStatus(ctx context.Context, orgID, id string, status models.VehicleStatus) error {
	query := `UPDATE vehicles SET status = $1, updated_at = NOW() WHERE id = $2 AND organization_id = $3`
	result, err := r.db.ExecContext(ctx, query, status, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to update vehicle status: %w", err)
	}
	return requireRow(result, "vehicle")
}
