package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
)

const tripColumns = `id, organization_id, route_id, vehicle_id, driver_id, departure_time, arrival_time,
	status, total_seats, seats_available, price_conventional, price_executive, price_sleeper,
	created_at, updated_at`

// TripRepository handles trip rows and their seat counter
type TripRepository struct {
	db Querier
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db Querier) *TripRepository {
	return &TripRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *TripRepository) WithTx(tx *sqlx.Tx) *TripRepository {
	return &TripRepository{db: tx}
}

// Create inserts a new trip
func (r *TripRepository) Create(ctx context.Context, trip *models.Trip) error {
	query := `
		INSERT INTO trips (
			organization_id, route_id, vehicle_id, driver_id, departure_time, arrival_time,
			status, total_seats, seats_available, price_conventional, price_executive, price_sleeper
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		trip.OrganizationID, trip.RouteID, trip.VehicleID, trip.DriverID,
		trip.DepartureTime, trip.ArrivalTime, trip.Status, trip.TotalSeats, trip.SeatsAvailable,
		trip.PriceConventional, trip.PriceExecutive, trip.PriceSleeper,
	).Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

// GetByID retrieves a trip of the organization
func (r *TripRepository) GetByID(ctx context.Context, orgID, tripID string) (*models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 AND organization_id = $2`
	return r.getOne(ctx, query, tripID, orgID)
}

// GetForUpdate retrieves a trip and locks its row until the surrounding transaction ends.
// Every seat-mutating transaction takes this lock first so concurrent writers on one trip serialize.
func (r *TripRepository) GetForUpdate(ctx context.Context, orgID, tripID string) (*models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 AND organization_id = $2 FOR UPDATE`
	return r.getOne(ctx, query, tripID, orgID)
}

func (r *TripRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Trip, error) {
	var trip models.Trip
	if err := r.db.GetContext(ctx, &trip, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("trip")
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &trip, nil
}

// List returns the trips of an organization ordered by departure
func (r *TripRepository) List(ctx context.Context, orgID string, filter models.TripFilter) ([]*models.Trip, error) {
	conditions := []string{"organization_id = $1"}
	args := []interface{}{orgID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("departure_time >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("departure_time <= $%d", len(args)))
	}

	query := `SELECT ` + tripColumns + ` FROM trips WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY departure_time ASC`

	trips := []*models.Trip{}
	if err := r.db.SelectContext(ctx, &trips, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

// UpdateStatus changes the trip status
func (r *TripRepository) UpdateStatus(ctx context.Context, orgID, tripID string, status models.TripStatus) error {
	query := `UPDATE trips SET status = $1, updated_at = NOW() WHERE id = $2 AND organization_id = $3`
	result, err := r.db.ExecContext(ctx, query, status, tripID, orgID)
	if err != nil {
		return fmt.Errorf("failed to update trip status: %w", err)
	}
	return requireRow(result, "trip")
}

// AdjustSeats applies a seat delta to the stored counter. Decrements never take the counter
// below 0. Increments are capped at total_seats so a drifted counter cannot block a release.
func (r *TripRepository) AdjustSeats(ctx context.Context, tripID string, delta int) error {
	if delta == 0 {
		return nil
	}

	query := `
		UPDATE trips
		SET seats_available = seats_available + $1, updated_at = NOW()
		WHERE id = $2 AND seats_available + $1 >= 0`
	if delta > 0 {
		query = `
			UPDATE trips
			SET seats_available = LEAST(seats_available + $1, total_seats), updated_at = NOW()
			WHERE id = $2`
	}

	result, err := r.db.ExecContext(ctx, query, delta, tripID)
	if err != nil {
		return fmt.Errorf("failed to adjust seats: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to adjust seats: %w", err)
	}
	if rows == 0 {
		if delta < 0 {
			return domain.Conflict("trip", "no seats available")
		}
		return domain.NotFound("trip")
	}
	return nil
}

// CountActive counts the non-cancelled reservations of a trip
func (r *TripRepository) CountActive(ctx context.Context, tripID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM reservations WHERE trip_id = $1 AND status <> 'CANCELLED'`
	if err := r.db.GetContext(ctx, &count, query, tripID); err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

// OccupiedSeats lists the seat numbers held by active reservations
func (r *TripRepository) OccupiedSeats(ctx context.Context, tripID string) ([]string, error) {
	seats := []string{}
	query := `
		SELECT seat_number FROM reservations
		WHERE trip_id = $1 AND status <> 'CANCELLED' AND seat_number IS NOT NULL
		ORDER BY seat_number`
	if err := r.db.SelectContext(ctx, &seats, query, tripID); err != nil {
		return nil, fmt.Errorf("failed to list occupied seats: %w", err)
	}
	return seats, nil
}

// OpenTripIDs lists the trips whose seat counter is still in use
func (r *TripRepository) OpenTripIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	query := `SELECT id FROM trips WHERE status NOT IN ('COMPLETED', 'CANCELLED') ORDER BY departure_time`
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("failed to list open trips: %w", err)
	}
	return ids, nil
}

// ReconcileSeats rewrites one trip's seats_available from its active reservation count.
// It must run inside a transaction: the trip row is locked before reservations are counted,
// so the count sees every checkout that committed while it waited for the lock.
// Returns nil when the counter was already right.
func (r *TripRepository) ReconcileSeats(ctx context.Context, tripID string) (*models.SeatDrift, error) {
	var locked struct {
		OrganizationID string `db:"organization_id"`
		TotalSeats     int    `db:"total_seats"`
		SeatsAvailable int    `db:"seats_available"`
	}
	err := r.db.GetContext(ctx, &locked,
		`SELECT organization_id, total_seats, seats_available FROM trips WHERE id = $1 FOR UPDATE`, tripID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("trip")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock trip: %w", err)
	}

	active, err := r.CountActive(ctx, tripID)
	if err != nil {
		return nil, err
	}
	actual := locked.TotalSeats - active
	if actual < 0 {
		actual = 0
	}
	if actual == locked.SeatsAvailable {
		return nil, nil
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE trips SET seats_available = $1, updated_at = NOW() WHERE id = $2`, actual, tripID); err != nil {
		return nil, fmt.Errorf("failed to reconcile seats: %w", err)
	}
	return &models.SeatDrift{
		TripID:         tripID,
		OrganizationID: locked.OrganizationID,
		Previous:       locked.SeatsAvailable,
		Actual:         actual,
	}, nil
}

// requireRow turns an update that touched nothing into a NotFound error
func requireRow(result sql.Result, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return domain.NotFound(resource)
	}
	return nil
}
