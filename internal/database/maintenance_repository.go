package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
)

const maintenanceColumns = `id, organization_id, vehicle_id, description, cost, status, scheduled_date,
	completed_at, created_at, updated_at`

// MaintenanceRepository handles vehicle maintenance jobs
type MaintenanceRepository struct {
	db Querier
}

// NewMaintenanceRepository creates a new MaintenanceRepository
func NewMaintenanceRepository(db Querier) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *MaintenanceRepository) WithTx(tx *sqlx.Tx) *MaintenanceRepository {
	return &MaintenanceRepository{db: tx}
}

// Create inserts a maintenance job
func (r *MaintenanceRepository) Create(ctx context.Context, m *models.Maintenance) error {
	query := `
		INSERT INTO maintenances (organization_id, vehicle_id, description, cost, status, scheduled_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		m.OrganizationID, m.VehicleID, m.Description, m.Cost, m.Status, m.ScheduledDate,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create maintenance: %w", err)
	}
	return nil
}

// GetForUpdate retrieves and locks a maintenance job of the organization
func (r *MaintenanceRepository) GetForUpdate(ctx context.Context, orgID, id string) (*models.Maintenance, error) {
	var m models.Maintenance
	query := `SELECT ` + maintenanceColumns + ` FROM maintenances WHERE id = $1 AND organization_id = $2 FOR UPDATE`
	if err := r.db.GetContext(ctx, &m, query, id, orgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("maintenance")
		}
		return nil, fmt.Errorf("failed to get maintenance: %w", err)
	}
	return &m, nil
}

// List returns the maintenance jobs of an organization
func (r *MaintenanceRepository) List(ctx context.Context, orgID string) ([]*models.Maintenance, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenances WHERE organization_id = $1 ORDER BY created_at DESC`
	items := []*models.Maintenance{}
	if err := r.db.SelectContext(ctx, &items, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list maintenance: %w", err)
	}
	return items, nil
}

// UpdateStatus changes the job status, stamping completed_at on completion
func (r *MaintenanceRepository) UpdateStatus(ctx context.Context, m *models.Maintenance) error {
	query := `
		UPDATE maintenances
		SET status = $1,
		    completed_at = CASE WHEN $1 = 'COMPLETED' THEN NOW() ELSE completed_at END,
		    updated_at = NOW()
		WHERE id = $2
		RETURNING completed_at, updated_at`

	if err := r.db.QueryRowxContext(ctx, query, m.Status, m.ID).Scan(&m.CompletedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("maintenance")
		}
		return fmt.Errorf("failed to update maintenance: %w", err)
	}
	return nil
}
