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

const charterColumns = `id, organization_id, code, client_id, contact_name, contact_phone, origin, destination,
	departure_date, return_date, passengers, price, status, created_at, updated_at`

// CharterRepository handles charter quotes and contracts
type CharterRepository struct {
	db Querier
}

// NewCharterRepository creates a new CharterRepository
func NewCharterRepository(db Querier) *CharterRepository {
	return &CharterRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *CharterRepository) WithTx(tx *sqlx.Tx) *CharterRepository {
	return &CharterRepository{db: tx}
}

// CodeExists checks whether a charter code is already in use
func (r *CharterRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM charters WHERE code = $1)`
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, fmt.Errorf("failed to check charter code: %w", err)
	}
	return exists, nil
}

// Create inserts a charter
func (r *CharterRepository) Create(ctx context.Context, c *models.Charter) error {
	query := `
		INSERT INTO charters (
			organization_id, code, client_id, contact_name, contact_phone, origin, destination,
			departure_date, return_date, passengers, price, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.OrganizationID, c.Code, c.ClientID, c.ContactName, c.ContactPhone, c.Origin, c.Destination,
		c.DepartureDate, c.ReturnDate, c.Passengers, c.Price, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ConflictError{Resource: "charter", Msg: "code already in use", Err: err}
		}
		return fmt.Errorf("failed to create charter: %w", err)
	}
	return nil
}

// GetForUpdate retrieves and locks a charter of the organization
func (r *CharterRepository) GetForUpdate(ctx context.Context, orgID, id string) (*models.Charter, error) {
	var c models.Charter
	query := `SELECT ` + charterColumns + ` FROM charters WHERE id = $1 AND organization_id = $2 FOR UPDATE`
	if err := r.db.GetContext(ctx, &c, query, id, orgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("charter")
		}
		return nil, fmt.Errorf("failed to get charter: %w", err)
	}
	return &c, nil
}

// List returns the charters of an organization
func (r *CharterRepository) List(ctx context.Context, orgID string) ([]*models.Charter, error) {
	query := `SELECT ` + charterColumns + ` FROM charters WHERE organization_id = $1 ORDER BY departure_date DESC`
	charters := []*models.Charter{}
	if err := r.db.SelectContext(ctx, &charters, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list charters: %w", err)
	}
	return charters, nil
}

// UpdateStatus changes the charter status
func (r *CharterRepository) UpdateStatus(ctx context.Context, c *models.Charter) error {
	query := `UPDATE charters SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`
	if err := r.db.QueryRowxContext(ctx, query, c.Status, c.ID).Scan(&c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("charter")
		}
		return fmt.Errorf("failed to update charter: %w", err)
	}
	return nil
}
