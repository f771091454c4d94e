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

const parcelColumns = `id, organization_id, trip_id, tracking_code, sender_name, sender_phone, recipient_name,
	recipient_phone, description, weight_kg, price, status, delivered_at, created_at, updated_at`

// ParcelRepository handles parcel shipments
type ParcelRepository struct {
	db Querier
}

// NewParcelRepository creates a new ParcelRepository
func NewParcelRepository(db Querier) *ParcelRepository {
	return &ParcelRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *ParcelRepository) WithTx(tx *sqlx.Tx) *ParcelRepository {
	return &ParcelRepository{db: tx}
}

// TrackingCodeExists checks whether a tracking code is already in use
func (r *ParcelRepository) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM parcels WHERE tracking_code = $1)`
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, fmt.Errorf("failed to check tracking code: %w", err)
	}
	return exists, nil
}

// Create inserts a parcel
func (r *ParcelRepository) Create(ctx context.Context, p *models.Parcel) error {
	query := `
		INSERT INTO parcels (
			organization_id, trip_id, tracking_code, sender_name, sender_phone, recipient_name,
			recipient_phone, description, weight_kg, price, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.OrganizationID, p.TripID, p.TrackingCode, p.SenderName, p.SenderPhone, p.RecipientName,
		p.RecipientPhone, p.Description, p.WeightKg, p.Price, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ConflictError{Resource: "parcel", Msg: "tracking code already in use", Err: err}
		}
		return fmt.Errorf("failed to create parcel: %w", err)
	}
	return nil
}

// GetForUpdate retrieves and locks a parcel of the organization
func (r *ParcelRepository) GetForUpdate(ctx context.Context, orgID, id string) (*models.Parcel, error) {
	var p models.Parcel
	query := `SELECT ` + parcelColumns + ` FROM parcels WHERE id = $1 AND organization_id = $2 FOR UPDATE`
	if err := r.db.GetContext(ctx, &p, query, id, orgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("parcel")
		}
		return nil, fmt.Errorf("failed to get parcel: %w", err)
	}
	return &p, nil
}

// Track returns the public view of a parcel by tracking code
func (r *ParcelRepository) Track(ctx context.Context, code string) (*models.ParcelTracking, error) {
	var t models.ParcelTracking
	query := `SELECT tracking_code, status, recipient_name, delivered_at, updated_at FROM parcels WHERE tracking_code = $1`
	if err := r.db.GetContext(ctx, &t, query, strings.ToUpper(strings.TrimSpace(code))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("parcel")
		}
		return nil, fmt.Errorf("failed to track parcel: %w", err)
	}
	return &t, nil
}

// List returns the parcels of an organization
func (r *ParcelRepository) List(ctx context.Context, orgID string) ([]*models.Parcel, error) {
	query := `SELECT ` + parcelColumns + ` FROM parcels WHERE organization_id = $1 ORDER BY created_at DESC`
	parcels := []*models.Parcel{}
	if err := r.db.SelectContext(ctx, &parcels, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list parcels: %w", err)
	}
	return parcels, nil
}

// UpdateStatus changes the parcel status, stamping delivered_at on delivery
func (r *ParcelRepository) UpdateStatus(ctx context.Context, p *models.Parcel) error {
	query := `
		UPDATE parcels
		SET status = $1,
		    delivered_at = CASE WHEN $1 = 'DELIVERED' THEN NOW() ELSE delivered_at END,
		    updated_at = NOW()
		WHERE id = $2
		RETURNING delivered_at, updated_at`

	if err := r.db.QueryRowxContext(ctx, query, p.Status, p.ID).Scan(&p.DeliveredAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("parcel")
		}
		return fmt.Errorf("failed to update parcel: %w", err)
	}
	return nil
}
