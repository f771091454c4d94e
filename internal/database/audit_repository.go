package database

import (
	"context"
	"fmt"
	"time"

	"github.com/smarttransit/backoffice-api/internal/models"
)

// AuditRepository persists audit log entries
type AuditRepository struct {
	db Querier
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db Querier) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert writes one audit entry
func (r *AuditRepository) Insert(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (organization_id, user_id, action, entity_type, entity_id, ip_address, user_agent, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var details interface{}
	if len(entry.Details) > 0 {
		details = []byte(entry.Details)
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.OrganizationID, entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.IPAddress, entry.UserAgent, details,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// CountFailedLogins counts login_failed entries since a point in time, keyed either by the
// attempted email or by the client address. It also returns the time of the latest attempt.
func (r *AuditRepository) CountFailedLogins(ctx context.Context, email, ip string, since time.Time) (int, time.Time, error) {
	query := `
		SELECT COUNT(*) AS count, COALESCE(MAX(created_at), NOW()) AS last_attempt
		FROM audit_logs
		WHERE action = 'login_failed'
		  AND created_at > $1
		  AND (($2 <> '' AND details->>'email' = $2) OR ($3 <> '' AND ip_address = $3))`

	var row struct {
		Count       int       `db:"count"`
		LastAttempt time.Time `db:"last_attempt"`
	}
	if err := r.db.GetContext(ctx, &row, query, since, email, ip); err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to count failed logins: %w", err)
	}
	return row.Count, row.LastAttempt, nil
}

// ListRecent returns the latest entries of an organization
func (r *AuditRepository) ListRecent(ctx context.Context, orgID string, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT id, organization_id, user_id, action, entity_type, entity_id, ip_address, user_agent,
		       COALESCE(details, '{}'::jsonb) AS details, created_at
		FROM audit_logs
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	logs := []*models.AuditLog{}
	if err := r.db.SelectContext(ctx, &logs, query, orgID, limit); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}

// DeleteOlderThan removes entries created before cutoff
func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}
	return result.RowsAffected()
}
