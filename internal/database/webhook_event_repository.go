package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// WebhookEventRepository records processed webhook deliveries so replays can be recognised
type WebhookEventRepository struct {
	db Querier
}

// NewWebhookEventRepository creates a new WebhookEventRepository
func NewWebhookEventRepository(db Querier) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *WebhookEventRepository) WithTx(tx *sqlx.Tx) *WebhookEventRepository {
	return &WebhookEventRepository{db: tx}
}

// Record stores the event key. It returns false when the key was already recorded.
// Called inside the processing transaction, so a rolled back delivery leaves no trace.
func (r *WebhookEventRepository) Record(ctx context.Context, key, eventType string, payload []byte) (bool, error) {
	query := `
		INSERT INTO webhook_events (event_key, event_type, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_key) DO NOTHING
		RETURNING id`

	if len(payload) == 0 {
		payload = nil
	}

	var id string
	err := r.db.QueryRowxContext(ctx, query, key, eventType, payload).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	return true, nil
}
