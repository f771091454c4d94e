package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
)

const clientColumns = `id, organization_id, user_id, name, email, phone, document, saldo_creditos, created_at, updated_at`

// ClientRepository handles client profiles and their credit balance
type ClientRepository struct {
	db Querier
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db Querier) *ClientRepository {
	return &ClientRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *ClientRepository) WithTx(tx *sqlx.Tx) *ClientRepository {
	return &ClientRepository{db: tx}
}

// Create inserts a client profile
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (organization_id, user_id, name, email, phone, document, saldo_creditos)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		client.OrganizationID, client.UserID, client.Name, client.Email, client.Phone,
		client.Document, client.SaldoCreditos,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ConflictError{Resource: "client", Msg: "user already has a client profile", Err: err}
		}
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// GetByID retrieves a client of the organization
func (r *ClientRepository) GetByID(ctx context.Context, orgID, id string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND organization_id = $2`
	return r.getOne(ctx, query, id, orgID)
}

// GetByUserID retrieves the client profile linked to a login
func (r *ClientRepository) GetByUserID(ctx context.Context, orgID, userID string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE user_id = $1 AND organization_id = $2`
	return r.getOne(ctx, query, userID, orgID)
}

// GetForUpdate retrieves a client and locks the row so the balance can be changed safely
func (r *ClientRepository) GetForUpdate(ctx context.Context, orgID, id string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND organization_id = $2 FOR UPDATE`
	return r.getOne(ctx, query, id, orgID)
}

func (r *ClientRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Client, error) {
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("client")
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

// List returns the clients of an organization ordered by name
func (r *ClientRepository) List(ctx context.Context, orgID string) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE organization_id = $1 ORDER BY name`
	clients := []*models.Client{}
	if err := r.db.SelectContext(ctx, &clients, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// AdjustCredits adds delta to the stored balance and returns the new balance.
// The balance never goes negative.
func (r *ClientRepository) AdjustCredits(ctx context.Context, clientID string, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE clients
		SET saldo_creditos = saldo_creditos + $1, updated_at = NOW()
		WHERE id = $2 AND saldo_creditos + $1 >= 0
		RETURNING saldo_creditos`

	var balance decimal.Decimal
	if err := r.db.QueryRowxContext(ctx, query, delta, clientID).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, domain.InsufficientBalanceError{Requested: delta.Neg().StringFixed(2)}
		}
		return decimal.Zero, fmt.Errorf("failed to adjust credits: %w", err)
	}
	return balance, nil
}
