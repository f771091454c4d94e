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

const reservationColumns = `id, organization_id, trip_id, seat_id, seat_number, client_id, checkout_id,
	passenger_name, passenger_document, passenger_phone, passenger_email, status, ticket_code,
	price, amount_paid, payment_method, external_payment_id, credits_used, is_partial, notes,
	created_by, created_at, updated_at`

// ReservationRepository handles reservations and the checkout batches that own them
type ReservationRepository struct {
	db Querier
}

// NewReservationRepository creates a new ReservationRepository
func NewReservationRepository(db Querier) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *ReservationRepository) WithTx(tx *sqlx.Tx) *ReservationRepository {
	return &ReservationRepository{db: tx}
}

// SeatTaken reports whether an active reservation holds the seat on the trip.
// The seat is matched by id when given, else by number. With neither the check is skipped.
func (r *ReservationRepository) SeatTaken(ctx context.Context, orgID, tripID string, seatID, seatNumber *string, excludeID *string) (bool, error) {
	var column, value string
	switch {
	case seatID != nil && *seatID != "":
		column, value = "seat_id", *seatID
	case seatNumber != nil && *seatNumber != "":
		column, value = "seat_number", *seatNumber
	default:
		return false, nil
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE organization_id = $1 AND trip_id = $2 AND ` + column + ` = $3
			  AND status <> 'CANCELLED'
			  AND ($4::uuid IS NULL OR id <> $4::uuid)
		)`

	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, orgID, tripID, value, excludeID); err != nil {
		return false, fmt.Errorf("failed to check seat availability: %w", err)
	}
	return taken, nil
}

// TicketCodeExists checks whether a ticket code is already in use
func (r *ReservationRepository) TicketCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM reservations WHERE ticket_code = $1)`
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, fmt.Errorf("failed to check ticket code: %w", err)
	}
	return exists, nil
}

// Create inserts a reservation. A violation of the active-seat unique indexes is a seat Conflict.
func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	query := `
		INSERT INTO reservations (
			organization_id, trip_id, seat_id, seat_number, client_id, checkout_id,
			passenger_name, passenger_document, passenger_phone, passenger_email, status, ticket_code,
			price, amount_paid, payment_method, external_payment_id, credits_used, is_partial, notes,
			created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		res.OrganizationID, res.TripID, res.SeatID, res.SeatNumber, res.ClientID, res.CheckoutID,
		res.PassengerName, res.PassengerDocument, res.PassengerPhone, res.PassengerEmail,
		res.Status, res.TicketCode, res.Price, res.AmountPaid, res.PaymentMethod,
		res.ExternalPaymentID, res.CreditsUsed, res.IsPartial, res.Notes, res.CreatedBy,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if strings.Contains(constraint, "ticket_code") {
				return domain.ConflictError{Resource: "ticket", Msg: "ticket code already in use", Err: err}
			}
			return domain.ConflictError{Resource: "seat", Msg: fmt.Sprintf("seat %s is already reserved", res.SeatLabel()), Err: err}
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

// GetByID retrieves a reservation of the organization
func (r *ReservationRepository) GetByID(ctx context.Context, orgID, id string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 AND organization_id = $2`
	return r.getOne(ctx, query, id, orgID)
}

// GetByTicketCode retrieves a reservation by its ticket code
func (r *ReservationRepository) GetByTicketCode(ctx context.Context, orgID, code string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE ticket_code = $1 AND organization_id = $2`
	return r.getOne(ctx, query, strings.ToUpper(code), orgID)
}

// Find looks a reservation up by id or, failing that, by gateway payment id.
// Webhooks are not tenant scoped so the lookup is global.
func (r *ReservationRepository) Find(ctx context.Context, reservationID, externalPaymentID *string) (*models.Reservation, error) {
	return r.find(ctx, reservationID, externalPaymentID, "")
}

// FindForUpdate is Find holding a row lock until the surrounding transaction ends
func (r *ReservationRepository) FindForUpdate(ctx context.Context, reservationID, externalPaymentID *string) (*models.Reservation, error) {
	return r.find(ctx, reservationID, externalPaymentID, " FOR UPDATE")
}

func (r *ReservationRepository) find(ctx context.Context, reservationID, externalPaymentID *string, lock string) (*models.Reservation, error) {
	if reservationID != nil && *reservationID != "" {
		query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1` + lock
		return r.getOne(ctx, query, *reservationID)
	}
	if externalPaymentID != nil && *externalPaymentID != "" {
		query := `SELECT ` + reservationColumns + ` FROM reservations
			WHERE external_payment_id = $1 ORDER BY created_at LIMIT 1` + lock
		return r.getOne(ctx, query, *externalPaymentID)
	}
	return nil, domain.NotFound("reservation")
}

// GetByIDForUpdate locks a reservation of the organization
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, orgID, id string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 AND organization_id = $2 FOR UPDATE`
	return r.getOne(ctx, query, id, orgID)
}

func (r *ReservationRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.GetContext(ctx, &res, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("reservation")
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &res, nil
}

// List returns reservations of the organization, newest first
func (r *ReservationRepository) List(ctx context.Context, orgID string, filter models.ReservationFilter) ([]*models.Reservation, error) {
	conditions := []string{"organization_id = $1"}
	args := []interface{}{orgID}

	if filter.TripID != nil {
		args = append(args, *filter.TripID)
		conditions = append(conditions, fmt.Sprintf("trip_id = $%d", len(args)))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		reservationColumns, strings.Join(conditions, " AND "), len(args)-1, len(args))

	reservations := []*models.Reservation{}
	if err := r.db.SelectContext(ctx, &reservations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

// ListPending returns the PENDING reservations awaiting payment, optionally for one organization
func (r *ReservationRepository) ListPending(ctx context.Context, orgID *string) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
		WHERE status = 'PENDING' AND ($1::uuid IS NULL OR organization_id = $1::uuid)
		ORDER BY created_at ASC`

	reservations := []*models.Reservation{}
	if err := r.db.SelectContext(ctx, &reservations, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list pending reservations: %w", err)
	}
	return reservations, nil
}

// Update writes the mutable fields of a reservation
func (r *ReservationRepository) Update(ctx context.Context, res *models.Reservation) error {
	query := `
		UPDATE reservations SET
			status = $1, passenger_name = $2, passenger_document = $3, passenger_phone = $4,
			passenger_email = $5, payment_method = $6, amount_paid = $7, external_payment_id = $8,
			notes = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		res.Status, res.PassengerName, res.PassengerDocument, res.PassengerPhone,
		res.PassengerEmail, res.PaymentMethod, res.AmountPaid, res.ExternalPaymentID,
		res.Notes, res.ID,
	).Scan(&res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("reservation")
		}
		if _, ok := uniqueViolation(err); ok {
			return domain.ConflictError{Resource: "seat", Msg: fmt.Sprintf("seat %s is already reserved", res.SeatLabel()), Err: err}
		}
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	return nil
}

// CreateCheckout inserts the batch row that owns a checkout's reservations and ledger entries
func (r *ReservationRepository) CreateCheckout(ctx context.Context, c *models.Checkout) error {
	query := `
		INSERT INTO checkouts (
			organization_id, client_id, trip_id, total, credits_used, entry_value, is_partial, payment_method
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.OrganizationID, c.ClientID, c.TripID, c.Total, c.CreditsUsed, c.EntryValue, c.IsPartial, c.PaymentMethod,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create checkout: %w", err)
	}
	return nil
}
