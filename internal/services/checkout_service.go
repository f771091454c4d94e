package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/internal/utils"
	"github.com/smarttransit/backoffice-api/pkg/events"
)

// CheckoutService turns a client's multi-passenger purchase into reservations, credit
// usage and ledger entries in one all-or-nothing transaction
type CheckoutService struct {
	db           *sqlx.DB
	trips        *database.TripRepository
	reservations *database.ReservationRepository
	clients      *database.ClientRepository
	ledger       *database.TransactionRepository
	availability *AvailabilityService
	publisher    events.Publisher
	logger       *logrus.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	db *sqlx.DB,
	availability *AvailabilityService,
	publisher events.Publisher,
	logger *logrus.Logger,
) *CheckoutService {
	return &CheckoutService{
		db:           db,
		trips:        database.NewTripRepository(db),
		reservations: database.NewReservationRepository(db),
		clients:      database.NewClientRepository(db),
		ledger:       database.NewTransactionRepository(db),
		availability: availability,
		publisher:    publisher,
		logger:       logger,
	}
}

// Checkout reserves every passenger of the request for client.
// Any failure, including a seat lost to a concurrent buyer, leaves no trace.
func (s *CheckoutService) Checkout(ctx context.Context, client *models.Client, userID string, req *models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	total := req.Total()
	entry, remainder, err := models.SplitPayment(total, req.CreditsUsed, req.EntryValue, req.IsPartial)
	if err != nil {
		return nil, err
	}

	orgID := client.OrganizationID
	resp := &models.CheckoutResponse{CreditsLeft: client.SaldoCreditos}

	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		trips := s.trips.WithTx(tx)
		reservations := s.reservations.WithTx(tx)
		clients := s.clients.WithTx(tx)
		ledger := s.ledger.WithTx(tx)

		trip, err := trips.GetForUpdate(ctx, orgID, req.TripID)
		if err != nil {
			return err
		}
		if !trip.Status.AcceptsReservations() {
			return domain.Conflict("trip", fmt.Sprintf("trip is %s and no longer accepts reservations", trip.Status))
		}
		if trip.SeatsAvailable < len(req.Reservations) {
			return domain.Conflict("trip", "not enough seats available")
		}

		for i := range req.Reservations {
			p := &req.Reservations[i]
			taken, err := reservations.SeatTaken(ctx, orgID, trip.ID, p.SeatID, p.SeatNumber, nil)
			if err != nil {
				return err
			}
			if taken {
				return domain.Conflict("seat", fmt.Sprintf("seat %s is already reserved", p.SeatLabel()))
			}
		}

		checkout := &models.Checkout{
			OrganizationID: orgID,
			ClientID:       client.ID,
			TripID:         trip.ID,
			Total:          total,
			CreditsUsed:    req.CreditsUsed,
			EntryValue:     entry,
			IsPartial:      req.IsPartial,
			PaymentMethod:  req.PaymentMethod,
		}
		if err := reservations.CreateCheckout(ctx, checkout); err != nil {
			return err
		}
		resp.Checkout = checkout

		if req.CreditsUsed.IsPositive() {
			balance, err := DeductCredits(ctx, clients, ledger, orgID, client.ID, req.CreditsUsed, &checkout.ID)
			if err != nil {
				return err
			}
			resp.CreditsLeft = balance
		}

		created, err := s.insertReservations(ctx, reservations, trip, client, checkout, userID, req)
		if err != nil {
			return err
		}
		resp.Reservations = created

		if err := trips.AdjustSeats(ctx, trip.ID, -len(created)); err != nil {
			return err
		}

		entries, err := s.recordSale(ctx, ledger, trip, checkout, created, entry, remainder)
		if err != nil {
			return err
		}
		resp.Transactions = entries
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"organization_id": orgID,
			"client_id":       client.ID,
			"trip_id":         req.TripID,
			"passengers":      len(req.Reservations),
		}).Warn("Checkout rejected")
		return nil, err
	}

	s.availability.Invalidate(ctx, orgID, req.TripID)
	for _, r := range resp.Reservations {
		s.publish(ctx, events.ReservationCreated, r)
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"checkout_id":     resp.Checkout.ID,
		"trip_id":         req.TripID,
		"passengers":      len(resp.Reservations),
		"total":           total.StringFixed(2),
		"credits_used":    req.CreditsUsed.StringFixed(2),
	}).Info("Checkout completed")

	return resp, nil
}

func (s *CheckoutService) insertReservations(
	ctx context.Context,
	reservations *database.ReservationRepository,
	trip *models.Trip,
	client *models.Client,
	checkout *models.Checkout,
	userID string,
	req *models.CheckoutRequest,
) ([]*models.Reservation, error) {
	created := make([]*models.Reservation, 0, len(req.Reservations))
	for i, p := range req.Reservations {
		code, err := utils.UniqueCode(ctx, utils.TicketCode, reservations.TicketCodeExists)
		if err != nil {
			return nil, err
		}

		creditsUsed := decimal.Zero
		if i == 0 {
			creditsUsed = req.CreditsUsed
		}

		res := &models.Reservation{
			OrganizationID:    trip.OrganizationID,
			TripID:            trip.ID,
			SeatID:            p.SeatID,
			SeatNumber:        p.SeatNumber,
			ClientID:          &client.ID,
			CheckoutID:        &checkout.ID,
			PassengerName:     strings.TrimSpace(p.PassengerName),
			PassengerDocument: p.PassengerDocument,
			PassengerPhone:    p.PassengerPhone,
			PassengerEmail:    p.PassengerEmail,
			Status:            models.ReservationStatusPending,
			TicketCode:        code,
			Price:             p.Price,
			AmountPaid:        decimal.Zero,
			PaymentMethod:     req.PaymentMethod,
			CreditsUsed:       creditsUsed,
			IsPartial:         req.IsPartial,
		}
		if userID != "" {
			res.CreatedBy = &userID
		}
		if err := reservations.Create(ctx, res); err != nil {
			return nil, err
		}
		created = append(created, res)
	}
	return created, nil
}

// recordSale writes the entry and remainder ledger rows. Zero amounts are skipped.
func (s *CheckoutService) recordSale(
	ctx context.Context,
	ledger *database.TransactionRepository,
	trip *models.Trip,
	checkout *models.Checkout,
	created []*models.Reservation,
	entry, remainder decimal.Decimal,
) ([]*models.Transaction, error) {
	first := created[0].ID
	codes := make([]string, len(created))
	for i, r := range created {
		codes[i] = r.TicketCode
	}
	label := strings.Join(codes, ", ")

	entries := []*models.Transaction{}
	if entry.IsPositive() {
		description := "Ticket sale " + label
		if remainder.IsPositive() {
			description = "Ticket sale down payment " + label
		}
		t := &models.Transaction{
			OrganizationID: trip.OrganizationID,
			Type:           models.TransactionTypeIncome,
			Category:       models.CategoryTicketSale,
			Description:    description,
			Amount:         entry,
			Status:         models.TransactionStatusPending,
			PaymentMethod:  checkout.PaymentMethod,
			ReservationID:  &first,
			CheckoutID:     &checkout.ID,
		}
		if err := ledger.Create(ctx, t); err != nil {
			return nil, err
		}
		entries = append(entries, t)
	}

	if remainder.IsPositive() {
		due := trip.DepartureTime
		t := &models.Transaction{
			OrganizationID: trip.OrganizationID,
			Type:           models.TransactionTypeIncome,
			Category:       models.CategoryTicketSale,
			Description:    "Ticket sale balance due at departure " + label,
			Amount:         remainder,
			Status:         models.TransactionStatusPending,
			PaymentMethod:  checkout.PaymentMethod,
			DueDate:        &due,
			ReservationID:  &first,
			CheckoutID:     &checkout.ID,
		}
		if err := ledger.Create(ctx, t); err != nil {
			return nil, err
		}
		entries = append(entries, t)
	}
	return entries, nil
}

func (s *CheckoutService) publish(ctx context.Context, key string, r *models.Reservation) {
	publishReservation(ctx, s.publisher, s.logger, key, r)
}
