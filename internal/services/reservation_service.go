package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/internal/utils"
	"github.com/smarttransit/backoffice-api/pkg/events"
)

// ReservationService handles staff-side reservation writes and lookups
type ReservationService struct {
	db           *sqlx.DB
	trips        *database.TripRepository
	reservations *database.ReservationRepository
	clients      *database.ClientRepository
	ledger       *database.TransactionRepository
	availability *AvailabilityService
	publisher    events.Publisher
	logger       *logrus.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	db *sqlx.DB,
	availability *AvailabilityService,
	publisher events.Publisher,
	logger *logrus.Logger,
) *ReservationService {
	return &ReservationService{
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

// Create books a single seat on behalf of a passenger. Status defaults to CONFIRMED.
func (s *ReservationService) Create(ctx context.Context, orgID, userID string, req *models.CreateReservationRequest) (*models.Reservation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	status := models.ReservationStatusConfirmed
	if req.Status != nil {
		status = *req.Status
	}

	var res *models.Reservation
	err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		trips := s.trips.WithTx(tx)
		reservations := s.reservations.WithTx(tx)

		trip, err := trips.GetForUpdate(ctx, orgID, req.TripID)
		if err != nil {
			return err
		}
		if !trip.Status.AcceptsReservations() {
			return domain.Conflict("trip", fmt.Sprintf("trip is %s and no longer accepts reservations", trip.Status))
		}

		if req.ClientID != nil {
			if _, err := s.clients.WithTx(tx).GetByID(ctx, orgID, *req.ClientID); err != nil {
				return err
			}
		}

		if status.IsActive() {
			if trip.SeatsAvailable < 1 {
				return domain.Conflict("trip", "no seats available")
			}
			taken, err := reservations.SeatTaken(ctx, orgID, trip.ID, req.SeatID, req.SeatNumber, nil)
			if err != nil {
				return err
			}
			if taken {
				return domain.Conflict("seat", fmt.Sprintf("seat %s is already reserved", req.SeatLabel()))
			}
		}

		code, err := utils.UniqueCode(ctx, utils.TicketCode, reservations.TicketCodeExists)
		if err != nil {
			return err
		}

		res = &models.Reservation{
			OrganizationID:    orgID,
			TripID:            trip.ID,
			SeatID:            req.SeatID,
			SeatNumber:        req.SeatNumber,
			ClientID:          req.ClientID,
			PassengerName:     strings.TrimSpace(req.PassengerName),
			PassengerDocument: req.PassengerDocument,
			PassengerPhone:    req.PassengerPhone,
			PassengerEmail:    req.PassengerEmail,
			Status:            status,
			TicketCode:        code,
			Price:             req.Price,
			AmountPaid:        req.AmountPaid,
			PaymentMethod:     req.PaymentMethod,
			CreditsUsed:       decimal.Zero,
			Notes:             req.Notes,
		}
		if userID != "" {
			res.CreatedBy = &userID
		}
		if err := reservations.Create(ctx, res); err != nil {
			return err
		}

		if status.IsActive() {
			if err := trips.AdjustSeats(ctx, trip.ID, -1); err != nil {
				return err
			}
		}

		if req.AmountPaid.IsPositive() {
			return recordPayment(ctx, s.ledger.WithTx(tx), res, req.AmountPaid, "Ticket sale "+res.TicketCode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.availability.Invalidate(ctx, orgID, res.TripID)
	s.publish(ctx, events.ReservationCreated, res)

	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"reservation_id":  res.ID,
		"trip_id":         res.TripID,
		"status":          res.Status,
	}).Info("Reservation created")
	return res, nil
}

// Update applies a staff edit. Status changes move the trip seat counter under the trip lock.
func (s *ReservationService) Update(ctx context.Context, orgID, id string, req *models.UpdateReservationRequest) (*models.Reservation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.reservations.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	var res *models.Reservation
	var from models.ReservationStatus
	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		trips := s.trips.WithTx(tx)
		reservations := s.reservations.WithTx(tx)
		ledger := s.ledger.WithTx(tx)

		trip, err := trips.GetForUpdate(ctx, orgID, current.TripID)
		if err != nil {
			return err
		}
		locked, err := reservations.GetByIDForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		res = locked
		from = res.Status

		to := res.Status
		if req.Status != nil {
			to = *req.Status
		}
		if !models.CanTransition(from, to) {
			return domain.Conflict("reservation", fmt.Sprintf("cannot move reservation from %s to %s", from, to))
		}

		delta := models.SeatDelta(from, to)
		if delta < 0 {
			taken, err := reservations.SeatTaken(ctx, orgID, res.TripID, res.SeatID, res.SeatNumber, &res.ID)
			if err != nil {
				return err
			}
			if taken {
				return domain.Conflict("seat", fmt.Sprintf("seat %s is already reserved", res.SeatLabel()))
			}
		}

		previousPaid := res.AmountPaid
		applyReservationUpdate(res, req)
		res.Status = to

		if err := reservations.Update(ctx, res); err != nil {
			return err
		}
		if err := adjustSeats(ctx, trips, trip, delta, s.logger); err != nil {
			return err
		}

		if from.IsActive() && !to.IsActive() {
			if _, err := ledger.SetStatusByLink(ctx, database.LinkReservation, res.ID, models.TransactionStatusCancelled,
				models.TransactionStatusPending, models.TransactionStatusOverdue); err != nil {
				return err
			}
		}

		if paid := res.AmountPaid.Sub(previousPaid); paid.IsPositive() {
			return recordPayment(ctx, ledger, res, paid, "Ticket payment "+res.TicketCode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.availability.Invalidate(ctx, orgID, res.TripID)
	if from != res.Status {
		switch res.Status {
		case models.ReservationStatusConfirmed:
			s.publish(ctx, events.ReservationConfirmed, res)
		case models.ReservationStatusCancelled:
			s.publish(ctx, events.ReservationCancelled, res)
		}
		s.logger.WithFields(logrus.Fields{
			"organization_id": orgID,
			"reservation_id":  res.ID,
			"from":            from,
			"to":              res.Status,
		}).Info("Reservation status changed")
	}
	return res, nil
}

func applyReservationUpdate(res *models.Reservation, req *models.UpdateReservationRequest) {
	if req.PassengerName != nil {
		res.PassengerName = strings.TrimSpace(*req.PassengerName)
	}
	if req.PassengerDocument != nil {
		res.PassengerDocument = req.PassengerDocument
	}
	if req.PassengerPhone != nil {
		res.PassengerPhone = req.PassengerPhone
	}
	if req.PassengerEmail != nil {
		res.PassengerEmail = req.PassengerEmail
	}
	if req.PaymentMethod != nil {
		res.PaymentMethod = req.PaymentMethod
	}
	if req.AmountPaid != nil {
		res.AmountPaid = *req.AmountPaid
	}
	if req.Notes != nil {
		res.Notes = req.Notes
	}
}

// Get returns one reservation of the organization
func (s *ReservationService) Get(ctx context.Context, orgID, id string) (*models.Reservation, error) {
	return s.reservations.GetByID(ctx, orgID, id)
}

// GetByTicket returns the reservation holding a ticket code
func (s *ReservationService) GetByTicket(ctx context.Context, orgID, code string) (*models.Reservation, error) {
	return s.reservations.GetByTicketCode(ctx, orgID, code)
}

// List returns reservations matching filter
func (s *ReservationService) List(ctx context.Context, orgID string, filter models.ReservationFilter) ([]*models.Reservation, error) {
	return s.reservations.List(ctx, orgID, filter)
}

// ListPending returns reservations waiting for a payment confirmation
func (s *ReservationService) ListPending(ctx context.Context, orgID *string) ([]*models.Reservation, error) {
	return s.reservations.ListPending(ctx, orgID)
}

func (s *ReservationService) publish(ctx context.Context, key string, r *models.Reservation) {
	publishReservation(ctx, s.publisher, s.logger, key, r)
}

// recordPayment writes a settled INCOME entry for money received on a reservation
func recordPayment(ctx context.Context, ledger *database.TransactionRepository, res *models.Reservation, amount decimal.Decimal, description string) error {
	now := time.Now()
	entry := &models.Transaction{
		OrganizationID: res.OrganizationID,
		Type:           models.TransactionTypeIncome,
		Category:       models.CategoryTicketSale,
		Description:    description,
		Amount:         amount,
		Status:         models.TransactionStatusPaid,
		PaymentMethod:  res.PaymentMethod,
		PaidAt:         &now,
		ReservationID:  &res.ID,
		CheckoutID:     res.CheckoutID,
	}
	return ledger.Create(ctx, entry)
}

// adjustSeats moves the counter of a trip locked by the caller. A release that would pass
// total_seats is capped by the store and logged; reconciliation corrects the counter.
func adjustSeats(ctx context.Context, trips *database.TripRepository, trip *models.Trip, delta int, logger *logrus.Logger) error {
	if delta > 0 && trip.SeatsAvailable+delta > trip.TotalSeats {
		logger.WithFields(logrus.Fields{
			"trip_id":         trip.ID,
			"seats_available": trip.SeatsAvailable,
			"total_seats":     trip.TotalSeats,
			"delta":           delta,
		}).Warn("Seat counter drifted above capacity, release capped")
	}
	if err := trips.AdjustSeats(ctx, trip.ID, delta); err != nil {
		return err
	}
	trip.SeatsAvailable += delta
	if trip.SeatsAvailable > trip.TotalSeats {
		trip.SeatsAvailable = trip.TotalSeats
	}
	return nil
}
