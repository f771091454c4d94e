package services

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/pkg/events"
)

const (
	eventPaymentConfirmed  = "payment-confirmed"
	eventReservationCancel = "cancel-reservation"
)

// WebhookService applies payment gateway notifications to reservations and the ledger
type WebhookService struct {
	db           *sqlx.DB
	trips        *database.TripRepository
	reservations *database.ReservationRepository
	ledger       *database.TransactionRepository
	events       *database.WebhookEventRepository
	availability *AvailabilityService
	publisher    events.Publisher
	logger       *logrus.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	db *sqlx.DB,
	availability *AvailabilityService,
	publisher events.Publisher,
	logger *logrus.Logger,
) *WebhookService {
	return &WebhookService{
		db:           db,
		trips:        database.NewTripRepository(db),
		reservations: database.NewReservationRepository(db),
		ledger:       database.NewTransactionRepository(db),
		events:       database.NewWebhookEventRepository(db),
		availability: availability,
		publisher:    publisher,
		logger:       logger,
	}
}

// ConfirmPayment accumulates a captured payment on a reservation and confirms it.
// Each event is applied once: a replay with the same idempotency key is acknowledged as a duplicate.
func (s *WebhookService) ConfirmPayment(ctx context.Context, req *models.PaymentConfirmedRequest, idempotencyKey string, payload []byte) (*models.WebhookResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key, err := req.IdempotencyKey(idempotencyKey)
	if err != nil {
		return nil, err
	}
	result := &models.WebhookResult{Success: true}
	var from models.ReservationStatus

	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		fresh, err := s.events.WithTx(tx).Record(ctx, key, eventPaymentConfirmed, payload)
		if err != nil {
			return err
		}
		if !fresh {
			result.Duplicate = true
			return nil
		}

		res, err := s.reservations.WithTx(tx).FindForUpdate(ctx, req.ReservationID, req.TransactionID)
		if err != nil {
			return err
		}
		from = res.Status

		if res.Status == models.ReservationStatusCancelled || res.Status == models.ReservationStatusUsed {
			return domain.Conflict("reservation", fmt.Sprintf("cannot confirm payment of a %s reservation", res.Status))
		}

		res.AmountPaid = res.AmountPaid.Add(req.Amount)
		if res.Status == models.ReservationStatusPending {
			res.Status = models.ReservationStatusConfirmed
		}
		if req.PaymentMethod != nil {
			res.PaymentMethod = req.PaymentMethod
		}
		if res.ExternalPaymentID == nil && req.TransactionID != nil {
			res.ExternalPaymentID = req.TransactionID
		}

		if err := s.reservations.WithTx(tx).Update(ctx, res); err != nil {
			return err
		}
		if err := recordPayment(ctx, s.ledger.WithTx(tx), res, req.Amount, "Payment confirmed "+res.TicketCode); err != nil {
			return err
		}

		result.Reservation = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Duplicate {
		s.logger.WithField("event_key", key).Info("Duplicate payment confirmation ignored")
		return result, nil
	}

	res := result.Reservation
	s.availability.Invalidate(ctx, res.OrganizationID, res.TripID)
	if from != res.Status {
		publishReservation(ctx, s.publisher, s.logger, events.ReservationConfirmed, res)
	}

	s.logger.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"amount":         req.Amount.StringFixed(2),
		"amount_paid":    res.AmountPaid.StringFixed(2),
		"status":         res.Status,
	}).Info("Payment confirmed")
	return result, nil
}

// CancelReservation cancels a reservation whose payment failed and gives the seat back.
// Cancelling an already cancelled reservation succeeds without changes.
func (s *WebhookService) CancelReservation(ctx context.Context, req *models.CancelReservationRequest) (*models.WebhookResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.reservations.Find(ctx, req.ReservationID, req.TransactionID)
	if err != nil {
		return nil, err
	}

	result := &models.WebhookResult{Success: true}
	changed := false

	err = database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		trips := s.trips.WithTx(tx)
		reservations := s.reservations.WithTx(tx)

		trip, err := trips.GetForUpdate(ctx, current.OrganizationID, current.TripID)
		if err != nil {
			return err
		}
		res, err := reservations.FindForUpdate(ctx, &current.ID, nil)
		if err != nil {
			return err
		}
		result.Reservation = res

		switch res.Status {
		case models.ReservationStatusCancelled:
			return nil
		case models.ReservationStatusUsed:
			return domain.Conflict("reservation", "a used ticket cannot be cancelled")
		}

		reason := "payment not completed"
		if req.Reason != nil && *req.Reason != "" {
			reason = *req.Reason
		}
		res.AppendNote("Cancelled by payment gateway: " + reason)

		delta := models.SeatDelta(res.Status, models.ReservationStatusCancelled)
		res.Status = models.ReservationStatusCancelled
		if err := reservations.Update(ctx, res); err != nil {
			return err
		}
		if err := adjustSeats(ctx, trips, trip, delta, s.logger); err != nil {
			return err
		}
		if _, err := s.ledger.WithTx(tx).SetStatusByLink(ctx, database.LinkReservation, res.ID,
			models.TransactionStatusCancelled, models.TransactionStatusPending, models.TransactionStatusOverdue); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := result.Reservation
	if !changed {
		s.logger.WithField("reservation_id", res.ID).Info("Reservation already cancelled")
		return result, nil
	}

	s.availability.Invalidate(ctx, res.OrganizationID, res.TripID)
	publishReservation(ctx, s.publisher, s.logger, events.ReservationCancelled, res)

	s.logger.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"trip_id":        res.TripID,
	}).Info("Reservation cancelled by webhook")
	return result, nil
}

// PendingReservations lists PENDING reservations, optionally for one organization
func (s *WebhookService) PendingReservations(ctx context.Context, orgID *string) ([]*models.Reservation, error) {
	return s.reservations.ListPending(ctx, orgID)
}
