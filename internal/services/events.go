package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/pkg/events"
)

// ReservationEvent is the payload of reservation.* events
type ReservationEvent struct {
	ReservationID  string                   `json:"reservation_id"`
	OrganizationID string                   `json:"organization_id"`
	TripID         string                   `json:"trip_id"`
	TicketCode     string                   `json:"ticket_code"`
	Status         models.ReservationStatus `json:"status"`
	PassengerName  string                   `json:"passenger_name"`
	PassengerPhone *string                  `json:"passenger_phone,omitempty"`
	PassengerEmail *string                  `json:"passenger_email,omitempty"`
	SeatNumber     *string                  `json:"seat_number,omitempty"`
	AmountPaid     string                   `json:"amount_paid"`
}

func reservationEvent(r *models.Reservation) ReservationEvent {
	return ReservationEvent{
		ReservationID:  r.ID,
		OrganizationID: r.OrganizationID,
		TripID:         r.TripID,
		TicketCode:     r.TicketCode,
		Status:         r.Status,
		PassengerName:  r.PassengerName,
		PassengerPhone: r.PassengerPhone,
		PassengerEmail: r.PassengerEmail,
		SeatNumber:     r.SeatNumber,
		AmountPaid:     r.AmountPaid.StringFixed(2),
	}
}

// publishReservation emits a reservation event. Failures are logged and never fail the write.
func publishReservation(ctx context.Context, publisher events.Publisher, logger *logrus.Logger, key string, r *models.Reservation) {
	publishCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := publisher.Publish(publishCtx, key, reservationEvent(r)); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"reservation_id": r.ID,
			"event":          key,
		}).Warn("Failed to publish reservation event")
	}
}
