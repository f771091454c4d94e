package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phpdave11/gofpdf"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
)

// TicketService renders printable e-tickets
type TicketService struct {
	reservations *database.ReservationRepository
	trips        *database.TripRepository
	fleet        *database.FleetRepository
	logger       *logrus.Logger
}

// NewTicketService creates a new TicketService
func NewTicketService(
	reservations *database.ReservationRepository,
	trips *database.TripRepository,
	fleet *database.FleetRepository,
	logger *logrus.Logger,
) *TicketService {
	return &TicketService{reservations: reservations, trips: trips, fleet: fleet, logger: logger}
}

// Ticket is a rendered e-ticket
type Ticket struct {
	Filename string
	Content  []byte
}

// Render builds the PDF e-ticket of a reservation. Cancelled reservations have no ticket.
func (s *TicketService) Render(ctx context.Context, orgID, reservationID string) (*Ticket, error) {
	res, err := s.reservations.GetByID(ctx, orgID, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status == models.ReservationStatusCancelled {
		return nil, domain.Conflict("reservation", "cancelled reservations have no ticket")
	}

	trip, err := s.trips.GetByID(ctx, orgID, res.TripID)
	if err != nil {
		return nil, err
	}

	route := "-"
	if trip.RouteID != nil {
		r, err := s.fleet.GetRoute(ctx, orgID, *trip.RouteID)
		switch {
		case err == nil:
			route = r.Origin + " - " + r.Destination
		case !domain.IsNotFound(err):
			return nil, err
		}
	}

	content, err := renderTicket(res, trip, route)
	if err != nil {
		s.logger.WithError(err).WithField("reservation_id", res.ID).Error("Failed to render ticket")
		return nil, err
	}
	return &Ticket{Filename: res.TicketCode + ".pdf", Content: content}, nil
}

func renderTicket(res *models.Reservation, trip *models.Trip, route string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("E-Ticket "+res.TicketCode, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Courier", "B", 16)
	pdf.Cell(0, 10, res.TicketCode)
	pdf.Ln(14)

	lines := []string{
		"Passenger  : " + res.PassengerName,
		"Document   : " + deref(res.PassengerDocument, "-"),
		"Route      : " + route,
		"Departure  : " + trip.DepartureTime.Format("02/01/2006 15:04"),
		"Seat       : " + res.SeatLabel(),
		"Status     : " + string(res.Status),
		"Price      : " + formatBRL(res.Price.StringFixed(2)),
		"Paid       : " + formatBRL(res.AmountPaid.StringFixed(2)),
	}
	if due := res.Price.Sub(res.AmountPaid).Sub(res.CreditsUsed); due.IsPositive() {
		lines = append(lines, "Balance due: "+formatBRL(due.StringFixed(2)))
	}

	pdf.SetFont("Helvetica", "", 12)
	for _, line := range lines {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Valid for one passenger and one seat. Present this ticket and an identity document at boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func formatBRL(amount string) string {
	return "R$ " + amount
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
