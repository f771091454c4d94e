package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/middleware"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/internal/services"
)

const defaultReservationPage = 50

// ReservationHandler handles staff reservation management
type ReservationHandler struct {
	reservationService *services.ReservationService
	ticketService      *services.TicketService
	logger             *logrus.Logger
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservationService *services.ReservationService, ticketService *services.TicketService, logger *logrus.Logger) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService, ticketService: ticketService, logger: logger}
}

// Create handles POST /api/reservations
func (h *ReservationHandler) Create(c *gin.Context) {
	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "trip_id and passenger_name are required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	reservation, err := h.reservationService.Create(c.Request.Context(), userCtx.OrganizationID, userCtx.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

// Update handles PUT /api/reservations/:id
func (h *ReservationHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	reservation, err := h.reservationService.Update(c.Request.Context(), userCtx.OrganizationID, id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// List handles GET /api/reservations?trip_id=&client_id=&status=&limit=&offset=
func (h *ReservationHandler) List(c *gin.Context) {
	filter := models.ReservationFilter{
		TripID:   queryString(c, "trip_id"),
		ClientID: queryString(c, "client_id"),
	}
	if s := c.Query("status"); s != "" {
		status := models.ReservationStatus(s)
		if !status.IsValid() {
			badRequest(c, "unknown reservation status")
			return
		}
		filter.Status = &status
	}

	var err error
	if filter.Limit, err = queryInt(c, "limit", defaultReservationPage); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if filter.Offset, err = queryInt(c, "offset", 0); err != nil {
		respondError(c, h.logger, err)
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	reservations, err := h.reservationService.List(c.Request.Context(), userCtx.OrganizationID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations})
}

// Get handles GET /api/reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	reservation, err := h.reservationService.Get(c.Request.Context(), userCtx.OrganizationID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// GetByTicket handles GET /api/reservations/ticket/:code
func (h *ReservationHandler) GetByTicket(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	reservation, err := h.reservationService.GetByTicket(c.Request.Context(), userCtx.OrganizationID, c.Param("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// TicketPDF handles GET /api/reservations/:id/ticket.pdf
func (h *ReservationHandler) TicketPDF(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	ticket, err := h.ticketService.Render(c.Request.Context(), userCtx.OrganizationID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ticket.Filename))
	c.Data(http.StatusOK, "application/pdf", ticket.Content)
}
