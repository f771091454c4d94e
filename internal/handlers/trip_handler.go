package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/middleware"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/internal/services"
)

// TripHandler handles trip scheduling and availability
type TripHandler struct {
	tripService *services.TripService
	logger      *logrus.Logger
}

// NewTripHandler creates a new trip handler
func NewTripHandler(tripService *services.TripService, logger *logrus.Logger) *TripHandler {
	return &TripHandler{tripService: tripService, logger: logger}
}

// Create handles POST /api/trips
func (h *TripHandler) Create(c *gin.Context) {
	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "departure_time is required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	trip, err := h.tripService.Create(c.Request.Context(), userCtx.OrganizationID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

// List handles GET /api/trips?status=&from=&to=
func (h *TripHandler) List(c *gin.Context) {
	var filter models.TripFilter
	if s := c.Query("status"); s != "" {
		status := models.TripStatus(s)
		if !status.IsValid() {
			badRequest(c, "unknown trip status")
			return
		}
		filter.Status = &status
	}

	var err error
	if filter.From, err = parseTimeQuery(c, "from"); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if filter.To, err = parseTimeQuery(c, "to"); err != nil {
		respondError(c, h.logger, err)
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	trips, err := h.tripService.List(c.Request.Context(), userCtx.OrganizationID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

// Get handles GET /api/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	trip, err := h.tripService.Get(c.Request.Context(), userCtx.OrganizationID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// UpdateStatus handles PATCH /api/trips/:id/status
func (h *TripHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateTripStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	trip, err := h.tripService.UpdateStatus(c.Request.Context(), userCtx.OrganizationID, id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// Availability handles GET /api/trips/:id/availability
func (h *TripHandler) Availability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	availability, err := h.tripService.Availability(c.Request.Context(), userCtx.OrganizationID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}
