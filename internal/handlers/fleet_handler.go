package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/middleware"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/internal/services"
)

// FleetHandler handles routes, vehicles and their seats
type FleetHandler struct {
	fleetService *services.FleetService
	logger       *logrus.Logger
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(fleetService *services.FleetService, logger *logrus.Logger) *FleetHandler {
	return &FleetHandler{fleetService: fleetService, logger: logger}
}

// CreateRoute handles POST /api/routes
func (h *FleetHandler) CreateRoute(c *gin.Context) {
	var req models.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "origin and destination are required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	route, err := h.fleetService.CreateRoute(c.Request.Context(), userCtx.OrganizationID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, route)
}

// ListRoutes handles GET /api/routes
func (h *FleetHandler) ListRoutes(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	routes, err := h.fleetService.ListRoutes(c.Request.Context(), userCtx.OrganizationID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

// CreateVehicle handles POST /api/vehicles
func (h *FleetHandler) CreateVehicle(c *gin.Context) {
	var req models.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "plate and capacity are required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	vehicle, seats, err := h.fleetService.CreateVehicle(c.Request.Context(), userCtx.OrganizationID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"vehicle": vehicle, "seats": seats})
}

// ListVehicles handles GET /api/vehicles
func (h *FleetHandler) ListVehicles(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	vehicles, err := h.fleetService.ListVehicles(c.Request.Context(), userCtx.OrganizationID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

// ListSeats handles GET /api/vehicles/:id/seats
func (h *FleetHandler) ListSeats(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	seats, err := h.fleetService.ListSeats(c.Request.Context(), userCtx.OrganizationID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seats": seats})
}
