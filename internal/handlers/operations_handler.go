package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/middleware"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/internal/services"
)

// OperationsHandler groups maintenance, parcels and charters
type OperationsHandler struct {
	maintenanceService *services.MaintenanceService
	parcelService      *services.ParcelService
	charterService     *services.CharterService
	logger             *logrus.Logger
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(
	maintenanceService *services.MaintenanceService,
	parcelService *services.ParcelService,
	charterService *services.CharterService,
	logger *logrus.Logger,
) *OperationsHandler {
	return &OperationsHandler{
		maintenanceService: maintenanceService,
		parcelService:      parcelService,
		charterService:     charterService,
		logger:             logger,
	}
}

// ============================================================================
// MAINTENANCE
// ============================================================================

// CreateMaintenance handles POST /api/maintenance
func (h *OperationsHandler) CreateMaintenance(c *gin.Context) {
	var req models.CreateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "vehicle_id and description are required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	m, err := h.maintenanceService.Create(c.Request.Context(), userCtx.OrganizationID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// ListMaintenance handles GET /api/maintenance
func (h *OperationsHandler) ListMaintenance(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	records, err := h.maintenanceService.List(c.Request.Context(), userCtx.OrganizationID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"maintenance": records})
}

// UpdateMaintenanceStatus handles PATCH /api/maintenance/:id/status
func (h *OperationsHandler) UpdateMaintenanceStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateMaintenanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	m, err := h.maintenanceService.UpdateStatus(c.Request.Context(), userCtx.OrganizationID, id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// ============================================================================
// PARCELS
// ============================================================================

// CreateParcel handles POST /api/parcels
func (h *OperationsHandler) CreateParcel(c *gin.Context) {
	var req models.CreateParcelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "sender_name and recipient_name are required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	p, err := h.parcelService.Create(c.Request.Context(), userCtx.OrganizationID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListParcels handles GET /api/parcels
func (h *OperationsHandler) ListParcels(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	parcels, err := h.parcelService.List(c.Request.Context(), userCtx.OrganizationID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parcels": parcels})
}

// UpdateParcelStatus handles PATCH /api/parcels/:id/status
func (h *OperationsHandler) UpdateParcelStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateParcelStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	p, err := h.parcelService.UpdateStatus(c.Request.Context(), userCtx.OrganizationID, id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// TrackParcel handles the public GET /api/public/parcels/:code
func (h *OperationsHandler) TrackParcel(c *gin.Context) {
	tracking, err := h.parcelService.Track(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tracking)
}

// ============================================================================
// CHARTERS
// ============================================================================

// CreateCharter handles POST /api/charters
func (h *OperationsHandler) CreateCharter(c *gin.Context) {
	var req models.CreateCharterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "contact_name, origin, destination and departure_date are required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	ch, err := h.charterService.Create(c.Request.Context(), userCtx.OrganizationID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

// ListCharters handles GET /api/charters
func (h *OperationsHandler) ListCharters(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	charters, err := h.charterService.List(c.Request.Context(), userCtx.OrganizationID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"charters": charters})
}

// UpdateCharterStatus handles PATCH /api/charters/:id/status
func (h *OperationsHandler) UpdateCharterStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateCharterStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	ch, err := h.charterService.UpdateStatus(c.Request.Context(), userCtx.OrganizationID, id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}
