package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/middleware"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/internal/services"
)

// ClientHandler serves the client portal and the staff CRM
type ClientHandler struct {
	clientService   *services.ClientService
	checkoutService *services.CheckoutService
	logger          *logrus.Logger
}

// NewClientHandler creates a new client handler
func NewClientHandler(clientService *services.ClientService, checkoutService *services.CheckoutService, logger *logrus.Logger) *ClientHandler {
	return &ClientHandler{clientService: clientService, checkoutService: checkoutService, logger: logger}
}

// Dashboard handles GET /api/client/dashboard
func (h *ClientHandler) Dashboard(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	dashboard, err := h.clientService.Dashboard(c.Request.Context(), userCtx.OrganizationID, userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Checkout handles POST /api/client/checkout
func (h *ClientHandler) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "trip_id and reservations are required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	ctx := c.Request.Context()

	client, err := h.clientService.EnsureClient(ctx, userCtx.OrganizationID, userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp, err := h.checkoutService.Checkout(ctx, client, userCtx.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List handles GET /api/clients
func (h *ClientHandler) List(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	clients, err := h.clientService.List(c.Request.Context(), userCtx.OrganizationID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

// Get handles GET /api/clients/:id
func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	client, err := h.clientService.Get(c.Request.Context(), userCtx.OrganizationID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// AddCredits handles POST /api/clients/:id/credits
func (h *ClientHandler) AddCredits(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.AddCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "amount is required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	client, err := h.clientService.AddCredits(c.Request.Context(), userCtx.OrganizationID, userCtx.UserID, id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, client)
}
