package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/middleware"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/internal/services"
)

// IdempotencyKeyHeader lets the gateway name a delivery explicitly
const IdempotencyKeyHeader = "Idempotency-Key"

// WebhookHandler receives payment gateway callbacks. Requests reach it only after WebhookAuth.
//
// Failures use the shared respondError mapping rather than a blanket 500: an unknown
// reservation answers 404, a bad payload 400 and a terminal reservation 409, so the gateway
// can stop retrying deliveries that will never succeed. Anything else is 500 "Processing failed".
type WebhookHandler struct {
	webhookService *services.WebhookService
	logger         *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookService *services.WebhookService, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService, logger: logger}
}

// PaymentConfirmed handles POST /api/webhooks/payment-confirmed
func (h *WebhookHandler) PaymentConfirmed(c *gin.Context) {
	body := webhookBody(c)

	var req models.PaymentConfirmedRequest
	if err := json.Unmarshal(body, &req); err != nil {
		badRequest(c, "Invalid JSON payload")
		return
	}

	result, err := h.webhookService.ConfirmPayment(c.Request.Context(), &req, c.GetHeader(IdempotencyKeyHeader), body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CancelReservation handles POST /api/webhooks/cancel-reservation
func (h *WebhookHandler) CancelReservation(c *gin.Context) {
	var req models.CancelReservationRequest
	if err := json.Unmarshal(webhookBody(c), &req); err != nil {
		badRequest(c, "Invalid JSON payload")
		return
	}

	result, err := h.webhookService.CancelReservation(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PendingReservations handles GET /api/webhooks/pending-reservations?organization_id=
func (h *WebhookHandler) PendingReservations(c *gin.Context) {
	orgID := queryString(c, "organization_id")
	if orgID != nil {
		if _, err := uuid.Parse(*orgID); err != nil {
			writeError(c, http.StatusBadRequest, "validation_error", "organization_id must be a valid id", "INVALID_ID")
			return
		}
	}

	reservations, err := h.webhookService.PendingReservations(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations})
}

func webhookBody(c *gin.Context) []byte {
	if v, ok := c.Get(middleware.WebhookBodyKey); ok {
		if body, ok := v.([]byte); ok {
			return body
		}
	}
	return nil
}
