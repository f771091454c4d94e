package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/middleware"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/internal/services"
)

const defaultTransactionPage = 100

// FinanceHandler exposes the ledger
type FinanceHandler struct {
	financeService *services.FinanceService
	logger         *logrus.Logger
}

// NewFinanceHandler creates a new finance handler
func NewFinanceHandler(financeService *services.FinanceService, logger *logrus.Logger) *FinanceHandler {
	return &FinanceHandler{financeService: financeService, logger: logger}
}

// List handles GET /api/finance/transactions?type=&status=&from=&to=
func (h *FinanceHandler) List(c *gin.Context) {
	var filter models.TransactionFilter
	if t := c.Query("type"); t != "" {
		txType := models.TransactionType(t)
		if !txType.IsValid() {
			badRequest(c, "type must be INCOME or EXPENSE")
			return
		}
		filter.Type = &txType
	}
	if s := c.Query("status"); s != "" {
		status := models.TransactionStatus(s)
		if !status.IsValid() {
			badRequest(c, "unknown transaction status")
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
	if filter.Limit, err = queryInt(c, "limit", defaultTransactionPage); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if filter.Offset, err = queryInt(c, "offset", 0); err != nil {
		respondError(c, h.logger, err)
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	transactions, err := h.financeService.List(c.Request.Context(), userCtx.OrganizationID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// Create handles POST /api/finance/transactions
func (h *FinanceHandler) Create(c *gin.Context) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "type and category are required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	tx, err := h.financeService.Create(c.Request.Context(), userCtx.OrganizationID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// UpdateStatus handles PATCH /api/finance/transactions/:id/status
func (h *FinanceHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateTransactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	tx, err := h.financeService.UpdateStatus(c.Request.Context(), userCtx.OrganizationID, id, req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Summary handles GET /api/finance/summary?from=&to=
func (h *FinanceHandler) Summary(c *gin.Context) {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	summary, err := h.financeService.Summary(c.Request.Context(), userCtx.OrganizationID, from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
