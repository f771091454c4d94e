package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/middleware"
	"github.com/smarttransit/backoffice-api/internal/services"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AdminHandler handles admin-related HTTP requests
type AdminHandler struct {
	cronService  *services.CronService
	auditService *services.AuditService
	logger       *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(cronService *services.CronService, auditService *services.AuditService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{cronService: cronService, auditService: auditService, logger: logger}
}

// ReconcileSeats handles POST /api/admin/cron/reconcile-seats
func (h *AdminHandler) ReconcileSeats(c *gin.Context) {
	start := time.Now()
	drifts, err := h.cronService.RunReconcileNow(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"corrected":   len(drifts),
		"trips":       drifts,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// MarkOverdue handles POST /api/admin/cron/mark-overdue
func (h *AdminHandler) MarkOverdue(c *gin.Context) {
	n, err := h.cronService.RunMarkOverdueNow(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked_overdue": n})
}

// JobStatus handles GET /api/admin/cron/status
func (h *AdminHandler) JobStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.cronService.GetJobStatus())
}

// AuditLogs handles GET /api/admin/audit-logs?limit=
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultAuditLimit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if limit == 0 || limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	userCtx := middleware.MustGetUserContext(c)
	events, err := h.auditService.GetRecentEvents(c.Request.Context(), userCtx.OrganizationID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": events})
}
