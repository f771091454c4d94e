package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/internal/utils"
)

// Audit actions
const (
	AuditLoginSuccess    = "login_success"
	AuditLoginFailed     = "login_failed"
	AuditRateLimited     = "rate_limit_violation"
	AuditTokenRefresh    = "token_refresh"
	AuditCreditsAdded    = "credits_added"
	AuditUserCreated     = "user_created"
	AuditUserUpdated     = "user_updated"
	AuditWebhookReceived = "webhook_received"
	AuditWebhookRejected = "webhook_rejected"
	AuditSeatsReconciled = "seats_reconciled"
)

// AuditService handles audit logging for security events
type AuditService struct {
	repo   *database.AuditRepository
	logger *logrus.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo *database.AuditRepository, logger *logrus.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// AuditEvent represents a security event to be logged
type AuditEvent struct {
	OrganizationID string                 // empty for events before authentication
	UserID         string                 // empty for events before authentication
	Action         string                 // one of the Audit* actions
	EntityType     string                 // e.g. "user", "client", "reservation"
	EntityID       string                 // id of the affected entity
	IPAddress      string                 // client IP address
	UserAgent      string                 // client user agent
	Details        map[string]interface{} // stored as JSONB
}

// LogLogin logs a login attempt. Failed attempts feed the login rate limit.
func (s *AuditService) LogLogin(ctx context.Context, user *models.User, email, ipAddress, userAgent string, success bool, reason string) {
	details := map[string]interface{}{
		"email":       email,
		"success":     success,
		"device_info": utils.ParseUserAgent(userAgent),
	}
	if reason != "" {
		details["reason"] = reason
	}

	event := AuditEvent{
		Action:     AuditLoginFailed,
		EntityType: "user",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	}
	if success {
		event.Action = AuditLoginSuccess
	}
	if user != nil {
		event.OrganizationID = user.OrganizationID
		event.UserID = user.ID
		event.EntityID = user.ID
	}
	s.Log(ctx, event)
}

// LogRateLimitViolation logs a login blocked by the rate limit
func (s *AuditService) LogRateLimitViolation(ctx context.Context, email, ipAddress, userAgent string, rlErr *RateLimitError) {
	s.Log(ctx, AuditEvent{
		Action:     AuditRateLimited,
		EntityType: "rate_limit",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"email":       email,
			"limit_type":  rlErr.Type,
			"retry_after": rlErr.RetryAfter,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogWebhook logs a webhook delivery, accepted or not
func (s *AuditService) LogWebhook(ctx context.Context, endpoint, ipAddress, userAgent string, accepted bool, reason string) {
	action := AuditWebhookReceived
	if !accepted {
		action = AuditWebhookRejected
	}
	details := map[string]interface{}{
		"endpoint":    endpoint,
		"device_info": utils.ParseUserAgent(userAgent),
	}
	if reason != "" {
		details["reason"] = reason
	}
	s.Log(ctx, AuditEvent{
		Action:     action,
		EntityType: "webhook",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// Log writes one event. Audit failures are logged and never fail the request.
func (s *AuditService) Log(ctx context.Context, event AuditEvent) {
	if err := s.logEvent(ctx, event); err != nil {
		s.logger.WithError(err).WithField("action", event.Action).Error("Failed to write audit log")
	}
}

func (s *AuditService) logEvent(ctx context.Context, event AuditEvent) error {
	entry := &models.AuditLog{
		OrganizationID: optional(event.OrganizationID),
		UserID:         optional(event.UserID),
		Action:         event.Action,
		EntityType:     optional(event.EntityType),
		EntityID:       optional(event.EntityID),
		IPAddress:      optional(event.IPAddress),
		UserAgent:      optional(event.UserAgent),
	}
	if len(event.Details) > 0 {
		details, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		entry.Details = details
	}
	return s.repo.Insert(ctx, entry)
}

// GetRecentEvents retrieves the latest audit events of an organization
func (s *AuditService) GetRecentEvents(ctx context.Context, orgID string, limit int) ([]*models.AuditLog, error) {
	return s.repo.ListRecent(ctx, orgID, limit)
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, time.Now().Add(-olderThan))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
