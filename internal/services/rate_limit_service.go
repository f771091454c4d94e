package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smarttransit/backoffice-api/internal/database"
)

// RateLimitService throttles password guessing using the failed logins recorded in the audit log
type RateLimitService struct {
	repo   *database.AuditRepository
	config RateLimitConfig
	now    func() time.Time
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(repo *database.AuditRepository, config RateLimitConfig) *RateLimitService {
	return &RateLimitService{repo: repo, config: config, now: time.Now}
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxEmailAttempts int           // Max failed logins per email
	EmailWindow      time.Duration // Time window for the email limit
	MaxIPAttempts    int           // Max failed logins per IP
	IPWindow         time.Duration // Time window for the IP limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxEmailAttempts: 5,                // 5 failures
		EmailWindow:      15 * time.Minute, // per 15 minutes
		MaxIPAttempts:    20,               // 20 failures
		IPWindow:         1 * time.Hour,    // per hour
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "email" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckLoginRateLimit checks if an email or IP has exceeded the failed login limits
func (s *RateLimitService) CheckLoginRateLimit(ctx context.Context, email, ip string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if email != "" {
		count, last, err := s.repo.CountFailedLogins(ctx, email, "", s.now().Add(-s.config.EmailWindow))
		if err != nil {
			return fmt.Errorf("failed to check email rate limit: %w", err)
		}
		if count >= s.config.MaxEmailAttempts {
			retryAfter := last.Add(s.config.EmailWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many failed logins for this account. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "email",
			}
		}
	}

	if ip != "" {
		count, last, err := s.repo.CountFailedLogins(ctx, "", ip, s.now().Add(-s.config.IPWindow))
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}
		if count >= s.config.MaxIPAttempts {
			retryAfter := last.Add(s.config.IPWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many failed logins from this IP address. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}
