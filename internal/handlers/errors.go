package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/middleware"
	"github.com/smarttransit/backoffice-api/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// respondError maps domain errors to HTTP responses. Anything unrecognised is a 500
// whose cause is logged and never shown to the caller.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var (
		notFound     domain.NotFoundError
		conflict     domain.ConflictError
		insufficient domain.InsufficientBalanceError
		validation   domain.ValidationError
		unauthorized domain.UnauthorizedError
		forbidden    domain.ForbiddenError
		rateLimited  *services.RateLimitError
	)

	switch {
	case errors.As(err, &validation):
		writeError(c, http.StatusBadRequest, "validation_error", validation.Error(), "VALIDATION_ERROR")
	case errors.As(err, &notFound):
		writeError(c, http.StatusNotFound, "not_found", notFound.Error(), "NOT_FOUND")
	case errors.As(err, &insufficient):
		writeError(c, http.StatusUnprocessableEntity, "insufficient_balance", insufficient.Error(), "INSUFFICIENT_BALANCE")
	case errors.As(err, &conflict):
		writeError(c, http.StatusConflict, "conflict", conflict.Error(), "CONFLICT")
	case errors.As(err, &unauthorized):
		writeError(c, http.StatusUnauthorized, "unauthorized", unauthorized.Error(), "UNAUTHORIZED")
	case errors.As(err, &forbidden):
		writeError(c, http.StatusForbidden, "forbidden", forbidden.Error(), "FORBIDDEN")
	case errors.As(err, &rateLimited):
		retryAfter := int(time.Until(rateLimited.RetryAfter).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate_limit_exceeded",
			"message":     rateLimited.Message,
			"code":        "RATE_LIMITED",
			"retry_after": rateLimited.RetryAfter,
			"type":        rateLimited.Type,
			"request_id":  middleware.GetRequestID(c),
		})
	default:
		_ = c.Error(err)
		logger.WithError(err).WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": middleware.GetRequestID(c),
		}).Error("Processing failed")
		writeError(c, http.StatusInternalServerError, "internal_error", "Processing failed", "INTERNAL_ERROR")
	}
}

// badRequest answers a body that could not be bound
func badRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, "validation_error", message, "INVALID_REQUEST")
}

func writeError(c *gin.Context, status int, errKey, message, code string) {
	c.JSON(status, ErrorResponse{
		Error:     errKey,
		Message:   message,
		Code:      code,
		RequestID: middleware.GetRequestID(c),
	})
}

// parseTimeQuery reads an optional RFC 3339 or YYYY-MM-DD query parameter
func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, domain.Invalid(key, "must be RFC 3339 or YYYY-MM-DD")
}

// pathID reads a UUID path parameter, answering 400 when it is malformed
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		writeError(c, http.StatusBadRequest, "validation_error", name+" must be a valid id", "INVALID_ID")
		return "", false
	}
	return id, true
}

// queryInt reads an optional integer query parameter, falling back to def
func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.Invalid(key, "must be a non-negative integer")
	}
	return n, nil
}

func queryString(c *gin.Context, key string) *string {
	if v := c.Query(key); v != "" {
		return &v
	}
	return nil
}
