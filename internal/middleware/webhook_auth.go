package middleware

import (
	"bytes"
	"context"
	"crypto/subtle"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/config"
	"github.com/smarttransit/backoffice-api/internal/utils"
)

const (
	SignatureHeader    = "X-Webhook-Signature"
	TimestampHeader    = "X-Webhook-Timestamp"
	SharedSecretHeader = "X-Webhook-Secret"

	// WebhookBodyKey holds the raw verified body for handlers that store it
	WebhookBodyKey = "webhook_body"

	maxWebhookBody = 1 << 20
)

// WebhookAuditor records webhook deliveries
type WebhookAuditor interface {
	LogWebhook(ctx context.Context, endpoint, ipAddress, userAgent string, accepted bool, reason string)
}

// WebhookAuth verifies payment gateway callbacks. The HMAC signature over
// "<timestamp>.<body>" is required; the legacy shared secret header is honoured
// only when cfg.AllowSharedSecret is set.
func WebhookAuth(cfg config.WebhookConfig, audit WebhookAuditor, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil || len(body) > maxWebhookBody {
			abortWithError(c, http.StatusRequestEntityTooLarge, "invalid_request", "Webhook body is too large or unreadable", "INVALID_BODY")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		reason := verifyWebhook(c, cfg, body, time.Now())
		if reason != "" {
			logger.WithFields(logrus.Fields{
				"path":       c.Request.URL.Path,
				"ip":         utils.GetRealIP(c),
				"reason":     reason,
				"request_id": GetRequestID(c),
			}).Warn("Webhook rejected")
			audit.LogWebhook(c.Request.Context(), c.Request.URL.Path, utils.GetRealIP(c), utils.GetUserAgent(c), false, reason)
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid webhook credentials", "INVALID_WEBHOOK_SIGNATURE")
			return
		}

		audit.LogWebhook(c.Request.Context(), c.Request.URL.Path, utils.GetRealIP(c), utils.GetUserAgent(c), true, "")
		c.Set(WebhookBodyKey, body)
		c.Next()
	}
}

// verifyWebhook returns why the request fails authentication, or "" when it passes
func verifyWebhook(c *gin.Context, cfg config.WebhookConfig, body []byte, now time.Time) string {
	signature := c.GetHeader(SignatureHeader)
	if signature == "" {
		if cfg.AllowSharedSecret {
			if shared := c.GetHeader(SharedSecretHeader); shared != "" {
				if subtle.ConstantTimeCompare([]byte(shared), []byte(cfg.Secret)) == 1 {
					return ""
				}
				return "shared secret mismatch"
			}
		}
		return "missing signature"
	}

	ts, err := strconv.ParseInt(c.GetHeader(TimestampHeader), 10, 64)
	if err != nil {
		return "missing or malformed timestamp"
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew < -cfg.Tolerance || skew > cfg.Tolerance {
		return "timestamp outside tolerance"
	}

	if !utils.VerifyWebhookSignature(cfg.Secret, ts, body, signature) {
		return "signature mismatch"
	}
	return ""
}
