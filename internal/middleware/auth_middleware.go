package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/pkg/jwt"
)

// UserContextKey is the gin context key of the authenticated user
const UserContextKey = "user_context"

// UserContext is the identity carried by a valid access token
type UserContext struct {
	UserID         string
	OrganizationID string
	Email          string
	Role           models.Role
}

// AuthMiddleware validates the bearer access token and stores the UserContext
func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Authorization header must be: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}
		token := strings.TrimSpace(parts[1])

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			if jwtService.IsTokenExpired(token) {
				abortWithError(c, http.StatusUnauthorized, "unauthorized", "Access token has expired", "TOKEN_EXPIRED")
				return
			}
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid access token", "INVALID_TOKEN")
			return
		}

		c.Set(UserContextKey, UserContext{
			UserID:         claims.UserID,
			OrganizationID: claims.OrganizationID,
			Email:          claims.Email,
			Role:           models.Role(claims.Role),
		})
		c.Next()
	}
}

// RequireRole lets the request through only when the user holds one of roles.
// Must run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "User context not found", "MISSING_USER_CONTEXT")
			return
		}

		for _, role := range roles {
			if userCtx.Role == role {
				c.Next()
				return
			}
		}

		abortWithError(c, http.StatusForbidden, "forbidden", "You do not have permission to access this resource", "INSUFFICIENT_PERMISSIONS")
	}
}

// GetUserContext returns the authenticated user stored by AuthMiddleware
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}
	userCtx, ok := value.(UserContext)
	if !ok {
		return UserContext{}, false
	}
	return userCtx, true
}

// MustGetUserContext is GetUserContext for routes behind AuthMiddleware. It panics without one.
func MustGetUserContext(c *gin.Context) UserContext {
	userCtx, exists := GetUserContext(c)
	if !exists {
		panic("user context not found; AuthMiddleware missing from route")
	}
	return userCtx
}

func abortWithError(c *gin.Context, status int, errKey, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      errKey,
		"message":    message,
		"code":       code,
		"request_id": GetRequestID(c),
	})
}
