package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = domain.UnauthorizedError{Msg: "invalid email or password"}

// AuthService handles staff and client authentication
type AuthService struct {
	users      *database.UserRepository
	jwtService *jwt.Service
	rateLimit  *RateLimitService
	audit      *AuditService
	logger     *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users *database.UserRepository,
	jwtService *jwt.Service,
	rateLimit *RateLimitService,
	audit *AuditService,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		rateLimit:  rateLimit,
		audit:      audit,
		logger:     logger,
	}
}

// Login authenticates a user by email and password and issues a token pair
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest, ipAddress, userAgent string) (*models.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, domain.Invalid("email", "email and password are required")
	}

	if err := s.rateLimit.CheckLoginRateLimit(ctx, email, ipAddress); err != nil {
		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			s.audit.LogRateLimitViolation(ctx, email, ipAddress, userAgent, rlErr)
		}
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			s.audit.LogLogin(ctx, nil, email, ipAddress, userAgent, false, "unknown email")
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.audit.LogLogin(ctx, user, email, ipAddress, userAgent, false, "wrong password")
		return nil, errInvalidCredentials
	}

	if !user.IsActive() {
		s.audit.LogLogin(ctx, user, email, ipAddress, userAgent, false, "account inactive")
		return nil, domain.ForbiddenError{Msg: "account is inactive"}
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}
	s.audit.LogLogin(ctx, user, email, ipAddress, userAgent, true, "")

	s.logger.WithFields(logrus.Fields{
		"user_id":         user.ID,
		"organization_id": user.OrganizationID,
		"role":            user.Role,
	}).Info("User logged in")
	return resp, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ipAddress, userAgent string) (*models.TokenResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.UnauthorizedError{Msg: "invalid refresh token"}
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.UnauthorizedError{Msg: "user no longer exists"}
		}
		return nil, err
	}
	if user.OrganizationID != claims.OrganizationID {
		return nil, domain.UnauthorizedError{Msg: "invalid refresh token"}
	}
	if !user.IsActive() {
		return nil, domain.ForbiddenError{Msg: "account is inactive"}
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditEvent{
		OrganizationID: user.OrganizationID,
		UserID:         user.ID,
		Action:         AuditTokenRefresh,
		EntityType:     "user",
		EntityID:       user.ID,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
	})
	return resp, nil
}

// Me returns the profile of the authenticated user
func (s *AuthService) Me(ctx context.Context, orgID, userID string) (*models.User, error) {
	return s.users.GetInOrganization(ctx, orgID, userID)
}

func (s *AuthService) issue(user *models.User) (*models.TokenResponse, error) {
	id := jwt.Identity{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Email:          user.Email,
		Role:           string(user.Role),
	}

	accessToken, err := s.jwtService.GenerateAccessToken(id)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(id)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		TokenType:    "Bearer",
		User:         user,
	}, nil
}
