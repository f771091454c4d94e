package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages the accounts of an organization
type UserService struct {
	users      *database.UserRepository
	audit      *AuditService
	bcryptCost int
	logger     *logrus.Logger
}

// NewUserService creates a new UserService
func NewUserService(users *database.UserRepository, audit *AuditService, bcryptCost int, logger *logrus.Logger) *UserService {
	return &UserService{users: users, audit: audit, bcryptCost: bcryptCost, logger: logger}
}

// List returns the users of an organization
func (s *UserService) List(ctx context.Context, orgID string) ([]*models.User, error) {
	return s.users.List(ctx, orgID)
}

// Create registers an active user with a hashed password
func (s *UserService) Create(ctx context.Context, orgID, actorID string, req *models.CreateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		OrganizationID: orgID,
		Email:          req.Email,
		PasswordHash:   string(hash),
		FullName:       strings.TrimSpace(req.FullName),
		Phone:          req.Phone,
		Document:       req.Document,
		Role:           req.Role,
		Status:         models.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditEvent{
		OrganizationID: orgID,
		UserID:         actorID,
		Action:         AuditUserCreated,
		EntityType:     "user",
		EntityID:       user.ID,
		Details:        map[string]interface{}{"email": user.Email, "role": user.Role},
	})
	return user, nil
}

// Update changes name, phone, role, status or password of a user
func (s *UserService) Update(ctx context.Context, orgID, actorID, id string, req *models.UpdateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetInOrganization(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	changed := []string{}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
		changed = append(changed, "full_name")
	}
	if req.Phone != nil {
		user.Phone = req.Phone
		changed = append(changed, "phone")
	}
	if req.Role != nil {
		user.Role = *req.Role
		changed = append(changed, "role")
	}
	if req.Status != nil {
		user.Status = *req.Status
		changed = append(changed, "status")
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
		changed = append(changed, "password")
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditEvent{
		OrganizationID: orgID,
		UserID:         actorID,
		Action:         AuditUserUpdated,
		EntityType:     "user",
		EntityID:       user.ID,
		Details:        map[string]interface{}{"fields": changed},
	})
	return user, nil
}
