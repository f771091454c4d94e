package services

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
)

// ClientService handles client profiles and their credit balance
type ClientService struct {
	db           *sqlx.DB
	clients      *database.ClientRepository
	users        *database.UserRepository
	reservations *database.ReservationRepository
	audit        *AuditService
	logger       *logrus.Logger
}

// NewClientService creates a new ClientService
func NewClientService(db *sqlx.DB, audit *AuditService, logger *logrus.Logger) *ClientService {
	return &ClientService{
		db:           db,
		clients:      database.NewClientRepository(db),
		users:        database.NewUserRepository(db),
		reservations: database.NewReservationRepository(db),
		audit:        audit,
		logger:       logger,
	}
}

// EnsureClient returns the client profile of a CLIENT login, creating it from the user on first use
func (s *ClientService) EnsureClient(ctx context.Context, orgID, userID string) (*models.Client, error) {
	client, err := s.clients.GetByUserID(ctx, orgID, userID)
	if err == nil {
		return client, nil
	}
	if !domain.IsNotFound(err) {
		return nil, err
	}

	user, err := s.users.GetInOrganization(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}

	client = models.NewClientFromUser(user)
	if err := s.clients.Create(ctx, client); err != nil {
		// lost the race against a concurrent first request
		if domain.IsConflict(err) {
			return s.clients.GetByUserID(ctx, orgID, userID)
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"client_id":       client.ID,
		"user_id":         userID,
	}).Info("Client profile created")
	return client, nil
}

// Dashboard returns the client profile with its reservations
func (s *ClientService) Dashboard(ctx context.Context, orgID, userID string) (*models.ClientDashboard, error) {
	client, err := s.EnsureClient(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}

	reservations, err := s.reservations.List(ctx, orgID, models.ReservationFilter{ClientID: &client.ID, Limit: 200})
	if err != nil {
		return nil, err
	}
	return &models.ClientDashboard{Client: client, Reservations: reservations}, nil
}

// List returns the clients of an organization
func (s *ClientService) List(ctx context.Context, orgID string) ([]*models.Client, error) {
	return s.clients.List(ctx, orgID)
}

// Get returns one client of the organization
func (s *ClientService) Get(ctx context.Context, orgID, id string) (*models.Client, error) {
	return s.clients.GetByID(ctx, orgID, id)
}

// AddCredits tops up a client's balance
func (s *ClientService) AddCredits(ctx context.Context, orgID, actorID, clientID string, req *models.AddCreditsRequest) (*models.Client, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var client *models.Client
	var previous decimal.Decimal
	err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		clients := s.clients.WithTx(tx)

		locked, err := clients.GetForUpdate(ctx, orgID, clientID)
		if err != nil {
			return err
		}
		previous = locked.SaldoCreditos

		balance, err := clients.AdjustCredits(ctx, locked.ID, req.Amount)
		if err != nil {
			return err
		}
		locked.SaldoCreditos = balance
		client = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, AuditEvent{
		OrganizationID: orgID,
		UserID:         actorID,
		Action:         AuditCreditsAdded,
		EntityType:     "client",
		EntityID:       client.ID,
		Details: map[string]interface{}{
			"amount":   req.Amount.StringFixed(2),
			"previous": previous.StringFixed(2),
			"balance":  client.SaldoCreditos.StringFixed(2),
			"reason":   req.Reason,
		},
	})

	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"client_id":       client.ID,
		"amount":          req.Amount.StringFixed(2),
	}).Info("Credits added")
	return client, nil
}
