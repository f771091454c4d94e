package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/internal/utils"
)

var charterTransitions = map[models.CharterStatus][]models.CharterStatus{
	models.CharterStatusQuoted:    {models.CharterStatusConfirmed, models.CharterStatusCancelled},
	models.CharterStatusConfirmed: {models.CharterStatusCancelled},
}

// CharterService handles chartered trips
type CharterService struct {
	db       *sqlx.DB
	charters *database.CharterRepository
	clients  *database.ClientRepository
	ledger   *database.TransactionRepository
	logger   *logrus.Logger
}

// NewCharterService creates a new CharterService
func NewCharterService(db *sqlx.DB, logger *logrus.Logger) *CharterService {
	return &CharterService{
		db:       db,
		charters: database.NewCharterRepository(db),
		clients:  database.NewClientRepository(db),
		ledger:   database.NewTransactionRepository(db),
		logger:   logger,
	}
}

// Create records a charter quote
func (s *CharterService) Create(ctx context.Context, orgID string, req *models.CreateCharterRequest) (*models.Charter, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.ClientID != nil {
		if _, err := s.clients.GetByID(ctx, orgID, *req.ClientID); err != nil {
			return nil, err
		}
	}

	code, err := utils.UniqueCode(ctx, utils.CharterCode, s.charters.CodeExists)
	if err != nil {
		return nil, err
	}

	c := &models.Charter{
		OrganizationID: orgID,
		Code:           code,
		ClientID:       req.ClientID,
		ContactName:    strings.TrimSpace(req.ContactName),
		ContactPhone:   req.ContactPhone,
		Origin:         strings.TrimSpace(req.Origin),
		Destination:    strings.TrimSpace(req.Destination),
		DepartureDate:  req.DepartureDate,
		ReturnDate:     req.ReturnDate,
		Passengers:     req.Passengers,
		Price:          req.Price,
		Status:         models.CharterStatusQuoted,
	}
	if err := s.charters.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"charter_id":      c.ID,
		"code":            c.Code,
	}).Info("Charter quoted")
	return c, nil
}

// List returns the charters of an organization
func (s *CharterService) List(ctx context.Context, orgID string) ([]*models.Charter, error) {
	return s.charters.List(ctx, orgID)
}

// UpdateStatus confirms or cancels a charter. Confirmation books the income, due on departure.
func (s *CharterService) UpdateStatus(ctx context.Context, orgID, id string, status models.CharterStatus) (*models.Charter, error) {
	if !status.IsValid() {
		return nil, domain.Invalid("status", "unknown charter status")
	}

	var c *models.Charter
	err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		charters := s.charters.WithTx(tx)
		ledger := s.ledger.WithTx(tx)

		locked, err := charters.GetForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		c = locked
		if c.Status == status {
			return nil
		}
		if !allowed(charterTransitions[c.Status], status) {
			return domain.Conflict("charter", fmt.Sprintf("cannot move charter from %s to %s", c.Status, status))
		}

		c.Status = status
		if err := charters.UpdateStatus(ctx, c); err != nil {
			return err
		}

		switch status {
		case models.CharterStatusConfirmed:
			if !c.Price.IsPositive() {
				return nil
			}
			due := c.DepartureDate
			return ledger.Create(ctx, &models.Transaction{
				OrganizationID: orgID,
				Type:           models.TransactionTypeIncome,
				Category:       models.CategoryCharter,
				Description:    fmt.Sprintf("Charter %s %s - %s", c.Code, c.Origin, c.Destination),
				Amount:         c.Price,
				Status:         models.TransactionStatusPending,
				DueDate:        &due,
				CharterID:      &c.ID,
			})
		case models.CharterStatusCancelled:
			_, err := ledger.SetStatusByLink(ctx, database.LinkCharter, c.ID, models.TransactionStatusCancelled,
				models.TransactionStatusPending, models.TransactionStatusOverdue)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
