package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
)

// FinanceService exposes the ledger to finance staff
type FinanceService struct {
	ledger *database.TransactionRepository
	logger *logrus.Logger
}

// NewFinanceService creates a new FinanceService
func NewFinanceService(ledger *database.TransactionRepository, logger *logrus.Logger) *FinanceService {
	return &FinanceService{ledger: ledger, logger: logger}
}

// List returns ledger entries matching filter
func (s *FinanceService) List(ctx context.Context, orgID string, filter models.TransactionFilter) ([]*models.Transaction, error) {
	return s.ledger.List(ctx, orgID, filter)
}

// Create records a manual ledger entry. Status defaults to PENDING.
func (s *FinanceService) Create(ctx context.Context, orgID string, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t := &models.Transaction{
		OrganizationID: orgID,
		Type:           req.Type,
		Category:       strings.ToUpper(strings.TrimSpace(req.Category)),
		Description:    strings.TrimSpace(req.Description),
		Amount:         req.Amount,
		Status:         models.TransactionStatusPending,
		PaymentMethod:  req.PaymentMethod,
		DueDate:        req.DueDate,
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if t.Status == models.TransactionStatusPaid {
		now := time.Now()
		t.PaidAt = &now
	}

	if err := s.ledger.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateStatus settles, cancels or reopens one entry
func (s *FinanceService) UpdateStatus(ctx context.Context, orgID, id string, status models.TransactionStatus) (*models.Transaction, error) {
	if !status.IsValid() {
		return nil, domain.Invalid("status", "unknown transaction status")
	}
	if err := s.ledger.UpdateStatus(ctx, orgID, id, status); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"transaction_id":  id,
		"status":          status,
	}).Info("Transaction status changed")
	return s.ledger.GetByID(ctx, orgID, id)
}

// Summary aggregates the ledger between from and to
func (s *FinanceService) Summary(ctx context.Context, orgID string, from, to *time.Time) (*models.FinanceSummary, error) {
	rows, err := s.ledger.Summary(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}
	return models.NewFinanceSummary(rows), nil
}
