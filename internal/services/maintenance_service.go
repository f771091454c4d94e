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
)

var maintenanceTransitions = map[models.MaintenanceStatus][]models.MaintenanceStatus{
	models.MaintenanceStatusScheduled:  {models.MaintenanceStatusInProgress, models.MaintenanceStatusCompleted, models.MaintenanceStatusCancelled},
	models.MaintenanceStatusInProgress: {models.MaintenanceStatusCompleted, models.MaintenanceStatusCancelled},
}

// MaintenanceService handles vehicle maintenance jobs and their expense entries
type MaintenanceService struct {
	db          *sqlx.DB
	maintenance *database.MaintenanceRepository
	fleet       *database.FleetRepository
	ledger      *database.TransactionRepository
	logger      *logrus.Logger
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(db *sqlx.DB, logger *logrus.Logger) *MaintenanceService {
	return &MaintenanceService{
		db:          db,
		maintenance: database.NewMaintenanceRepository(db),
		fleet:       database.NewFleetRepository(db),
		ledger:      database.NewTransactionRepository(db),
		logger:      logger,
	}
}

// Create schedules a job. A positive cost opens a PENDING expense linked to it.
func (s *MaintenanceService) Create(ctx context.Context, orgID string, req *models.CreateMaintenanceRequest) (*models.Maintenance, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m := &models.Maintenance{
		OrganizationID: orgID,
		VehicleID:      req.VehicleID,
		Description:    strings.TrimSpace(req.Description),
		Cost:           req.Cost,
		Status:         models.MaintenanceStatusScheduled,
		ScheduledDate:  req.ScheduledDate,
	}

	err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := s.fleet.WithTx(tx).GetVehicle(ctx, orgID, req.VehicleID); err != nil {
			return err
		}
		if err := s.maintenance.WithTx(tx).Create(ctx, m); err != nil {
			return err
		}
		if !m.Cost.IsPositive() {
			return nil
		}
		return s.ledger.WithTx(tx).Create(ctx, &models.Transaction{
			OrganizationID: orgID,
			Type:           models.TransactionTypeExpense,
			Category:       models.CategoryMaintenance,
			Description:    "Maintenance: " + m.Description,
			Amount:         m.Cost,
			Status:         models.TransactionStatusPending,
			DueDate:        m.ScheduledDate,
			MaintenanceID:  &m.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"maintenance_id":  m.ID,
		"vehicle_id":      m.VehicleID,
		"cost":            m.Cost.StringFixed(2),
	}).Info("Maintenance scheduled")
	return m, nil
}

// List returns the maintenance jobs of an organization
func (s *MaintenanceService) List(ctx context.Context, orgID string) ([]*models.Maintenance, error) {
	return s.maintenance.List(ctx, orgID)
}

// UpdateStatus moves a job forward. Completion pays the linked expense, cancellation cancels it,
// and the vehicle is held in MAINTENANCE while the job is in progress.
func (s *MaintenanceService) UpdateStatus(ctx context.Context, orgID, id string, status models.MaintenanceStatus) (*models.Maintenance, error) {
	if !status.IsValid() {
		return nil, domain.Invalid("status", "unknown maintenance status")
	}

	var m *models.Maintenance
	err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.maintenance.WithTx(tx)
		locked, err := repo.GetForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		m = locked
		if m.Status == status {
			return nil
		}
		if !allowed(maintenanceTransitions[m.Status], status) {
			return domain.Conflict("maintenance", fmt.Sprintf("cannot move maintenance from %s to %s", m.Status, status))
		}

		m.Status = status
		if err := repo.UpdateStatus(ctx, m); err != nil {
			return err
		}

		ledger := s.ledger.WithTx(tx)
		fleet := s.fleet.WithTx(tx)
		switch status {
		case models.MaintenanceStatusInProgress:
			return fleet.UpdateVehicleStatus(ctx, orgID, m.VehicleID, models.VehicleStatusMaintenance)
		case models.MaintenanceStatusCompleted:
			if _, err := ledger.SetStatusByLink(ctx, database.LinkMaintenance, m.ID, models.TransactionStatusPaid,
				models.TransactionStatusPending, models.TransactionStatusOverdue); err != nil {
				return err
			}
			return fleet.UpdateVehicleStatus(ctx, orgID, m.VehicleID, models.VehicleStatusActive)
		case models.MaintenanceStatusCancelled:
			if _, err := ledger.SetStatusByLink(ctx, database.LinkMaintenance, m.ID, models.TransactionStatusCancelled,
				models.TransactionStatusPending, models.TransactionStatusOverdue); err != nil {
				return err
			}
			return fleet.UpdateVehicleStatus(ctx, orgID, m.VehicleID, models.VehicleStatusActive)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func allowed[T comparable](next []T, to T) bool {
	for _, n := range next {
		if n == to {
			return true
		}
	}
	return false
}
