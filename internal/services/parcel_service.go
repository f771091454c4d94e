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

var parcelTransitions = map[models.ParcelStatus][]models.ParcelStatus{
	models.ParcelStatusReceived:  {models.ParcelStatusInTransit, models.ParcelStatusDelivered, models.ParcelStatusCancelled},
	models.ParcelStatusInTransit: {models.ParcelStatusDelivered, models.ParcelStatusReturned},
}

// ParcelService handles parcel shipments and their freight income
type ParcelService struct {
	db      *sqlx.DB
	parcels *database.ParcelRepository
	trips   *database.TripRepository
	ledger  *database.TransactionRepository
	logger  *logrus.Logger
}

// NewParcelService creates a new ParcelService
func NewParcelService(db *sqlx.DB, logger *logrus.Logger) *ParcelService {
	return &ParcelService{
		db:      db,
		parcels: database.NewParcelRepository(db),
		trips:   database.NewTripRepository(db),
		ledger:  database.NewTransactionRepository(db),
		logger:  logger,
	}
}

// Create registers a parcel with a fresh tracking code and a PENDING income entry
func (s *ParcelService) Create(ctx context.Context, orgID string, req *models.CreateParcelRequest) (*models.Parcel, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &models.Parcel{
		OrganizationID: orgID,
		TripID:         req.TripID,
		SenderName:     strings.TrimSpace(req.SenderName),
		SenderPhone:    req.SenderPhone,
		RecipientName:  strings.TrimSpace(req.RecipientName),
		RecipientPhone: req.RecipientPhone,
		Description:    req.Description,
		WeightKg:       req.WeightKg,
		Price:          req.Price,
		Status:         models.ParcelStatusReceived,
	}

	err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		parcels := s.parcels.WithTx(tx)
		if p.TripID != nil {
			if _, err := s.trips.WithTx(tx).GetByID(ctx, orgID, *p.TripID); err != nil {
				return err
			}
		}

		code, err := utils.UniqueCode(ctx, utils.ParcelCode, parcels.TrackingCodeExists)
		if err != nil {
			return err
		}
		p.TrackingCode = code

		if err := parcels.Create(ctx, p); err != nil {
			return err
		}
		if !p.Price.IsPositive() {
			return nil
		}
		return s.ledger.WithTx(tx).Create(ctx, &models.Transaction{
			OrganizationID: orgID,
			Type:           models.TransactionTypeIncome,
			Category:       models.CategoryParcel,
			Description:    "Parcel " + p.TrackingCode,
			Amount:         p.Price,
			Status:         models.TransactionStatusPending,
			ParcelID:       &p.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"organization_id": orgID,
		"parcel_id":       p.ID,
		"tracking_code":   p.TrackingCode,
	}).Info("Parcel registered")
	return p, nil
}

// List returns the parcels of an organization
func (s *ParcelService) List(ctx context.Context, orgID string) ([]*models.Parcel, error) {
	return s.parcels.List(ctx, orgID)
}

// Track returns the public tracking view of a parcel
func (s *ParcelService) Track(ctx context.Context, code string) (*models.ParcelTracking, error) {
	return s.parcels.Track(ctx, code)
}

// UpdateStatus moves a parcel forward. Cancelling cancels its open income entries.
func (s *ParcelService) UpdateStatus(ctx context.Context, orgID, id string, status models.ParcelStatus) (*models.Parcel, error) {
	if !status.IsValid() {
		return nil, domain.Invalid("status", "unknown parcel status")
	}

	var p *models.Parcel
	err := database.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		parcels := s.parcels.WithTx(tx)
		locked, err := parcels.GetForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		p = locked
		if p.Status == status {
			return nil
		}
		if !allowed(parcelTransitions[p.Status], status) {
			return domain.Conflict("parcel", fmt.Sprintf("cannot move parcel from %s to %s", p.Status, status))
		}

		p.Status = status
		if err := parcels.UpdateStatus(ctx, p); err != nil {
			return err
		}
		if status == models.ParcelStatusCancelled {
			_, err := s.ledger.WithTx(tx).SetStatusByLink(ctx, database.LinkParcel, p.ID, models.TransactionStatusCancelled,
				models.TransactionStatusPending, models.TransactionStatusOverdue)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
