package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
)

// MaintenanceStatus tracks a vehicle maintenance job
type MaintenanceStatus string

const (
	MaintenanceStatusScheduled  MaintenanceStatus = "SCHEDULED"
	MaintenanceStatusInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceStatusCompleted  MaintenanceStatus = "COMPLETED"
	MaintenanceStatusCancelled  MaintenanceStatus = "CANCELLED"
)

// IsValid checks whether the status is known
func (s MaintenanceStatus) IsValid() bool {
	switch s {
	case MaintenanceStatusScheduled, MaintenanceStatusInProgress,
		MaintenanceStatusCompleted, MaintenanceStatusCancelled:
		return true
	}
	return false
}

// Maintenance is a maintenance job on one vehicle
type Maintenance struct {
	ID             string            `json:"id" db:"id"`
	OrganizationID string            `json:"organization_id" db:"organization_id"`
	VehicleID      string            `json:"vehicle_id" db:"vehicle_id"`
	Description    string            `json:"description" db:"description"`
	Cost           decimal.Decimal   `json:"cost" db:"cost"`
	Status         MaintenanceStatus `json:"status" db:"status"`
	ScheduledDate  *time.Time        `json:"scheduled_date,omitempty" db:"scheduled_date"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// CreateMaintenanceRequest is the request body for POST /api/maintenance
type CreateMaintenanceRequest struct {
	VehicleID     string          `json:"vehicle_id" binding:"required"`
	Description   string          `json:"description" binding:"required"`
	Cost          decimal.Decimal `json:"cost"`
	ScheduledDate *time.Time      `json:"scheduled_date"`
}

// Validate checks the create maintenance request
func (r *CreateMaintenanceRequest) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return domain.Invalid("description", "is required")
	}
	if r.Cost.IsNegative() {
		return domain.Invalid("cost", "cannot be negative")
	}
	return nil
}

// UpdateMaintenanceStatusRequest is the request body for PATCH /api/maintenance/:id/status
type UpdateMaintenanceStatusRequest struct {
	Status MaintenanceStatus `json:"status" binding:"required"`
}
