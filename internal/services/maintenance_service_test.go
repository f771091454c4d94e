package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var maintenanceCols = []string{
	"id", "organization_id", "vehicle_id", "description", "cost", "status", "scheduled_date",
	"completed_at", "created_at", "updated_at",
}

func maintenanceRow(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(maintenanceCols).AddRow(
		"maint-1", "org-1", "vehicle-1", "Brake pads", "800.00", status, nil, nil, now, now,
	)
}

func vehicleRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "organization_id", "plate", "model", "capacity", "status", "created_at", "updated_at"}).
		AddRow("vehicle-1", "org-1", "ABC1D23", nil, 44, "ACTIVE", now, now)
}

func TestMaintenanceCreateBooksExpense(t *testing.T) {
	db, mock := setupServiceTest(t)
	service := NewMaintenanceService(db, quietLogger())
	scheduled := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM vehicles WHERE id = \$1 AND organization_id = \$2`).
		WithArgs("vehicle-1", "org-1").
		WillReturnRows(vehicleRow())
	mock.ExpectQuery(`INSERT INTO maintenances`).
		WithArgs("org-1", "vehicle-1", "Brake pads", "800", models.MaintenanceStatusScheduled, scheduled).
		WillReturnRows(insertedRow("maint-1"))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WithArgs("org-1", models.TransactionTypeExpense, models.CategoryMaintenance, "Maintenance: Brake pads", "800",
			models.TransactionStatusPending, nil, scheduled, nil, nil, nil, "maint-1", nil, nil).
		WillReturnRows(insertedRow("tx-1"))
	mock.ExpectCommit()

	m, err := service.Create(context.Background(), "org-1", &models.CreateMaintenanceRequest{
		VehicleID:     "vehicle-1",
		Description:   " Brake pads ",
		Cost:          decimal.NewFromInt(800),
		ScheduledDate: &scheduled,
	})
	require.NoError(t, err)
	assert.Equal(t, "maint-1", m.ID)
	assert.Equal(t, models.MaintenanceStatusScheduled, m.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceCreateWithoutCostSkipsLedger(t *testing.T) {
	db, mock := setupServiceTest(t)
	service := NewMaintenanceService(db, quietLogger())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM vehicles`).WillReturnRows(vehicleRow())
	mock.ExpectQuery(`INSERT INTO maintenances`).WillReturnRows(insertedRow("maint-1"))
	mock.ExpectCommit()

	_, err := service.Create(context.Background(), "org-1", &models.CreateMaintenanceRequest{
		VehicleID:   "vehicle-1",
		Description: "Inspection",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceCreateUnknownVehicle(t *testing.T) {
	db, mock := setupServiceTest(t)
	service := NewMaintenanceService(db, quietLogger())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM vehicles`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := service.Create(context.Background(), "org-1", &models.CreateMaintenanceRequest{
		VehicleID:   "missing",
		Description: "Inspection",
	})
	assert.True(t, domain.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceStartHoldsVehicle(t *testing.T) {
	db, mock := setupServiceTest(t)
	service := NewMaintenanceService(db, quietLogger())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM maintenances WHERE id = \$1 AND organization_id = \$2 FOR UPDATE`).
		WithArgs("maint-1", "org-1").
		WillReturnRows(maintenanceRow("SCHEDULED"))
	mock.ExpectQuery(`UPDATE maintenances`).
		WithArgs(models.MaintenanceStatusInProgress, "maint-1").
		WillReturnRows(sqlmock.NewRows([]string{"completed_at", "updated_at"}).AddRow(nil, time.Now()))
	mock.ExpectExec(`UPDATE vehicles SET status = \$1`).
		WithArgs(models.VehicleStatusMaintenance, "vehicle-1", "org-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, err := service.UpdateStatus(context.Background(), "org-1", "maint-1", models.MaintenanceStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceStatusInProgress, m.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceCompletePaysExpense(t *testing.T) {
	db, mock := setupServiceTest(t)
	service := NewMaintenanceService(db, quietLogger())
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM maintenances`).WillReturnRows(maintenanceRow("IN_PROGRESS"))
	mock.ExpectQuery(`UPDATE maintenances`).
		WillReturnRows(sqlmock.NewRows([]string{"completed_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`UPDATE transactions (.+) WHERE maintenance_id = \$2 AND status IN \(\$3, \$4\)`).
		WithArgs(models.TransactionStatusPaid, "maint-1", models.TransactionStatusPending, models.TransactionStatusOverdue).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE vehicles`).
		WithArgs(models.VehicleStatusActive, "vehicle-1", "org-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, err := service.UpdateStatus(context.Background(), "org-1", "maint-1", models.MaintenanceStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, m.CompletedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceCompletedIsTerminal(t *testing.T) {
	db, mock := setupServiceTest(t)
	service := NewMaintenanceService(db, quietLogger())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM maintenances`).WillReturnRows(maintenanceRow("COMPLETED"))
	mock.ExpectRollback()

	_, err := service.UpdateStatus(context.Background(), "org-1", "maint-1", models.MaintenanceStatusCancelled)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceUnknownStatus(t *testing.T) {
	db, mock := setupServiceTest(t)
	service := NewMaintenanceService(db, quietLogger())

	_, err := service.UpdateStatus(context.Background(), "org-1", "maint-1", models.MaintenanceStatus("DONE"))
	assert.True(t, domain.IsValidation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
