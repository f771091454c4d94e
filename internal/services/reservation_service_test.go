package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/pkg/cache"
	"github.com/smarttransit/backoffice-api/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReservationTest(t *testing.T) (*ReservationService, sqlmock.Sqlmock, *events.Recorder) {
	db, mock := setupServiceTest(t)
	logger := quietLogger()
	recorder := &events.Recorder{}
	availability := NewAvailabilityService(database.NewTripRepository(db), cache.NewMemory(), time.Minute, logger)
	return NewReservationService(db, availability, recorder, logger), mock, recorder
}

func statusPtr(s models.ReservationStatus) *models.ReservationStatus { return &s }

func TestCreateReservation_DefaultsToConfirmed(t *testing.T) {
	service, mock, recorder := setupReservationTest(t)

	req := &models.CreateReservationRequest{
		TripID:     "trip-1",
		AmountPaid: decimal.RequireFromString("100"),
		PassengerInput: models.PassengerInput{
			SeatNumber:    strPtr("3"),
			Price:         decimal.RequireFromString("100"),
			PassengerName: "Carlos Dias",
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips (.+) FOR UPDATE`).WillReturnRows(tripRow("SCHEDULED", 40, 10))
	mock.ExpectQuery(`SELECT EXISTS (.+) seat_number = (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reservations WHERE ticket_code`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO reservations`).WillReturnRows(insertedRow("res-1"))
	mock.ExpectExec(`UPDATE trips SET seats_available`).
		WithArgs(-1, "trip-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WithArgs("org-1", models.TransactionTypeIncome, models.CategoryTicketSale, sqlmock.AnyArg(), "100",
			models.TransactionStatusPaid, sqlmock.AnyArg(), nil, sqlmock.AnyArg(),
			"res-1", nil, nil, nil, nil).
		WillReturnRows(insertedRow("tx-1"))
	mock.ExpectCommit()

	res, err := service.Create(context.Background(), "org-1", "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, res.Status)
	assert.Equal(t, []string{events.ReservationCreated}, recorder.Keys())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservation_FullTrip(t *testing.T) {
	service, mock, _ := setupReservationTest(t)

	req := &models.CreateReservationRequest{
		TripID:         "trip-1",
		PassengerInput: models.PassengerInput{PassengerName: "Carlos Dias"},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips (.+) FOR UPDATE`).WillReturnRows(tripRow("SCHEDULED", 40, 0))
	mock.ExpectRollback()

	_, err := service.Create(context.Background(), "org-1", "user-1", req)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservation_CancelReleasesSeat(t *testing.T) {
	service, mock, recorder := setupReservationTest(t)

	mock.ExpectQuery(`FROM reservations WHERE id = \$1 AND organization_id = \$2$`).
		WithArgs("res-1", "org-1").
		WillReturnRows(reservationRow("res-1", "CONFIRMED", "100", "0", nil))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips (.+) FOR UPDATE`).WillReturnRows(tripRow("SCHEDULED", 40, 39))
	mock.ExpectQuery(`FROM reservations (.+) FOR UPDATE`).
		WillReturnRows(reservationRow("res-1", "CONFIRMED", "100", "0", nil))
	mock.ExpectQuery(`UPDATE reservations SET`).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec(`UPDATE trips SET seats_available`).
		WithArgs(1, "trip-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE transactions (.+) WHERE reservation_id = \$2 AND status IN \(\$3, \$4\)`).
		WithArgs(models.TransactionStatusCancelled, "res-1", models.TransactionStatusPending, models.TransactionStatusOverdue).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := service.Update(context.Background(), "org-1", "res-1", &models.UpdateReservationRequest{
		Status: statusPtr(models.ReservationStatusCancelled),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, res.Status)
	assert.Equal(t, []string{events.ReservationCancelled}, recorder.Keys())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservation_ReactivateTakenSeat(t *testing.T) {
	service, mock, _ := setupReservationTest(t)

	mock.ExpectQuery(`FROM reservations WHERE id = \$1 AND organization_id = \$2$`).
		WillReturnRows(reservationRow("res-1", "CANCELLED", "100", "0", nil))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips (.+) FOR UPDATE`).WillReturnRows(tripRow("SCHEDULED", 40, 5))
	mock.ExpectQuery(`FROM reservations (.+) FOR UPDATE`).
		WillReturnRows(reservationRow("res-1", "CANCELLED", "100", "0", nil))
	mock.ExpectQuery(`SELECT EXISTS (.+) seat_number = (.+)`).
		WithArgs("org-1", "trip-1", "12", "res-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := service.Update(context.Background(), "org-1", "res-1", &models.UpdateReservationRequest{
		Status: statusPtr(models.ReservationStatusConfirmed),
	})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.Contains(t, err.Error(), "seat 12 is already reserved")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservation_UsedIsTerminal(t *testing.T) {
	service, mock, _ := setupReservationTest(t)

	mock.ExpectQuery(`FROM reservations WHERE id = \$1 AND organization_id = \$2$`).
		WillReturnRows(reservationRow("res-1", "USED", "100", "100", nil))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips (.+) FOR UPDATE`).WillReturnRows(tripRow("COMPLETED", 40, 0))
	mock.ExpectQuery(`FROM reservations (.+) FOR UPDATE`).
		WillReturnRows(reservationRow("res-1", "USED", "100", "100", nil))
	mock.ExpectRollback()

	_, err := service.Update(context.Background(), "org-1", "res-1", &models.UpdateReservationRequest{
		Status: statusPtr(models.ReservationStatusPending),
	})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.Contains(t, err.Error(), "cannot move reservation from USED to PENDING")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservation_CancelThenReconfirmRestoresCounter(t *testing.T) {
	service, mock, recorder := setupReservationTest(t)
	ctx := context.Background()
	available := 39

	// cancel: 39 -> 40
	mock.ExpectQuery(`FROM reservations WHERE id = \$1 AND organization_id = \$2$`).
		WillReturnRows(reservationRow("res-1", "CONFIRMED", "100", "100", nil))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips (.+) FOR UPDATE`).WillReturnRows(tripRow("SCHEDULED", 40, available))
	mock.ExpectQuery(`FROM reservations (.+) FOR UPDATE`).
		WillReturnRows(reservationRow("res-1", "CONFIRMED", "100", "100", nil))
	mock.ExpectQuery(`UPDATE reservations SET`).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec(`UPDATE trips SET seats_available = LEAST\(seats_available \+ \$1, total_seats\)`).
		WithArgs(1, "trip-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE transactions`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res, err := service.Update(ctx, "org-1", "res-1", &models.UpdateReservationRequest{
		Status: statusPtr(models.ReservationStatusCancelled),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, res.Status)
	available += models.SeatDelta(models.ReservationStatusConfirmed, models.ReservationStatusCancelled)
	assert.Equal(t, 40, available)

	// re-confirm: 40 -> 39
	mock.ExpectQuery(`FROM reservations WHERE id = \$1 AND organization_id = \$2$`).
		WillReturnRows(reservationRow("res-1", "CANCELLED", "100", "100", nil))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips (.+) FOR UPDATE`).WillReturnRows(tripRow("SCHEDULED", 40, available))
	mock.ExpectQuery(`FROM reservations (.+) FOR UPDATE`).
		WillReturnRows(reservationRow("res-1", "CANCELLED", "100", "100", nil))
	mock.ExpectQuery(`SELECT EXISTS (.+) seat_number = (.+)`).
		WithArgs("org-1", "trip-1", "12", "res-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`UPDATE reservations SET`).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec(`UPDATE trips SET seats_available = seats_available \+ \$1`).
		WithArgs(-1, "trip-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err = service.Update(ctx, "org-1", "res-1", &models.UpdateReservationRequest{
		Status: statusPtr(models.ReservationStatusConfirmed),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, res.Status)
	available += models.SeatDelta(models.ReservationStatusCancelled, models.ReservationStatusConfirmed)
	assert.Equal(t, 39, available)

	assert.Equal(t, []string{events.ReservationCancelled, events.ReservationConfirmed}, recorder.Keys())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservation_CancelOnDriftedFullCounter(t *testing.T) {
	service, mock, _ := setupReservationTest(t)

	mock.ExpectQuery(`FROM reservations WHERE id = \$1 AND organization_id = \$2$`).
		WillReturnRows(reservationRow("res-1", "PENDING", "100", "0", nil))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips (.+) FOR UPDATE`).WillReturnRows(tripRow("SCHEDULED", 40, 40))
	mock.ExpectQuery(`FROM reservations (.+) FOR UPDATE`).
		WillReturnRows(reservationRow("res-1", "PENDING", "100", "0", nil))
	mock.ExpectQuery(`UPDATE reservations SET`).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec(`UPDATE trips SET seats_available = LEAST\(seats_available \+ \$1, total_seats\)`).
		WithArgs(1, "trip-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE transactions`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := service.Update(context.Background(), "org-1", "res-1", &models.UpdateReservationRequest{
		Status: statusPtr(models.ReservationStatusCancelled),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, res.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
