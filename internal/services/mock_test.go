package services

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var tripCols = []string{
	"id", "organization_id", "route_id", "vehicle_id", "driver_id", "departure_time", "arrival_time",
	"status", "total_seats", "seats_available", "price_conventional", "price_executive", "price_sleeper",
	"created_at", "updated_at",
}

var reservationCols = []string{
	"id", "organization_id", "trip_id", "seat_id", "seat_number", "client_id", "checkout_id",
	"passenger_name", "passenger_document", "passenger_phone", "passenger_email", "status", "ticket_code",
	"price", "amount_paid", "payment_method", "external_payment_id", "credits_used", "is_partial", "notes",
	"created_by", "created_at", "updated_at",
}

var clientCols = []string{
	"id", "organization_id", "user_id", "name", "email", "phone", "document", "saldo_creditos",
	"created_at", "updated_at",
}

func setupServiceTest(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func strPtr(s string) *string { return &s }

func tripRow(status string, total, available int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(tripCols).AddRow(
		"trip-1", "org-1", nil, nil, nil, now.Add(48*time.Hour), nil,
		status, total, available, "100.00", "150.00", "200.00", now, now,
	)
}

func clientRow(saldo string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(clientCols).AddRow(
		"client-1", "org-1", "user-1", "Joana Lima", "joana@example.com", nil, nil, saldo, now, now,
	)
}

// reservationRow builds one reservation row on trip-1 with seat 12
func reservationRow(id, status, price, amountPaid string, externalID interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(reservationCols).AddRow(
		id, "org-1", "trip-1", nil, "12", "client-1", "checkout-1",
		"Joana Lima", nil, nil, nil, status, "T-ABC123",
		price, amountPaid, nil, externalID, "0", false, nil,
		nil, now, now,
	)
}

func insertedRow(id string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now)
}
