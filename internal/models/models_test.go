package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func TestSplitPayment(t *testing.T) {
	tests := []struct {
		name          string
		total         string
		credits       string
		entryValue    string
		partial       bool
		wantEntry     string
		wantRemainder string
		wantErrField  string
	}{
		{name: "full payment", total: "300", credits: "0", entryValue: "0", wantEntry: "300", wantRemainder: "0"},
		{name: "credits reduce the entry", total: "300", credits: "120", entryValue: "0", wantEntry: "180", wantRemainder: "0"},
		{name: "partial leaves a remainder", total: "300", credits: "50", entryValue: "100", partial: true, wantEntry: "100", wantRemainder: "150"},
		{name: "credits cover everything", total: "300", credits: "300", entryValue: "0", wantEntry: "0", wantRemainder: "0"},
		{name: "credits above total", total: "300", credits: "300.01", entryValue: "0", wantErrField: "credits_used"},
		{name: "partial without entry", total: "300", credits: "0", entryValue: "0", partial: true, wantErrField: "entry_value"},
		{name: "entry above net", total: "300", credits: "100", entryValue: "250", partial: true, wantErrField: "entry_value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, remainder, err := SplitPayment(dec(tt.total), dec(tt.credits), dec(tt.entryValue), tt.partial)
			if tt.wantErrField != "" {
				var v domain.ValidationError
				require.ErrorAs(t, err, &v)
				assert.Equal(t, tt.wantErrField, v.Field)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.wantEntry).Equal(entry), "entry %s", entry)
			assert.True(t, dec(tt.wantRemainder).Equal(remainder), "remainder %s", remainder)
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(ReservationStatusPending, ReservationStatusConfirmed))
	assert.True(t, CanTransition(ReservationStatusConfirmed, ReservationStatusConfirmed))
	assert.True(t, CanTransition(ReservationStatusCancelled, ReservationStatusPending))
	assert.False(t, CanTransition(ReservationStatusUsed, ReservationStatusCancelled))
	assert.False(t, CanTransition(ReservationStatusPending, ReservationStatusUsed))
}

func TestSeatDelta(t *testing.T) {
	assert.Equal(t, 1, SeatDelta(ReservationStatusConfirmed, ReservationStatusCancelled))
	assert.Equal(t, -1, SeatDelta(ReservationStatusCancelled, ReservationStatusPending))
	assert.Equal(t, 0, SeatDelta(ReservationStatusPending, ReservationStatusConfirmed))
	assert.Equal(t, 0, SeatDelta(ReservationStatusCancelled, ReservationStatusCancelled))
}

func TestNewTripAvailability(t *testing.T) {
	trip := &Trip{ID: "trip-1", TotalSeats: 40, SeatsAvailable: 37}

	a := NewTripAvailability(trip, 4, nil)
	assert.Equal(t, 36, a.FreeSeats)
	assert.True(t, a.Drift)
	assert.NotNil(t, a.OccupiedSeats)

	overbooked := NewTripAvailability(trip, 45, []string{"1"})
	assert.Equal(t, 0, overbooked.FreeSeats)
}

func TestCheckoutRequestRejectsDuplicateSeat(t *testing.T) {
	req := &CheckoutRequest{
		TripID: "trip-1",
		Reservations: []PassengerInput{
			{PassengerName: "Ana", SeatNumber: strPtr("12"), Price: dec("100")},
			{PassengerName: "Bruno", SeatNumber: strPtr("12"), Price: dec("100")},
		},
	}

	assert.True(t, domain.IsConflict(req.Validate()))
}

func TestCheckoutRequestTotal(t *testing.T) {
	req := &CheckoutRequest{
		Reservations: []PassengerInput{
			{PassengerName: "Ana", Price: dec("120.50")},
			{PassengerName: "Bruno", Price: dec("99.50")},
		},
	}
	assert.True(t, dec("220").Equal(req.Total()))
}

func TestPassengerPhoneNormalized(t *testing.T) {
	p := PassengerInput{PassengerName: "Ana", PassengerPhone: strPtr("(11) 98765-4321")}
	require.NoError(t, p.Validate())
	assert.Equal(t, "+5511987654321", *p.PassengerPhone)

	blank := PassengerInput{PassengerName: "Ana", PassengerPhone: strPtr("  ")}
	require.NoError(t, blank.Validate())
	assert.Nil(t, blank.PassengerPhone)

	bad := PassengerInput{PassengerName: "Ana", PassengerPhone: strPtr("12345")}
	var v domain.ValidationError
	require.ErrorAs(t, bad.Validate(), &v)
	assert.Equal(t, "passenger_phone", v.Field)
}

func TestCreateUserRequestDocument(t *testing.T) {
	req := &CreateUserRequest{
		Email:    " Ana@Example.com ",
		Password: "s3nha-forte",
		FullName: "Ana Souza",
		Role:     RoleOperator,
		Document: strPtr("529.982.247-25"),
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, "ana@example.com", req.Email)
	assert.Equal(t, "52998224725", *req.Document)

	req.Document = strPtr("529.982.247-24")
	assert.True(t, domain.IsValidation(req.Validate()))
}

func TestNewFinanceSummary(t *testing.T) {
	s := NewFinanceSummary([]FinanceSummaryRow{
		{Type: TransactionTypeIncome, Status: TransactionStatusPaid, Count: 3, Total: dec("900")},
		{Type: TransactionTypeIncome, Status: TransactionStatusOverdue, Count: 1, Total: dec("150")},
		{Type: TransactionTypeIncome, Status: TransactionStatusCancelled, Count: 2, Total: dec("400")},
		{Type: TransactionTypeExpense, Status: TransactionStatusPaid, Count: 1, Total: dec("200")},
		{Type: TransactionTypeExpense, Status: TransactionStatusPending, Count: 1, Total: dec("80")},
	})

	assert.True(t, dec("900").Equal(s.IncomePaid))
	assert.True(t, dec("150").Equal(s.IncomePending))
	assert.True(t, dec("80").Equal(s.ExpensePending))
	assert.True(t, dec("700").Equal(s.Balance))
}
