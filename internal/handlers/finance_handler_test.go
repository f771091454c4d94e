package handlers

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFinanceHandler(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	db, mock := setupHandlerDB(t)
	logger := quietLogger()
	h := NewFinanceHandler(services.NewFinanceService(database.NewTransactionRepository(db), logger), logger)

	r := newTestRouter(models.RoleFinance)
	r.GET("/api/finance/transactions", h.List)
	r.POST("/api/finance/transactions", h.Create)
	r.PATCH("/api/finance/transactions/:id/status", h.UpdateStatus)
	return r, mock
}

func TestListTransactionsPassesFilters(t *testing.T) {
	r, mock := setupFinanceHandler(t)
	mock.ExpectQuery(`SELECT (.+) FROM transactions WHERE organization_id = \$1 AND type = \$2 AND status = \$3`).
		WithArgs(testOrgID, "INCOME", "PENDING", 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := doJSON(r, http.MethodGet, "/api/finance/transactions?type=INCOME&status=PENDING&limit=20&offset=40", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"transactions":[]}`, w.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransactionsRejectsUnknownType(t *testing.T) {
	r, mock := setupFinanceHandler(t)

	w := doJSON(r, http.MethodGet, "/api/finance/transactions?type=TRANSFER", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransactionsRejectsBadDate(t *testing.T) {
	r, _ := setupFinanceHandler(t)

	w := doJSON(r, http.MethodGet, "/api/finance/transactions?from=yesterday", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
}

func TestCreateTransactionZeroAmount(t *testing.T) {
	r, mock := setupFinanceHandler(t)

	w := doJSON(r, http.MethodPost, "/api/finance/transactions", map[string]interface{}{
		"type":     "EXPENSE",
		"category": "combustivel",
		"amount":   "0",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTransactionStatusNotFound(t *testing.T) {
	r, mock := setupFinanceHandler(t)
	id := "7d4e1f2a-3b5c-4d6e-8f90-a1b2c3d4e5f6"
	mock.ExpectExec(`UPDATE transactions`).WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(r, http.MethodPatch, "/api/finance/transactions/"+id+"/status", map[string]string{"status": "PAID"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
