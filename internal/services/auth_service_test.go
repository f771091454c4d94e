package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/domain"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "s3nha-forte"

func setupAuthTest(t *testing.T) (*AuthService, *jwt.Service, sqlmock.Sqlmock, string) {
	db, mock := setupServiceTest(t)
	logger := quietLogger()
	jwtService := jwt.NewService("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	auditRepo := database.NewAuditRepository(db)
	service := NewAuthService(
		database.NewUserRepository(db),
		jwtService,
		NewRateLimitService(auditRepo, DefaultRateLimitConfig()),
		NewAuditService(auditRepo, logger),
		logger,
	)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return service, jwtService, mock, string(hash)
}

func expectNoFailedLogins(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT COUNT(.+) FROM audit_logs").
		WithArgs(sqlmock.AnyArg(), "joana@example.com", "").
		WillReturnRows(countRows(0, time.Now()))
	mock.ExpectQuery("SELECT COUNT(.+) FROM audit_logs").
		WithArgs(sqlmock.AnyArg(), "", "10.0.0.1").
		WillReturnRows(countRows(0, time.Now()))
}

func TestLoginSuccess(t *testing.T) {
	service, jwtService, mock, hash := setupAuthTest(t)

	expectNoFailedLogins(mock)
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("joana@example.com").
		WillReturnRows(userRow("OPERATOR", "active", hash))
	mock.ExpectExec(`UPDATE users SET last_login_at = NOW\(\)`).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs("org-1", "user-1", AuditLoginSuccess, "user", "user-1", "10.0.0.1", "Mozilla/5.0", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	resp, err := service.Login(context.Background(), &models.LoginRequest{
		Email:    "Joana@Example.com",
		Password: testPassword,
	}, "10.0.0.1", "Mozilla/5.0")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	claims, err := jwtService.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "org-1", claims.OrganizationID)
	assert.Equal(t, "OPERATOR", claims.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	service, _, mock, hash := setupAuthTest(t)

	expectNoFailedLogins(mock)
	mock.ExpectQuery(`SELECT (.+) FROM users`).WillReturnRows(userRow("OPERATOR", "active", hash))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs("org-1", "user-1", AuditLoginFailed, "user", "user-1", "10.0.0.1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := service.Login(context.Background(), &models.LoginRequest{
		Email:    "joana@example.com",
		Password: "wrong-password",
	}, "10.0.0.1", "")
	assert.True(t, domain.IsUnauthorized(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownEmail(t *testing.T) {
	service, _, mock, _ := setupAuthTest(t)

	expectNoFailedLogins(mock)
	mock.ExpectQuery(`SELECT (.+) FROM users`).WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(nil, nil, AuditLoginFailed, "user", nil, "10.0.0.1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := service.Login(context.Background(), &models.LoginRequest{
		Email:    "joana@example.com",
		Password: testPassword,
	}, "10.0.0.1", "")
	assert.True(t, domain.IsUnauthorized(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginInactiveAccount(t *testing.T) {
	service, _, mock, hash := setupAuthTest(t)

	expectNoFailedLogins(mock)
	mock.ExpectQuery(`SELECT (.+) FROM users`).WillReturnRows(userRow("OPERATOR", "inactive", hash))
	mock.ExpectExec(`INSERT INTO audit_logs`).WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := service.Login(context.Background(), &models.LoginRequest{
		Email:    "joana@example.com",
		Password: testPassword,
	}, "10.0.0.1", "")
	assert.True(t, domain.IsForbidden(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRateLimited(t *testing.T) {
	service, _, mock, _ := setupAuthTest(t)

	mock.ExpectQuery("SELECT COUNT(.+) FROM audit_logs").
		WillReturnRows(countRows(5, time.Now()))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(nil, nil, AuditRateLimited, "rate_limit", nil, "10.0.0.1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := service.Login(context.Background(), &models.LoginRequest{
		Email:    "joana@example.com",
		Password: testPassword,
	}, "10.0.0.1", "")
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "email", rlErr.Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshIssuesNewPair(t *testing.T) {
	service, jwtService, mock, hash := setupAuthTest(t)

	refresh, err := jwtService.GenerateRefreshToken(jwt.Identity{
		UserID: "user-1", OrganizationID: "org-1", Email: "joana@example.com", Role: "OPERATOR",
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(userRow("OPERATOR", "active", hash))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs("org-1", "user-1", AuditTokenRefresh, "user", "user-1", nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	resp, err := service.Refresh(context.Background(), refresh, "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	service, jwtService, mock, _ := setupAuthTest(t)

	access, err := jwtService.GenerateAccessToken(jwt.Identity{UserID: "user-1", OrganizationID: "org-1"})
	require.NoError(t, err)

	_, err = service.Refresh(context.Background(), access, "", "")
	assert.True(t, domain.IsUnauthorized(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
