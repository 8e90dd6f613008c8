package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
)

var tenantTestColumns = []string{
	"id", "name", "industry", "address", "business_hours", "whatsapp_number",
	"admin_email", "admin_password_hash", "flow_state", "plan", "is_active",
	"trial_ends_at", "paid_until", "chat_used", "chat_limit", "created_at",
	"updated_at",
}

func tenantRow(id uuid.UUID, passwordHash string, chatUsed, chatLimit int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(tenantTestColumns).AddRow(
		id, "Spice Villa", "restaurant", "12 MG Road, Pune", "10am-10pm", "919876543210",
		"owner@spicevilla.in", passwordHash, "start", "starter", true,
		nil, nil, chatUsed, chatLimit, now, now,
	)
}

func newAuthHandler(t *testing.T) (*AuthHandler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	h := NewAuthHandler(tenancy.NewRepository(mock), "test-admin-secret", time.Hour, nil)
	return h, mock
}

func TestLoginIssuesToken(t *testing.T) {
	h, mock := newAuthHandler(t)
	tenantID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT(.|\n)*FROM tenants WHERE admin_email").
		WithArgs("owner@spicevilla.in").
		WillReturnRows(tenantRow(tenantID, string(hash), 0, 100))

	body := `{"email": "  Owner@SpiceVilla.in ", "password": "s3cret-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
	assert.Contains(t, rec.Body.String(), tenantID.String())
	assert.Contains(t, rec.Body.String(), `"expires_in":3600`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h, mock := newAuthHandler(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT(.|\n)*FROM tenants WHERE admin_email").
		WithArgs("owner@spicevilla.in").
		WillReturnRows(tenantRow(uuid.New(), string(hash), 0, 100))

	body := `{"email": "owner@spicevilla.in", "password": "wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery("SELECT(.|\n)*FROM tenants WHERE admin_email").
		WithArgs("nobody@example.in").
		WillReturnRows(pgxmock.NewRows(tenantTestColumns))

	body := `{"email": "nobody@example.in", "password": "anything"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRejectsTenantWithoutDashboardAccess(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery("SELECT(.|\n)*FROM tenants WHERE admin_email").
		WithArgs("owner@spicevilla.in").
		WillReturnRows(tenantRow(uuid.New(), "", 0, 100))

	body := `{"email": "owner@spicevilla.in", "password": "anything"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginValidatesPayload(t *testing.T) {
	h, _ := newAuthHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"email": `},
		{name: "missing email", body: `{"password": "x"}`},
		{name: "missing password", body: `{"email": "a@b.in"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Login(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
