package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizflowhq/bizflow-platform/internal/bookings"
	"github.com/bizflowhq/bizflow-platform/internal/conversation"
	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
)

type stubTracker struct {
	first bool
	calls int
}

func (s *stubTracker) MarkProcessed(context.Context, string, string) (bool, error) {
	s.calls++
	return s.first, nil
}

var tenantTestColumns = []string{
	"id", "name", "industry", "address", "business_hours", "whatsapp_number",
	"admin_email", "admin_password_hash", "flow_state", "plan", "is_active",
	"trial_ends_at", "paid_until", "chat_used", "chat_limit", "created_at",
	"updated_at",
}

func tenantRow(id uuid.UUID, flowState string, active bool, chatUsed, chatLimit int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(tenantTestColumns).AddRow(
		id, "Spice Villa", "restaurant", "", "", "919876543210",
		"owner@spicevilla.in", "", flowState, "trial", active,
		nil, nil, chatUsed, chatLimit, now, now,
	)
}

func newTestHandler(t *testing.T, processed ProcessedTracker) (*WebhookHandler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	tenants := tenancy.NewRepository(mock)
	engine := conversation.NewEngine(conversation.EngineConfig{
		Tenants:  tenants,
		Bookings: bookings.NewRepository(mock),
	})
	handler := NewWebhookHandler(WebhookConfig{
		Tenants:   tenants,
		Engine:    engine,
		Processed: processed,
	})
	return handler, mock
}

func inboundRequest(body string) *http.Request {
	form := url.Values{
		"MessageSid": {"SM123"},
		"From":       {"whatsapp:+919876543210"},
		"Body":       {body},
	}
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHandleWhatsAppGreeting(t *testing.T) {
	handler, mock := newTestHandler(t, nil)
	tenantID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT(.|\n)*FOR UPDATE").
		WithArgs("919876543210").
		WillReturnRows(tenantRow(tenantID, "start", true, 0, 100))
	mock.ExpectExec("UPDATE tenants").
		WithArgs(tenantID, "menu", 0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	handler.HandleWhatsApp(rec, inboundRequest("hi"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Spice Villa")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWhatsAppUnknownTenant(t *testing.T) {
	handler, mock := newTestHandler(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT(.|\n)*FOR UPDATE").
		WithArgs("919876543210").
		WillReturnRows(pgxmock.NewRows(tenantTestColumns))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	handler.HandleWhatsApp(rec, inboundRequest("hi"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "not registered")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWhatsAppInactiveTenantGated(t *testing.T) {
	handler, mock := newTestHandler(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT(.|\n)*FOR UPDATE").
		WithArgs("919876543210").
		WillReturnRows(tenantRow(uuid.New(), "menu", false, 0, 100))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	handler.HandleWhatsApp(rec, inboundRequest("hi"))

	assert.Contains(t, rec.Body.String(), "inactive")
	// No state write may happen for a gated tenant.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWhatsAppOverLimitGated(t *testing.T) {
	handler, mock := newTestHandler(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT(.|\n)*FOR UPDATE").
		WithArgs("919876543210").
		WillReturnRows(tenantRow(uuid.New(), "menu", true, 100, 100))
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	handler.HandleWhatsApp(rec, inboundRequest("1"))

	assert.Contains(t, rec.Body.String(), "limit reached")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWhatsAppDuplicateDelivery(t *testing.T) {
	tracker := &stubTracker{first: false}
	handler, mock := newTestHandler(t, tracker)

	rec := httptest.NewRecorder()
	handler.HandleWhatsApp(rec, inboundRequest("hi"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Response></Response>")
	assert.Equal(t, 1, tracker.calls)
	// A replay never reaches the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWhatsAppRetriesOnceThenSucceeds(t *testing.T) {
	handler, mock := newTestHandler(t, nil)
	tenantID := uuid.New()

	// First cycle fails at Begin; the retry runs the full cycle.
	mock.ExpectBegin().WillReturnError(assert.AnError)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT(.|\n)*FOR UPDATE").
		WithArgs("919876543210").
		WillReturnRows(tenantRow(tenantID, "start", true, 0, 100))
	mock.ExpectExec("UPDATE tenants").
		WithArgs(tenantID, "menu", 0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	rec := httptest.NewRecorder()
	handler.HandleWhatsApp(rec, inboundRequest("hi"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Spice Villa")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWhatsAppPersistentFailureRepliesGenerically(t *testing.T) {
	handler, mock := newTestHandler(t, nil)

	mock.ExpectBegin().WillReturnError(assert.AnError)
	mock.ExpectBegin().WillReturnError(assert.AnError)

	rec := httptest.NewRecorder()
	handler.HandleWhatsApp(rec, inboundRequest("hi"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleWhatsAppRejectsBadSignature(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	tenants := tenancy.NewRepository(mock)
	handler := NewWebhookHandler(WebhookConfig{
		Tenants: tenants,
		Engine: conversation.NewEngine(conversation.EngineConfig{
			Tenants:  tenants,
			Bookings: bookings.NewRepository(mock),
		}),
		AuthToken:  "token",
		WebhookURL: "https://example.com/webhook/whatsapp",
	})

	rec := httptest.NewRecorder()
	handler.HandleWhatsApp(rec, inboundRequest("hi"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck(t *testing.T) {
	handler, _ := newTestHandler(t, nil)
	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
