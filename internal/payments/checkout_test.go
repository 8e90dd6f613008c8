package payments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
)

func newCheckoutHandler(t *testing.T, gatewayURL string) (*CheckoutHandler, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	client, err := NewRazorpayClient(RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "secret",
		BaseURL:   gatewayURL,
	})
	require.NoError(t, err)

	handler := NewCheckoutHandler(NewRepository(mock), tenancy.NewRepository(mock), client, nil)
	return handler, mock
}

func TestCreateOrderOpensPendingPayment(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_1","amount":49900,"currency":"INR","status":"created"}`))
	}))
	defer gateway.Close()

	handler, mock := newCheckoutHandler(t, gateway.URL)
	tenantID := uuid.New()

	mock.ExpectQuery("SELECT(.|\n)*FROM tenants WHERE id").
		WithArgs(tenantID).
		WillReturnRows(tenantRowForCheckout(tenantID))
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(pgxmock.AnyArg(), tenantID, "order_1", "", "", int64(49900),
			"INR", "created", "starter", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	req := httptest.NewRequest(http.MethodPost, "/api/billing/orders", strings.NewReader(`{"plan":"starter"}`))
	req = req.WithContext(tenancy.WithTenantID(req.Context(), tenantID.String()))

	rec := httptest.NewRecorder()
	handler.CreateOrder(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "order_1", resp["order_id"])
	assert.EqualValues(t, 49900, resp["amount_paise"])
	assert.Equal(t, "rzp_test_key", resp["key_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRejectsTrialPlan(t *testing.T) {
	handler, mock := newCheckoutHandler(t, "http://localhost:0")
	tenantID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/billing/orders", strings.NewReader(`{"plan":"trial"}`))
	req = req.WithContext(tenancy.WithTenantID(req.Context(), tenantID.String()))

	rec := httptest.NewRecorder()
	handler.CreateOrder(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRequiresTenantContext(t *testing.T) {
	handler, mock := newCheckoutHandler(t, "http://localhost:0")

	req := httptest.NewRequest(http.MethodPost, "/api/billing/orders", strings.NewReader(`{"plan":"starter"}`))
	rec := httptest.NewRecorder()
	handler.CreateOrder(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func tenantRowForCheckout(id uuid.UUID) *pgxmock.Rows {
	cols := []string{
		"id", "name", "industry", "address", "business_hours", "whatsapp_number",
		"admin_email", "admin_password_hash", "flow_state", "plan", "is_active",
		"trial_ends_at", "paid_until", "chat_used", "chat_limit", "created_at",
		"updated_at",
	}
	return pgxmock.NewRows(cols).AddRow(
		id, "Spice Villa", "restaurant", "", "", "919876543210",
		"owner@spicevilla.in", "", "menu", "trial", true,
		nil, nil, 0, 100, time.Now(), time.Now(),
	)
}
