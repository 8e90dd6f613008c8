package payments

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
	"github.com/bizflowhq/bizflow-platform/pkg/logging"
)

// CheckoutHandler opens Razorpay orders for plan upgrades.
type CheckoutHandler struct {
	payments *Repository
	tenants  *tenancy.Repository
	razorpay *RazorpayClient
	logger   *logging.Logger
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

type checkoutResponse struct {
	OrderID     string `json:"order_id"`
	AmountPaise int64  `json:"amount_paise"`
	Currency    string `json:"currency"`
	KeyID       string `json:"key_id"`
}

func NewCheckoutHandler(paymentsRepo *Repository, tenantsRepo *tenancy.Repository, client *RazorpayClient, logger *logging.Logger) *CheckoutHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CheckoutHandler{
		payments: paymentsRepo,
		tenants:  tenantsRepo,
		razorpay: client,
		logger:   logger,
	}
}

// CreateOrder opens a Razorpay order for the authenticated tenant's plan
// upgrade and returns the fields the hosted checkout needs.
func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenancy.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(tenantID)
	if err != nil {
		http.Error(w, "invalid tenant id", http.StatusBadRequest)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	plan := tenancy.ParsePlan(req.Plan)
	amount, ok := PlanAmountPaise(plan)
	if !ok {
		http.Error(w, "plan is not purchasable", http.StatusBadRequest)
		return
	}

	tenant, err := h.tenants.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "tenant not found", http.StatusNotFound)
		return
	}

	order, err := h.razorpay.CreateOrder(r.Context(), amount, tenant.ID.String(), map[string]string{
		"tenant_id": tenant.ID.String(),
		"plan":      string(plan),
	})
	if err != nil {
		h.logger.Error("create razorpay order failed", "error", err, "tenant_id", tenant.ID)
		http.Error(w, "failed to create order", http.StatusBadGateway)
		return
	}

	payment := &Payment{
		TenantID:    tenant.ID,
		OrderID:     order.ID,
		AmountPaise: amount,
		Currency:    order.Currency,
		Plan:        string(plan),
	}
	if err := h.payments.CreatePending(r.Context(), payment); err != nil {
		h.logger.Error("record pending payment failed", "error", err, "order_id", order.ID)
		http.Error(w, "failed to record order", http.StatusInternalServerError)
		return
	}

	h.logger.Info("checkout order opened",
		"tenant_id", tenant.ID,
		"plan", plan,
		"order_id", order.ID,
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(checkoutResponse{
		OrderID:     order.ID,
		AmountPaise: amount,
		Currency:    order.Currency,
		KeyID:       h.razorpay.KeyID(),
	})
}
