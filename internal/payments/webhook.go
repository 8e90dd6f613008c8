package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bizflowhq/bizflow-platform/internal/notify"
	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
	"github.com/bizflowhq/bizflow-platform/pkg/logging"
)

// processedTracker remembers handled webhook events so gateway retries are
// idempotent.
type processedTracker interface {
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// WebhookHandler verifies and applies Razorpay webhook events.
type WebhookHandler struct {
	webhookSecret string
	payments      *Repository
	tenants       *tenancy.Repository
	processed     processedTracker
	notifier      *notify.Service
	logger        *logging.Logger
}

// WebhookConfig wires a WebhookHandler.
type WebhookConfig struct {
	WebhookSecret string
	Payments      *Repository
	Tenants       *tenancy.Repository
	Processed     processedTracker
	Notifier      *notify.Service
	Logger        *logging.Logger
}

func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &WebhookHandler{
		webhookSecret: cfg.WebhookSecret,
		payments:      cfg.Payments,
		tenants:       cfg.Tenants,
		processed:     cfg.Processed,
		notifier:      cfg.Notifier,
		logger:        cfg.Logger,
	}
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Method  string `json:"method"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Handle processes one Razorpay webhook delivery.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if !VerifyWebhookSignature(body, r.Header.Get("X-Razorpay-Signature"), h.webhookSecret) {
		h.logger.Warn("invalid razorpay webhook signature", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var evt webhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	entity := evt.Payload.Payment.Entity
	if entity.ID == "" {
		// Events without a payment entity are acknowledged and ignored.
		w.WriteHeader(http.StatusOK)
		return
	}

	if h.processed != nil {
		first, err := h.processed.MarkProcessed(r.Context(), "razorpay", evt.Event+":"+entity.ID)
		if err != nil {
			h.logger.Warn("payment dedupe unavailable", "error", err)
		} else if !first {
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	switch evt.Event {
	case "payment.captured":
		err = h.applyCaptured(r.Context(), entity.OrderID, entity.ID, entity.Method)
	case "payment.failed":
		err = h.payments.MarkFailed(r.Context(), entity.OrderID)
	default:
		w.WriteHeader(http.StatusOK)
		return
	}
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			// Order opened elsewhere (or replay after purge); acknowledge so
			// the gateway stops retrying.
			h.logger.Warn("webhook for unknown order", "event", evt.Event, "order_id", entity.OrderID)
			w.WriteHeader(http.StatusOK)
			return
		}
		h.logger.Error("razorpay webhook failed", "error", err, "event", evt.Event)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// applyCaptured marks the payment captured and activates the purchased
// plan for one month.
func (h *WebhookHandler) applyCaptured(ctx context.Context, orderID, paymentID, method string) error {
	payment, err := h.payments.MarkCaptured(ctx, orderID, paymentID, method, "")
	if err != nil {
		return err
	}
	plan := tenancy.ParsePlan(payment.Plan)
	paidUntil := time.Now().UTC().AddDate(0, 1, 0)
	if err := h.tenants.ActivatePlan(ctx, nil, payment.TenantID, plan, paidUntil); err != nil {
		return err
	}
	h.logger.Info("plan activated",
		"tenant_id", payment.TenantID,
		"plan", plan,
		"order_id", orderID,
	)
	if h.notifier != nil {
		if tenant, err := h.tenants.GetByID(ctx, payment.TenantID); err == nil {
			h.notifier.PlanActivated(ctx, tenant, plan)
		}
	}
	return nil
}
