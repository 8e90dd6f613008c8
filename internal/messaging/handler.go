package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bizflowhq/bizflow-platform/internal/conversation"
	"github.com/bizflowhq/bizflow-platform/internal/notify"
	"github.com/bizflowhq/bizflow-platform/internal/observability/metrics"
	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
	"github.com/bizflowhq/bizflow-platform/pkg/logging"
)

const (
	replyNotRegistered = "👋 Welcome to BizFlow AI!\n\n" +
		"This WhatsApp number is not registered with any business.\n\n" +
		"If you're a business owner, sign up on our website. If you're a customer, please contact the business directly."
	replyInactive = "❌ This business account is currently inactive. Please contact support."
	replyError    = "❌ Something went wrong. Please try again."
)

// WebhookConfig wires a WebhookHandler.
type WebhookConfig struct {
	Tenants            *tenancy.Repository
	Engine             *conversation.Engine
	Processed          ProcessedTracker
	Notifier           *notify.Service
	AuthToken          string
	WebhookURL         string
	DefaultCountryCode string
	Metrics            *metrics.ConversationMetrics
	Logger             *logging.Logger
}

// WebhookHandler receives inbound Twilio WhatsApp webhooks, enforces the
// tenant guardrails, and dispatches messages to the conversation engine.
type WebhookHandler struct {
	tenants            *tenancy.Repository
	engine             *conversation.Engine
	processed          ProcessedTracker
	notifier           *notify.Service
	authToken          string
	webhookURL         string
	defaultCountryCode string
	metrics            *metrics.ConversationMetrics
	logger             *logging.Logger
}

func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.DefaultCountryCode == "" {
		cfg.DefaultCountryCode = "91"
	}
	return &WebhookHandler{
		tenants:            cfg.Tenants,
		engine:             cfg.Engine,
		processed:          cfg.Processed,
		notifier:           cfg.Notifier,
		authToken:          cfg.AuthToken,
		webhookURL:         cfg.WebhookURL,
		defaultCountryCode: cfg.DefaultCountryCode,
		metrics:            cfg.Metrics,
		logger:             cfg.Logger,
	}
}

// HealthCheck reports liveness.
func (h *WebhookHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// HandleWhatsApp processes one inbound message and responds with TwiML.
func (h *WebhookHandler) HandleWhatsApp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.authToken != "" && !ValidateTwilioSignature(r, h.authToken, h.webhookURL) {
		h.logger.Warn("invalid twilio webhook signature", "remote", r.RemoteAddr)
		h.metrics.ObserveInbound("bad_signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	inbound, err := ParseInbound(r)
	if err != nil {
		h.metrics.ObserveInbound("bad_request")
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if h.processed != nil && inbound.MessageSid != "" {
		first, err := h.processed.MarkProcessed(r.Context(), "twilio", inbound.MessageSid)
		if err != nil {
			h.logger.Warn("webhook dedupe unavailable", "error", err)
		} else if !first {
			h.metrics.ObserveInbound("duplicate")
			WriteTwiML(w, http.StatusOK, "")
			return
		}
	}

	phone := NormalizePhone(inbound.From, h.defaultCountryCode)
	h.logger.Info("whatsapp inbound", "phone", phone, "sid", inbound.MessageSid)

	reply, outcome := h.process(r.Context(), phone, inbound.Body)
	if outcome == "error" {
		// One retry of the whole read-decide-write cycle before giving up.
		reply, outcome = h.process(r.Context(), phone, inbound.Body)
	}

	h.metrics.ObserveInbound(outcome)
	h.metrics.ObserveWebhookLatency(outcome, time.Since(start).Seconds())
	WriteTwiML(w, http.StatusOK, reply)
}

// process runs one full message handling cycle: lock the tenant row, apply
// guardrails, dispatch to the engine, commit. A commit failure must never
// let a confirmation reply escape, so any error maps to the generic retry
// reply.
func (h *WebhookHandler) process(ctx context.Context, phone, body string) (reply, outcome string) {
	tx, err := h.tenants.Begin(ctx)
	if err != nil {
		h.logger.Error("begin conversation tx", "error", err)
		return replyError, "error"
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tenant, err := h.tenants.GetByWhatsAppNumberForUpdate(ctx, tx, phone)
	if err != nil {
		if errors.Is(err, tenancy.ErrTenantNotFound) {
			return replyNotRegistered, "unknown_tenant"
		}
		h.logger.Error("tenant lookup failed", "error", err, "phone", phone)
		return replyError, "error"
	}
	ctx = tenancy.WithTenantID(ctx, tenant.ID.String())

	// Guardrails run before the state machine; a gated tenant's state is
	// never touched.
	if !tenant.IsActive {
		return replyInactive, "inactive"
	}
	if tenant.OverLimit() {
		return limitReply(tenant), "over_limit"
	}

	reply, created, err := h.engine.HandleMessage(ctx, tx, tenant, phone, body)
	if err != nil {
		h.logger.Error("conversation handling failed", "error", err, "tenant_id", tenant.ID)
		return replyError, "error"
	}
	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("conversation commit failed", "error", err, "tenant_id", tenant.ID)
		return replyError, "error"
	}
	// Post-commit, best-effort: a failed email never rolls anything back.
	if created != nil && h.notifier != nil {
		h.notifier.BookingConfirmed(ctx, tenant, created)
	}
	return reply, "ok"
}

func limitReply(tenant *tenancy.Tenant) string {
	return fmt.Sprintf(
		"❌ Monthly chat limit reached.\n\nYour plan: %s\nLimit: %d chats/month\n\nPlease upgrade your plan to continue.",
		string(tenant.Plan), tenant.ChatLimit,
	)
}
