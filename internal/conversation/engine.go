package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bizflowhq/bizflow-platform/internal/bookings"
	"github.com/bizflowhq/bizflow-platform/internal/observability/metrics"
	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
	"github.com/bizflowhq/bizflow-platform/pkg/logging"
)

var engineTracer = otel.Tracer("bizflow.internal.conversation")

// Fixed copy shared across industries.
const (
	replyBookingPrompt = "📅 Please send your booking details.\n\n" +
		"Examples:\n" +
		"• 15/03 3PM John Doe\n" +
		"• 15 mar 5:30PM John Doe\n" +
		"• tomorrow 4PM John Doe\n" +
		"• next monday 10AM Jane Smith\n\n" +
		"Type 'cancel' to go back"
	replyInvalidOption = "❌ Invalid option. Please reply with a number (1-5)."
	replySupportAck    = "🙏 Thanks for reaching out! Our team will get back to you shortly."
	replyFarewell      = "👋 Thank you for visiting! Type 'hi' to start again."
	replyBookingCancel = "❌ Booking cancelled."
	replyParseFailure  = "❌ Could not understand. Please use a format like:\n" +
		"• 15/03 3PM John Doe\n" +
		"• 15 mar 5:30PM John Doe\n\n" +
		"Type 'cancel' to go back"
)

var (
	menuCommands = map[string]bool{"reset": true, "restart": true, "help": true, "menu": true}
	greetings    = map[string]bool{"hi": true, "hello": true, "hey": true, "hola": true, "namaste": true}
)

// EngineConfig wires an Engine.
type EngineConfig struct {
	Flows    Catalog
	Tenants  *tenancy.Repository
	Bookings *bookings.Repository
	Metrics  *metrics.ConversationMetrics
	Logger   *logging.Logger
	Now      func() time.Time
}

// Engine decides the reply and next state for one inbound message. It is
// stateless itself; all conversation state lives on the tenant row and is
// committed inside the caller's transaction before the reply is returned.
type Engine struct {
	flows    Catalog
	tenants  *tenancy.Repository
	bookings *bookings.Repository
	metrics  *metrics.ConversationMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewEngine constructs the engine. The flow catalog must carry a fallback
// entry for tenancy.IndustryOther.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Flows == nil {
		cfg.Flows = DefaultCatalog()
	}
	if _, ok := cfg.Flows[tenancy.IndustryOther]; !ok {
		panic("conversation: flow catalog missing fallback entry")
	}
	if cfg.Tenants == nil {
		panic("conversation: tenant repository required")
	}
	if cfg.Bookings == nil {
		panic("conversation: bookings repository required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		flows:    cfg.Flows,
		tenants:  cfg.Tenants,
		bookings: cfg.Bookings,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
}

// HandleMessage maps (state, message) to a reply and persists the state
// transition, plus the booking row and usage counter when a booking is
// created, through q. Callers supply q as an open transaction so the write
// is atomic. The confirmation reply is only returned once the writes
// succeeded. The created booking, if any, is returned so callers can fire
// post-commit notifications.
//
// Callers must enforce the usage/active guardrail before invoking.
func (e *Engine) HandleMessage(ctx context.Context, q tenancy.Querier, tenant *tenancy.Tenant, customerPhone, text string) (string, *bookings.Booking, error) {
	ctx, span := engineTracer.Start(ctx, "conversation.handle_message")
	defer span.End()
	span.SetAttributes(
		attribute.String("bizflow.tenant_id", tenant.ID.String()),
		attribute.String("bizflow.state", tenant.FlowState),
	)

	message := strings.TrimSpace(text)
	lower := strings.ToLower(message)
	state := ParseState(tenant.FlowState)
	flow := e.flows.Lookup(tenant.Industry)

	var (
		reply   string
		next    State
		created *bookings.Booking
		err     error
	)

	switch {
	case menuCommands[lower] || greetings[lower]:
		// Menu commands win from any state.
		reply, next = flow.RenderMenu(tenant.Name), StateMenu
	case state == StateBooking:
		reply, next, created, err = e.handleBooking(ctx, q, tenant, flow, lower, message, customerPhone)
	default:
		reply, next = e.handleMenu(tenant, flow, lower)
	}
	if err != nil {
		span.RecordError(err)
		return "", nil, err
	}

	if next != state || created != nil {
		if err := e.tenants.CommitConversation(ctx, q, tenant.ID, next.String(), tenant.ChatUsed); err != nil {
			span.RecordError(err)
			return "", nil, fmt.Errorf("conversation: persist transition: %w", err)
		}
		tenant.FlowState = next.String()
	}
	e.metrics.ObserveReply(next.String())
	return reply, created, nil
}

// handleMenu covers StateStart and StateMenu.
func (e *Engine) handleMenu(tenant *tenancy.Tenant, flow Flow, lower string) (string, State) {
	switch lower {
	case "1", "book":
		return replyBookingPrompt, StateBooking
	case "2":
		return flow.Services + "\n\n" + flow.Pricing, StateMenu
	case "3":
		return locationReply(tenant), StateMenu
	case "4":
		return replySupportAck, StateMenu
	case "5", "exit", "bye":
		return replyFarewell, StateStart
	default:
		return replyInvalidOption, ParseState(tenant.FlowState)
	}
}

// handleBooking covers StateBooking: cancel, a parseable request, or a
// retry prompt.
func (e *Engine) handleBooking(ctx context.Context, q tenancy.Querier, tenant *tenancy.Tenant, flow Flow, lower, message, customerPhone string) (string, State, *bookings.Booking, error) {
	switch lower {
	case "cancel", "back", "exit":
		return replyBookingCancel + "\n\n" + flow.RenderMenu(tenant.Name), StateMenu, nil, nil
	}

	req, err := ParseBookingText(message, e.now())
	if err != nil {
		e.metrics.ObserveParseFailure()
		e.logger.Debug("booking text did not parse",
			"tenant_id", tenant.ID, "reason", err)
		return replyParseFailure, StateBooking, nil, nil
	}

	taken, err := e.bookings.PendingSlotExists(ctx, q, tenant.ID, req.Date, req.Time)
	if err != nil {
		return "", StateBooking, nil, err
	}
	if taken {
		reply := fmt.Sprintf("❌ Sorry, %s on %s is already booked.\n\nPlease choose another time.", req.Time, req.Date)
		return reply, StateBooking, nil, nil
	}

	booking := &bookings.Booking{
		TenantID:      tenant.ID,
		CustomerPhone: customerPhone,
		CustomerName:  req.Name,
		Date:          req.Date,
		Time:          req.Time,
		Status:        bookings.StatusPending,
		Source:        bookings.SourceWhatsApp,
	}
	if err := e.bookings.Create(ctx, q, booking); err != nil {
		return "", StateBooking, nil, err
	}
	tenant.ChatUsed++
	e.metrics.ObserveBookingCreated()
	e.logger.Info("booking created",
		"tenant_id", tenant.ID,
		"booking_id", booking.ID,
		"date", req.Date,
		"time", req.Time,
	)

	reply := fmt.Sprintf(
		"✅ Booking Confirmed!\n\n👤 %s\n📅 %s\n⏰ %s\n\nWe'll send you a reminder before your appointment.\n\nType 'menu' for main menu 👋",
		req.Name, req.Date, req.Time,
	)
	return reply, StateMenu, booking, nil
}

func locationReply(tenant *tenancy.Tenant) string {
	addr := tenant.Address
	if addr == "" {
		addr = "Main Location"
	}
	hours := tenant.BusinessHours
	if hours == "" {
		hours = "Monday - Friday: 9AM - 8PM\nSaturday: 10AM - 6PM\nSunday: Closed"
	}
	return fmt.Sprintf("📍 %s\n\n🕒 Business Hours:\n%s", addr, hours)
}
