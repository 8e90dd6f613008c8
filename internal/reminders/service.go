package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/bizflowhq/bizflow-platform/internal/bookings"
	"github.com/bizflowhq/bizflow-platform/internal/messaging"
	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
	"github.com/bizflowhq/bizflow-platform/pkg/logging"
)

// Sender abstracts outbound WhatsApp delivery so tests can observe sends.
type Sender interface {
	SendWhatsApp(ctx context.Context, to, body string) error
}

// Service sends day-before and hour-before WhatsApp reminders for pending
// bookings. Each window fires at most once per booking.
type Service struct {
	bookings *bookings.Repository
	tenants  *tenancy.Repository
	sender   Sender
	location *time.Location
	logger   *logging.Logger
	now      func() time.Time
}

// Config wires a reminder Service.
type Config struct {
	Bookings *bookings.Repository
	Tenants  *tenancy.Repository
	Sender   Sender
	Location *time.Location
	Logger   *logging.Logger
	Now      func() time.Time
}

const (
	dayWindow  = 24 * time.Hour
	hourWindow = 2 * time.Hour
)

// NewService creates a reminder service.
func NewService(cfg Config) *Service {
	if cfg.Bookings == nil {
		panic("reminders: bookings repository required")
	}
	if cfg.Tenants == nil {
		panic("reminders: tenant repository required")
	}
	if cfg.Sender == nil {
		panic("reminders: sender required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		bookings: cfg.Bookings,
		tenants:  cfg.Tenants,
		sender:   cfg.Sender,
		location: cfg.Location,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
}

// ProcessDue scans pending bookings and sends any reminders whose window
// has opened. Returns the number of reminders sent. A failed send for one
// booking never blocks the rest.
func (s *Service) ProcessDue(ctx context.Context) (int, error) {
	due, err := s.bookings.ListPendingUnreminded(ctx)
	if err != nil {
		return 0, fmt.Errorf("reminders: list pending: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	now := s.now().In(s.location)
	sent := 0
	tenants := map[string]*tenancy.Tenant{}
	for i := range due {
		b := &due[i]
		startsAt, ok := b.StartsAt(s.location)
		if !ok {
			s.logger.Warn("reminder skipped, unparseable slot",
				"booking_id", b.ID, "date", b.Date, "time", b.Time)
			continue
		}
		until := startsAt.Sub(now)
		if until <= 0 {
			// Slot already started; nothing left to remind about.
			continue
		}

		sendDay := !b.ReminderDaySent && until <= dayWindow
		sendHour := !b.ReminderHourSent && until <= hourWindow
		if !sendDay && !sendHour {
			continue
		}

		tenant := tenants[b.TenantID.String()]
		if tenant == nil {
			tenant, err = s.tenants.GetByID(ctx, b.TenantID)
			if err != nil {
				s.logger.Error("reminder skipped, tenant lookup failed",
					"booking_id", b.ID, "tenant_id", b.TenantID, "error", err)
				continue
			}
			tenants[b.TenantID.String()] = tenant
		}

		body := reminderBody(tenant.Name, b, sendHour)
		to := messaging.WhatsAppAddress(b.CustomerPhone)
		if err := s.sender.SendWhatsApp(ctx, to, body); err != nil {
			s.logger.Error("reminder send failed",
				"booking_id", b.ID, "phone", b.CustomerPhone, "error", err)
			continue
		}

		// The hour reminder implies the day window has passed too.
		daySent := b.ReminderDaySent || sendDay || sendHour
		hourSent := b.ReminderHourSent || sendHour
		if err := s.bookings.MarkReminded(ctx, b.ID, daySent, hourSent); err != nil {
			s.logger.Error("reminder flag update failed", "booking_id", b.ID, "error", err)
			continue
		}
		sent++
		s.logger.Info("reminder sent",
			"booking_id", b.ID,
			"tenant_id", b.TenantID,
			"window", windowName(sendHour),
		)
	}
	return sent, nil
}

// Run calls ProcessDue on a fixed interval until the context is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.ProcessDue(ctx); err != nil {
			s.logger.Error("reminder sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func windowName(hour bool) string {
	if hour {
		return "hour"
	}
	return "day"
}

func reminderBody(businessName string, b *bookings.Booking, hourWindow bool) string {
	lead := "tomorrow"
	if hourWindow {
		lead = "soon"
	}
	return fmt.Sprintf(
		"Hi %s! ⏰ Reminder: your booking at %s is coming up %s.\n🗓 %s at %s\nReply to this chat if you need to make changes.",
		b.CustomerName, businessName, lead, b.Date, b.Time,
	)
}
