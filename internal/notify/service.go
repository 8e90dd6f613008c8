package notify

import (
	"context"
	"fmt"

	"github.com/bizflowhq/bizflow-platform/internal/bookings"
	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
	"github.com/bizflowhq/bizflow-platform/pkg/logging"
)

// Service sends tenant-facing notification emails. All sends are
// best-effort: failures are logged and never propagate to the flows that
// triggered them.
type Service struct {
	sender EmailSender
	logger *logging.Logger
}

// NewService constructs a notification service. A nil sender disables
// email silently.
func NewService(sender EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{sender: sender, logger: logger}
}

// BookingConfirmed emails the tenant owner about a new booking.
func (s *Service) BookingConfirmed(ctx context.Context, tenant *tenancy.Tenant, booking *bookings.Booking) {
	if s.sender == nil || tenant.AdminEmail == "" {
		return
	}
	msg := EmailMessage{
		To:      tenant.AdminEmail,
		ToName:  tenant.Name,
		Subject: fmt.Sprintf("New booking: %s on %s", booking.CustomerName, booking.Date),
		Body: fmt.Sprintf(
			"You have a new booking via WhatsApp.\n\nCustomer: %s\nPhone: %s\nDate: %s\nTime: %s\n\n— BizFlow AI",
			booking.CustomerName, booking.CustomerPhone, booking.Date, booking.Time,
		),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("booking confirmation email failed", "error", err, "tenant_id", tenant.ID)
	}
}

// PlanActivated emails the tenant owner after a successful payment.
func (s *Service) PlanActivated(ctx context.Context, tenant *tenancy.Tenant, plan tenancy.Plan) {
	if s.sender == nil || tenant.AdminEmail == "" {
		return
	}
	msg := EmailMessage{
		To:      tenant.AdminEmail,
		ToName:  tenant.Name,
		Subject: fmt.Sprintf("Your %s plan is active", plan),
		Body: fmt.Sprintf(
			"Thanks for upgrading! Your %s plan is now active with %d chats per month.\n\n— BizFlow AI",
			plan, plan.ChatLimit(),
		),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("plan activation email failed", "error", err, "tenant_id", tenant.ID)
	}
}
