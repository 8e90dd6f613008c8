package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizflowhq/bizflow-platform/internal/bookings"
	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
)

type fakeEmailSender struct {
	sent []EmailMessage
	err  error
}

func (f *fakeEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testTenant() *tenancy.Tenant {
	return &tenancy.Tenant{
		ID:         uuid.New(),
		Name:       "Spice Villa",
		AdminEmail: "owner@spicevilla.in",
	}
}

func testBooking() *bookings.Booking {
	return &bookings.Booking{
		ID:            uuid.New(),
		CustomerName:  "Rahul",
		CustomerPhone: "919812345678",
		Date:          "12-02-2025",
		Time:          "5:00PM",
	}
}

func TestBookingConfirmedSendsEmail(t *testing.T) {
	sender := &fakeEmailSender{}
	svc := NewService(sender, nil)

	svc.BookingConfirmed(context.Background(), testTenant(), testBooking())

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "owner@spicevilla.in", msg.To)
	assert.Equal(t, "Spice Villa", msg.ToName)
	assert.Equal(t, "New booking: Rahul on 12-02-2025", msg.Subject)
	assert.Contains(t, msg.Body, "Customer: Rahul")
	assert.Contains(t, msg.Body, "Phone: 919812345678")
	assert.Contains(t, msg.Body, "Time: 5:00PM")
}

func TestBookingConfirmedSkipsWhenDisabled(t *testing.T) {
	svc := NewService(nil, nil)
	// Must not panic with email disabled.
	svc.BookingConfirmed(context.Background(), testTenant(), testBooking())

	sender := &fakeEmailSender{}
	svc = NewService(sender, nil)
	tenant := testTenant()
	tenant.AdminEmail = ""
	svc.BookingConfirmed(context.Background(), tenant, testBooking())
	assert.Empty(t, sender.sent)
}

func TestBookingConfirmedSwallowsSendFailure(t *testing.T) {
	sender := &fakeEmailSender{err: errors.New("sendgrid down")}
	svc := NewService(sender, nil)
	// Failures are logged, never propagated.
	svc.BookingConfirmed(context.Background(), testTenant(), testBooking())
	assert.Empty(t, sender.sent)
}

func TestPlanActivatedSendsEmail(t *testing.T) {
	sender := &fakeEmailSender{}
	svc := NewService(sender, nil)

	svc.PlanActivated(context.Background(), testTenant(), tenancy.PlanPro)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "Your pro plan is active", msg.Subject)
	assert.Contains(t, msg.Body, "5000 chats per month")
}

func TestNewSendGridSenderDisabledWithoutKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{}, nil))

	var s *SendGridSender
	err := s.Send(context.Background(), EmailMessage{To: "owner@spicevilla.in"})
	assert.Error(t, err)
}
