// Package bookings holds the booking entity and its persistence.
package bookings

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is a booking lifecycle state. Transitions are one-directional:
// a pending booking may become cancelled, completed, or a no-show, and
// terminal states never change again.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "noshow"
)

// ParseStatus maps a stored status string to a known Status, defaulting to
// pending.
func ParseStatus(value string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusCancelled:
		return StatusCancelled
	case StatusCompleted:
		return StatusCompleted
	case StatusNoShow:
		return StatusNoShow
	default:
		return StatusPending
	}
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return false
	}
	return s == StatusPending
}

// SourceWhatsApp marks bookings created by the conversational assistant.
const SourceWhatsApp = "whatsapp"

// Booking is one persisted appointment owned by exactly one tenant.
// Date is stored as DD-MM-YYYY and Time exactly as shown to the customer,
// e.g. "5:00PM".
type Booking struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	CustomerPhone string
	CustomerName  string
	Date          string
	Time          string
	Status        Status
	Source        string

	ReminderDaySent  bool
	ReminderHourSent bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StartsAt resolves the stored date/time strings into a wall-clock instant
// in the given location. Returns false when the stored strings are not in
// the canonical DD-MM-YYYY / H:MMAM forms.
func (b *Booking) StartsAt(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("02-01-2006 3:04PM", b.Date+" "+b.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
