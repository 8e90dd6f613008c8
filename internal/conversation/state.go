// Package conversation implements the WhatsApp assistant: a per-tenant
// state machine that drives a menu/booking dialogue, and the parser that
// turns free-text booking requests into structured bookings.
package conversation

// State is a position in the customer dialogue. The persisted form is the
// lowercase string; anything unrecognized normalizes to StateStart so a
// tenant can never get stuck on a corrupt value.
type State string

const (
	// StateStart means no interaction has happened yet.
	StateStart State = "start"
	// StateMenu means the top-level options were presented.
	StateMenu State = "menu"
	// StateBooking means the assistant is waiting for a parseable
	// date/time/name string.
	StateBooking State = "booking"
)

// ParseState maps a persisted state string to a known State.
func ParseState(value string) State {
	switch State(value) {
	case StateMenu:
		return StateMenu
	case StateBooking:
		return StateBooking
	default:
		return StateStart
	}
}

// String returns the persisted form.
func (s State) String() string {
	return string(s)
}
