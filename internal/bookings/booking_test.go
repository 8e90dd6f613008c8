package bookings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusPending, ParseStatus("pending"))
	assert.Equal(t, StatusCancelled, ParseStatus("cancelled"))
	assert.Equal(t, StatusCompleted, ParseStatus("completed"))
	assert.Equal(t, StatusNoShow, ParseStatus("noshow"))
	assert.Equal(t, StatusPending, ParseStatus("garbage"))
}

func TestCanTransitionTo(t *testing.T) {
	// Pending is the only state with outgoing edges.
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusPending.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusPending.CanTransitionTo(StatusNoShow))

	assert.False(t, StatusPending.CanTransitionTo(StatusPending))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusPending))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusNoShow.CanTransitionTo(StatusCompleted))
}

func TestStartsAt(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	b := Booking{Date: "12-02-2025", Time: "5:00PM"}
	at, ok := b.StartsAt(loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 12, 17, 0, 0, 0, loc), at)
}

func TestStartsAtDefaultsToUTC(t *testing.T) {
	b := Booking{Date: "12-02-2025", Time: "9:30AM"}
	at, ok := b.StartsAt(nil)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 12, 9, 30, 0, 0, time.UTC), at)
}

func TestStartsAtRejectsMalformed(t *testing.T) {
	for _, b := range []Booking{
		{Date: "2025-02-12", Time: "5:00PM"},
		{Date: "12-02-2025", Time: "17:00"},
		{Date: "", Time: ""},
	} {
		_, ok := b.StartsAt(time.UTC)
		assert.False(t, ok, "date=%q time=%q", b.Date, b.Time)
	}
}
