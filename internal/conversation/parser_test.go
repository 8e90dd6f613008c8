package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Friday, 20 June 2025.
var parseNow = time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)

func TestParseBookingText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantDate string
		wantTime string
		wantName string
	}{
		{"slash date", "12/02 5pm rahul", "12-02-2025", "5:00PM", "Rahul"},
		{"day and month name", "12 feb 5:30pm rahul kumar", "12-02-2025", "5:30PM", "Rahul Kumar"},
		{"hyphen treated as slash", "15-03 3pm john", "15-03-2025", "3:00PM", "John"},
		{"backslash treated as slash", `15\03 3pm john`, "15-03-2025", "3:00PM", "John"},
		{"two digit numeric month", "12 02 5pm rahul", "12-02-2025", "5:00PM", "Rahul"},
		{"uppercase input", "12 FEB 5PM RAHUL", "12-02-2025", "5:00PM", "Rahul"},
		{"zero padded hour unpadded", "12/02 05:00pm rahul", "12-02-2025", "5:00PM", "Rahul"},
		{"am time", "12/02 9am rahul", "12-02-2025", "9:00AM", "Rahul"},
		{"extra whitespace", "  12/02   5pm   rahul  ", "12-02-2025", "5:00PM", "Rahul"},
		{"multi word name", "15 mar 5:30pm mary jane watson", "15-03-2025", "5:30PM", "Mary Jane Watson"},
		{"today", "today 4pm priya", "20-06-2025", "4:00PM", "Priya"},
		{"tomorrow", "tomorrow 4pm priya", "21-06-2025", "4:00PM", "Priya"},
		{"next monday", "next monday 10am jane", "23-06-2025", "10:00AM", "Jane"},
		{"next same weekday lands a week ahead", "next friday 10am jane", "27-06-2025", "10:00AM", "Jane"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseBookingText(tt.input, parseNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, req.Date)
			assert.Equal(t, tt.wantTime, req.Time)
			assert.Equal(t, tt.wantName, req.Name)
		})
	}
}

func TestParseBookingTextErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrTooFewTokens},
		{"missing name", "12/02 5pm", ErrTooFewTokens},
		{"missing date", "5pm john doe", ErrBadDate},
		{"next weekday missing name", "next monday 10am", ErrTooFewTokens},
		{"month name missing name", "12 feb 5pm", ErrTooFewTokens},
		{"day out of range", "32/02 5pm john", ErrBadDate},
		{"month out of range", "12/13 5pm john", ErrBadDate},
		{"garbage date", "ab/cd 5pm john", ErrBadDate},
		{"unknown month word", "12 febber 5pm john", ErrBadDate},
		{"unknown weekday", "next someday 5pm john", ErrBadDate},
		{"hour out of range", "12/02 25pm john", ErrBadTime},
		{"minute out of range", "12/02 5:75pm john", ErrBadTime},
		{"no meridiem", "12/02 17:00 john smith", ErrBadTime},
		{"single char name", "12/02 5pm j", ErrShortName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseBookingText(tt.input, parseNow)
			assert.Nil(t, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseBookingTextExplicitDateStaysInCurrentYear(t *testing.T) {
	lateDecember := time.Date(2025, 12, 30, 12, 0, 0, 0, time.UTC)
	req, err := ParseBookingText("31 dec 5pm rahul", lateDecember)
	require.NoError(t, err)
	assert.Equal(t, "31-12-2025", req.Date)
}

func TestParseBookingTextTomorrowCrossesYear(t *testing.T) {
	newYearsEve := time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC)
	req, err := ParseBookingText("tomorrow 10am rahul", newYearsEve)
	require.NoError(t, err)
	assert.Equal(t, "01-01-2026", req.Date)
}

func TestParseBookingTextIsDeterministic(t *testing.T) {
	first, err := ParseBookingText("15 mar 5:30pm rahul", parseNow)
	require.NoError(t, err)
	second, err := ParseBookingText("15 mar 5:30pm rahul", parseNow)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
