package conversation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Parse failure reasons. Callers treat any error as "did not parse"; the
// distinct sentinels exist so failures can be logged and tested per rule.
var (
	ErrTooFewTokens = errors.New("conversation: need date, time and name")
	ErrBadDate      = errors.New("conversation: unrecognized date")
	ErrBadTime      = errors.New("conversation: unrecognized time")
	ErrShortName    = errors.New("conversation: name too short")
)

// BookingRequest is the structured result of a successful parse.
// Date is DD-MM-YYYY; Time keeps the customer's 12-hour convention,
// e.g. "5:00PM".
type BookingRequest struct {
	Day   int
	Month int
	Date  string
	Time  string
	Name  string
}

var timePattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(am|pm)$`)

var monthAbbrevs = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4,
	"may": 5, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseBookingText extracts a booking request from free text. Accepted
// forms, tried in order:
//
//	12/02 5pm Rahul
//	12 feb 5:30pm Rahul
//	today 4pm Rahul
//	tomorrow 4pm Rahul
//	next monday 10am Rahul
//
// The year is always now's calendar year for explicit dates; a "31 dec"
// request made in late December cannot land in the next year.
// Pure function: now is injected, no side effects, never panics.
func ParseBookingText(raw string, now time.Time) (*BookingRequest, error) {
	tokens := normalizeTokens(raw)
	if len(tokens) < 3 {
		return nil, ErrTooFewTokens
	}

	var (
		day, month, year int
		rest             []string
	)

	switch tokens[0] {
	case "today", "tomorrow":
		date := now
		if tokens[0] == "tomorrow" {
			date = now.AddDate(0, 0, 1)
		}
		day, month, year = date.Day(), int(date.Month()), date.Year()
		rest = tokens[1:]
	case "next":
		wd, ok := weekdays[tokens[1]]
		if !ok {
			return nil, ErrBadDate
		}
		ahead := (int(wd) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		date := now.AddDate(0, 0, ahead)
		day, month, year = date.Day(), int(date.Month()), date.Year()
		if len(tokens) < 4 {
			return nil, ErrTooFewTokens
		}
		rest = tokens[2:]
	default:
		// Numeric-slash form first: both explicit grammars start with a
		// digit, and DD/MM collapses to one token.
		if strings.Contains(tokens[0], "/") {
			d, m, err := parseSlashDate(tokens[0])
			if err != nil {
				return nil, err
			}
			day, month, year = d, m, now.Year()
			rest = tokens[1:]
			break
		}
		d, err := strconv.Atoi(tokens[0])
		if err != nil {
			return nil, ErrBadDate
		}
		m, err := parseMonthToken(tokens[1])
		if err != nil {
			return nil, err
		}
		day, month, year = d, m, now.Year()
		if len(tokens) < 4 {
			return nil, ErrTooFewTokens
		}
		rest = tokens[2:]
	}

	if day < 1 || day > 31 || month < 1 || month > 12 {
		return nil, ErrBadDate
	}

	timeOfDay, err := parseTimeToken(rest[0])
	if err != nil {
		return nil, err
	}

	name := titleCase(strings.Join(rest[1:], " "))
	if len(strings.TrimSpace(name)) < 2 {
		return nil, ErrShortName
	}

	return &BookingRequest{
		Day:   day,
		Month: month,
		Date:  fmt.Sprintf("%02d-%02d-%04d", day, month, year),
		Time:  timeOfDay,
		Name:  name,
	}, nil
}

// normalizeTokens lowercases, maps backslashes and hyphens to slashes,
// collapses whitespace and splits.
func normalizeTokens(raw string) []string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, `\`, "/")
	s = strings.ReplaceAll(s, "-", "/")
	return strings.Fields(s)
}

func parseSlashDate(token string) (day, month int, err error) {
	parts := strings.Split(token, "/")
	if len(parts) != 2 {
		return 0, 0, ErrBadDate
	}
	day, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, ErrBadDate
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, ErrBadDate
	}
	return day, month, nil
}

func parseMonthToken(token string) (int, error) {
	if m, ok := monthAbbrevs[token]; ok {
		return m, nil
	}
	if len(token) == 2 {
		if m, err := strconv.Atoi(token); err == nil {
			return m, nil
		}
	}
	return 0, ErrBadDate
}

func parseTimeToken(token string) (string, error) {
	match := timePattern.FindStringSubmatch(token)
	if match == nil {
		return "", ErrBadTime
	}
	hour, err := strconv.Atoi(match[1])
	if err != nil || hour < 1 || hour > 12 {
		return "", ErrBadTime
	}
	minute := 0
	if match[2] != "" {
		minute, err = strconv.Atoi(match[2])
		if err != nil || minute > 59 {
			return "", ErrBadTime
		}
	}
	return fmt.Sprintf("%d:%02d%s", hour, minute, strings.ToUpper(match[3])), nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
