package core

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used for daily note names and
// API date arguments.
const DateLayout = "2006-01-02"

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey returns the ISO calendar date of t, e.g. "2026-10-18".
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDay parses an ISO calendar date in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// WeekKey returns the ISO week name of t, e.g. "2026-W42". The year is the
// ISO year, which differs from the calendar year around New Year.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekBounds returns the Monday and Sunday of the ISO week containing t.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	day := Day(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// DaysBetween lists every calendar day from start to end inclusive. It
// returns nil when end is before start.
func DaysBetween(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// After reports whether day a falls strictly after day b, ignoring the time
// of day.
func After(a, b time.Time) bool {
	return Day(a).After(Day(b))
}
