// Package dates holds the calendar arithmetic used by task metadata.
//
// Every function takes the reference instant explicitly; nothing here reads
// the system clock.
package dates

import (
	"strings"
	"time"
)

// Layout is the on-disk format of every task date.
const Layout = "2006-01-02"

// Weekdays lists weekday names in the order suggestions present them.
var Weekdays = []time.Weekday{
	time.Sunday,
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
}

// Today truncates now to a calendar date at UTC midnight.
// The calendar day is taken from now's own location.
func Today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func Tomorrow(today time.Time) time.Time {
	return today.AddDate(0, 0, 1)
}

// NextWeekday returns the first date strictly after today that falls on w.
func NextWeekday(today time.Time, w time.Weekday) time.Time {
	daysForward := int(w - today.Weekday())
	if daysForward <= 0 {
		daysForward += 7
	}
	return today.AddDate(0, 0, daysForward)
}

func NextWeek(today time.Time) time.Time {
	return today.AddDate(0, 0, 7)
}

// NextMonth keeps the day of month, clipped to the length of the next month
// (Jan 31 -> Feb 28), unlike time.AddDate which would overflow into March.
func NextMonth(today time.Time) time.Time {
	return addMonthsClipped(today, 1)
}

// NextYear keeps month and day, clipping Feb 29 to Feb 28.
func NextYear(today time.Time) time.Time {
	return addMonthsClipped(today, 12)
}

func addMonthsClipped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	day := t.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// Parse reads a YYYY-MM-DD date. Only the first ten characters are considered,
// so an RFC3339 timestamp also yields its calendar date.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(Layout) {
		return time.Time{}, false
	}
	t, err := time.Parse(Layout, s[:len(Layout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DayLabel renders a date as "2006-01-02 Monday".
func DayLabel(t time.Time) string {
	return Format(t) + " " + t.Weekday().String()
}
