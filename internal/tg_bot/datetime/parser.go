// Package datetime assembles day/month/hour/minute fragments typed by a user
// into an absolute timestamp in a fixed reference zone.
package datetime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultSentinel is the reply that means "use the default value".
const DefaultSentinel = "-"

// ErrDateInPast is returned when the assembled timestamp is not later than now.
var ErrDateInPast = errors.New("date must be in future")

// layouts are tried in order; the first one that parses wins. User input width
// varies ("5" vs "05", "9" vs "09") and the hour may carry an am/pm suffix.
var layouts = []string{
	"2006 01 02 15 04",
	"2006 1 02 15 04",
	"2006 1 2 15 4",
	"2006 01 2 15 4",
	"2006 1 2 3pm 4",
	"2006 1 2 3PM 4",
	"2006 1 2 3 pm 4",
	"2006 1 2 3 PM 4",
}

// FragmentError means the fragments don't form a real date, e.g. hour "25"
// or day 31 in a 30 day month.
type FragmentError struct {
	Fragments Fragments
	Err       error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("can't assemble date from day %d, month %d, year %d, hour %q, minute %d: %v",
		e.Fragments.Day, e.Fragments.Month, e.Fragments.Year, e.Fragments.Hour, e.Fragments.Minute, e.Err)
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}

// Fragments are the pieces of a date under construction. Zero Year, Month or
// Day mean "take it from now"; Hour is kept verbatim as the user typed it.
type Fragments struct {
	Year   int
	Month  int
	Day    int
	Hour   string
	Minute int
}

// withDefaults fills the unset fragments from now.
func (f Fragments) withDefaults(now time.Time) Fragments {
	if f.Year == 0 {
		f.Year = now.Year()
	}
	if f.Month == 0 {
		f.Month = int(now.Month())
	}
	if f.Day == 0 {
		f.Day = now.Day()
	}
	return f
}

// Assemble builds the timestamp in loc trying every layout.
// Returns *FragmentError when no layout accepts the fragments.
func Assemble(f Fragments, now time.Time, loc *time.Location) (time.Time, error) {
	f = f.withDefaults(now.In(loc))
	hour := strings.TrimSpace(f.Hour)
	if hour == "" {
		return time.Time{}, &FragmentError{Fragments: f, Err: errors.New("hour is empty")}
	}

	value := fmt.Sprintf("%d %d %d %s %d", f.Year, f.Month, f.Day, hour, f.Minute)
	var lastErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &FragmentError{Fragments: f, Err: lastErr}
}

// AssembleFuture is Assemble plus the "strictly later than now" check.
func AssembleFuture(f Fragments, now time.Time, loc *time.Location) (time.Time, error) {
	t, err := Assemble(f, now, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !t.After(now) {
		return time.Time{}, ErrDateInPast
	}
	return t, nil
}

// YearForMonth picks the year of a month the user chose after the requested
// day had already passed: a month earlier than the current one is next year.
func YearForMonth(month int, now time.Time) int {
	if month < int(now.Month()) {
		return now.Year() + 1
	}
	return now.Year()
}

// DaysIn returns the number of days in month of year.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
