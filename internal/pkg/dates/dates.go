// internal/pkg/dates/dates.go
package dates

import "time"

// Truncate normalizes a timestamp to midnight UTC. All calendar arithmetic in
// the service works on these normalized dates so two timestamps on the same
// calendar day always compare equal.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current date truncated to midnight UTC.
func Today() time.Time {
	return Truncate(time.Now())
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Truncate(a).Equal(Truncate(b))
}

// DaysBetween returns the whole number of days from a to b (negative if b is
// before a).
func DaysBetween(a, b time.Time) int {
	return int(Truncate(b).Sub(Truncate(a)).Hours() / 24)
}
