// internal/domain/branchconfig/holiday_set.go
package branchconfig

import (
	"time"

	"mealdesk-service/internal/pkg/dates"
)

// HolidaySet is an immutable snapshot of every date-level unavailability a
// branch knows about: recurring weekly holidays plus dated national holidays
// and emergency closures. It is built once per request, from the config state
// that includes the change being applied, and passed into the extension
// engine so candidate extension dates are rejected against the full union.
type HolidaySet struct {
	weekdays map[time.Weekday]bool
	dates    map[time.Time]bool
}

// NewHolidaySet builds a snapshot from weekday names and dated entries.
// Unknown weekday names are ignored; validation happens at the admin boundary.
func NewHolidaySet(weekdays []string, holidays []NationalHoliday, closures []EmergencyClosure) HolidaySet {
	s := HolidaySet{
		weekdays: make(map[time.Weekday]bool, len(weekdays)),
		dates:    make(map[time.Time]bool, len(holidays)+len(closures)),
	}
	for _, name := range weekdays {
		if wd, ok := ParseWeekday(name); ok {
			s.weekdays[wd] = true
		}
	}
	for _, h := range holidays {
		s.dates[dates.Truncate(h.Date)] = true
	}
	for _, c := range closures {
		s.dates[dates.Truncate(c.Date)] = true
	}
	return s
}

// Contains reports whether the branch is closed on the given date.
func (s HolidaySet) Contains(date time.Time) bool {
	d := dates.Truncate(date)
	return s.weekdays[d.Weekday()] || s.dates[d]
}

// NextDeliverableDate returns the first date strictly after the given date on
// which the branch is open. The scan only moves forward.
func (s HolidaySet) NextDeliverableDate(after time.Time) time.Time {
	candidate := dates.Truncate(after).AddDate(0, 0, 1)
	for s.Contains(candidate) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
