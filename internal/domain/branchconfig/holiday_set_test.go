// internal/domain/branchconfig/holiday_set_test.go
package branchconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHolidaySetContains(t *testing.T) {
	set := NewHolidaySet(
		[]string{"Sunday"},
		[]NationalHoliday{{Date: day(2024, time.August, 15)}},
		[]EmergencyClosure{{Date: day(2024, time.June, 20)}},
	)

	assert.True(t, set.Contains(day(2024, time.June, 2)))    // Sunday
	assert.True(t, set.Contains(day(2024, time.August, 15))) // national holiday
	assert.True(t, set.Contains(day(2024, time.June, 20)))   // closure
	assert.False(t, set.Contains(day(2024, time.June, 3)))   // Monday, open

	// Time-of-day must not affect membership.
	assert.True(t, set.Contains(time.Date(2024, time.August, 15, 18, 0, 0, 0, time.UTC)))
}

func TestHolidaySetIgnoresUnknownWeekdayNames(t *testing.T) {
	set := NewHolidaySet([]string{"Funday", "Monday"}, nil, nil)
	assert.True(t, set.Contains(day(2024, time.June, 3)))  // Monday
	assert.False(t, set.Contains(day(2024, time.June, 4))) // Tuesday
}

func TestNextDeliverableDate(t *testing.T) {
	set := NewHolidaySet(
		[]string{"Tuesday"},
		[]NationalHoliday{{Date: day(2024, time.June, 12)}},
		nil,
	)

	// June 10 is a Monday. June 11 (Tuesday) and June 12 (holiday) are both
	// closed, so the walk lands on Thursday June 13.
	assert.Equal(t, day(2024, time.June, 13), set.NextDeliverableDate(day(2024, time.June, 10)))

	// No holidays in the way: strictly the next day.
	assert.Equal(t, day(2024, time.June, 14), set.NextDeliverableDate(day(2024, time.June, 13)))
}

func TestNextDeliverableDateIsStrictlyAfter(t *testing.T) {
	set := NewHolidaySet(nil, nil, nil)
	// Even an open day never returns itself.
	assert.Equal(t, day(2024, time.June, 6), set.NextDeliverableDate(day(2024, time.June, 5)))
}

func TestDiffAddedWeekdays(t *testing.T) {
	added := DiffAddedWeekdays([]string{"Sunday"}, []string{"Sunday", "Friday"})
	assert.Equal(t, []string{"Friday"}, added)

	// Removals are not reported.
	assert.Empty(t, DiffAddedWeekdays([]string{"Sunday", "Friday"}, []string{"Sunday"}))
	assert.Empty(t, DiffAddedWeekdays([]string{"Sunday"}, []string{"Sunday"}))
	assert.Equal(t, []string{"Monday"}, DiffAddedWeekdays(nil, []string{"Monday"}))
}

func TestParseWeekday(t *testing.T) {
	wd, ok := ParseWeekday("Wednesday")
	assert.True(t, ok)
	assert.Equal(t, time.Wednesday, wd)

	_, ok = ParseWeekday("wednesday")
	assert.False(t, ok)
}
