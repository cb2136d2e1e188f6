// internal/service/menu/strategy_test.go
package menu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMenuDayByWeekday(t *testing.T) {
	// June 3, 2024 is a Monday.
	assert.Equal(t, 1, MenuDayByWeekday(day(2024, time.June, 3)))
	assert.Equal(t, 5, MenuDayByWeekday(day(2024, time.June, 7)))
	assert.Equal(t, 6, MenuDayByWeekday(day(2024, time.June, 8)))

	// Sunday maps to 7, not 0.
	assert.Equal(t, 7, MenuDayByWeekday(day(2024, time.June, 9)))
}

func TestMenuDayByCycle(t *testing.T) {
	start := day(2024, time.June, 5) // a Wednesday

	// The start date is always cycle day 1 regardless of weekday.
	assert.Equal(t, 1, MenuDayByCycle(start, start))
	assert.Equal(t, 2, MenuDayByCycle(start, day(2024, time.June, 6)))
	assert.Equal(t, 7, MenuDayByCycle(start, day(2024, time.June, 11)))

	// The cycle wraps after seven days.
	assert.Equal(t, 1, MenuDayByCycle(start, day(2024, time.June, 12)))
	assert.Equal(t, 4, MenuDayByCycle(start, day(2024, time.June, 22)))
}

func TestStrategiesDiverge(t *testing.T) {
	// A mid-week start makes the two strategies disagree: June 5 is a
	// Wednesday (weekday day 3) but cycle day 1.
	start := day(2024, time.June, 5)
	assert.Equal(t, 3, MenuDayByWeekday(start))
	assert.Equal(t, 1, MenuDayByCycle(start, start))
}
