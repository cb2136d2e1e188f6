// internal/pkg/dates/dates_test.go
package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	ts := time.Date(2024, time.June, 5, 23, 59, 59, 999, time.FixedZone("X", 3600))
	got := Truncate(ts)
	assert.Equal(t, time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, time.June, 5, 0, 1, 0, 0, time.UTC)
	b := time.Date(2024, time.June, 5, 23, 58, 0, 0, time.UTC)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, b.AddDate(0, 0, 1)))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	b := time.Date(2024, time.June, 11, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, 10, DaysBetween(a, b))
	assert.Equal(t, -10, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))

	// Month boundary.
	assert.Equal(t, 1, DaysBetween(
		time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
	))
}
