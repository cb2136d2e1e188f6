// internal/domain/subscription/ledger_test.go
package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInitializeLedger(t *testing.T) {
	days := InitializeLedger(day(2024, time.June, 1), 30)
	require.Len(t, days, 30)

	assert.Equal(t, day(2024, time.June, 1), days[0].Date)
	assert.Equal(t, day(2024, time.June, 30), days[29].Date)
	for _, d := range days {
		assert.True(t, d.IsAvailable)
		assert.False(t, d.IsSkipped)
		assert.False(t, d.IsExtensionDay)
	}
	assert.Equal(t, 30, DeliverableDayCount(days))
}

func TestInitializeLedgerTruncatesClock(t *testing.T) {
	start := time.Date(2024, time.June, 1, 14, 30, 5, 0, time.UTC)
	days := InitializeLedger(start, 3)
	assert.Equal(t, day(2024, time.June, 1), days[0].Date)
}

func TestFindExtendableDay(t *testing.T) {
	days := InitializeLedger(day(2024, time.June, 1), 10)

	assert.Equal(t, 4, FindExtendableDay(days, day(2024, time.June, 5)))
	assert.Equal(t, -1, FindExtendableDay(days, day(2024, time.May, 31)))
	assert.Equal(t, -1, FindExtendableDay(days, day(2024, time.June, 11)))

	// An unavailable day is no longer extendable.
	days[4].IsAvailable = false
	assert.Equal(t, -1, FindExtendableDay(days, day(2024, time.June, 5)))

	// Neither is a skipped one.
	days[6].IsSkipped = true
	assert.Equal(t, -1, FindExtendableDay(days, day(2024, time.June, 7)))
}

func TestLedgerTail(t *testing.T) {
	assert.True(t, LedgerTail(nil).IsZero())

	days := InitializeLedger(day(2024, time.June, 1), 10)
	assert.Equal(t, day(2024, time.June, 10), LedgerTail(days))

	// Extension days move the tail even when appended out of date order.
	days = append(days, DayRecord{Date: day(2024, time.June, 12), IsExtensionDay: true})
	days = append(days, DayRecord{Date: day(2024, time.June, 11), IsExtensionDay: true})
	assert.Equal(t, day(2024, time.June, 12), LedgerTail(days))
}

func TestDeliverableDayCount(t *testing.T) {
	days := InitializeLedger(day(2024, time.June, 1), 10)

	days[2].IsAvailable = false
	days[5].IsSkipped = true
	assert.Equal(t, 8, DeliverableDayCount(days))

	days = append(days,
		DayRecord{Date: day(2024, time.June, 11), IsAvailable: true, IsExtensionDay: true},
		DayRecord{Date: day(2024, time.June, 12), IsAvailable: true, IsExtensionDay: true},
	)
	assert.Equal(t, 10, DeliverableDayCount(days))
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to SubscriptionStatus
		want     bool
	}{
		{SubscriptionStatusActive, SubscriptionStatusPaused, true},
		{SubscriptionStatusActive, SubscriptionStatusCancelled, true},
		{SubscriptionStatusActive, SubscriptionStatusCompleted, true},
		{SubscriptionStatusPaused, SubscriptionStatusActive, true},
		{SubscriptionStatusPaused, SubscriptionStatusCancelled, true},
		{SubscriptionStatusPaused, SubscriptionStatusCompleted, false},
		{SubscriptionStatusCancelled, SubscriptionStatusActive, false},
		{SubscriptionStatusCompleted, SubscriptionStatusActive, false},
		{SubscriptionStatusActive, SubscriptionStatusActive, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
