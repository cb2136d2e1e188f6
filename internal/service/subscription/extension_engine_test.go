// internal/service/subscription/extension_engine_test.go
package subscription

import (
	"context"
	"testing"
	"time"

	"mealdesk-service/internal/domain/branchconfig"
	"mealdesk-service/internal/domain/subscription"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLedgerStore struct {
	markResult    bool
	markedDates   []time.Time
	markedReasons []string
	extensions    []subscription.DayRecord
	history       []subscription.SkipHistoryEntry
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{markResult: true}
}

func (f *fakeLedgerStore) MarkDayUnavailableWithTx(ctx context.Context, tx pgx.Tx, subscriptionID int64, date time.Time, reason string, userSkip bool) (bool, error) {
	if !f.markResult {
		return false, nil
	}
	f.markedDates = append(f.markedDates, date)
	f.markedReasons = append(f.markedReasons, reason)
	return true, nil
}

func (f *fakeLedgerStore) AppendExtensionDayWithTx(ctx context.Context, tx pgx.Tx, subscriptionID int64, rec subscription.DayRecord) error {
	f.extensions = append(f.extensions, rec)
	return nil
}

func (f *fakeLedgerStore) AppendSkipHistoryWithTx(ctx context.Context, tx pgx.Tx, entry subscription.SkipHistoryEntry) error {
	f.history = append(f.history, entry)
	return nil
}

type fakeSubscriptionStore struct {
	endDates []time.Time
}

func (f *fakeSubscriptionStore) AdvanceEndDateWithTx(ctx context.Context, tx pgx.Tx, subscriptionID int64, endDate time.Time, extraDays int) error {
	f.endDates = append(f.endDates, endDate)
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testSubscription(start time.Time, totalDays int) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:        1,
		OrderID:   "SUB-TEST",
		BranchID:  10,
		UserID:    100,
		TotalDays: totalDays,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, totalDays-1),
		Status:    subscription.SubscriptionStatusActive,
	}
	sub.Days = subscription.InitializeLedger(start, totalDays)
	return sub
}

func newTestEngine() (*ExtensionEngine, *fakeLedgerStore, *fakeSubscriptionStore) {
	days := newFakeLedgerStore()
	subs := &fakeSubscriptionStore{}
	return NewExtensionEngine(days, subs, zap.NewNop()), days, subs
}

func TestExtendSimpleSkip(t *testing.T) {
	engine, days, subs := newTestEngine()

	// 10-day subscription June 1-10, skip June 5: extension lands June 11.
	sub := testSubscription(date(2024, time.June, 1), 10)
	holidays := branchconfig.NewHolidaySet(nil, nil, nil)

	result, err := engine.Extend(context.Background(), nil, ExtensionRequest{
		Sub:      sub,
		Date:     date(2024, time.June, 5),
		Reason:   "Skipped by user",
		UserSkip: true,
		Holidays: holidays,
	})
	require.NoError(t, err)
	require.True(t, result.Applied)

	assert.Equal(t, []time.Time{date(2024, time.June, 11)}, result.ExtensionDates)
	assert.Equal(t, date(2024, time.June, 11), result.NewEndDate)
	assert.Equal(t, date(2024, time.June, 11), sub.EndDate)
	assert.Equal(t, 1, sub.ExtraDaysAdded)

	// The paid-day count is conserved: one day lost, one day gained.
	assert.Equal(t, sub.TotalDays, subscription.DeliverableDayCount(sub.Days))

	// The skipped day carries the user-skip flags.
	idx := -1
	for i, d := range sub.Days {
		if d.Date.Equal(date(2024, time.June, 5)) {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	assert.False(t, sub.Days[idx].IsAvailable)
	assert.True(t, sub.Days[idx].IsSkipped)
	assert.Equal(t, "Skipped by user", sub.Days[idx].UnavailableReason.String)

	require.Len(t, days.extensions, 1)
	assert.True(t, days.extensions[0].IsExtensionDay)
	assert.Equal(t, date(2024, time.June, 5), days.extensions[0].OriginalSkippedDate.Time)

	require.Len(t, days.history, 1)
	assert.False(t, days.history[0].IsSystemGenerated)
	assert.Equal(t, "Skipped by user", days.history[0].Reason)
	assert.Equal(t, []string{"Skipped by user"}, days.markedReasons)
	require.Len(t, subs.endDates, 1)
}

func TestExtendSkipsHolidayDates(t *testing.T) {
	engine, days, _ := newTestEngine()

	// Ledger ends Monday June 10. Tuesday is a weekly holiday and Wednesday a
	// national holiday, so the extension lands on Thursday June 13.
	sub := testSubscription(date(2024, time.June, 1), 10)
	holidays := branchconfig.NewHolidaySet(
		[]string{"Tuesday"},
		[]branchconfig.NationalHoliday{{Date: date(2024, time.June, 12)}},
		nil,
	)

	result, err := engine.Extend(context.Background(), nil, ExtensionRequest{
		Sub:      sub,
		Date:     date(2024, time.June, 3),
		Reason:   "National Holiday - Eid al-Adha",
		Holidays: holidays,
	})
	require.NoError(t, err)
	require.True(t, result.Applied)

	assert.Equal(t, []time.Time{date(2024, time.June, 13)}, result.ExtensionDates)
	assert.Equal(t, sub.TotalDays, subscription.DeliverableDayCount(sub.Days))

	// The audit trail names the holiday, not a generic category.
	require.Len(t, days.history, 1)
	assert.Equal(t, "National Holiday - Eid al-Adha", days.history[0].Reason)
	assert.True(t, days.history[0].IsSystemGenerated)
}

func TestExtendEmergencyClosureMultipleCompensationDays(t *testing.T) {
	engine, days, _ := newTestEngine()

	// 15-day subscription July 1-15. Closure on July 10 with two compensation
	// days; July 16 is a weekly holiday (Tuesday), so the extensions land on
	// July 17 and 18.
	sub := testSubscription(date(2024, time.July, 1), 15)
	holidays := branchconfig.NewHolidaySet([]string{"Tuesday"}, nil, nil)

	result, err := engine.Extend(context.Background(), nil, ExtensionRequest{
		Sub:              sub,
		Date:             date(2024, time.July, 10),
		Reason:           "Kitchen flooded overnight",
		CompensationDays: 2,
		Holidays:         holidays,
	})
	require.NoError(t, err)
	require.True(t, result.Applied)

	assert.Equal(t, []time.Time{date(2024, time.July, 17), date(2024, time.July, 18)}, result.ExtensionDates)
	assert.Equal(t, date(2024, time.July, 18), sub.EndDate)
	assert.Equal(t, 2, sub.ExtraDaysAdded)
	assert.Len(t, days.extensions, 2)
	require.Len(t, days.history, 2)
	assert.Equal(t, "Kitchen flooded overnight", days.history[0].Reason)
	assert.Equal(t, "Kitchen flooded overnight", days.history[1].Reason)

	// One day lost, two gained: deliverable count grows by one.
	assert.Equal(t, sub.TotalDays+1, subscription.DeliverableDayCount(sub.Days))
}

func TestExtendIsIdempotent(t *testing.T) {
	engine, days, _ := newTestEngine()

	sub := testSubscription(date(2024, time.June, 1), 10)
	holidays := branchconfig.NewHolidaySet(nil, nil, nil)

	req := ExtensionRequest{
		Sub:      sub,
		Date:     date(2024, time.June, 5),
		Reason:   "Weekly Holiday",
		Holidays: holidays,
	}

	first, err := engine.Extend(context.Background(), nil, req)
	require.NoError(t, err)
	require.True(t, first.Applied)

	// Re-applying the same date is a no-op: no second extension, no end-date
	// movement.
	second, err := engine.Extend(context.Background(), nil, req)
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.Equal(t, first.NewEndDate, sub.EndDate)
	assert.Len(t, days.extensions, 1)
	assert.Len(t, days.history, 1)
}

func TestExtendNoOpWhenGuardRejects(t *testing.T) {
	engine, days, subs := newTestEngine()
	days.markResult = false

	// The conditional update found no matching row: a concurrent transaction
	// already handled the day. The whole call degrades to a no-op.
	sub := testSubscription(date(2024, time.June, 1), 10)
	before := sub.EndDate

	result, err := engine.Extend(context.Background(), nil, ExtensionRequest{
		Sub:      sub,
		Date:     date(2024, time.June, 5),
		Reason:   "Weekly Holiday",
		Holidays: branchconfig.NewHolidaySet(nil, nil, nil),
	})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, before, sub.EndDate)
	assert.Empty(t, days.extensions)
	assert.Empty(t, subs.endDates)
	assert.Equal(t, sub.TotalDays, subscription.DeliverableDayCount(sub.Days))
}

func TestExtendDateOutsideLedgerIsNoOp(t *testing.T) {
	engine, days, _ := newTestEngine()

	sub := testSubscription(date(2024, time.June, 1), 10)

	result, err := engine.Extend(context.Background(), nil, ExtensionRequest{
		Sub:      sub,
		Date:     date(2024, time.August, 1),
		Reason:   "National Holiday - Diwali",
		Holidays: branchconfig.NewHolidaySet(nil, nil, nil),
	})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Empty(t, days.markedDates)
}

func TestExtendEndDateIsMonotonic(t *testing.T) {
	engine, _, _ := newTestEngine()

	sub := testSubscription(date(2024, time.June, 1), 10)
	holidays := branchconfig.NewHolidaySet(nil, nil, nil)

	var lastEnd time.Time
	for _, skip := range []time.Time{
		date(2024, time.June, 3),
		date(2024, time.June, 7),
		date(2024, time.June, 11), // the extension day appended for June 3
	} {
		result, err := engine.Extend(context.Background(), nil, ExtensionRequest{
			Sub:      sub,
			Date:     skip,
			Reason:   "Weekly Holiday",
			Holidays: holidays,
		})
		require.NoError(t, err)
		require.True(t, result.Applied)
		assert.True(t, result.NewEndDate.After(lastEnd))
		lastEnd = result.NewEndDate
	}

	assert.Equal(t, date(2024, time.June, 13), sub.EndDate)
	assert.Equal(t, sub.TotalDays, subscription.DeliverableDayCount(sub.Days))
}

func TestExtendChainedWithinOneTransaction(t *testing.T) {
	engine, _, _ := newTestEngine()

	// Two dates compensated in the same pass (a retroactive weekly holiday
	// matching two Fridays): each extension sees the previous one's tail.
	sub := testSubscription(date(2024, time.June, 3), 12) // Mon June 3 - Fri June 14
	holidays := branchconfig.NewHolidaySet([]string{"Friday"}, nil, nil)

	for _, friday := range []time.Time{date(2024, time.June, 7), date(2024, time.June, 14)} {
		result, err := engine.Extend(context.Background(), nil, ExtensionRequest{
			Sub:      sub,
			Date:     friday,
			Reason:   "Weekly Holiday",
			Holidays: holidays,
		})
		require.NoError(t, err)
		require.True(t, result.Applied)
	}

	// Tail walk: June 14 -> 15 (Sat, open) for the first, then 16 (Sun) for
	// the second. Neither may land on a Friday.
	assert.Equal(t, date(2024, time.June, 16), sub.EndDate)
	for _, d := range sub.Days {
		if d.IsExtensionDay {
			assert.NotEqual(t, time.Friday, d.Date.Weekday())
		}
	}
	assert.Equal(t, sub.TotalDays, subscription.DeliverableDayCount(sub.Days))
}
