// internal/domain/subscription/ledger.go
package subscription

import (
	"time"

	"mealdesk-service/internal/pkg/dates"
)

// InitializeLedger produces totalDays consecutive DayRecords starting at
// startDate, all available. The ledger is fully materialized at purchase so
// every paid day exists as a row from day one.
func InitializeLedger(startDate time.Time, totalDays int) []DayRecord {
	start := dates.Truncate(startDate)
	days := make([]DayRecord, 0, totalDays)
	for i := 0; i < totalDays; i++ {
		days = append(days, DayRecord{
			Date:        start.AddDate(0, 0, i),
			IsAvailable: true,
		})
	}
	return days
}

// DeliverableDayCount counts days that will actually receive a delivery.
// Invariant: equals TotalDays at all times (every unavailable or skipped day
// has exactly one compensating extension day).
func DeliverableDayCount(days []DayRecord) int {
	n := 0
	for _, d := range days {
		if d.Deliverable() {
			n++
		}
	}
	return n
}

// FindExtendableDay locates the ledger index for the given date if that day
// is still available and unskipped. Returns -1 when no such record exists:
// the day was already compensated, already skipped, or is not part of this
// subscription. Callers treat -1 as a no-op, not an error, so repeated
// propagation passes never double-compensate.
func FindExtendableDay(days []DayRecord, date time.Time) int {
	target := dates.Truncate(date)
	for i, d := range days {
		if dates.Truncate(d.Date).Equal(target) && d.IsAvailable && !d.IsSkipped {
			return i
		}
	}
	return -1
}

// LedgerTail returns the date of the last DayRecord, or the zero time for an
// empty ledger.
func LedgerTail(days []DayRecord) time.Time {
	if len(days) == 0 {
		return time.Time{}
	}
	tail := days[0].Date
	for _, d := range days[1:] {
		if d.Date.After(tail) {
			tail = d.Date
		}
	}
	return dates.Truncate(tail)
}
