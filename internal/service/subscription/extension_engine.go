// internal/service/subscription/extension_engine.go
package subscription

import (
	"context"
	"time"

	"mealdesk-service/internal/domain/branchconfig"
	"mealdesk-service/internal/domain/subscription"
	"mealdesk-service/internal/pkg/dates"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// LedgerStore is the slice of the day repository the engine writes through.
// All methods run on the caller's transaction.
type LedgerStore interface {
	MarkDayUnavailableWithTx(ctx context.Context, tx pgx.Tx, subscriptionID int64, date time.Time, reason string, userSkip bool) (bool, error)
	AppendExtensionDayWithTx(ctx context.Context, tx pgx.Tx, subscriptionID int64, rec subscription.DayRecord) error
	AppendSkipHistoryWithTx(ctx context.Context, tx pgx.Tx, entry subscription.SkipHistoryEntry) error
}

// SubscriptionStore is the slice of the subscription repository the engine
// needs to advance the calendar tail.
type SubscriptionStore interface {
	AdvanceEndDateWithTx(ctx context.Context, tx pgx.Tx, subscriptionID int64, endDate time.Time, extraDays int) error
}

// ExtensionRequest asks the engine to make one day of one subscription
// unavailable and append compensating days. Sub must have its full ledger
// loaded in Days; Holidays must reflect the config state being committed,
// including the change that triggered this request.
type ExtensionRequest struct {
	Sub              *subscription.Subscription
	Date             time.Time
	Reason           string
	CompensationDays int
	UserSkip         bool
	Holidays         branchconfig.HolidaySet
}

// ExtensionResult reports what the engine did. Applied is false for the
// benign no-op cases: the date has no available, unskipped record.
type ExtensionResult struct {
	Applied        bool
	SkippedDate    time.Time
	ExtensionDates []time.Time
	NewEndDate     time.Time
}

// ExtensionEngine is the single mechanism that alters day availability. Every
// call site, whether a weekly holiday, a national holiday, an emergency
// closure or a user skip, goes through Extend; nothing else flips a day flag
// or moves an end date.
type ExtensionEngine struct {
	days   LedgerStore
	subs   SubscriptionStore
	logger *zap.Logger
}

func NewExtensionEngine(days LedgerStore, subs SubscriptionStore, logger *zap.Logger) *ExtensionEngine {
	return &ExtensionEngine{days: days, subs: subs, logger: logger}
}

// Extend marks one day unavailable and appends compensating extension days at
// the ledger tail, keeping the deliverable-day count constant.
//
// The conditional update inside MarkDayUnavailableWithTx is the concurrency
// guard: if the row is no longer available-and-unskipped, zero rows match and
// the whole call degrades to a no-op. That makes re-applying the same holiday,
// overlapping holiday types on one date, and racing admin requests all safe
// without advisory locks.
//
// The in-memory ledger on req.Sub is mutated to mirror every write, so a call
// site looping over several dates within one transaction sees its own earlier
// extensions when computing the next tail.
func (e *ExtensionEngine) Extend(ctx context.Context, tx pgx.Tx, req ExtensionRequest) (*ExtensionResult, error) {
	sub := req.Sub
	target := dates.Truncate(req.Date)

	idx := subscription.FindExtendableDay(sub.Days, target)
	if idx < 0 {
		return &ExtensionResult{Applied: false, SkippedDate: target, NewEndDate: sub.EndDate}, nil
	}

	marked, err := e.days.MarkDayUnavailableWithTx(ctx, tx, sub.ID, target, req.Reason, req.UserSkip)
	if err != nil {
		return nil, err
	}
	if !marked {
		// Another transaction got there first; the day is already handled.
		e.logger.Debug("day already compensated, skipping extension",
			zap.Int64("subscription_id", sub.ID),
			zap.Time("date", target))
		return &ExtensionResult{Applied: false, SkippedDate: target, NewEndDate: sub.EndDate}, nil
	}

	sub.Days[idx].IsAvailable = false
	sub.Days[idx].UnavailableReason.String = req.Reason
	sub.Days[idx].UnavailableReason.Valid = true
	if req.UserSkip {
		sub.Days[idx].IsSkipped = true
		sub.Days[idx].SkippedAt.Time = time.Now()
		sub.Days[idx].SkippedAt.Valid = true
	}

	compDays := req.CompensationDays
	if compDays < 1 {
		compDays = 1
	}

	result := &ExtensionResult{Applied: true, SkippedDate: target}

	for i := 0; i < compDays; i++ {
		tail := subscription.LedgerTail(sub.Days)
		extDate := req.Holidays.NextDeliverableDate(tail)

		rec := subscription.DayRecord{
			SubscriptionID: sub.ID,
			Date:           extDate,
			IsAvailable:    true,
			IsExtensionDay: true,
		}
		rec.OriginalSkippedDate.Time = target
		rec.OriginalSkippedDate.Valid = true

		if err := e.days.AppendExtensionDayWithTx(ctx, tx, sub.ID, rec); err != nil {
			return nil, err
		}

		entry := subscription.SkipHistoryEntry{
			SubscriptionID:    sub.ID,
			OriginalDate:      target,
			ExtensionDate:     extDate,
			Reason:            req.Reason,
			IsSystemGenerated: !req.UserSkip,
		}
		if err := e.days.AppendSkipHistoryWithTx(ctx, tx, entry); err != nil {
			return nil, err
		}

		sub.Days = append(sub.Days, rec)
		result.ExtensionDates = append(result.ExtensionDates, extDate)
	}

	newEnd := subscription.LedgerTail(sub.Days)
	if err := e.subs.AdvanceEndDateWithTx(ctx, tx, sub.ID, newEnd, compDays); err != nil {
		return nil, err
	}
	sub.EndDate = newEnd
	sub.ExtraDaysAdded += compDays
	result.NewEndDate = newEnd

	e.logger.Info("extended subscription for unavailable day",
		zap.Int64("subscription_id", sub.ID),
		zap.Time("date", target),
		zap.String("reason", req.Reason),
		zap.Int("compensation_days", compDays),
		zap.Time("new_end_date", newEnd))

	return result, nil
}
