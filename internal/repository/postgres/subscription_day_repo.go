// internal/repository/postgres/subscription_day_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"mealdesk-service/internal/domain/subscription"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionDayRepository owns the subscription_days ledger table. The
// table is append-only: rows are inserted or flagged, never deleted, and the
// only flag write is the conditional mark-unavailable below.
type SubscriptionDayRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionDayRepository(db *pgxpool.Pool) *SubscriptionDayRepository {
	return &SubscriptionDayRepository{db: db}
}

const dayColumns = `id, subscription_id, delivery_date, is_available, is_skipped,
	is_extension_day, unavailable_reason, original_skipped_date, skipped_at, created_at`

// InsertLedgerWithTx bulk-inserts the initial ledger rows at purchase time.
func (r *SubscriptionDayRepository) InsertLedgerWithTx(ctx context.Context, tx pgx.Tx, subscriptionID int64, days []subscription.DayRecord) error {
	query := `
		INSERT INTO subscription_days (subscription_id, delivery_date, is_available)
		VALUES ($1, $2, $3)
	`

	for _, d := range days {
		if _, err := tx.Exec(ctx, query, subscriptionID, d.Date, d.IsAvailable); err != nil {
			return fmt.Errorf("failed to insert ledger day %s: %w", d.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// ListBySubscription returns the full ledger in date order.
func (r *SubscriptionDayRepository) ListBySubscription(ctx context.Context, subscriptionID int64) ([]subscription.DayRecord, error) {
	query := `
		SELECT ` + dayColumns + `
		FROM subscription_days
		WHERE subscription_id = $1
		ORDER BY delivery_date
	`

	rows, err := r.db.Query(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription days: %w", err)
	}
	defer rows.Close()

	return scanDayRecords(rows)
}

// ListBySubscriptionWithTx is the in-transaction variant used by the
// propagation call sites so they see their own earlier writes.
func (r *SubscriptionDayRepository) ListBySubscriptionWithTx(ctx context.Context, tx pgx.Tx, subscriptionID int64) ([]subscription.DayRecord, error) {
	query := `
		SELECT ` + dayColumns + `
		FROM subscription_days
		WHERE subscription_id = $1
		ORDER BY delivery_date
	`

	rows, err := tx.Query(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription days: %w", err)
	}
	defer rows.Close()

	return scanDayRecords(rows)
}

// MarkDayUnavailableWithTx flags one day unavailable, guarded on the row's
// current available-and-unskipped state. Returns false when no row matched:
// the day was already compensated, already skipped, or never existed. Every
// availability mutation in the system goes through this guard; there is no
// unconditional overwrite.
func (r *SubscriptionDayRepository) MarkDayUnavailableWithTx(ctx context.Context, tx pgx.Tx, subscriptionID int64, date time.Time, reason string, userSkip bool) (bool, error) {
	query := `
		UPDATE subscription_days
		SET is_available = FALSE,
		    unavailable_reason = $3,
		    is_skipped = CASE WHEN $4 THEN TRUE ELSE is_skipped END,
		    skipped_at = CASE WHEN $4 THEN NOW() ELSE skipped_at END
		WHERE subscription_id = $1
		  AND delivery_date = $2
		  AND is_available = TRUE
		  AND is_skipped = FALSE
	`

	result, err := tx.Exec(ctx, query, subscriptionID, date, reason, userSkip)
	if err != nil {
		return false, fmt.Errorf("failed to mark day unavailable: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// AppendExtensionDayWithTx inserts one compensating day at the ledger tail.
func (r *SubscriptionDayRepository) AppendExtensionDayWithTx(ctx context.Context, tx pgx.Tx, subscriptionID int64, rec subscription.DayRecord) error {
	query := `
		INSERT INTO subscription_days (
			subscription_id, delivery_date, is_available, is_extension_day, original_skipped_date
		) VALUES ($1, $2, TRUE, TRUE, $3)
	`

	if _, err := tx.Exec(ctx, query, subscriptionID, rec.Date, rec.OriginalSkippedDate); err != nil {
		return fmt.Errorf("failed to append extension day: %w", err)
	}
	return nil
}

// AppendSkipHistoryWithTx writes one audit-trail row. Rows are never updated.
func (r *SubscriptionDayRepository) AppendSkipHistoryWithTx(ctx context.Context, tx pgx.Tx, entry subscription.SkipHistoryEntry) error {
	query := `
		INSERT INTO skip_history (
			subscription_id, original_date, extension_date, reason, is_system_generated
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.Exec(ctx, query,
		entry.SubscriptionID, entry.OriginalDate, entry.ExtensionDate,
		entry.Reason, entry.IsSystemGenerated,
	)
	if err != nil {
		return fmt.Errorf("failed to append skip history: %w", err)
	}
	return nil
}

// ListSkipHistory returns the audit trail in insert order.
func (r *SubscriptionDayRepository) ListSkipHistory(ctx context.Context, subscriptionID int64) ([]subscription.SkipHistoryEntry, error) {
	query := `
		SELECT id, subscription_id, original_date, extension_date, reason, is_system_generated, created_at
		FROM skip_history
		WHERE subscription_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skip history: %w", err)
	}
	defer rows.Close()

	var entries []subscription.SkipHistoryEntry
	for rows.Next() {
		var e subscription.SkipHistoryEntry
		if err := rows.Scan(&e.ID, &e.SubscriptionID, &e.OriginalDate, &e.ExtensionDate,
			&e.Reason, &e.IsSystemGenerated, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan skip history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanDayRecords(rows pgx.Rows) ([]subscription.DayRecord, error) {
	var days []subscription.DayRecord
	for rows.Next() {
		var d subscription.DayRecord
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.Date, &d.IsAvailable, &d.IsSkipped,
			&d.IsExtensionDay, &d.UnavailableReason, &d.OriginalSkippedDate, &d.SkippedAt, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan day record: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
