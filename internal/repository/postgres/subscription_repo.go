// internal/repository/postgres/subscription_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mealdesk-service/internal/domain/subscription"
	xerrors "mealdesk-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, order_id, branch_id, user_id, plan_id, selected_packages,
	duration_type, total_days, extra_days_added, start_date, end_date, time_slot_id,
	status, total_skips_allowed, skips_used, last_skip_date, created_at, updated_at`

// CreateWithTx creates a subscription within a transaction
func (r *SubscriptionRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			order_id, branch_id, user_id, plan_id, selected_packages,
			duration_type, total_days, start_date, end_date, time_slot_id,
			status, total_skips_allowed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	packages := packageTypesToStrings(sub.SelectedPackages)

	err := tx.QueryRow(
		ctx, query,
		sub.OrderID, sub.BranchID, sub.UserID, sub.PlanID, packages,
		sub.DurationType, sub.TotalDays, sub.StartDate, sub.EndDate, sub.TimeSlotID,
		sub.Status, sub.SkipMealStatus.TotalSkipsAllowed,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// FindByOrderID retrieves a subscription by its human-readable order ID.
func (r *SubscriptionRepository) FindByOrderID(ctx context.Context, orderID string) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE order_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, orderID))
}

// FindByOrderIDWithTx is the in-transaction variant used by the skip path.
func (r *SubscriptionRepository) FindByOrderIDWithTx(ctx context.Context, tx pgx.Tx, orderID string) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE order_id = $1 FOR UPDATE`
	return r.scanOne(tx.QueryRow(ctx, query, orderID))
}

// ListActiveEndingOnOrAfterWithTx returns every active subscription of a
// branch whose calendar still reaches the affected date. This is the scan the
// propagation call sites iterate, inside their transaction.
func (r *SubscriptionRepository) ListActiveEndingOnOrAfterWithTx(ctx context.Context, tx pgx.Tx, branchID int64, date time.Time) ([]subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE branch_id = $1 AND status = 'active' AND end_date >= $2
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, branchID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// ListByUser returns a user's subscriptions, newest first.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// ListDeliverableToday returns active subscriptions of a branch that have an
// available, unskipped day record for the given date. Feeds the kitchen
// dashboard.
func (r *SubscriptionRepository) ListDeliverableToday(ctx context.Context, branchID int64, date time.Time) ([]subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions s
		WHERE s.branch_id = $1 AND s.status = 'active'
		  AND EXISTS (
			SELECT 1 FROM subscription_days d
			WHERE d.subscription_id = s.id
			  AND d.delivery_date = $2
			  AND d.is_available = TRUE
			  AND d.is_skipped = FALSE
		  )
		ORDER BY s.id
	`

	rows, err := r.db.Query(ctx, query, branchID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliverable subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// AdvanceEndDateWithTx moves the calendar tail forward and bumps the
// extension counter. end_date only ever grows.
func (r *SubscriptionRepository) AdvanceEndDateWithTx(ctx context.Context, tx pgx.Tx, subscriptionID int64, endDate time.Time, extraDays int) error {
	query := `
		UPDATE subscriptions
		SET end_date = $2, extra_days_added = extra_days_added + $3, updated_at = NOW()
		WHERE id = $1 AND end_date <= $2
	`

	result, err := tx.Exec(ctx, query, subscriptionID, endDate, extraDays)
	if err != nil {
		return fmt.Errorf("failed to advance end date: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("end date for subscription %d would move backwards", subscriptionID)
	}
	return nil
}

// IncrementSkipsUsedWithTx burns one unit of skip quota, guarded against the
// allowance so a racing request cannot overspend.
func (r *SubscriptionRepository) IncrementSkipsUsedWithTx(ctx context.Context, tx pgx.Tx, subscriptionID int64, skipDate time.Time) error {
	query := `
		UPDATE subscriptions
		SET skips_used = skips_used + 1, last_skip_date = $2, updated_at = NOW()
		WHERE id = $1 AND skips_used < total_skips_allowed
	`

	result, err := tx.Exec(ctx, query, subscriptionID, skipDate)
	if err != nil {
		return fmt.Errorf("failed to increment skips used: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrQuotaExceeded
	}
	return nil
}

// UpdateStatus applies a status change. Transition validity is checked by
// the service; this just writes the new state.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, subscriptionID int64, status subscription.SubscriptionStatus) error {
	query := `UPDATE subscriptions SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, subscriptionID, status)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *SubscriptionRepository) scanOne(row pgx.Row) (*subscription.Subscription, error) {
	sub, err := scanSubscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	var packages []string

	err := row.Scan(
		&sub.ID, &sub.OrderID, &sub.BranchID, &sub.UserID, &sub.PlanID, &packages,
		&sub.DurationType, &sub.TotalDays, &sub.ExtraDaysAdded, &sub.StartDate, &sub.EndDate,
		&sub.TimeSlotID, &sub.Status,
		&sub.SkipMealStatus.TotalSkipsAllowed, &sub.SkipMealStatus.SkipsUsed, &sub.SkipMealStatus.LastSkipDate,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}

	sub.SelectedPackages = stringsToPackageTypes(packages)
	return &sub, nil
}

func packageTypesToStrings(pkgs []subscription.PackageType) []string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = string(p)
	}
	return out
}

func stringsToPackageTypes(values []string) []subscription.PackageType {
	out := make([]subscription.PackageType, len(values))
	for i, v := range values {
		out[i] = subscription.PackageType(v)
	}
	return out
}
