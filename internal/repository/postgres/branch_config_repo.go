// internal/repository/postgres/branch_config_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mealdesk-service/internal/domain/branchconfig"
	xerrors "mealdesk-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BranchConfigRepository owns branch_configs plus the calendar side tables
// (national_holidays, emergency_closures) and the skip-policy tables
// (plan_durations, time_slots).
type BranchConfigRepository struct {
	db *pgxpool.Pool
}

func NewBranchConfigRepository(db *pgxpool.Pool) *BranchConfigRepository {
	return &BranchConfigRepository{db: db}
}

// GetByBranch loads the config row with its time slots. Missing config is a
// not-found error; the admin must create the branch first.
func (r *BranchConfigRepository) GetByBranch(ctx context.Context, branchID int64) (*branchconfig.BranchConfig, error) {
	query := `
		SELECT id, branch_id, weekly_holidays, skip_meal_days, created_at, updated_at
		FROM branch_configs
		WHERE branch_id = $1
	`

	var cfg branchconfig.BranchConfig
	err := r.db.QueryRow(ctx, query, branchID).Scan(
		&cfg.ID, &cfg.BranchID, &cfg.WeeklyHolidays, &cfg.SkipMealDays,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load branch config: %w", err)
	}

	slots, err := r.ListTimeSlots(ctx, branchID)
	if err != nil {
		return nil, err
	}
	cfg.TimeSlots = slots

	return &cfg, nil
}

// GetByBranchWithTx is the in-transaction variant used before propagation so
// the holiday set reflects the config state being committed.
func (r *BranchConfigRepository) GetByBranchWithTx(ctx context.Context, tx pgx.Tx, branchID int64) (*branchconfig.BranchConfig, error) {
	query := `
		SELECT id, branch_id, weekly_holidays, skip_meal_days, created_at, updated_at
		FROM branch_configs
		WHERE branch_id = $1
		FOR UPDATE
	`

	var cfg branchconfig.BranchConfig
	err := tx.QueryRow(ctx, query, branchID).Scan(
		&cfg.ID, &cfg.BranchID, &cfg.WeeklyHolidays, &cfg.SkipMealDays,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load branch config: %w", err)
	}
	return &cfg, nil
}

// UpdateWeeklyHolidaysWithTx replaces the weekly holiday list.
func (r *BranchConfigRepository) UpdateWeeklyHolidaysWithTx(ctx context.Context, tx pgx.Tx, branchID int64, weekdays []string) error {
	query := `
		UPDATE branch_configs
		SET weekly_holidays = $2, updated_at = NOW()
		WHERE branch_id = $1
	`

	result, err := tx.Exec(ctx, query, branchID, weekdays)
	if err != nil {
		return fmt.Errorf("failed to update weekly holidays: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// AddNationalHolidayWithTx inserts a dated holiday. The unique constraint on
// (branch_id, holiday_date) makes re-adding the same date a conflict.
func (r *BranchConfigRepository) AddNationalHolidayWithTx(ctx context.Context, tx pgx.Tx, h *branchconfig.NationalHoliday) error {
	query := `
		INSERT INTO national_holidays (branch_id, holiday_date, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (branch_id, holiday_date) DO NOTHING
		RETURNING id, created_at
	`

	err := tx.QueryRow(ctx, query, h.BranchID, h.Date, h.Name).Scan(&h.ID, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to add national holiday: %w", err)
	}
	return nil
}

// ListNationalHolidaysWithTx returns the branch's dated holidays from a date
// onward, inside the caller's transaction.
func (r *BranchConfigRepository) ListNationalHolidaysWithTx(ctx context.Context, tx pgx.Tx, branchID int64, from time.Time) ([]branchconfig.NationalHoliday, error) {
	query := `
		SELECT id, branch_id, holiday_date, name, created_at
		FROM national_holidays
		WHERE branch_id = $1 AND holiday_date >= $2
		ORDER BY holiday_date
	`

	rows, err := tx.Query(ctx, query, branchID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list national holidays: %w", err)
	}
	defer rows.Close()

	var holidays []branchconfig.NationalHoliday
	for rows.Next() {
		var h branchconfig.NationalHoliday
		if err := rows.Scan(&h.ID, &h.BranchID, &h.Date, &h.Name, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan national holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// ListNationalHolidays is the pool-backed variant for read paths.
func (r *BranchConfigRepository) ListNationalHolidays(ctx context.Context, branchID int64, from time.Time) ([]branchconfig.NationalHoliday, error) {
	query := `
		SELECT id, branch_id, holiday_date, name, created_at
		FROM national_holidays
		WHERE branch_id = $1 AND holiday_date >= $2
		ORDER BY holiday_date
	`

	rows, err := r.db.Query(ctx, query, branchID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list national holidays: %w", err)
	}
	defer rows.Close()

	var holidays []branchconfig.NationalHoliday
	for rows.Next() {
		var h branchconfig.NationalHoliday
		if err := rows.Scan(&h.ID, &h.BranchID, &h.Date, &h.Name, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan national holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// AddEmergencyClosureWithTx records a closure with its compensation factor.
func (r *BranchConfigRepository) AddEmergencyClosureWithTx(ctx context.Context, tx pgx.Tx, c *branchconfig.EmergencyClosure) error {
	query := `
		INSERT INTO emergency_closures (branch_id, closure_date, description, compensation_days)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := tx.QueryRow(ctx, query, c.BranchID, c.Date, c.Description, c.CompensationDays).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add emergency closure: %w", err)
	}
	return nil
}

// ListEmergencyClosuresWithTx returns closures from a date onward.
func (r *BranchConfigRepository) ListEmergencyClosuresWithTx(ctx context.Context, tx pgx.Tx, branchID int64, from time.Time) ([]branchconfig.EmergencyClosure, error) {
	query := `
		SELECT id, branch_id, closure_date, description, compensation_days, created_at
		FROM emergency_closures
		WHERE branch_id = $1 AND closure_date >= $2
		ORDER BY closure_date
	`

	rows, err := tx.Query(ctx, query, branchID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list emergency closures: %w", err)
	}
	defer rows.Close()

	var closures []branchconfig.EmergencyClosure
	for rows.Next() {
		var c branchconfig.EmergencyClosure
		if err := rows.Scan(&c.ID, &c.BranchID, &c.Date, &c.Description, &c.CompensationDays, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan emergency closure: %w", err)
		}
		closures = append(closures, c)
	}
	return closures, rows.Err()
}

// ListEmergencyClosures is the pool-backed variant for read-only views.
func (r *BranchConfigRepository) ListEmergencyClosures(ctx context.Context, branchID int64, from time.Time) ([]branchconfig.EmergencyClosure, error) {
	query := `
		SELECT id, branch_id, closure_date, description, compensation_days, created_at
		FROM emergency_closures
		WHERE branch_id = $1 AND closure_date >= $2
		ORDER BY closure_date
	`

	rows, err := r.db.Query(ctx, query, branchID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list emergency closures: %w", err)
	}
	defer rows.Close()

	var closures []branchconfig.EmergencyClosure
	for rows.Next() {
		var c branchconfig.EmergencyClosure
		if err := rows.Scan(&c.ID, &c.BranchID, &c.Date, &c.Description, &c.CompensationDays, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan emergency closure: %w", err)
		}
		closures = append(closures, c)
	}
	return closures, rows.Err()
}

// GetPlanDuration returns the active skip policy for a duration type.
func (r *BranchConfigRepository) GetPlanDuration(ctx context.Context, branchID int64, durationType string) (*branchconfig.PlanDuration, error) {
	query := `
		SELECT id, branch_id, duration_type, min_days, skip_days, is_active
		FROM plan_durations
		WHERE branch_id = $1 AND duration_type = $2 AND is_active = TRUE
	`

	var d branchconfig.PlanDuration
	err := r.db.QueryRow(ctx, query, branchID, durationType).Scan(
		&d.ID, &d.BranchID, &d.DurationType, &d.MinDays, &d.SkipDays, &d.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan duration: %w", err)
	}
	return &d, nil
}

// UpsertPlanDuration creates or updates the skip policy for a duration type.
func (r *BranchConfigRepository) UpsertPlanDuration(ctx context.Context, d *branchconfig.PlanDuration) error {
	query := `
		INSERT INTO plan_durations (branch_id, duration_type, min_days, skip_days, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (branch_id, duration_type)
		DO UPDATE SET min_days = $3, skip_days = $4, is_active = $5
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, d.BranchID, d.DurationType, d.MinDays, d.SkipDays, d.IsActive).
		Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert plan duration: %w", err)
	}
	return nil
}

// ListTimeSlots returns the branch's delivery windows.
func (r *BranchConfigRepository) ListTimeSlots(ctx context.Context, branchID int64) ([]branchconfig.TimeSlot, error) {
	query := `
		SELECT id, label, start_time, end_time, is_active
		FROM time_slots
		WHERE branch_id = $1
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	defer rows.Close()

	var slots []branchconfig.TimeSlot
	for rows.Next() {
		var s branchconfig.TimeSlot
		if err := rows.Scan(&s.ID, &s.Label, &s.StartTime, &s.EndTime, &s.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan time slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// ReplaceTimeSlots swaps the branch's delivery windows in one transaction.
// Existing slots are soft-deactivated rather than deleted because placed
// subscriptions reference them.
func (r *BranchConfigRepository) ReplaceTimeSlots(ctx context.Context, tx pgx.Tx, branchID int64, slots []branchconfig.TimeSlot) error {
	if _, err := tx.Exec(ctx, `UPDATE time_slots SET is_active = FALSE WHERE branch_id = $1`, branchID); err != nil {
		return fmt.Errorf("failed to deactivate time slots: %w", err)
	}

	query := `
		INSERT INTO time_slots (branch_id, label, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
	`
	for _, s := range slots {
		if _, err := tx.Exec(ctx, query, branchID, s.Label, s.StartTime, s.EndTime); err != nil {
			return fmt.Errorf("failed to insert time slot %q: %w", s.Label, err)
		}
	}
	return nil
}
