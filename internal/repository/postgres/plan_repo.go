// internal/repository/postgres/plan_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mealdesk-service/internal/domain/menu"
	xerrors "mealdesk-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PlanRepository struct {
	db *pgxpool.Pool
}

func NewPlanRepository(db *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `id, branch_id, name, description, duration_type, total_days,
	price, packages, weekly_menu, is_active, created_at, updated_at`

// GetByID loads one plan with its weekly menu decoded from JSONB.
func (r *PlanRepository) GetByID(ctx context.Context, planID int64) (*menu.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	return scanPlan(r.db.QueryRow(ctx, query, planID))
}

// ListActiveByBranch returns the plans a user can currently purchase.
func (r *PlanRepository) ListActiveByBranch(ctx context.Context, branchID int64) ([]menu.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE branch_id = $1 AND is_active = TRUE ORDER BY id`

	rows, err := r.db.Query(ctx, query, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []menu.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// Create inserts a plan with its weekly menu encoded as JSONB.
func (r *PlanRepository) Create(ctx context.Context, p *menu.Plan) error {
	weeklyMenu, err := json.Marshal(p.WeeklyMenu)
	if err != nil {
		return fmt.Errorf("failed to encode weekly menu: %w", err)
	}

	query := `
		INSERT INTO plans (branch_id, name, description, duration_type, total_days, price, packages, weekly_menu, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	packages := packageTypesToStrings(p.Packages)

	err = r.db.QueryRow(ctx, query,
		p.BranchID, p.Name, p.Description, p.DurationType, p.TotalDays,
		p.Price, packages, weeklyMenu, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

// UpdateWeeklyMenu replaces a plan's menu. Existing subscriptions pick up the
// change on their next resolved day; item snapshots on placed orders do not.
func (r *PlanRepository) UpdateWeeklyMenu(ctx context.Context, planID int64, m menu.WeeklyMenu) error {
	weeklyMenu, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode weekly menu: %w", err)
	}

	result, err := r.db.Exec(ctx,
		`UPDATE plans SET weekly_menu = $2, updated_at = NOW() WHERE id = $1`,
		planID, weeklyMenu,
	)
	if err != nil {
		return fmt.Errorf("failed to update weekly menu: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func scanPlan(row pgx.Row) (*menu.Plan, error) {
	var p menu.Plan
	var packages []string
	var weeklyMenu []byte

	err := row.Scan(
		&p.ID, &p.BranchID, &p.Name, &p.Description, &p.DurationType, &p.TotalDays,
		&p.Price, &packages, &weeklyMenu, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}

	p.Packages = stringsToPackageTypes(packages)
	if len(weeklyMenu) > 0 {
		if err := json.Unmarshal(weeklyMenu, &p.WeeklyMenu); err != nil {
			return nil, fmt.Errorf("failed to decode weekly menu: %w", err)
		}
	}
	return &p, nil
}
