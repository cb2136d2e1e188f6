// internal/service/menu/service.go
package menu

import (
	"context"
	"time"

	"mealdesk-service/internal/domain/menu"
	"mealdesk-service/internal/domain/subscription"
	"mealdesk-service/internal/pkg/dates"
	xerrors "mealdesk-service/internal/pkg/errors"
	"mealdesk-service/internal/repository/postgres"

	"go.uber.org/zap"
)

// Service resolves what meals a subscription receives on a given date. Two
// strategies exist side by side: calendar-weekday mapping, and cycle-day
// counting from the subscription start. Weekday is the default; cycle-day is
// kept for plans whose menus are authored as "day 1..7 of your plan".
type Service struct {
	planRepo *postgres.PlanRepository
	itemRepo *postgres.ItemRepository
	logger   *zap.Logger
}

func NewService(planRepo *postgres.PlanRepository, itemRepo *postgres.ItemRepository, logger *zap.Logger) *Service {
	return &Service{planRepo: planRepo, itemRepo: itemRepo, logger: logger}
}

// MenuDayByWeekday maps a calendar date to a menu day, 1=Monday .. 7=Sunday.
func MenuDayByWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// MenuDayByCycle counts days since the subscription start, wrapping every
// seven: the start date itself is always menu day 1 regardless of weekday.
func MenuDayByCycle(startDate, date time.Time) int {
	return dates.DaysBetween(startDate, date)%7 + 1
}

// ResolveByWeekday resolves meals for one subscription and date using the
// calendar-weekday strategy.
func (s *Service) ResolveByWeekday(ctx context.Context, sub *subscription.Subscription, date time.Time) (*menu.ResolvedMeals, error) {
	return s.resolve(ctx, sub, date, MenuDayByWeekday(date))
}

// ResolveByCycleDay resolves meals using the cycle-day strategy.
func (s *Service) ResolveByCycleDay(ctx context.Context, sub *subscription.Subscription, date time.Time) (*menu.ResolvedMeals, error) {
	return s.resolve(ctx, sub, date, MenuDayByCycle(sub.StartDate, date))
}

func (s *Service) resolve(ctx context.Context, sub *subscription.Subscription, date time.Time, menuDay int) (*menu.ResolvedMeals, error) {
	plan, err := s.planRepo.GetByID(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	// Collect every item ID referenced by the subscriber's packages for this
	// menu day, then load them in one round trip.
	var ids []int64
	perPackage := make(map[subscription.PackageType][]int64, len(sub.SelectedPackages))
	for _, pkg := range sub.SelectedPackages {
		itemIDs := plan.WeeklyMenu.ItemsFor(menuDay, pkg)
		perPackage[pkg] = itemIDs
		ids = append(ids, itemIDs...)
	}

	items, err := s.itemRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	resolved := &menu.ResolvedMeals{
		Date:     dates.Truncate(date),
		MenuDay:  menuDay,
		Packages: make(map[subscription.PackageType][]menu.Item, len(perPackage)),
	}
	for pkg, itemIDs := range perPackage {
		meals := make([]menu.Item, 0, len(itemIDs))
		for _, id := range itemIDs {
			if it, ok := items[id]; ok {
				meals = append(meals, it)
			} else {
				// Stale reference in the weekly menu; resolve what we can.
				s.logger.Warn("weekly menu references missing item",
					zap.Int64("plan_id", plan.ID),
					zap.Int64("item_id", id),
					zap.Int("menu_day", menuDay))
			}
		}
		resolved.Packages[pkg] = meals
	}
	return resolved, nil
}

// ListPlans returns the purchasable plans of a branch.
func (s *Service) ListPlans(ctx context.Context, branchID int64) ([]menu.Plan, error) {
	if branchID <= 0 {
		return nil, xerrors.ErrValidation
	}
	return s.planRepo.ListActiveByBranch(ctx, branchID)
}

// GetPlan returns one plan with its weekly menu.
func (s *Service) GetPlan(ctx context.Context, planID int64) (*menu.Plan, error) {
	return s.planRepo.GetByID(ctx, planID)
}

// ListItems returns the branch's currently orderable items.
func (s *Service) ListItems(ctx context.Context, branchID int64) ([]menu.Item, error) {
	return s.itemRepo.ListAvailableByBranch(ctx, branchID)
}
