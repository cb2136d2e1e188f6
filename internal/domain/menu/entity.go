// internal/domain/menu/entity.go
package menu

import (
	"time"

	"mealdesk-service/internal/domain/subscription"
)

// Plan is a branch-scoped meal plan. WeeklyMenu maps a menu day (1..7) to the
// ordered item lists per package type; it is the structure the resolution
// layer reads, never mutates.
type Plan struct {
	ID           int64                      `json:"id" db:"id"`
	BranchID     int64                      `json:"branch_id" db:"branch_id"`
	Name         string                     `json:"name" db:"name"`
	Description  string                     `json:"description" db:"description"`
	DurationType string                     `json:"duration_type" db:"duration_type"`
	TotalDays    int                        `json:"total_days" db:"total_days"`
	Price        float64                    `json:"price" db:"price"`
	Packages     []subscription.PackageType `json:"packages" db:"packages"`
	WeeklyMenu   WeeklyMenu                 `json:"weekly_menu" db:"weekly_menu"`
	IsActive     bool                       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time                  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at" db:"updated_at"`
}

// WeeklyMenu: menu day (1..7) -> package type -> ordered item IDs.
// Stored as JSONB on the plan row.
type WeeklyMenu map[int]map[subscription.PackageType][]int64

// ItemsFor returns the ordered item IDs for a menu day and package. A missing
// day or package yields an empty list, never an error, so kitchen and user
// views degrade gracefully.
func (m WeeklyMenu) ItemsFor(day int, pkg subscription.PackageType) []int64 {
	packages, ok := m[day]
	if !ok {
		return nil
	}
	return packages[pkg]
}

// Item is a displayable menu item, the unit the kitchen prepares.
type Item struct {
	ID           int64     `json:"id" db:"id"`
	BranchID     int64     `json:"branch_id" db:"branch_id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	Price        float64   `json:"price" db:"price"`
	IsVegetarian bool      `json:"is_vegetarian" db:"is_vegetarian"`
	IsAvailable  bool      `json:"is_available" db:"is_available"`
	ImageURL     string    `json:"image_url" db:"image_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ResolvedMeals is one day's menu for a subscription, keyed by the packages
// the subscriber actually bought.
type ResolvedMeals struct {
	Date     time.Time                           `json:"date"`
	MenuDay  int                                 `json:"menu_day"`
	Packages map[subscription.PackageType][]Item `json:"packages"`
}
