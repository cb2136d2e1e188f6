// internal/domain/branchconfig/entity.go
package branchconfig

import (
	"time"
)

// BranchConfig holds the per-branch operational calendar and skip policy.
// Weekly holidays recur every week; national holidays and emergency closures
// are dated one-offs stored in their own tables.
type BranchConfig struct {
	ID             int64     `json:"id" db:"id"`
	BranchID       int64     `json:"branch_id" db:"branch_id"`
	WeeklyHolidays []string  `json:"weekly_holidays" db:"weekly_holidays"`
	SkipMealDays   int       `json:"skip_meal_days" db:"skip_meal_days"`
	TimeSlots      []TimeSlot `json:"delivery_time_slots"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// TimeSlot is a delivery window offered by the branch.
type TimeSlot struct {
	ID        int64  `json:"id" db:"id"`
	Label     string `json:"label" db:"label"`
	StartTime string `json:"start_time" db:"start_time"`
	EndTime   string `json:"end_time" db:"end_time"`
	IsActive  bool   `json:"is_active" db:"is_active"`
}

type NationalHoliday struct {
	ID        int64     `json:"id" db:"id"`
	BranchID  int64     `json:"branch_id" db:"branch_id"`
	Date      time.Time `json:"date" db:"holiday_date"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// EmergencyClosure is the only unavailability type that can demand more than
// one compensation day per occurrence.
type EmergencyClosure struct {
	ID               int64     `json:"id" db:"id"`
	BranchID         int64     `json:"branch_id" db:"branch_id"`
	Date             time.Time `json:"date" db:"closure_date"`
	Description      string    `json:"description" db:"description"`
	CompensationDays int       `json:"compensation_days" db:"compensation_days"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// PlanDuration caps user-initiated skips per duration type.
type PlanDuration struct {
	ID           int64  `json:"id" db:"id"`
	BranchID     int64  `json:"branch_id" db:"branch_id"`
	DurationType string `json:"duration_type" db:"duration_type"`
	MinDays      int    `json:"min_days" db:"min_days"`
	SkipDays     int    `json:"skip_days" db:"skip_days"`
	IsActive     bool   `json:"is_active" db:"is_active"`
}

// Weekday names accepted in WeeklyHolidays, as they arrive from the admin UI.
var validWeekdays = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// ParseWeekday maps a weekday name to time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	wd, ok := validWeekdays[name]
	return wd, ok
}

// DiffAddedWeekdays returns the weekday names present in next but not in prev.
// Removals are deliberately ignored: dropping a weekly holiday never
// retroactively un-skips days that were already compensated.
func DiffAddedWeekdays(prev, next []string) []string {
	seen := make(map[string]bool, len(prev))
	for _, d := range prev {
		seen[d] = true
	}
	var added []string
	for _, d := range next {
		if !seen[d] {
			added = append(added, d)
		}
	}
	return added
}
