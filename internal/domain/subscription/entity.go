// internal/domain/subscription/entity.go
package subscription

import (
	"database/sql"
	"time"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusCompleted SubscriptionStatus = "completed"
)

// allowedTransitions is the subscription status transition table. Cancelled
// and completed are terminal.
var allowedTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusActive: {SubscriptionStatusPaused, SubscriptionStatusCancelled, SubscriptionStatusCompleted},
	SubscriptionStatusPaused: {SubscriptionStatusActive, SubscriptionStatusCancelled},
}

// CanTransition reports whether a status change is permitted.
func CanTransition(from, to SubscriptionStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PackageType identifies one meal slot within a plan.
type PackageType string

const (
	PackageBreakfast PackageType = "breakfast"
	PackageLunch     PackageType = "lunch"
	PackageDinner    PackageType = "dinner"
	PackageSnacks    PackageType = "snacks"
)

// Subscription is one meal-plan purchase. Plan fields are denormalized at
// purchase time so later plan edits never change what was sold.
type Subscription struct {
	ID       int64  `json:"id" db:"id"`
	OrderID  string `json:"order_id" db:"order_id"`
	BranchID int64  `json:"branch_id" db:"branch_id"`
	UserID   int64  `json:"user_id" db:"user_id"`

	// Denormalized plan snapshot
	PlanID           int64         `json:"plan_id" db:"plan_id"`
	SelectedPackages []PackageType `json:"selected_packages" db:"selected_packages"`
	DurationType     string        `json:"duration_type" db:"duration_type"`
	TotalDays        int           `json:"total_days" db:"total_days"`
	ExtraDaysAdded   int           `json:"extra_days_added" db:"extra_days_added"`

	// Delivery calendar bounds; EndDate is always the date of the last
	// DayRecord and is advanced only by the extension engine.
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`

	TimeSlotID sql.NullInt64 `json:"time_slot_id,omitempty" db:"time_slot_id"`

	Status SubscriptionStatus `json:"status" db:"status"`

	// User-skip quota, independent of holiday-driven extensions.
	SkipMealStatus SkipMealStatus `json:"skip_meal_status"`

	// Loaded on demand; not every query hydrates the full ledger.
	Days []DayRecord `json:"subscription_days,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type SkipMealStatus struct {
	TotalSkipsAllowed int          `json:"total_skips_allowed" db:"total_skips_allowed"`
	SkipsUsed         int          `json:"skips_used" db:"skips_used"`
	LastSkipDate      sql.NullTime `json:"last_skip_date,omitempty" db:"last_skip_date"`
}

// DayRecord is one dated entry in a subscription's delivery ledger. Records
// are only ever inserted or flagged unavailable, never deleted.
type DayRecord struct {
	ID             int64     `json:"id" db:"id"`
	SubscriptionID int64     `json:"subscription_id" db:"subscription_id"`
	Date           time.Time `json:"date" db:"delivery_date"`
	IsAvailable    bool      `json:"is_available" db:"is_available"`
	IsSkipped      bool      `json:"is_skipped" db:"is_skipped"`
	IsExtensionDay bool      `json:"is_extension_day" db:"is_extension_day"`

	UnavailableReason sql.NullString `json:"unavailable_reason,omitempty" db:"unavailable_reason"`

	// Back-reference from an extension day to the day it compensates.
	OriginalSkippedDate sql.NullTime `json:"original_skipped_date,omitempty" db:"original_skipped_date"`

	SkippedAt sql.NullTime `json:"skipped_at,omitempty" db:"skipped_at"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// Deliverable reports whether this day still counts toward the paid-day total.
func (d DayRecord) Deliverable() bool {
	return d.IsAvailable && !d.IsSkipped
}

// SkipHistoryEntry is one row of the append-only audit trail. Entries are
// never mutated after insert.
type SkipHistoryEntry struct {
	ID                int64     `json:"id" db:"id"`
	SubscriptionID    int64     `json:"subscription_id" db:"subscription_id"`
	OriginalDate      time.Time `json:"original_date" db:"original_date"`
	ExtensionDate     time.Time `json:"extension_date" db:"extension_date"`
	Reason            string    `json:"reason" db:"reason"`
	IsSystemGenerated bool      `json:"is_system_generated" db:"is_system_generated"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
