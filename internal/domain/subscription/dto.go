// internal/domain/subscription/dto.go
package subscription

import "time"

type PurchaseSubscriptionRequest struct {
	BranchID         int64         `json:"branch_id" binding:"required"`
	PlanID           int64         `json:"plan_id" binding:"required"`
	SelectedPackages []PackageType `json:"selected_packages" binding:"required,min=1"`
	StartDate        string        `json:"start_date" binding:"required"` // YYYY-MM-DD
	TimeSlotID       *int64        `json:"time_slot_id"`

	// Payment is mocked; the reference is stored verbatim.
	AmountPaid       float64 `json:"amount_paid" binding:"required,min=0"`
	PaymentReference string  `json:"payment_reference"`
}

type SkipDayRequest struct {
	SkipDate string `json:"skipDate" binding:"required"` // YYYY-MM-DD
}

type SkipDayResponse struct {
	SkipDate   string `json:"skipDate"`
	NewEndDate string `json:"newEndDate"`
}

type EligibleSkipDate struct {
	Date    string `json:"date"`
	DayName string `json:"dayName"`
}

type SkipAvailabilityResponse struct {
	RemainingSkips    int                `json:"remainingSkips"`
	MaxSkipDays       int                `json:"maxSkipDays"`
	MinSkipNoticeDays int                `json:"minSkipNoticeDays"`
	EligibleDates     []EligibleSkipDate `json:"eligibleDates"`
}

type ChangeStatusRequest struct {
	Reason string `json:"reason"`
}

type CalendarResponse struct {
	OrderID        string      `json:"order_id"`
	StartDate      time.Time   `json:"start_date"`
	EndDate        time.Time   `json:"end_date"`
	TotalDays      int         `json:"total_days"`
	ExtraDaysAdded int         `json:"extra_days_added"`
	Days           []DayRecord `json:"subscription_days"`
}
