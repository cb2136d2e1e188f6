// internal/domain/branchconfig/dto.go
package branchconfig

type UpdateWeeklyHolidaysRequest struct {
	WeeklyHolidays []string `json:"weekly_holidays" binding:"required"`
}

type UpdateWeeklyHolidaysResponse struct {
	Config                *BranchConfig `json:"config"`
	NewHolidays           []string      `json:"new_holidays"`
	AffectedSubscriptions int           `json:"affected_subscriptions"`
}

type AddNationalHolidayRequest struct {
	Date string `json:"date" binding:"required"` // YYYY-MM-DD
	Name string `json:"name" binding:"required,max=255"`
}

type AddNationalHolidayResponse struct {
	Holidays              []NationalHoliday `json:"national_holidays"`
	AffectedSubscriptions int               `json:"affected_subscriptions"`
}

type AddEmergencyClosureRequest struct {
	Date             string `json:"date" binding:"required"` // YYYY-MM-DD
	Description      string `json:"description" binding:"required,max=500"`
	CompensationDays int    `json:"compensation_days" binding:"omitempty,min=1,max=7"`
}

type AddEmergencyClosureResponse struct {
	Closures              []EmergencyClosure `json:"emergency_closures"`
	AffectedSubscriptions int                `json:"affected_subscriptions"`
	CompensationDays      int                `json:"compensation_days"`
	ClosureDate           string             `json:"closure_date"`
}

type UpdatePlanDurationsRequest struct {
	PlanDurations []PlanDurationInput `json:"plan_durations" binding:"required,dive"`
}

type PlanDurationInput struct {
	DurationType string `json:"duration_type" binding:"required"`
	MinDays      int    `json:"min_days" binding:"required,min=1"`
	SkipDays     int    `json:"skip_days" binding:"min=0"`
	IsActive     bool   `json:"is_active"`
}

type UpdateTimeSlotsRequest struct {
	TimeSlots []TimeSlotInput `json:"time_slots" binding:"required,dive"`
}

type TimeSlotInput struct {
	Label     string `json:"label" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	IsActive  bool   `json:"is_active"`
}

type ConfigDetailsResponse struct {
	Config           *BranchConfig      `json:"config"`
	NationalHolidays []NationalHoliday  `json:"national_holidays"`
	Closures         []EmergencyClosure `json:"emergency_closures"`
	PlanDurations    []PlanDuration     `json:"plan_durations"`
}
