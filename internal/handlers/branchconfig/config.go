// internal/handlers/branchconfig/config.go
package branchconfig

import (
	"net/http"
	"strconv"

	configdomain "mealdesk-service/internal/domain/branchconfig"
	"mealdesk-service/internal/pkg/response"
	configservice "mealdesk-service/internal/service/branchconfig"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the admin calendar endpoints. Every write here may fan out
// into subscription extensions; the service keeps each request in one
// transaction.
type Handler struct {
	service *configservice.Service
	logger  *zap.Logger
}

func NewHandler(service *configservice.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// GetConfig returns the branch's full calendar setup.
func (h *Handler) GetConfig(c *gin.Context) {
	branchID, ok := branchIDFrom(c)
	if !ok {
		return
	}

	resp, err := h.service.ConfigDetails(c.Request.Context(), branchID)
	if err != nil {
		response.FromError(c, "failed to load branch config", err)
		return
	}

	response.Success(c, http.StatusOK, "branch config", resp)
}

// UpdateWeeklyHolidays replaces the recurring holiday list.
func (h *Handler) UpdateWeeklyHolidays(c *gin.Context) {
	branchID, ok := branchIDFrom(c)
	if !ok {
		return
	}

	var req configdomain.UpdateWeeklyHolidaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid weekly holidays request", err)
		return
	}

	resp, err := h.service.UpdateWeeklyHolidays(c.Request.Context(), branchID, &req)
	if err != nil {
		response.FromError(c, "failed to update weekly holidays", err)
		return
	}

	response.Success(c, http.StatusOK, "weekly holidays updated", resp)
}

// AddNationalHoliday records a dated holiday.
func (h *Handler) AddNationalHoliday(c *gin.Context) {
	branchID, ok := branchIDFrom(c)
	if !ok {
		return
	}

	var req configdomain.AddNationalHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid holiday request", err)
		return
	}

	resp, err := h.service.AddNationalHoliday(c.Request.Context(), branchID, &req)
	if err != nil {
		response.FromError(c, "failed to add national holiday", err)
		return
	}

	response.Success(c, http.StatusCreated, "national holiday added", resp)
}

// AddEmergencyClosure records an unplanned closure.
func (h *Handler) AddEmergencyClosure(c *gin.Context) {
	branchID, ok := branchIDFrom(c)
	if !ok {
		return
	}

	var req configdomain.AddEmergencyClosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid closure request", err)
		return
	}

	resp, err := h.service.AddEmergencyClosure(c.Request.Context(), branchID, &req)
	if err != nil {
		response.FromError(c, "failed to add emergency closure", err)
		return
	}

	response.Success(c, http.StatusCreated, "emergency closure added", resp)
}

// UpdatePlanDurations upserts the per-duration skip policies.
func (h *Handler) UpdatePlanDurations(c *gin.Context) {
	branchID, ok := branchIDFrom(c)
	if !ok {
		return
	}

	var req configdomain.UpdatePlanDurationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid plan durations request", err)
		return
	}

	durations, err := h.service.UpdatePlanDurations(c.Request.Context(), branchID, &req)
	if err != nil {
		response.FromError(c, "failed to update plan durations", err)
		return
	}

	response.Success(c, http.StatusOK, "plan durations updated", durations)
}

// UpdateTimeSlots replaces the branch's delivery windows.
func (h *Handler) UpdateTimeSlots(c *gin.Context) {
	branchID, ok := branchIDFrom(c)
	if !ok {
		return
	}

	var req configdomain.UpdateTimeSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid time slots request", err)
		return
	}

	slots, err := h.service.UpdateTimeSlots(c.Request.Context(), branchID, &req)
	if err != nil {
		response.FromError(c, "failed to update time slots", err)
		return
	}

	response.Success(c, http.StatusOK, "time slots updated", slots)
}

func branchIDFrom(c *gin.Context) (int64, bool) {
	branchID, err := strconv.ParseInt(c.Param("branchId"), 10, 64)
	if err != nil || branchID <= 0 {
		response.ValidationError(c, "invalid branch id", err)
		return 0, false
	}
	return branchID, true
}
