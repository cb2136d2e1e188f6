// internal/handlers/menu/menu.go
package menu

import (
	"net/http"
	"strconv"

	"mealdesk-service/internal/pkg/response"
	menuservice "mealdesk-service/internal/service/menu"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service *menuservice.Service
	logger  *zap.Logger
}

func NewHandler(service *menuservice.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// ListPlans returns the purchasable plans of a branch.
func (h *Handler) ListPlans(c *gin.Context) {
	branchID, err := strconv.ParseInt(c.Query("branch_id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid branch_id", err)
		return
	}

	plans, err := h.service.ListPlans(c.Request.Context(), branchID)
	if err != nil {
		response.FromError(c, "failed to list plans", err)
		return
	}

	response.Success(c, http.StatusOK, "plans", plans)
}

// GetPlan returns one plan with its weekly menu.
func (h *Handler) GetPlan(c *gin.Context) {
	planID, err := strconv.ParseInt(c.Param("planId"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid plan id", err)
		return
	}

	plan, err := h.service.GetPlan(c.Request.Context(), planID)
	if err != nil {
		response.FromError(c, "failed to load plan", err)
		return
	}

	response.Success(c, http.StatusOK, "plan", plan)
}

// ListItems returns the branch's orderable items.
func (h *Handler) ListItems(c *gin.Context) {
	branchID, err := strconv.ParseInt(c.Query("branch_id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid branch_id", err)
		return
	}

	items, err := h.service.ListItems(c.Request.Context(), branchID)
	if err != nil {
		response.FromError(c, "failed to list items", err)
		return
	}

	response.Success(c, http.StatusOK, "items", items)
}
