// internal/handlers/kitchen/kitchen.go
package kitchen

import (
	"net/http"
	"strconv"
	"time"

	"mealdesk-service/internal/pkg/dates"
	"mealdesk-service/internal/pkg/response"
	kitchenservice "mealdesk-service/internal/service/kitchen"
	orderservice "mealdesk-service/internal/service/order"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service *kitchenservice.Service
	orders  *orderservice.Service
	logger  *zap.Logger
}

func NewHandler(service *kitchenservice.Service, orders *orderservice.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, orders: orders, logger: logger}
}

// Dashboard returns the cached prep view for a branch. Defaults to today;
// ?date=YYYY-MM-DD shows another day for prep planning.
func (h *Handler) Dashboard(c *gin.Context) {
	branchID, err := strconv.ParseInt(c.Param("branchId"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid branch id", err)
		return
	}

	date := dates.Today()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.ValidationError(c, "invalid date", err)
			return
		}
		date = parsed
	}

	dashboard, err := h.service.GetDashboard(c.Request.Context(), branchID, date)
	if err != nil {
		response.FromError(c, "failed to build dashboard", err)
		return
	}

	response.Success(c, http.StatusOK, "kitchen dashboard", dashboard)
}

// OpenOrders returns the live order queue without the cache, for the
// order-board screen that already receives websocket pushes.
func (h *Handler) OpenOrders(c *gin.Context) {
	branchID, err := strconv.ParseInt(c.Param("branchId"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid branch id", err)
		return
	}

	orders, err := h.orders.ListOpenByBranch(c.Request.Context(), branchID)
	if err != nil {
		response.FromError(c, "failed to list open orders", err)
		return
	}

	response.Success(c, http.StatusOK, "open orders", orders)
}
