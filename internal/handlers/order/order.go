// internal/handlers/order/order.go
package order

import (
	"net/http"
	"strconv"

	orderdomain "mealdesk-service/internal/domain/order"
	"mealdesk-service/internal/pkg/response"
	orderservice "mealdesk-service/internal/service/order"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the three walk-in order flows. Placement and tracking are
// public, authenticated by the tokens themselves; status updates and table
// session management are staff routes.
type Handler struct {
	service *orderservice.Service
	logger  *zap.Logger
}

func NewHandler(service *orderservice.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// OpenTableSession opens a dine-in sitting and returns its QR token.
func (h *Handler) OpenTableSession(c *gin.Context) {
	var req orderdomain.OpenTableSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid session request", err)
		return
	}

	session, err := h.service.OpenTableSession(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to open table session", err)
		return
	}

	response.Success(c, http.StatusCreated, "table session opened", session)
}

// CloseTableSession settles a sitting.
func (h *Handler) CloseTableSession(c *gin.Context) {
	if err := h.service.CloseTableSession(c.Request.Context(), c.Param("token")); err != nil {
		response.FromError(c, "failed to close table session", err)
		return
	}

	response.Success(c, http.StatusOK, "table session closed", nil)
}

// SessionOrders lists everything ordered under one sitting.
func (h *Handler) SessionOrders(c *gin.Context) {
	orders, err := h.service.SessionOrders(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.FromError(c, "failed to list session orders", err)
		return
	}

	response.Success(c, http.StatusOK, "session orders", orders)
}

// PlaceDineIn places an order against an open table session.
func (h *Handler) PlaceDineIn(c *gin.Context) {
	var req orderdomain.PlaceDineInOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid dine-in order", err)
		return
	}

	placed, err := h.service.PlaceDineIn(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to place order", err)
		return
	}

	response.Success(c, http.StatusCreated, "order placed", placed)
}

// PlaceTakeaway places a pickup order.
func (h *Handler) PlaceTakeaway(c *gin.Context) {
	var req orderdomain.PlaceTakeawayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid takeaway order", err)
		return
	}

	placed, err := h.service.PlaceTakeaway(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to place order", err)
		return
	}

	response.Success(c, http.StatusCreated, "order placed", placed)
}

// PlaceCatering places a dated event order.
func (h *Handler) PlaceCatering(c *gin.Context) {
	var req orderdomain.PlaceCateringOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid catering order", err)
		return
	}

	placed, err := h.service.PlaceCatering(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to place order", err)
		return
	}

	response.Success(c, http.StatusCreated, "order placed", placed)
}

// Track returns an order by its customer-facing token.
func (h *Handler) Track(c *gin.Context) {
	placed, err := h.service.TrackByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.FromError(c, "order not found", err)
		return
	}

	response.Success(c, http.StatusOK, "order", placed)
}

// UpdateStatus moves an order through its state machine, staff only.
func (h *Handler) UpdateStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid order id", err)
		return
	}

	var req orderdomain.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid status request", err)
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		response.FromError(c, "failed to update order status", err)
		return
	}

	response.Success(c, http.StatusOK, "order status updated", updated)
}
