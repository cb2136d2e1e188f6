// internal/handlers/subscription/subscription.go
package subscription

import (
	"net/http"
	"strconv"
	"time"

	subdomain "mealdesk-service/internal/domain/subscription"
	"mealdesk-service/internal/pkg/dates"
	"mealdesk-service/internal/pkg/response"
	menuservice "mealdesk-service/internal/service/menu"
	subservice "mealdesk-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the customer-facing subscription endpoints. Customer
// identity arrives as an X-User-Id header set by the gateway; the orderId in
// the path is then checked against that user.
type Handler struct {
	service *subservice.Service
	menus   *menuservice.Service
	logger  *zap.Logger
}

func NewHandler(service *subservice.Service, menus *menuservice.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, menus: menus, logger: logger}
}

// Purchase creates a subscription with its day ledger.
func (h *Handler) Purchase(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}

	var req subdomain.PurchaseSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid purchase request", err)
		return
	}

	sub, err := h.service.Purchase(c.Request.Context(), userID, &req)
	if err != nil {
		response.FromError(c, "failed to purchase subscription", err)
		return
	}

	response.Success(c, http.StatusCreated, "subscription created", sub)
}

// List returns the user's subscriptions.
func (h *Handler) List(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}

	subs, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, "failed to list subscriptions", err)
		return
	}

	response.Success(c, http.StatusOK, "subscriptions", subs)
}

// SkipAvailability reports remaining quota and eligible skip dates.
func (h *Handler) SkipAvailability(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}

	resp, err := h.service.SkipAvailability(c.Request.Context(), c.Param("orderId"), userID)
	if err != nil {
		response.FromError(c, "failed to check skip availability", err)
		return
	}

	response.Success(c, http.StatusOK, "skip availability", resp)
}

// SkipDay skips one future delivery day.
func (h *Handler) SkipDay(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}

	var req subdomain.SkipDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid skip request", err)
		return
	}

	resp, err := h.service.SkipDay(c.Request.Context(), c.Param("orderId"), userID, &req)
	if err != nil {
		response.FromError(c, "failed to skip day", err)
		return
	}

	response.Success(c, http.StatusOK, "day skipped", resp)
}

// Calendar returns the full day ledger.
func (h *Handler) Calendar(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}

	resp, err := h.service.Calendar(c.Request.Context(), c.Param("orderId"), userID)
	if err != nil {
		response.FromError(c, "failed to load calendar", err)
		return
	}

	response.Success(c, http.StatusOK, "calendar", resp)
}

// SkipHistory returns the compensation audit trail.
func (h *Handler) SkipHistory(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}

	entries, err := h.service.SkipHistory(c.Request.Context(), c.Param("orderId"), userID)
	if err != nil {
		response.FromError(c, "failed to load skip history", err)
		return
	}

	response.Success(c, http.StatusOK, "skip history", entries)
}

// ChangeStatus pauses, resumes or cancels a subscription.
func (h *Handler) ChangeStatus(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}

	status := subdomain.SubscriptionStatus(c.Param("status"))
	switch status {
	case subdomain.SubscriptionStatusActive, subdomain.SubscriptionStatusPaused, subdomain.SubscriptionStatusCancelled:
	default:
		response.ValidationError(c, "invalid target status", nil)
		return
	}

	// Body is optional; a stated reason goes to the audit log only.
	var req subdomain.ChangeStatusRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.service.ChangeStatus(c.Request.Context(), c.Param("orderId"), userID, status, req.Reason); err != nil {
		response.FromError(c, "failed to change status", err)
		return
	}

	response.Success(c, http.StatusOK, "status changed", gin.H{"status": status})
}

// Meals resolves the menu for one delivery date. Strategy defaults to
// weekday; ?strategy=cycle selects cycle-day counting.
func (h *Handler) Meals(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		return
	}

	sub, err := h.service.Get(c.Request.Context(), c.Param("orderId"), userID)
	if err != nil {
		response.FromError(c, "failed to load subscription", err)
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

	var resolved interface{}
	if c.Query("strategy") == "cycle" {
		resolved, err = h.menus.ResolveByCycleDay(c.Request.Context(), sub, date)
	} else {
		resolved, err = h.menus.ResolveByWeekday(c.Request.Context(), sub, date)
	}
	if err != nil {
		response.FromError(c, "failed to resolve meals", err)
		return
	}

	response.Success(c, http.StatusOK, "meals", resolved)
}

// userIDFrom reads the gateway-provided customer identity. Writes the error
// response itself so callers can just return on !ok.
func userIDFrom(c *gin.Context) (int64, bool) {
	raw := c.GetHeader("X-User-Id")
	if raw == "" {
		response.Unauthorized(c, "missing user identity")
		return 0, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		response.Unauthorized(c, "invalid user identity")
		return 0, false
	}
	return userID, true
}
