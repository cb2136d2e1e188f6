// internal/app/router.go
package app

import (
	authHandler "mealdesk-service/internal/handlers/auth"
	configHandler "mealdesk-service/internal/handlers/branchconfig"
	kitchenHandler "mealdesk-service/internal/handlers/kitchen"
	menuHandler "mealdesk-service/internal/handlers/menu"
	orderHandler "mealdesk-service/internal/handlers/order"
	subscriptionHandler "mealdesk-service/internal/handlers/subscription"
	wsHandler "mealdesk-service/internal/handlers/websocket"
	"mealdesk-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler         *authHandler.Handler
	SubscriptionHandler *subscriptionHandler.Handler
	ConfigHandler       *configHandler.Handler
	MenuHandler         *menuHandler.Handler
	OrderHandler        *orderHandler.Handler
	KitchenHandler      *kitchenHandler.Handler
	WSHandler           *wsHandler.Handler
	AuthMiddleware      *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Staff Auth ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/login", h.AuthHandler.Login)
		authPublic.POST("/refresh", h.AuthHandler.Refresh)
	}

	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.Me)
	}

	// ==================== Menu (public) ====================
	plans := api.Group("/plans")
	{
		plans.GET("", h.MenuHandler.ListPlans)    // ?branch_id=1
		plans.GET("/:planId", h.MenuHandler.GetPlan)
	}
	api.GET("/items", h.MenuHandler.ListItems) // ?branch_id=1

	// ==================== Subscriptions (customer) ====================
	subscriptions := api.Group("/subscriptions")
	{
		subscriptions.POST("", h.SubscriptionHandler.Purchase)
		subscriptions.GET("", h.SubscriptionHandler.List)

		user := subscriptions.Group("/user/:orderId")
		{
			user.GET("/skip-availability", h.SubscriptionHandler.SkipAvailability)
			user.POST("/skip", h.SubscriptionHandler.SkipDay)
			user.GET("/calendar", h.SubscriptionHandler.Calendar)
			user.GET("/skip-history", h.SubscriptionHandler.SkipHistory)
			user.GET("/meals", h.SubscriptionHandler.Meals) // ?date=&strategy=
			user.PUT("/status/:status", h.SubscriptionHandler.ChangeStatus)
		}
	}

	// ==================== Orders (customer, token-addressed) ====================
	orders := api.Group("/orders")
	{
		orders.POST("/dine-in", h.OrderHandler.PlaceDineIn)
		orders.POST("/takeaway", h.OrderHandler.PlaceTakeaway)
		orders.POST("/catering", h.OrderHandler.PlaceCatering)
		orders.GET("/track/:token", h.OrderHandler.Track)
		orders.GET("/session/:token", h.OrderHandler.SessionOrders)
	}

	// ==================== Staff Order Management ====================
	staffOrders := api.Group("/staff/orders")
	staffOrders.Use(h.AuthMiddleware.KitchenOnly()...)
	{
		staffOrders.PUT("/:orderId/status", h.OrderHandler.UpdateStatus)
	}

	staffSessions := api.Group("/staff/table-sessions")
	staffSessions.Use(h.AuthMiddleware.KitchenOnly()...)
	{
		staffSessions.POST("", h.OrderHandler.OpenTableSession)
		staffSessions.PUT("/:token/close", h.OrderHandler.CloseTableSession)
	}

	// ==================== Kitchen ====================
	kitchen := api.Group("/kitchen/:branchId")
	kitchen.Use(h.AuthMiddleware.KitchenOnly()...)
	kitchen.Use(h.AuthMiddleware.RequireBranchAccess())
	{
		kitchen.GET("/dashboard", h.KitchenHandler.Dashboard) // ?date=
		kitchen.GET("/orders", h.KitchenHandler.OpenOrders)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	{
		adminConfig := admin.Group("/config/:branchId")
		adminConfig.Use(h.AuthMiddleware.AdminOnly()...)
		adminConfig.Use(h.AuthMiddleware.RequireBranchAccess())
		{
			adminConfig.GET("", h.ConfigHandler.GetConfig)
			adminConfig.PUT("/weekly-holidays", h.ConfigHandler.UpdateWeeklyHolidays)
			adminConfig.POST("/holiday", h.ConfigHandler.AddNationalHoliday)
			adminConfig.POST("/emergency", h.ConfigHandler.AddEmergencyClosure)
			adminConfig.PUT("/plan-durations", h.ConfigHandler.UpdatePlanDurations)
			adminConfig.PUT("/time-slots", h.ConfigHandler.UpdateTimeSlots)
		}

		adminWS := admin.Group("")
		adminWS.Use(h.AuthMiddleware.AdminOnly()...)
		{
			adminWS.GET("/ws/stats", h.WSHandler.GetStats)
		}
	}
}
