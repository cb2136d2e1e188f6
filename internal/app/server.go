// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"mealdesk-service/internal/config"
	"mealdesk-service/internal/db"
	authHandler "mealdesk-service/internal/handlers/auth"
	configHandler "mealdesk-service/internal/handlers/branchconfig"
	kitchenHandler "mealdesk-service/internal/handlers/kitchen"
	menuHandler "mealdesk-service/internal/handlers/menu"
	orderHandler "mealdesk-service/internal/handlers/order"
	subscriptionHandler "mealdesk-service/internal/handlers/subscription"
	wsHandler "mealdesk-service/internal/handlers/websocket"
	"mealdesk-service/internal/middleware"
	"mealdesk-service/internal/pkg/jwt"
	"mealdesk-service/internal/pkg/session"
	"mealdesk-service/internal/repository/postgres"
	authService "mealdesk-service/internal/service/auth"
	configService "mealdesk-service/internal/service/branchconfig"
	kitchenService "mealdesk-service/internal/service/kitchen"
	menuService "mealdesk-service/internal/service/menu"
	orderService "mealdesk-service/internal/service/order"
	subscriptionService "mealdesk-service/internal/service/subscription"
	"mealdesk-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- PostgreSQL -----
	pool, err := postgres.ConnectDB()
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	// ----- Logger -----
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	s.logger = logger

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	authRepo := postgres.NewAuthRepository(pool)
	subRepo := postgres.NewSubscriptionRepository(pool)
	dayRepo := postgres.NewSubscriptionDayRepository(pool)
	planRepo := postgres.NewPlanRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	branchConfigRepo := postgres.NewBranchConfigRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(jwtManager.Verifier, sessionManager)
	go hub.Run(context.Background())

	// ----- Services -----
	authSvc := authService.NewService(authRepo, jwtManager, sessionManager, rateLimiter, logger)
	engine := subscriptionService.NewExtensionEngine(dayRepo, subRepo, logger)
	subSvc := subscriptionService.NewService(subRepo, dayRepo, planRepo, branchConfigRepo, engine, dbWrapper, logger)
	configSvc := configService.NewService(branchConfigRepo, subRepo, dayRepo, engine, dbWrapper, logger)
	menuSvc := menuService.NewService(planRepo, itemRepo, logger)
	kitchenSvc := kitchenService.NewService(subRepo, orderRepo, menuSvc, redisClient, logger)
	orderSvc := orderService.NewService(orderRepo, itemRepo, hub, kitchenSvc, dbWrapper, logger)

	// ----- Handlers -----
	authHandlerInst := authHandler.NewHandler(authSvc, s.cfg.JWT.TTL, logger)
	subHandlerInst := subscriptionHandler.NewHandler(subSvc, menuSvc, logger)
	configHandlerInst := configHandler.NewHandler(configSvc, logger)
	menuHandlerInst := menuHandler.NewHandler(menuSvc, logger)
	orderHandlerInst := orderHandler.NewHandler(orderSvc, logger)
	kitchenHandlerInst := kitchenHandler.NewHandler(kitchenSvc, orderSvc, logger)
	wsHandlerInst := wsHandler.NewHandler(hub, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(jwtManager.Verifier, sessionManager)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:         authHandlerInst,
		SubscriptionHandler: subHandlerInst,
		ConfigHandler:       configHandlerInst,
		MenuHandler:         menuHandlerInst,
		OrderHandler:        orderHandlerInst,
		KitchenHandler:      kitchenHandlerInst,
		WSHandler:           wsHandlerInst,
		AuthMiddleware:      authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}
