package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-distribution-ws/internal/config"
	"go-distribution-ws/internal/handler"
	"go-distribution-ws/internal/middleware"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/notify"
	"go-distribution-ws/internal/pubsub"
	"go-distribution-ws/internal/repository"
	"go-distribution-ws/internal/scheduler"
	"go-distribution-ws/internal/service"
	"go-distribution-ws/internal/ws"
	"go-distribution-ws/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// 1. Load Env
	cfg := config.Load()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DB.DSN(), cfg.DB.Pool)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Setup WebSocket Hub, optionally behind a Redis relay
	wsHub := ws.NewHub()
	go wsHub.Run()

	var publisher notify.Publisher = wsHub
	if cfg.Redis.Enabled() {
		client, err := config.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()

		relay := pubsub.NewRedisRelay(client, cfg.Redis.Channel, wsHub)
		publisher = relay
		go func() {
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Redis relay stopped: %v", err)
			}
		}()
		log.Printf("Notifications relayed through Redis channel %q", cfg.Redis.Channel)
	}

	// 4. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)
	debtRepo := repository.NewDebtRepo(db)
	notifRepo := repository.NewNotificationRepo(db)

	sink := notify.NewSink(notifRepo, publisher)
	resolver := service.NewCounterpartyResolver(userRepo)

	sellService := service.NewSellService(db, productRepo, userRepo, txRepo, debtRepo, resolver, sink)
	trxService := service.NewTransactionService(db, txRepo, productRepo, sink)
	debtService := service.NewDebtService(db, debtRepo, sink)
	notifService := service.NewNotificationService(notifRepo)
	invService := service.NewInventoryService(db, productRepo, userRepo, sink)
	userService := service.NewUserService(userRepo, txRepo, debtRepo, productRepo)
	authService := service.NewAuthService(userRepo)
	dashService := service.NewDashboardService(userRepo, productRepo, txRepo)

	handlers := handler.Handlers{
		Auth:         handler.NewAuthHandler(authService, userService, cfg.RootToken),
		User:         handler.NewUserHandler(userService),
		Inventory:    handler.NewInventoryHandler(invService),
		Transaction:  handler.NewTransactionHandler(sellService, trxService),
		Debt:         handler.NewDebtHandler(debtService),
		Notification: handler.NewNotificationHandler(notifService),
		Dashboard:    handler.NewDashboardHandler(dashService),
	}

	loginLimit, err := middleware.RateLimit(cfg.Limits.Login)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT_LOGIN: %v", err)
	}
	sellLimit, err := middleware.RateLimit(cfg.Limits.Sell)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT_SELL: %v", err)
	}

	// 5. Daily notification sweep
	sweeper, err := scheduler.NewNotificationSweeper(cfg.Schedule.SweepSpec, cfg.Schedule.Location, notifService)
	if err != nil {
		log.Fatalf("Invalid NOTIFICATION_SWEEP_CRON: %v", err)
	}
	sweeper.Start()

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Distribution Network v1.0",
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	handler.Mount(app, handlers, handler.Guards{
		Auth:       middleware.RequireAuth(userRepo),
		LoginLimit: loginLimit,
		SellLimit:  sellLimit,
	})

	// WebSocket Route
	app.Use("/ws", handler.RequireUpgrade)
	app.Get("/ws", handler.WebSocket(wsHub))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	<-sweeper.Stop().Done()
	stop()
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
