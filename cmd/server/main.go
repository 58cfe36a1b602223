package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"cagedesk/internal/adapters/chatlink"
	"cagedesk/internal/adapters/http/middleware"
	"cagedesk/internal/adapters/http/routes"
	"cagedesk/internal/adapters/persistence/models"
	"cagedesk/internal/config"
	"cagedesk/internal/core/services"
	"cagedesk/internal/telemetry"

	_ "cagedesk/docs" // Swagger docs
)

// @title CageDesk API
// @version 1.0
// @description Membership ledger, member alerts and staff sessions for the gym front desk

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.OTLP, cfg.AppMode)
	if err != nil {
		log.Printf("⚠️ Tracing disabled: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("⚠️ Failed to flush traces: %v", err)
		}
	}()

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	if err := config.NewSeeder(db, cfg).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	container := routes.NewContainer(db, cfg, chatlink.NewLinkDispatcher())
	// the schema was just migrated, so any earlier stale flag no longer applies
	container.Guard.Reset()

	if err := container.Secrets.Seed(context.Background()); err != nil {
		log.Printf("⚠️ Warning: Failed to seed login secret: %v", err)
	}

	cronService := services.NewCronService(container.Sessions, container.Secrets,
		cfg.MassLogoutSchedule(), cfg.RotationSchedule(), time.Hour)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.Gym.Name + " Console API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		// long-poll reads hold the connection up to the feed wait cap
		ReadTimeout:  90 * time.Second,
		WriteTimeout: 90 * time.Second,
	})

	middleware.Setup(app, cfg)
	routes.Setup(app, container, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
