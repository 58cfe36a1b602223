package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"cagedesk/internal/adapters/http/handlers"
	"cagedesk/internal/adapters/http/middleware"
	"cagedesk/internal/config"
)

// catalogMaxAge is how long clients may cache the package catalog
const catalogMaxAge = time.Hour

// Setup configures all routes for the application
func Setup(app *fiber.App, c *Container, cfg *config.Config) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, c.Guard, config.HealthCheck)
	catalogHandler := handlers.NewCatalogHandler()
	authHandler := handlers.NewAuthHandler(c.Sessions)
	memberHandler := handlers.NewMemberHandler(c.Ledger)
	alertHandler := handlers.NewAlertHandler(c.Alerts)
	dashboardHandler := handlers.NewDashboardHandler(c.Dashboard)
	logHandler := handlers.NewLogHandler(c.Audit)
	sessionHandler := handlers.NewSessionHandler(c.Sessions, c.Secrets)
	feedHandler := handlers.NewFeedHandler(c.Hub)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.Root)
	apiV1.Get("/health", healthHandler.HealthCheck)
	apiV1.Get("/catalog", middleware.CatalogCache(catalogMaxAge), catalogHandler.GetCatalog)

	// Auth routes
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)

	// Everything below needs a live session
	protected := apiV1.Group("", middleware.NoCacheHeaders(), middleware.AuthMiddleware(c.Sessions))

	protected.Post("/auth/heartbeat", authHandler.Heartbeat)
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)

	setupMemberRoutes(protected.Group("/members"), memberHandler, alertHandler)
	setupAlertRoutes(protected.Group("/alerts"), alertHandler)

	protected.Get("/dashboard", dashboardHandler.GetDashboard)
	protected.Get("/logs", logHandler.ListLogs)
	protected.Get("/logs/daily", logHandler.DailyLogs)
	protected.Get("/sessions", sessionHandler.ListSessions)
	protected.Get("/feed", feedHandler.Poll)
	protected.Get("/feed/stream", feedHandler.Stream)

	adminRoutes := protected.Group("/admin", middleware.MasterOnly())
	setupAdminRoutes(adminRoutes, sessionHandler)
}

// setupMemberRoutes configures the ledger and the per-member send actions
func setupMemberRoutes(router fiber.Router, members *handlers.MemberHandler, alerts *handlers.AlertHandler) {
	router.Get("/", members.ListMembers)
	router.Post("/", members.CreateMember)
	router.Get("/:id", members.GetMember)
	router.Put("/:id", members.UpdateMember)

	router.Post("/:id/welcome", alerts.SendWelcome)
	router.Post("/:id/reminders/expiry", alerts.SendExpiryReminder)
	router.Post("/:id/reminders/pending", alerts.SendPendingReminder)
	router.Post("/:id/birthday-wish", alerts.SendBirthdayWish)
}

// setupAlertRoutes configures the worklists
func setupAlertRoutes(router fiber.Router, alerts *handlers.AlertHandler) {
	router.Get("/birthdays", alerts.GetBirthdays)
	router.Get("/renewals", alerts.GetRenewals)
	router.Get("/pending", alerts.GetPending)
}

// setupAdminRoutes configures master-only routes
func setupAdminRoutes(router fiber.Router, sessions *handlers.SessionHandler) {
	router.Delete("/sessions/:id", sessions.ForceLogout)
	router.Post("/sessions/logout-others", middleware.StrictRateLimiter(), sessions.LogoutOthers)
	router.Get("/devices", sessions.ListDevices)
	router.Delete("/devices/:phone", sessions.UnbindDevice)
	router.Get("/secret", sessions.RevealSecret)
}
