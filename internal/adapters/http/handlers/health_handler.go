package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cagedesk/internal/config"
	"cagedesk/internal/core/services"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cfg   *config.Config
	guard *services.SchemaGuard
	ping  func() error
}

// NewHealthHandler creates a new health handler. ping checks the database.
func NewHealthHandler(cfg *config.Config, guard *services.SchemaGuard, ping func() error) *HealthHandler {
	return &HealthHandler{cfg: cfg, guard: guard, ping: ping}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "🚀 " + h.cfg.Gym.Name + " console API is running",
		"mode":    h.cfg.AppMode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API and database health, and whether the schema is behind the code
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	dbStatus := "healthy"
	if h.ping != nil {
		if err := h.ping(); err != nil {
			dbStatus = "unhealthy"
		}
	}
	schema := "current"
	if h.guard.Stale() {
		schema = "stale"
	}

	status := fiber.StatusOK
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
			"schema":   schema,
		},
	})
}
