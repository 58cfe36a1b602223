package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cagedesk/internal/core/services"
	"cagedesk/internal/pkg/response"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetDashboard returns the overview figures
// @Summary Dashboard
// @Description Member counts, monthly revenue, pending fees, renewal and birthday counts, open sessions and recent activity
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetDashboard(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to get dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", data)
}
