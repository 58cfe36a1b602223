package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cagedesk/internal/core/services"
	"cagedesk/internal/pkg/pagination"
	"cagedesk/internal/pkg/response"
)

// LogHandler serves the audit log
type LogHandler struct {
	auditService *services.AuditService
}

// NewLogHandler creates a new log handler
func NewLogHandler(auditService *services.AuditService) *LogHandler {
	return &LogHandler{auditService: auditService}
}

// ListLogs returns one page of the audit log, newest first
// @Summary Audit log
// @Tags Logs
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Rows per page" default(50)
// @Success 200 {object} response.Response
// @Router /logs [get]
func (h *LogHandler) ListLogs(c *fiber.Ctx) error {
	page, err := h.auditService.List(c.UserContext(), pagination.GetParams(c))
	if err != nil {
		return fail(c, err, "Failed to list logs")
	}
	return response.Success(c, "Logs retrieved successfully", page)
}

// DailyLogs returns the latest entries split at local midnight
// @Summary Audit log by day
// @Description The latest 200 entries split into today and earlier
// @Tags Logs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /logs/daily [get]
func (h *LogHandler) DailyLogs(c *fiber.Ctx) error {
	daily, err := h.auditService.Daily(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to get logs")
	}
	return response.Success(c, "Logs retrieved successfully", daily)
}
