package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"cagedesk/internal/adapters/http/middleware"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/core/services"
	"cagedesk/internal/pkg/response"
)

// AlertHandler handles worklists and outbound member messages
type AlertHandler struct {
	alertService *services.AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService *services.AlertService) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
	}
}

// GetBirthdays lists birthdays today and tomorrow
// @Summary Birthday worklist
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /alerts/birthdays [get]
func (h *AlertHandler) GetBirthdays(c *fiber.Ctx) error {
	list, err := h.alertService.Birthdays(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to get birthdays")
	}
	return response.Success(c, "Birthdays retrieved successfully", list)
}

// GetRenewals lists members expiring within 7 and within 8..15 days
// @Summary Renewal worklist
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /alerts/renewals [get]
func (h *AlertHandler) GetRenewals(c *fiber.Ctx) error {
	list, err := h.alertService.Renewals(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to get renewals")
	}
	return response.Success(c, "Renewals retrieved successfully", list)
}

// GetPending lists members with an outstanding balance
// @Summary Pending fees worklist
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /alerts/pending [get]
func (h *AlertHandler) GetPending(c *fiber.Ctx) error {
	list, err := h.alertService.Pending(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to get pending fees")
	}
	return response.Success(c, "Pending fees retrieved successfully", list)
}

type sendFunc func(ctx context.Context, actor services.Actor, memberID string) (*services.SendResult, error)

func (h *AlertHandler) send(c *fiber.Ctx, fn sendFunc, done string) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	result, err := fn(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to send message")
	}
	return response.Success(c, done, result)
}

// SendWelcome sends the welcome message (master only)
// @Summary Send welcome message
// @Description Build the welcome chat link and mark the member welcomed. Only the master may send; a second send is a no-op 409.
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /members/{id}/welcome [post]
func (h *AlertHandler) SendWelcome(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	result, err := h.alertService.SendWelcome(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMasterOnly):
			return response.Forbidden(c, h.alertService.MasterOnlyMessage())
		case errors.Is(err, domain.ErrAlreadySent):
			return response.Conflict(c, "Welcome message was already sent")
		}
		return fail(c, err, "Failed to send welcome message")
	}
	return response.Success(c, "Welcome message sent", result)
}

// SendExpiryReminder sends the renewal reminder
// @Summary Send expiry reminder
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id}/reminders/expiry [post]
func (h *AlertHandler) SendExpiryReminder(c *fiber.Ctx) error {
	return h.send(c, h.alertService.SendExpiryReminder, "Expiry reminder sent")
}

// SendPendingReminder sends the fee reminder
// @Summary Send pending fee reminder
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id}/reminders/pending [post]
func (h *AlertHandler) SendPendingReminder(c *fiber.Ctx) error {
	return h.send(c, h.alertService.SendPendingReminder, "Fee reminder sent")
}

// SendBirthdayWish sends the birthday message
// @Summary Send birthday wish
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id}/birthday-wish [post]
func (h *AlertHandler) SendBirthdayWish(c *fiber.Ctx) error {
	return h.send(c, h.alertService.SendBirthdayWish, "Birthday wish sent")
}
