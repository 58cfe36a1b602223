package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"cagedesk/internal/adapters/http/middleware"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/core/services"
	"cagedesk/internal/pkg/response"
)

// AuthHandler handles login and session liveness endpoints
type AuthHandler struct {
	sessionService *services.SessionService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessionService *services.SessionService) *AuthHandler {
	return &AuthHandler{
		sessionService: sessionService,
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Phone    string `json:"phone"`
	Secret   string `json:"secret"`
	DeviceID string `json:"device_id"`
}

// Login handles staff login
// @Summary Login staff member
// @Description Check the phone against the staff roster, verify the rotating secret and bind or match the device fingerprint
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if strings.TrimSpace(req.Phone) == "" {
		return response.Invalid(c, "phone", "Phone is required")
	}
	if strings.TrimSpace(req.Secret) == "" {
		return response.Invalid(c, "secret", "Secret is required")
	}

	result, err := h.sessionService.Login(c.UserContext(), services.LoginInput{
		Phone:     req.Phone,
		Secret:    req.Secret,
		DeviceID:  req.DeviceID,
		UserAgent: c.Get(fiber.HeaderUserAgent),
		IP:        c.IP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTooManyAttempts):
			return response.TooManyRequests(c, "Too many login attempts, wait a minute")
		case errors.Is(err, domain.ErrInvalidCredentials):
			return response.Unauthorized(c, "INVALID CREDENTIALS OR PHONE")
		case errors.Is(err, domain.ErrDeviceNotBound):
			return response.Forbidden(c, h.sessionService.DeviceMismatchMessage())
		case errors.Is(err, domain.ErrCrossBinding):
			return response.Forbidden(c, "SECURITY: This device may not sign in to this account.")
		default:
			return fail(c, err, "Failed to login")
		}
	}

	return response.Success(c, "Login successful", result)
}

// Heartbeat keeps the session alive
// @Summary Session heartbeat
// @Description Refresh last_active for the current session. 401 means the session was terminated elsewhere.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/heartbeat [post]
func (h *AuthHandler) Heartbeat(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.sessionService.Heartbeat(c.UserContext(), actor); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return response.Unauthorized(c, "Session ended")
		}
		return fail(c, err, "Failed to record heartbeat")
	}

	return response.Success(c, "Session alive", nil)
}

// Logout ends the current session
// @Summary Logout
// @Description Delete the current session row
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.sessionService.Logout(c.UserContext(), actor); err != nil {
		return fail(c, err, "Failed to logout")
	}

	return response.Success(c, "Logged out successfully", nil)
}

// Me returns the current identity
// @Summary Current user
// @Description Get the staff identity behind the session token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	return response.Success(c, "User retrieved successfully", actor)
}
