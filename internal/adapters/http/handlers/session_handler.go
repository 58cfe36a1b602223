package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cagedesk/internal/adapters/http/middleware"
	"cagedesk/internal/core/services"
	"cagedesk/internal/pkg/response"
)

// SessionHandler handles session listing and master administration
type SessionHandler struct {
	sessionService *services.SessionService
	secretService  *services.SecretService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *services.SessionService, secretService *services.SecretService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		secretService:  secretService,
	}
}

// ListSessions lists open sessions
// @Summary Open sessions
// @Description Every open session, newest login first
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /sessions [get]
func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.sessionService.List(c.UserContext())
	if err != nil {
		return fail(c, err, "Failed to list sessions")
	}
	return response.Success(c, "Sessions retrieved successfully", sessions)
}

// ============================================================
// Master administration
// ============================================================

// ForceLogout terminates one session
// @Summary Force logout
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/sessions/{id} [delete]
func (h *SessionHandler) ForceLogout(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.sessionService.ForceLogout(c.UserContext(), actor, c.Params("id")); err != nil {
		return fail(c, err, "Failed to terminate session")
	}
	return response.Success(c, "Session terminated", nil)
}

// LogoutOthers terminates every session except the caller's
// @Summary Logout all other devices
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/sessions/logout-others [post]
func (h *SessionHandler) LogoutOthers(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	n, err := h.sessionService.LogoutOthers(c.UserContext(), actor)
	if err != nil {
		return fail(c, err, "Failed to terminate sessions")
	}
	return response.Success(c, "Other sessions terminated", fiber.Map{"terminated": n})
}

// ListDevices lists device bindings
// @Summary Authorized devices
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/devices [get]
func (h *SessionHandler) ListDevices(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	devices, err := h.sessionService.Devices(c.UserContext(), actor)
	if err != nil {
		return fail(c, err, "Failed to list devices")
	}
	return response.Success(c, "Devices retrieved successfully", devices)
}

// UnbindDevice erases a staff member's device binding
// @Summary Reset device binding
// @Description The next login from this phone binds whatever device it comes from
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param phone path string true "Staff phone"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/devices/{phone} [delete]
func (h *SessionHandler) UnbindDevice(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.sessionService.Unbind(c.UserContext(), actor, c.Params("phone")); err != nil {
		return fail(c, err, "Failed to reset device binding")
	}
	return response.Success(c, "Device binding reset", nil)
}

// RevealSecret shows the current login secret
// @Summary Current login secret
// @Description The rotating shared secret with its last and next rotation times
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/secret [get]
func (h *SessionHandler) RevealSecret(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	info, err := h.secretService.Reveal(c.UserContext(), actor)
	if err != nil {
		return fail(c, err, "Failed to read secret")
	}
	return response.Success(c, "Secret retrieved successfully", info)
}
