package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cagedesk/internal/adapters/http/middleware"
	"cagedesk/internal/core/domain"
	"cagedesk/internal/core/services"
	"cagedesk/internal/pkg/response"
)

// MemberHandler handles member ledger endpoints
type MemberHandler struct {
	ledgerService *services.LedgerService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(ledgerService *services.LedgerService) *MemberHandler {
	return &MemberHandler{
		ledgerService: ledgerService,
	}
}

// ListMembers lists members of a tab
// @Summary List members
// @Description Members of one tab (ALL, ACTIVE, 7DAYS, 15DAYS, INACTIVE) filtered by a name or phone query, with counts for every tab
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param tab query string false "Tab" default(ALL)
// @Param q query string false "Name or phone search"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /members [get]
func (h *MemberHandler) ListMembers(c *fiber.Ctx) error {
	tab, err := domain.ParseMemberTab(c.Query("tab"))
	if err != nil {
		return fail(c, err, "Failed to list members")
	}

	list, err := h.ledgerService.List(c.UserContext(), tab, c.Query("q"))
	if err != nil {
		return fail(c, err, "Failed to list members")
	}

	return response.Success(c, "Members retrieved successfully", list)
}

// GetMember returns one member
// @Summary Get member
// @Description Get a member with derived status, remaining days and pending balance
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [get]
func (h *MemberHandler) GetMember(c *fiber.Ctx) error {
	m, err := h.ledgerService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err, "Failed to get member")
	}

	return response.Success(c, "Member retrieved successfully", services.View(*m, h.ledgerService.Today()))
}

// CreateMember enrolls a member
// @Summary Enroll member
// @Description Validate the form, resolve the package and create the member
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body domain.MemberForm true "Enrollment form"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /members [post]
func (h *MemberHandler) CreateMember(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var form domain.MemberForm
	if err := c.BodyParser(&form); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	m, err := h.ledgerService.Enroll(c.UserContext(), actor, form)
	if err != nil {
		return fail(c, err, "Failed to enroll member")
	}

	return response.Created(c, "Member enrolled successfully", services.View(*m, h.ledgerService.Today()))
}

// UpdateMember edits a member
// @Summary Update member
// @Description Validate the form and rewrite the member's editable fields. Fee and expiry follow the package.
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Param body body domain.MemberForm true "Edit form"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /members/{id} [put]
func (h *MemberHandler) UpdateMember(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return unauthorized(c)
	}

	var form domain.MemberForm
	if err := c.BodyParser(&form); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	m, err := h.ledgerService.Update(c.UserContext(), actor, c.Params("id"), form)
	if err != nil {
		return fail(c, err, "Failed to update member")
	}

	return response.Success(c, "Member updated successfully", services.View(*m, h.ledgerService.Today()))
}
