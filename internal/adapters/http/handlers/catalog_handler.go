package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"cagedesk/internal/core/domain"
	"cagedesk/internal/pkg/response"
)

// CatalogHandler serves the membership package catalog
type CatalogHandler struct{}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// GetCatalog lists packages
// @Summary Package catalog
// @Description Every package, or only those selectable for a category and membership type when both are given
// @Tags Catalog
// @Produce json
// @Param category query string false "GYM or MMA"
// @Param type query string false "SINGLE or COUPLE"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /catalog [get]
func (h *CatalogHandler) GetCatalog(c *fiber.Ctx) error {
	rawCategory := strings.ToUpper(strings.TrimSpace(c.Query("category")))
	rawType := strings.ToUpper(strings.TrimSpace(c.Query("type")))
	if rawCategory == "" && rawType == "" {
		return response.Success(c, "Catalog retrieved successfully", domain.Catalog())
	}

	category := domain.ServiceCategory(rawCategory)
	if !category.Valid() {
		return response.Invalid(c, "category", "category must be GYM or MMA")
	}
	membershipType := domain.MembershipSingle
	if rawType != "" {
		membershipType = domain.MembershipType(rawType)
		if !membershipType.Valid() {
			return response.Invalid(c, "type", "type must be SINGLE or COUPLE")
		}
	}

	return response.Success(c, "Catalog retrieved successfully", domain.SelectablePackages(category, membershipType))
}
