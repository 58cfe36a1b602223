package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"cagedesk/internal/core/domain"
	"cagedesk/internal/pkg/response"
)

// fail maps a service error onto the response envelope. fallback is the
// 500 message for anything unclassified.
func fail(c *fiber.Ctx, err error, fallback string) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return response.Invalid(c, verr.Field, verr.Message)
	case errors.Is(err, domain.ErrStaleSchema):
		return response.StoreFailure(c, domain.ErrorClassStaleSchema.String(),
			"The database schema is out of date. Run the latest migration and reload.")
	case errors.Is(err, domain.ErrStoreUnavailable):
		return response.StoreFailure(c, domain.ErrorClassConnectivity.String(),
			"The database could not be reached. Check the connection and try again.")
	case errors.Is(err, domain.ErrAlreadySent):
		return response.Conflict(c, "Already sent")
	case errors.Is(err, domain.ErrMasterOnly):
		return response.Forbidden(c, "Master access required")
	case errors.Is(err, domain.ErrMemberNotFound):
		return response.NotFound(c, "Member not found")
	case errors.Is(err, domain.ErrSessionNotFound):
		return response.NotFound(c, "Session not found")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return response.NotFound(c, "Not found")
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	}
	log.Printf("❌ %s: %v", fallback, err)
	return response.InternalServerError(c, fallback)
}

// unauthorized is returned when a route was mounted without AuthMiddleware
func unauthorized(c *fiber.Ctx) error {
	return response.Unauthorized(c, "Unauthorized")
}
