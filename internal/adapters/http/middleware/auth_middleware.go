package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"cagedesk/internal/core/domain"
	"cagedesk/internal/core/services"
	"cagedesk/internal/pkg/jwt"
	"cagedesk/internal/pkg/response"
)

// ActorKey is the fiber.Locals key holding the authenticated services.Actor
const ActorKey = "actor"

// AuthMiddleware resolves the bearer token to a live session. A token whose
// session row is gone (forced logout, mass logout, sweep) is rejected even
// if the JWT itself is still valid.
func AuthMiddleware(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string

		authHeader := c.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
		// EventSource cannot set headers
		if token == "" {
			token = c.Query("access_token")
		}
		if token == "" {
			return response.Unauthorized(c, "Session token required")
		}

		actor, err := sessions.Validate(c.UserContext(), token)
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				return response.Unauthorized(c, "Session token expired")
			case errors.Is(err, domain.ErrSessionNotFound):
				return response.Unauthorized(c, "Session ended")
			case errors.Is(err, domain.ErrStaleSchema):
				return response.StoreFailure(c, domain.ErrorClassStaleSchema.String(), err.Error())
			case errors.Is(err, domain.ErrStoreUnavailable):
				return response.StoreFailure(c, domain.ErrorClassConnectivity.String(), "Store unavailable")
			default:
				return response.Unauthorized(c, "Invalid session token")
			}
		}

		c.Locals(ActorKey, *actor)
		return c.Next()
	}
}

// CurrentActor returns the actor set by AuthMiddleware
func CurrentActor(c *fiber.Ctx) (services.Actor, bool) {
	actor, ok := c.Locals(ActorKey).(services.Actor)
	return actor, ok
}

// MasterOnly allows only the master identity through
func MasterOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !actor.Master {
			return response.Forbidden(c, "Master access required")
		}
		return c.Next()
	}
}
