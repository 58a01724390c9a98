package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
)

// LocalIdentity key de c.Locals con la identidad resuelta del token.
const LocalIdentity = "identity"

// identityResolver contrato mínimo del middleware; lo implementa *auth.IdentityResolver.
type identityResolver interface {
	Resolve(token string) (entity.Identity, error)
}

// AuthMiddleware valida el Bearer Token y deja la identidad (user id + roles) en c.Locals.
func AuthMiddleware(resolver identityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return writeError(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "Authorization header is required")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return writeError(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "format: Bearer <token>")
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return writeError(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "empty token")
		}
		identity, err := resolver.Resolve(tokenString)
		if err != nil {
			return writeError(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token")
		}
		c.Locals(LocalIdentity, identity)
		return c.Next()
	}
}

// RequireRole deja pasar si la identidad tiene alguno de los roles. Va DESPUÉS de AuthMiddleware.
//   - 401 MISSING_ROLE si el token no trae roles.
//   - 403 FORBIDDEN si ninguno coincide.
func RequireRole(allowed ...entity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := GetIdentity(c)
		if len(identity.Roles) == 0 {
			return writeError(c, fiber.StatusUnauthorized, "MISSING_ROLE", "token without roles")
		}
		if !identity.HasAnyRole(allowed...) {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "Access denied")
		}
		return c.Next()
	}
}

// GetIdentity devuelve la identidad del contexto (zero value si no pasó por AuthMiddleware).
func GetIdentity(c *fiber.Ctx) entity.Identity {
	identity, _ := c.Locals(LocalIdentity).(entity.Identity)
	return identity
}

// GetUserID devuelve el id del usuario autenticado (0 si no hay).
func GetUserID(c *fiber.Ctx) int64 {
	return GetIdentity(c).UserID
}

// GetRoles devuelve los roles del usuario autenticado.
func GetRoles(c *fiber.Ctx) []entity.Role {
	return GetIdentity(c).Roles
}
