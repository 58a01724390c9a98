package auth

import (
	"github.com/jhoicas/kpi-tracker/internal/domain"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/pkg/jwt"
)

// IdentityResolver convierte un bearer token en la identidad del usuario (id + roles).
type IdentityResolver struct {
	secret string
}

// NewIdentityResolver construye el resolver con el secreto de firma.
func NewIdentityResolver(secret string) *IdentityResolver {
	return &IdentityResolver{secret: secret}
}

// Resolve valida el token y devuelve la identidad, o ErrInvalidCredential si está mal formado,
// mal firmado, expirado, sin subject o con roles desconocidos.
func (r *IdentityResolver) Resolve(token string) (entity.Identity, error) {
	claims, err := jwt.Parse(r.secret, token)
	if err != nil {
		return entity.Identity{}, domain.NewError(domain.ErrInvalidCredential, "Invalid or expired token")
	}
	if claims.UserID <= 0 {
		return entity.Identity{}, domain.NewError(domain.ErrInvalidCredential, "Token without user id")
	}
	roles := make([]entity.Role, 0, len(claims.Roles))
	for _, name := range claims.Roles {
		role, ok := entity.ParseRole(name)
		if !ok {
			return entity.Identity{}, domain.NewError(domain.ErrInvalidCredential, "Token with unknown role: "+name)
		}
		roles = append(roles, role)
	}
	return entity.Identity{UserID: claims.UserID, Email: claims.Subject, Roles: roles}, nil
}
