package entity

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// User representa un usuario del sistema. Roles nunca está vacío una vez persistido.
type User struct {
	ID           int64
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Roles        []Role
	CreatedAt    time.Time
}

// HasRole indica si el usuario tiene el rol.
func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// Identity es la identidad resuelta desde el bearer token. Se pasa explícitamente a cada caso de uso.
type Identity struct {
	UserID int64
	Email  string
	Roles  []Role
}

// HasAnyRole indica si la identidad tiene al menos uno de los roles.
func (i Identity) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if slices.Contains(i.Roles, r) {
			return true
		}
	}
	return false
}

// IsZero indica que no hay usuario autenticado.
func (i Identity) IsZero() bool {
	return i.UserID <= 0
}

// NormalizeEmail recorta y aplica case folding Unicode: la unicidad del email no distingue mayúsculas.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}
