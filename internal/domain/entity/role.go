package entity

import "strings"

// Role rol de un usuario dentro de la organización.
type Role string

// Roles válidos. MANAGER existe en el modelo pero ninguna política lo habilita todavía.
const (
	RoleCEO      Role = "CEO"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// AllRoles lista los roles conocidos en orden estable.
var AllRoles = []Role{RoleCEO, RoleManager, RoleEmployee}

// ParseRole acepta el nombre del rol sin distinguir mayúsculas y con o sin prefijo "ROLE_".
func ParseRole(s string) (Role, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "ROLE_")
	for _, r := range AllRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// RoleNames convierte roles a strings (claims JWT, DTOs).
func RoleNames(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
