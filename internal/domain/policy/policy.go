// Package policy concentra las reglas de autorización: qué roles habilitan cada operación
// y el chequeo de autoría sobre filas concretas.
package policy

import (
	"github.com/jhoicas/kpi-tracker/internal/domain"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
)

// Operation identifica una operación protegida.
type Operation string

const (
	OpCreateKpi      Operation = "kpi:create"
	OpUpdateKpi      Operation = "kpi:update"
	OpDeleteKpi      Operation = "kpi:delete"
	OpChangeKpiState Operation = "kpi:change-state"
	OpListKpis       Operation = "kpi:list"
	OpViewKpi        Operation = "kpi:view"

	OpCreateReport   Operation = "report:create"
	OpDeleteReport   Operation = "report:delete"
	OpModifyReport   Operation = "report:modify"
	OpListOwnReports Operation = "report:list-own"
	OpViewReport     Operation = "report:view"
	OpListReports    Operation = "report:list"
	OpExportReport   Operation = "report:export"

	OpManageRoles Operation = "role:manage"
	OpManageUsers Operation = "user:manage"
	OpViewProfile Operation = "user:profile"
)

var (
	ceoOnly       = []entity.Role{entity.RoleCEO}
	employeeOnly  = []entity.Role{entity.RoleEmployee}
	employeeOrCEO = []entity.Role{entity.RoleEmployee, entity.RoleCEO}
)

var table = map[Operation][]entity.Role{
	OpCreateKpi:      ceoOnly,
	OpUpdateKpi:      ceoOnly,
	OpDeleteKpi:      ceoOnly,
	OpChangeKpiState: ceoOnly,
	OpListKpis:       ceoOnly,
	OpViewKpi:        employeeOrCEO,

	OpCreateReport:   employeeOnly,
	OpDeleteReport:   employeeOnly,
	OpModifyReport:   employeeOnly,
	OpListOwnReports: employeeOnly,
	OpViewReport:     ceoOnly,
	OpListReports:    ceoOnly,
	OpExportReport:   employeeOrCEO,

	OpManageRoles: ceoOnly,
	OpManageUsers: ceoOnly,
	OpViewProfile: employeeOrCEO,
}

// RolesFor devuelve los roles que habilitan op (copia; nil si op no existe).
func RolesFor(op Operation) []entity.Role {
	roles, ok := table[op]
	if !ok {
		return nil
	}
	out := make([]entity.Role, len(roles))
	copy(out, roles)
	return out
}

// Authorize verifica que la identidad tenga al menos uno de los roles de op.
// Operaciones desconocidas se deniegan.
func Authorize(id entity.Identity, op Operation) error {
	roles, ok := table[op]
	if !ok || !id.HasAnyRole(roles...) {
		return domain.NewError(domain.ErrForbidden, "Access denied")
	}
	return nil
}

// RequireOwner verifica autoría. Es independiente del rol: un rol suficiente no basta.
func RequireOwner(id entity.Identity, ownerID int64, message string) error {
	if id.IsZero() || id.UserID != ownerID {
		return domain.NewError(domain.ErrOperationNotPermitted, message)
	}
	return nil
}
