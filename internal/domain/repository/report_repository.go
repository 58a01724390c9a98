package repository

import (
	"context"
	"time"

	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
)

// ReportRepository define el puerto de persistencia para Report y la tabla report_kpi.
// Los Get* cargan los KPIs asociados en la misma consulta.
type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	GetByID(ctx context.Context, id int64) (*entity.Report, error)
	// GetByIDForUpdate bloquea la fila del reporte: serializa add/remove concurrentes.
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.Report, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*entity.Report, error)
	Delete(ctx context.Context, id int64) error
	ListSince(ctx context.Context, since time.Time) ([]*entity.Report, error)
	ListByAuthorRole(ctx context.Context, role entity.Role) ([]*entity.Report, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*entity.Report, error)

	AddKpi(ctx context.Context, reportID, kpiID int64) error
	RemoveKpi(ctx context.Context, reportID, kpiID int64) error
	// DetachKpi borra todas las asociaciones de un KPI (antes de eliminarlo).
	DetachKpi(ctx context.Context, kpiID int64) error
}
