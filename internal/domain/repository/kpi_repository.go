package repository

import (
	"context"

	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
)

// KpiRepository define el puerto de persistencia para Kpi. Los listados salen ordenados por id.
type KpiRepository interface {
	Create(ctx context.Context, kpi *entity.Kpi) error
	GetByID(ctx context.Context, id int64) (*entity.Kpi, error)
	// GetByIDForUpdate bloquea la fila hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.Kpi, error)
	// Update persiste value, threshold y active. Nombre y fechas no cambian tras la creación.
	Update(ctx context.Context, kpi *entity.Kpi) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter entity.KpiFilter) ([]*entity.Kpi, error)
	// ListByReportAuthor unión sin repetidos de los KPIs de los reportes escritos por userID.
	ListByReportAuthor(ctx context.Context, userID int64) ([]*entity.Kpi, error)
}
