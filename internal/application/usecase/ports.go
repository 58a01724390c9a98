package usecase

import (
	"context"

	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
// Si fn devuelve error se hace rollback; si no, commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(kpis repository.KpiRepository, reports repository.ReportRepository) error) error
}

// ReportPDFGenerator genera la representación PDF de un reporte.
type ReportPDFGenerator interface {
	GenerateReportPDF(ctx context.Context, report *entity.Report, author *entity.User) ([]byte, error)
}
