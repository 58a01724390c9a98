package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/kpi-tracker/internal/application/dto"
	"github.com/jhoicas/kpi-tracker/internal/domain"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/internal/domain/policy"
	"github.com/jhoicas/kpi-tracker/internal/domain/repository"
	"github.com/jhoicas/kpi-tracker/pkg/logger"
)

const notYourReport = "You are not allowed to modify this report. Because this is not your report"

// ReportUseCase ciclo de vida de reportes y gestión de su conjunto de KPIs.
// Toda mutación del conjunto corre en una transacción con la fila del reporte bloqueada.
type ReportUseCase struct {
	repo      repository.ReportRepository
	users     repository.UserRepository
	tx        TxRunner
	generator ReportPDFGenerator
	log       *logger.Logger
	now       func() time.Time
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(
	repo repository.ReportRepository,
	users repository.UserRepository,
	tx TxRunner,
	generator ReportPDFGenerator,
	log *logger.Logger,
) *ReportUseCase {
	return &ReportUseCase{
		repo:      repo,
		users:     users,
		tx:        tx,
		generator: generator,
		log:       log.Named("report"),
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *ReportUseCase) WithClock(now func() time.Time) *ReportUseCase {
	uc.now = now
	return uc
}

// Create crea un reporte del llamador con fecha actual y exactamente el KPI indicado.
func (uc *ReportUseCase) Create(ctx context.Context, id entity.Identity, kpiID int64) (*dto.ReportResponse, error) {
	if err := policy.Authorize(id, policy.OpCreateReport); err != nil {
		return nil, err
	}
	var report *entity.Report
	err := uc.tx.Run(ctx, func(kpis repository.KpiRepository, reports repository.ReportRepository) error {
		kpi, err := kpis.GetByID(ctx, kpiID)
		if err != nil {
			return err
		}
		if kpi == nil {
			return domain.NewError(domain.ErrNotFound, "KPI not found")
		}
		report = &entity.Report{ReportDate: uc.now(), OwnerID: id.UserID}
		if err := reports.Create(ctx, report); err != nil {
			return err
		}
		if err := reports.AddKpi(ctx, report.ID, kpi.ID); err != nil {
			return err
		}
		report.Kpis = []*entity.Kpi{kpi}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("report_id", report.ID).Int64("kpi_id", kpiID).Int64("user_id", id.UserID).Msg("reporte creado")
	out := dto.FromReport(report)
	return &out, nil
}

// AddKpi agrega un KPI al reporte del llamador.
func (uc *ReportUseCase) AddKpi(ctx context.Context, id entity.Identity, reportID, kpiID int64) (*dto.ReportResponse, error) {
	if err := policy.Authorize(id, policy.OpModifyReport); err != nil {
		return nil, err
	}
	var report *entity.Report
	err := uc.tx.Run(ctx, func(kpis repository.KpiRepository, reports repository.ReportRepository) error {
		r, err := reports.GetByIDForUpdate(ctx, reportID)
		if err != nil {
			return err
		}
		if r == nil {
			return domain.NewError(domain.ErrNotFound, "Report not found")
		}
		if err := policy.RequireOwner(id, r.OwnerID, notYourReport); err != nil {
			return err
		}
		kpi, err := kpis.GetByID(ctx, kpiID)
		if err != nil {
			return err
		}
		if kpi == nil {
			return domain.NewError(domain.ErrNotFound, "KPI not found")
		}
		if r.HasKpi(kpi.ID) {
			return domain.NewError(domain.ErrAlreadyExists, "This KPI is already added to your report.")
		}
		if err := reports.AddKpi(ctx, r.ID, kpi.ID); err != nil {
			return err
		}
		r.Kpis = append(r.Kpis, kpi)
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("report_id", reportID).Int64("kpi_id", kpiID).Msg("kpi agregado a reporte")
	out := dto.FromReport(report)
	return &out, nil
}

// RemoveKpi quita un KPI del reporte del llamador.
func (uc *ReportUseCase) RemoveKpi(ctx context.Context, id entity.Identity, reportID, kpiID int64) (*dto.ReportResponse, error) {
	if err := policy.Authorize(id, policy.OpModifyReport); err != nil {
		return nil, err
	}
	var report *entity.Report
	err := uc.tx.Run(ctx, func(_ repository.KpiRepository, reports repository.ReportRepository) error {
		r, err := reports.GetByIDForUpdate(ctx, reportID)
		if err != nil {
			return err
		}
		if r == nil {
			return domain.NewError(domain.ErrNotFound, fmt.Sprintf("Report not found with this reportId: %d", reportID))
		}
		if err := policy.RequireOwner(id, r.OwnerID, notYourReport); err != nil {
			return err
		}
		if !r.RemoveKpi(kpiID) {
			return domain.NewError(domain.ErrNotFound, fmt.Sprintf("Kpi not found with this kpiId: %d in report %d", kpiID, reportID))
		}
		if err := reports.RemoveKpi(ctx, r.ID, kpiID); err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("report_id", reportID).Int64("kpi_id", kpiID).Msg("kpi quitado de reporte")
	out := dto.FromReport(report)
	return &out, nil
}

// Delete elimina un reporte del llamador. La búsqueda por (id, autor) hace de chequeo de
// autoría: un reporte ajeno responde NotFound, igual que uno inexistente.
func (uc *ReportUseCase) Delete(ctx context.Context, id entity.Identity, reportID int64) error {
	if err := policy.Authorize(id, policy.OpDeleteReport); err != nil {
		return err
	}
	r, err := uc.repo.GetByIDAndOwner(ctx, reportID, id.UserID)
	if err != nil {
		return err
	}
	if r == nil {
		return domain.NewError(domain.ErrNotFound, "Report not found")
	}
	if err := uc.repo.Delete(ctx, r.ID); err != nil {
		return err
	}
	uc.log.Info().Int64("report_id", reportID).Int64("user_id", id.UserID).Msg("reporte eliminado")
	return nil
}

// GetByID obtiene un reporte con sus KPIs.
func (uc *ReportUseCase) GetByID(ctx context.Context, id entity.Identity, reportID int64) (*dto.ReportResponse, error) {
	if err := policy.Authorize(id, policy.OpViewReport); err != nil {
		return nil, err
	}
	r, err := uc.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.NewError(domain.ErrNotFound, "Report not found")
	}
	out := dto.FromReport(r)
	return &out, nil
}

// ListRecent devuelve los reportes con fecha >= since.
func (uc *ReportUseCase) ListRecent(ctx context.Context, id entity.Identity, since time.Time) (*dto.ReportListResponse, error) {
	if err := policy.Authorize(id, policy.OpListReports); err != nil {
		return nil, err
	}
	list, err := uc.repo.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}
	return dto.FromReports(list), nil
}

// ListRecentDays atajo de ListRecent para "últimos N días".
func (uc *ReportUseCase) ListRecentDays(ctx context.Context, id entity.Identity, days int) (*dto.ReportListResponse, error) {
	if days < 0 {
		return nil, domain.NewError(domain.ErrValidation, "days: must not be negative")
	}
	return uc.ListRecent(ctx, id, uc.now().AddDate(0, 0, -days))
}

// ListByAuthorRole devuelve los reportes cuyo autor tiene el rol.
func (uc *ReportUseCase) ListByAuthorRole(ctx context.Context, id entity.Identity, roleName string) (*dto.ReportListResponse, error) {
	if err := policy.Authorize(id, policy.OpListReports); err != nil {
		return nil, err
	}
	role, ok := entity.ParseRole(roleName)
	if !ok {
		return nil, domain.NewError(domain.ErrValidation, "role: unknown role "+roleName)
	}
	list, err := uc.repo.ListByAuthorRole(ctx, role)
	if err != nil {
		return nil, err
	}
	return dto.FromReports(list), nil
}

// ListMine devuelve los reportes del llamador con sus KPIs.
func (uc *ReportUseCase) ListMine(ctx context.Context, id entity.Identity) (*dto.ReportListResponse, error) {
	if err := policy.Authorize(id, policy.OpListOwnReports); err != nil {
		return nil, err
	}
	list, err := uc.repo.ListByOwner(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return dto.FromReports(list), nil
}

// ExportPDF genera el PDF del reporte. Un CEO exporta cualquiera; el resto solo los propios.
func (uc *ReportUseCase) ExportPDF(ctx context.Context, id entity.Identity, reportID int64) ([]byte, string, error) {
	if err := policy.Authorize(id, policy.OpExportReport); err != nil {
		return nil, "", err
	}
	r, err := uc.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, "", err
	}
	if r == nil {
		return nil, "", domain.NewError(domain.ErrNotFound, "Report not found")
	}
	if !id.HasAnyRole(entity.RoleCEO) {
		if err := policy.RequireOwner(id, r.OwnerID, "You are not allowed to export this report"); err != nil {
			return nil, "", err
		}
	}
	author, err := uc.users.GetByID(ctx, r.OwnerID)
	if err != nil {
		return nil, "", err
	}
	if author == nil {
		return nil, "", domain.NewError(domain.ErrNotFound, "Report author not found")
	}
	pdf, err := uc.generator.GenerateReportPDF(ctx, r, author)
	if err != nil {
		return nil, "", fmt.Errorf("generate report pdf: %w", err)
	}
	return pdf, fmt.Sprintf("report-%d.pdf", r.ID), nil
}
