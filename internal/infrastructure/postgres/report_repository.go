package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kpi-tracker/internal/domain"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo implementación del puerto ReportRepository sobre PostgreSQL (usable con pool o tx).
// Cada lectura trae el reporte y sus KPIs en una sola consulta (LEFT JOIN sobre report_kpi).
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador de persistencia para reportes. Pasar pool o tx (Querier).
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

const selectReportWithKpis = `
	SELECT r.id, r.report_date, r.user_id,
	       k.id, k.name, k.value, k.threshold, k.start_date, k.end_date, k.is_active, k.user_id
	FROM reports r
	LEFT JOIN report_kpi rk ON rk.report_id = r.id
	LEFT JOIN kpis k ON k.id = rk.kpi_id`

// Create persiste el reporte (sin KPIs) y completa su ID.
func (r *ReportRepo) Create(ctx context.Context, report *entity.Report) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO reports (report_date, user_id) VALUES ($1, $2) RETURNING id`,
		report.ReportDate, report.OwnerID,
	).Scan(&report.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewError(domain.ErrNotFound, fmt.Sprintf("User not found with id: %d", report.OwnerID))
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetByID obtiene un reporte con sus KPIs.
func (r *ReportRepo) GetByID(ctx context.Context, id int64) (*entity.Report, error) {
	return r.getOne(ctx, selectReportWithKpis+` WHERE r.id = $1 ORDER BY k.id`, id)
}

// GetByIDForUpdate igual que GetByID pero bloquea la fila del reporte (no las de kpis).
func (r *ReportRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Report, error) {
	return r.getOne(ctx, selectReportWithKpis+` WHERE r.id = $1 ORDER BY k.id FOR UPDATE OF r`, id)
}

// GetByIDAndOwner obtiene el reporte solo si pertenece a ownerID.
func (r *ReportRepo) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*entity.Report, error) {
	return r.getOne(ctx, selectReportWithKpis+` WHERE r.id = $1 AND r.user_id = $2 ORDER BY k.id`, id, ownerID)
}

func (r *ReportRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Report, error) {
	list, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// Delete elimina el reporte; report_kpi cae por ON DELETE CASCADE.
func (r *ReportRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

// ListSince reportes con report_date >= since.
func (r *ReportRepo) ListSince(ctx context.Context, since time.Time) ([]*entity.Report, error) {
	return r.list(ctx, selectReportWithKpis+` WHERE r.report_date >= $1 ORDER BY r.id, k.id`, since)
}

// ListByAuthorRole reportes cuyo autor tiene el rol.
func (r *ReportRepo) ListByAuthorRole(ctx context.Context, role entity.Role) ([]*entity.Report, error) {
	query := selectReportWithKpis + `
		WHERE EXISTS (SELECT 1 FROM user_roles ur WHERE ur.user_id = r.user_id AND ur.role = $1)
		ORDER BY r.id, k.id`
	return r.list(ctx, query, string(role))
}

// ListByOwner reportes escritos por ownerID.
func (r *ReportRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*entity.Report, error) {
	return r.list(ctx, selectReportWithKpis+` WHERE r.user_id = $1 ORDER BY r.id, k.id`, ownerID)
}

// AddKpi inserta la asociación. El par (report_id, kpi_id) es PK: un duplicado es ErrAlreadyExists.
func (r *ReportRepo) AddKpi(ctx context.Context, reportID, kpiID int64) error {
	_, err := r.q.Exec(ctx, `INSERT INTO report_kpi (report_id, kpi_id) VALUES ($1, $2)`, reportID, kpiID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewError(domain.ErrAlreadyExists, "This KPI is already added to your report.")
		}
		if isForeignKeyViolation(err) {
			return domain.NewError(domain.ErrNotFound, "Report or KPI not found")
		}
		return fmt.Errorf("insert report_kpi: %w", err)
	}
	return nil
}

// RemoveKpi borra la asociación; si no existía devuelve ErrNotFound.
func (r *ReportRepo) RemoveKpi(ctx context.Context, reportID, kpiID int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM report_kpi WHERE report_id = $1 AND kpi_id = $2`, reportID, kpiID)
	if err != nil {
		return fmt.Errorf("delete report_kpi: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.ErrNotFound,
			fmt.Sprintf("Kpi not found with this kpiId: %d in report %d", kpiID, reportID))
	}
	return nil
}

// DetachKpi borra todas las asociaciones del KPI.
func (r *ReportRepo) DetachKpi(ctx context.Context, kpiID int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM report_kpi WHERE kpi_id = $1`, kpiID)
	if err != nil {
		return fmt.Errorf("detach kpi: %w", err)
	}
	return nil
}

// list agrupa las filas del JOIN: las de un mismo reporte llegan contiguas (ORDER BY r.id).
func (r *ReportRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Report, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var (
		list    []*entity.Report
		current *entity.Report
	)
	for rows.Next() {
		rep, kpi, err := scanReportRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if current == nil || current.ID != rep.ID {
			current = rep
			current.Kpis = []*entity.Kpi{}
			list = append(list, current)
		}
		if kpi != nil {
			current.Kpis = append(current.Kpis, kpi)
		}
	}
	return list, rows.Err()
}

func scanReportRow(row pgx.Row) (*entity.Report, *entity.Kpi, error) {
	var (
		rep       entity.Report
		kpiID     *int64
		name      *string
		value     decimal.NullDecimal
		threshold decimal.NullDecimal
		start     *time.Time
		end       *time.Time
		active    *bool
		ownerID   *int64
	)
	err := row.Scan(&rep.ID, &rep.ReportDate, &rep.OwnerID,
		&kpiID, &name, &value, &threshold, &start, &end, &active, &ownerID)
	if err != nil {
		return nil, nil, err
	}
	if kpiID == nil {
		return &rep, nil, nil
	}
	return &rep, &entity.Kpi{
		ID:        *kpiID,
		Name:      *name,
		Value:     value.Decimal,
		Threshold: threshold.Decimal,
		StartDate: *start,
		EndDate:   end,
		Active:    *active,
		OwnerID:   *ownerID,
	}, nil
}
