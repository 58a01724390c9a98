package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kpi-tracker/internal/domain"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/internal/domain/repository"
)

var _ repository.KpiRepository = (*KpiRepo)(nil)

// KpiRepo implementación del puerto KpiRepository sobre PostgreSQL (usable con pool o tx).
type KpiRepo struct {
	q Querier
}

// NewKpiRepository construye el adaptador de persistencia para KPIs. Pasar pool o tx (Querier).
func NewKpiRepository(q Querier) *KpiRepo {
	return &KpiRepo{q: q}
}

const kpiColumns = `k.id, k.name, k.value, k.threshold, k.start_date, k.end_date, k.is_active, k.user_id`

// Create persiste un nuevo KPI y completa su ID.
func (r *KpiRepo) Create(ctx context.Context, kpi *entity.Kpi) error {
	query := `
		INSERT INTO kpis (name, value, threshold, start_date, end_date, is_active, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		kpi.Name, kpi.Value, kpi.Threshold, kpi.StartDate, kpi.EndDate, kpi.Active, kpi.OwnerID,
	).Scan(&kpi.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewError(domain.ErrNotFound, fmt.Sprintf("User not found with id: %d", kpi.OwnerID))
		}
		if isDataViolation(err) {
			return domain.NewError(domain.ErrValidation, "kpi values out of range")
		}
		return fmt.Errorf("insert kpi: %w", err)
	}
	return nil
}

// GetByID obtiene un KPI por ID.
func (r *KpiRepo) GetByID(ctx context.Context, id int64) (*entity.Kpi, error) {
	return r.getOne(ctx, `SELECT `+kpiColumns+` FROM kpis k WHERE k.id = $1`, id)
}

// GetByIDForUpdate obtiene el KPI bloqueando la fila (solo tiene efecto dentro de una tx).
func (r *KpiRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Kpi, error) {
	return r.getOne(ctx, `SELECT `+kpiColumns+` FROM kpis k WHERE k.id = $1 FOR UPDATE`, id)
}

func (r *KpiRepo) getOne(ctx context.Context, query string, id int64) (*entity.Kpi, error) {
	k, err := scanKpi(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get kpi: %w", err)
	}
	return k, nil
}

// Update persiste value, threshold e is_active.
func (r *KpiRepo) Update(ctx context.Context, kpi *entity.Kpi) error {
	_, err := r.q.Exec(ctx, `UPDATE kpis SET value = $2, threshold = $3, is_active = $4 WHERE id = $1`,
		kpi.ID, kpi.Value, kpi.Threshold, kpi.Active)
	if err != nil {
		if isDataViolation(err) {
			return domain.NewError(domain.ErrValidation, "kpi values out of range")
		}
		return fmt.Errorf("update kpi: %w", err)
	}
	return nil
}

// Delete elimina un KPI por ID.
func (r *KpiRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM kpis WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete kpi: %w", err)
	}
	return nil
}

// List aplica los predicados presentes del filtro (AND) y ordena por id.
func (r *KpiRepo) List(ctx context.Context, filter entity.KpiFilter) ([]*entity.Kpi, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.MinValue != nil {
		add("k.value >= $%d", *filter.MinValue)
	}
	if filter.MaxValue != nil {
		add("k.value <= $%d", *filter.MaxValue)
	}
	if filter.NamePrefix != "" {
		add(`k.name LIKE $%d ESCAPE '\'`, likePrefix(filter.NamePrefix))
	}
	if filter.ActiveOnly {
		conds = append(conds, "k.is_active")
	}
	if filter.ExceedingThreshold {
		conds = append(conds, "k.value > k.threshold")
	}

	query := `SELECT ` + kpiColumns + ` FROM kpis k`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY k.id`
	return r.list(ctx, query, args...)
}

// ListByReportAuthor KPIs adjuntos a reportes escritos por userID (no los que userID posee).
func (r *KpiRepo) ListByReportAuthor(ctx context.Context, userID int64) ([]*entity.Kpi, error) {
	query := `
		SELECT ` + kpiColumns + `
		FROM kpis k
		WHERE EXISTS (
			SELECT 1 FROM report_kpi rk
			JOIN reports rp ON rp.id = rk.report_id
			WHERE rk.kpi_id = k.id AND rp.user_id = $1
		)
		ORDER BY k.id`
	return r.list(ctx, query, userID)
}

func (r *KpiRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Kpi, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list kpis: %w", err)
	}
	defer rows.Close()
	var list []*entity.Kpi
	for rows.Next() {
		k, err := scanKpi(rows)
		if err != nil {
			return nil, fmt.Errorf("scan kpi: %w", err)
		}
		list = append(list, k)
	}
	return list, rows.Err()
}

func scanKpi(row pgx.Row) (*entity.Kpi, error) {
	var k entity.Kpi
	err := row.Scan(&k.ID, &k.Name, &k.Value, &k.Threshold, &k.StartDate, &k.EndDate, &k.Active, &k.OwnerID)
	if err != nil {
		return nil, err
	}
	return &k, nil
}
