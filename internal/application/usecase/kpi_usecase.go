package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/kpi-tracker/internal/application/dto"
	"github.com/jhoicas/kpi-tracker/internal/domain"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
	"github.com/jhoicas/kpi-tracker/internal/domain/policy"
	"github.com/jhoicas/kpi-tracker/internal/domain/repository"
	"github.com/jhoicas/kpi-tracker/pkg/logger"
)

// KpiUseCase CRUD, filtros y ciclo de vida (activar/desactivar) de KPIs.
type KpiUseCase struct {
	repo repository.KpiRepository
	tx   TxRunner
	log  *logger.Logger
}

// NewKpiUseCase construye el caso de uso.
func NewKpiUseCase(repo repository.KpiRepository, tx TxRunner, log *logger.Logger) *KpiUseCase {
	return &KpiUseCase{repo: repo, tx: tx, log: log.Named("kpi")}
}

// Create crea un KPI activo cuyo dueño es el llamador.
func (uc *KpiUseCase) Create(ctx context.Context, id entity.Identity, in dto.CreateKpiRequest) (*dto.KpiResponse, error) {
	if id.IsZero() {
		return nil, domain.NewError(domain.ErrInvalidCredential, "Authenticated user required")
	}
	if err := policy.Authorize(id, policy.OpCreateKpi); err != nil {
		return nil, err
	}
	name := normalizeName(in.Name)
	if name == "" {
		return nil, domain.NewError(domain.ErrValidation, "name: must not be blank")
	}
	if err := validateAmounts(in.Value, in.Threshold); err != nil {
		return nil, err
	}
	if in.StartDate == nil {
		return nil, domain.NewError(domain.ErrValidation, "startDate: is required")
	}
	if in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, domain.NewError(domain.ErrValidation, "endDate: must not be before startDate")
	}
	kpi := &entity.Kpi{
		Name:      name,
		Value:     in.Value,
		Threshold: in.Threshold,
		StartDate: *in.StartDate,
		EndDate:   in.EndDate,
		Active:    true,
		OwnerID:   id.UserID,
	}
	if err := uc.repo.Create(ctx, kpi); err != nil {
		return nil, err
	}
	uc.log.Info().Int64("kpi_id", kpi.ID).Int64("user_id", id.UserID).Msg("kpi creado")
	out := dto.FromKpi(kpi)
	return &out, nil
}

// GetByID obtiene un KPI.
func (uc *KpiUseCase) GetByID(ctx context.Context, id entity.Identity, kpiID int64) (*dto.KpiResponse, error) {
	if err := policy.Authorize(id, policy.OpViewKpi); err != nil {
		return nil, err
	}
	kpi, err := uc.repo.GetByID(ctx, kpiID)
	if err != nil {
		return nil, err
	}
	if kpi == nil {
		return nil, kpiNotFound(kpiID)
	}
	out := dto.FromKpi(kpi)
	return &out, nil
}

// Update sobrescribe value y threshold; nombre y fechas son inmutables.
func (uc *KpiUseCase) Update(ctx context.Context, id entity.Identity, kpiID int64, in dto.UpdateKpiRequest) (*dto.KpiResponse, error) {
	if err := policy.Authorize(id, policy.OpUpdateKpi); err != nil {
		return nil, err
	}
	if err := validateAmounts(in.Value, in.Threshold); err != nil {
		return nil, err
	}
	var updated *entity.Kpi
	err := uc.tx.Run(ctx, func(kpis repository.KpiRepository, _ repository.ReportRepository) error {
		kpi, err := kpis.GetByIDForUpdate(ctx, kpiID)
		if err != nil {
			return err
		}
		if kpi == nil {
			return kpiNotFound(kpiID)
		}
		kpi.Value = in.Value
		kpi.Threshold = in.Threshold
		if err := kpis.Update(ctx, kpi); err != nil {
			return err
		}
		updated = kpi
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := dto.FromKpi(updated)
	return &out, nil
}

// Delete elimina el KPI y sus asociaciones con reportes en la misma transacción.
func (uc *KpiUseCase) Delete(ctx context.Context, id entity.Identity, kpiID int64) error {
	if err := policy.Authorize(id, policy.OpDeleteKpi); err != nil {
		return err
	}
	err := uc.tx.Run(ctx, func(kpis repository.KpiRepository, reports repository.ReportRepository) error {
		kpi, err := kpis.GetByIDForUpdate(ctx, kpiID)
		if err != nil {
			return err
		}
		if kpi == nil {
			return kpiNotFound(kpiID)
		}
		if err := reports.DetachKpi(ctx, kpiID); err != nil {
			return err
		}
		return kpis.Delete(ctx, kpiID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Int64("kpi_id", kpiID).Int64("user_id", id.UserID).Msg("kpi eliminado")
	return nil
}

// Activate activa el KPI; si ya está activo devuelve ErrAlreadyInState.
func (uc *KpiUseCase) Activate(ctx context.Context, id entity.Identity, kpiID int64) (*dto.KpiResponse, error) {
	return uc.changeState(ctx, id, kpiID, (*entity.Kpi).Activate)
}

// Deactivate desactiva el KPI; si ya está inactivo devuelve ErrAlreadyInState.
func (uc *KpiUseCase) Deactivate(ctx context.Context, id entity.Identity, kpiID int64) (*dto.KpiResponse, error) {
	return uc.changeState(ctx, id, kpiID, (*entity.Kpi).Deactivate)
}

func (uc *KpiUseCase) changeState(ctx context.Context, id entity.Identity, kpiID int64, transition func(*entity.Kpi) error) (*dto.KpiResponse, error) {
	if err := policy.Authorize(id, policy.OpChangeKpiState); err != nil {
		return nil, err
	}
	var changed *entity.Kpi
	err := uc.tx.Run(ctx, func(kpis repository.KpiRepository, _ repository.ReportRepository) error {
		kpi, err := kpis.GetByIDForUpdate(ctx, kpiID)
		if err != nil {
			return err
		}
		if kpi == nil {
			return kpiNotFound(kpiID)
		}
		if err := transition(kpi); err != nil {
			return err
		}
		if err := kpis.Update(ctx, kpi); err != nil {
			return err
		}
		changed = kpi
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("kpi_id", kpiID).Bool("active", changed.Active).Msg("estado de kpi cambiado")
	out := dto.FromKpi(changed)
	return &out, nil
}

// List devuelve todos los KPIs.
func (uc *KpiUseCase) List(ctx context.Context, id entity.Identity) (*dto.KpiListResponse, error) {
	return uc.list(ctx, id, entity.KpiFilter{})
}

// ListActive devuelve los KPIs activos.
func (uc *KpiUseCase) ListActive(ctx context.Context, id entity.Identity) (*dto.KpiListResponse, error) {
	return uc.list(ctx, id, entity.KpiFilter{ActiveOnly: true})
}

// ListExceedingThreshold devuelve los KPIs con value > threshold.
func (uc *KpiUseCase) ListExceedingThreshold(ctx context.Context, id entity.Identity) (*dto.KpiListResponse, error) {
	return uc.list(ctx, id, entity.KpiFilter{ExceedingThreshold: true})
}

// ListByNamePrefix devuelve los KPIs cuyo nombre empieza por prefix.
func (uc *KpiUseCase) ListByNamePrefix(ctx context.Context, id entity.Identity, prefix string) (*dto.KpiListResponse, error) {
	prefix = normalizeName(prefix)
	if prefix == "" {
		return nil, domain.NewError(domain.ErrValidation, "prefix: must not be blank")
	}
	return uc.list(ctx, id, entity.KpiFilter{NamePrefix: prefix})
}

// Filter combina con AND los predicados presentes (min, max, prefijo). Sin predicados devuelve todo.
func (uc *KpiUseCase) Filter(ctx context.Context, id entity.Identity, in dto.KpiFilterRequest) (*dto.KpiListResponse, error) {
	return uc.list(ctx, id, entity.KpiFilter{
		MinValue:   in.Min,
		MaxValue:   in.Max,
		NamePrefix: normalizeName(in.Prefix),
	})
}

func (uc *KpiUseCase) list(ctx context.Context, id entity.Identity, filter entity.KpiFilter) (*dto.KpiListResponse, error) {
	if err := policy.Authorize(id, policy.OpListKpis); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	list, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.FromKpis(list), nil
}

// ListMine devuelve los KPIs adjuntos a los reportes del llamador.
func (uc *KpiUseCase) ListMine(ctx context.Context, id entity.Identity) (*dto.KpiListResponse, error) {
	return uc.FindByUserID(ctx, id, id.UserID)
}

// FindByUserID devuelve la unión sin repetidos de los KPIs de los reportes escritos por userID.
// No son los KPIs de los que userID es dueño: un KPI propio que no está en ninguno de sus reportes no aparece.
func (uc *KpiUseCase) FindByUserID(ctx context.Context, id entity.Identity, userID int64) (*dto.KpiListResponse, error) {
	if err := policy.Authorize(id, policy.OpViewKpi); err != nil {
		return nil, err
	}
	list, err := uc.repo.ListByReportAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.FromKpis(list), nil
}

func kpiNotFound(kpiID int64) error {
	return domain.NewError(domain.ErrNotFound, fmt.Sprintf("Kpi not found with id: %d", kpiID))
}

// normalizeName recorta y lleva a NFC para que prefijos y nombres comparen igual.
func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func validateAmounts(value, threshold decimal.Decimal) error {
	if err := entity.ValidateAmount("value", value); err != nil {
		return err
	}
	return entity.ValidateAmount("threshold", threshold)
}
