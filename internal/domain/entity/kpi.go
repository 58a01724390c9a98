package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kpi-tracker/internal/domain"
)

// Precisión de value y threshold en la base: NUMERIC(18,4).
const (
	AmountScale         = 4
	AmountIntegerDigits = 14
)

var amountLimit = decimal.New(1, AmountIntegerDigits)

// Kpi indicador con valor y umbral, vigente desde StartDate y hasta EndDate (nil = sin fin).
type Kpi struct {
	ID        int64
	Name      string
	Value     decimal.Decimal
	Threshold decimal.Decimal
	StartDate time.Time
	EndDate   *time.Time
	Active    bool
	OwnerID   int64
}

// Activate pasa el KPI a activo. Activar uno ya activo es un error, no un no-op.
func (k *Kpi) Activate() error {
	if k.Active {
		return domain.NewError(domain.ErrAlreadyInState, "This KPI already activated")
	}
	k.Active = true
	return nil
}

// Deactivate pasa el KPI a inactivo. Desactivar uno ya inactivo es un error.
func (k *Kpi) Deactivate() error {
	if !k.Active {
		return domain.NewError(domain.ErrAlreadyInState, "This KPI already deactivated")
	}
	k.Active = false
	return nil
}

// ValidateAmount exige un valor positivo que la columna guarde sin redondeo ni desborde.
func ValidateAmount(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return domain.NewError(domain.ErrValidation, field+": must be positive")
	}
	if !d.Equal(d.Truncate(AmountScale)) {
		return domain.NewError(domain.ErrValidation, fmt.Sprintf("%s: at most %d decimal places", field, AmountScale))
	}
	if d.Cmp(amountLimit) >= 0 {
		return domain.NewError(domain.ErrValidation, fmt.Sprintf("%s: at most %d integer digits", field, AmountIntegerDigits))
	}
	return nil
}

// ExceedsThreshold value > threshold.
func (k *Kpi) ExceedsThreshold() bool {
	return k.Value.GreaterThan(k.Threshold)
}

// KpiFilter predicados opcionales, combinados con AND. nil / "" = sin restricción.
type KpiFilter struct {
	MinValue           *decimal.Decimal
	MaxValue           *decimal.Decimal
	NamePrefix         string
	ActiveOnly         bool
	ExceedingThreshold bool
}

// Validate rechaza rangos invertidos.
func (f KpiFilter) Validate() error {
	if f.MinValue != nil && f.MaxValue != nil && f.MinValue.GreaterThan(*f.MaxValue) {
		return domain.NewError(domain.ErrValidation, "min value must not be greater than max value")
	}
	return nil
}

// Matches evalúa el filtro en memoria con la misma semántica que el repositorio SQL.
func (f KpiFilter) Matches(k *Kpi) bool {
	if f.MinValue != nil && k.Value.LessThan(*f.MinValue) {
		return false
	}
	if f.MaxValue != nil && k.Value.GreaterThan(*f.MaxValue) {
		return false
	}
	if f.NamePrefix != "" && !strings.HasPrefix(k.Name, f.NamePrefix) {
		return false
	}
	if f.ActiveOnly && !k.Active {
		return false
	}
	if f.ExceedingThreshold && !k.ExceedsThreshold() {
		return false
	}
	return true
}
