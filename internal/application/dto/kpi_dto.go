package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateKpiRequest entrada para crear un KPI (siempre nace activo).
type CreateKpiRequest struct {
	Name      string          `json:"name" validate:"required,notblank,max=255"`
	Value     decimal.Decimal `json:"value" validate:"required,gt=0"`
	Threshold decimal.Decimal `json:"threshold" validate:"required,gt=0"`
	StartDate *time.Time      `json:"startDate" validate:"required"`
	EndDate   *time.Time      `json:"endDate"`
}

// UpdateKpiRequest solo value y threshold son mutables.
type UpdateKpiRequest struct {
	Value     decimal.Decimal `json:"value" validate:"required,gt=0"`
	Threshold decimal.Decimal `json:"threshold" validate:"required,gt=0"`
}

// KpiFilterRequest predicados opcionales de /api/kpis/filter.
type KpiFilterRequest struct {
	Min    *decimal.Decimal
	Max    *decimal.Decimal
	Prefix string
}

// KpiResponse salida de un KPI.
type KpiResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Value     decimal.Decimal `json:"value"`
	Threshold decimal.Decimal `json:"threshold"`
	StartDate time.Time       `json:"startDate"`
	EndDate   *time.Time      `json:"endDate,omitempty"`
	IsActive  bool            `json:"isActive"`
	OwnerID   int64           `json:"ownerId"`
}

// KpiListResponse listado de KPIs.
type KpiListResponse struct {
	Items []KpiResponse `json:"items"`
	Total int           `json:"total"`
}
