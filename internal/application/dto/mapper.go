package dto

import "github.com/jhoicas/kpi-tracker/internal/domain/entity"

// FromKpi arma la respuesta de un KPI.
func FromKpi(k *entity.Kpi) KpiResponse {
	return KpiResponse{
		ID:        k.ID,
		Name:      k.Name,
		Value:     k.Value,
		Threshold: k.Threshold,
		StartDate: k.StartDate,
		EndDate:   k.EndDate,
		IsActive:  k.Active,
		OwnerID:   k.OwnerID,
	}
}

// FromKpis arma la respuesta de un listado de KPIs. Nunca devuelve Items nil.
func FromKpis(list []*entity.Kpi) *KpiListResponse {
	items := make([]KpiResponse, 0, len(list))
	for _, k := range list {
		items = append(items, FromKpi(k))
	}
	return &KpiListResponse{Items: items, Total: len(items)}
}

// FromReport arma la respuesta de un reporte con sus KPIs.
func FromReport(r *entity.Report) ReportResponse {
	kpis := make([]KpiResponse, 0, len(r.Kpis))
	for _, k := range r.Kpis {
		kpis = append(kpis, FromKpi(k))
	}
	return ReportResponse{
		ID:         r.ID,
		ReportDate: r.ReportDate,
		UserID:     r.OwnerID,
		Kpis:       kpis,
	}
}

// FromReports arma la respuesta de un listado de reportes.
func FromReports(list []*entity.Report) *ReportListResponse {
	items := make([]ReportResponse, 0, len(list))
	for _, r := range list {
		items = append(items, FromReport(r))
	}
	return &ReportListResponse{Items: items, Total: len(items)}
}

// FromUser arma la respuesta de un usuario (sin hash).
func FromUser(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Roles:     entity.RoleNames(u.Roles),
		CreatedAt: u.CreatedAt,
	}
}
