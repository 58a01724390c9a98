package dto

import "time"

// ReportResponse salida de un reporte con sus KPIs.
type ReportResponse struct {
	ID         int64         `json:"id"`
	ReportDate time.Time     `json:"reportDate"`
	UserID     int64         `json:"userId"`
	Kpis       []KpiResponse `json:"kpis"`
}

// ReportListResponse listado de reportes.
type ReportListResponse struct {
	Items []ReportResponse `json:"items"`
	Total int              `json:"total"`
}
