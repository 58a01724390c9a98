package entity

import "time"

// Report snapshot fechado de un autor con un conjunto de KPIs (sin repetidos, orden irrelevante).
type Report struct {
	ID         int64
	ReportDate time.Time
	OwnerID    int64
	Kpis       []*Kpi
}

// HasKpi indica si el KPI ya está asociado al reporte.
func (r *Report) HasKpi(kpiID int64) bool {
	return r.indexOf(kpiID) >= 0
}

// RemoveKpi quita el KPI del conjunto en memoria; false si no estaba.
func (r *Report) RemoveKpi(kpiID int64) bool {
	i := r.indexOf(kpiID)
	if i < 0 {
		return false
	}
	r.Kpis = append(r.Kpis[:i], r.Kpis[i+1:]...)
	return true
}

func (r *Report) indexOf(kpiID int64) int {
	for i, k := range r.Kpis {
		if k.ID == kpiID {
			return i
		}
	}
	return -1
}
