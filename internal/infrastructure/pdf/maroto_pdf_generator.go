// Package pdf genera la versión imprimible de un reporte de KPIs.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: "Reporte de KPIs" + N° │ Autor + Fecha             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: KPI | Valor | Umbral | Vigencia | Estado            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: total / activos / sobre umbral                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/kpi-tracker/internal/application/usecase"
	"github.com/jhoicas/kpi-tracker/internal/domain/entity"
)

var _ usecase.ReportPDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 178, Green: 34, Blue: 34}
)

const dateLayout = "02/01/2006"

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa usecase.ReportPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateReportPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateReportPDF(_ context.Context, report *entity.Report, author *entity.User) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(fmt.Sprintf("KPI Report #%d", report.ID), true).
		WithAuthor(author.Email, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report, author))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	if len(report.Kpis) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Este reporte no tiene KPIs asociados.", props.Text{
				Size: 8, Align: align.Center, Top: 2, Color: colorGray,
			}),
		)))
	}
	for _, r := range tableDetailRows(report.Kpis) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(report.Kpis))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(report *entity.Report, author *entity.User) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New("REPORTE DE KPIs", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("N° %d", report.ID), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(author.Email, props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2,
			}),
			text.New("Fecha: "+report.ReportDate.Format(dateLayout), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("KPI", 4, align.Left),
		h("Valor", 2, align.Right),
		h("Umbral", 2, align.Right),
		h("Vigencia", 3, align.Center),
		h("Estado", 1, align.Center),
	)
}

func tableDetailRows(kpis []*entity.Kpi) []core.Row {
	result := make([]core.Row, 0, len(kpis))
	for _, k := range kpis {
		valueProps := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		if k.ExceedsThreshold() {
			valueProps.Style = fontstyle.Bold
			valueProps.Color = colorAlert
		}
		result = append(result, row.New(7).Add(
			col.New(4).Add(text.New(k.Name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(k.Value.StringFixed(2), valueProps)),
			col.New(2).Add(text.New(k.Threshold.StringFixed(2), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(validity(k.StartDate, k.EndDate), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(status(k.Active), props.Text{Size: 8, Align: align.Center, Top: 1})),
		))
	}
	return result
}

func summaryRow(kpis []*entity.Kpi) core.Row {
	var active, exceeding int
	for _, k := range kpis {
		if k.Active {
			active++
		}
		if k.ExceedsThreshold() {
			exceeding++
		}
	}
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	return row.New(10).Add(
		col.New(4).Add(label(fmt.Sprintf("KPIs: %d", len(kpis)))),
		col.New(4).Add(label(fmt.Sprintf("Activos: %d", active))),
		col.New(4).Add(label(fmt.Sprintf("Sobre umbral: %d", exceeding))),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func validity(start time.Time, end *time.Time) string {
	if end == nil {
		return start.Format(dateLayout) + " - abierto"
	}
	return start.Format(dateLayout) + " - " + end.Format(dateLayout)
}

func status(active bool) string {
	if active {
		return "Activo"
	}
	return "Inactivo"
}
