// Package pdf genera el resumen de inventario en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Resumen de inventario │ Rango + fecha de emisión   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  KPIs: insumos / valor / bajo mínimo / agotados / alertas   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: insumos en o bajo el mínimo                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: últimos movimientos del ledger                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

var _ inventory.SummaryPDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa inventory.SummaryPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateSummaryPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateSummaryPDF(_ context.Context, s *inventory.InventorySummary) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Resumen de inventario", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(kpiRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle(fmt.Sprintf("INSUMOS EN O BAJO EL MÍNIMO (%d)", len(s.LowStockItems))))
	m.AddRows(tableHeader([]string{"Código", "Insumo", "Estado", "Cantidad", "Mínimo"}, []int{2, 4, 2, 2, 2}))
	for _, r := range lowStockRows(s.LowStockItems) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(sectionTitle(fmt.Sprintf("ÚLTIMOS MOVIMIENTOS (%d en el rango)", s.EntriesInRange)))
	m.AddRows(tableHeader([]string{"Fecha", "Insumo", "Causa", "Delta", "Saldo", "Costo"}, []int{2, 3, 2, 2, 1, 2}))
	for _, r := range ledgerRows(s.RecentEntries) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(s *inventory.InventorySummary) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New("RESUMEN DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Tenant: "+s.TenantID, props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(fmt.Sprintf("%s - %s", s.From.Format("02/01/2006"), s.To.Format("02/01/2006")), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 1,
			}),
			text.New("Emitido: "+s.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func kpiRow(s *inventory.InventorySummary) core.Row {
	kpi := func(label, value string, color *props.Color) core.Col {
		return col.New(2).Add(
			text.New(label, props.Text{Size: 7, Align: align.Center, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Center, Color: color, Top: 6}),
		)
	}
	return row.New(16).Add(
		kpi("Insumos", fmt.Sprint(s.ItemCount), colorPrimary),
		kpi("Valor en stock", "$"+formatMoney(s.StockValue), colorPrimary),
		kpi("Bajo mínimo", fmt.Sprint(s.LowStockCount), colorAlert),
		kpi("Agotados", fmt.Sprint(s.OutOfStockCount), colorAlert),
		kpi("Compras", "$"+formatMoney(s.PurchaseCost), colorPrimary),
		kpi("Alertas abiertas", fmt.Sprint(s.OpenAlerts), colorAlert),
	)
}

func sectionTitle(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
	))
}

func tableHeader(labels []string, sizes []int) core.Row {
	cols := make([]core.Col, 0, len(labels))
	for i, label := range labels {
		cols = append(cols, col.New(sizes[i]).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Top: 1, Left: 1,
		})))
	}
	return row.New(6).Add(cols...)
}

func lowStockRows(items []*entity.StockItem) []core.Row {
	if len(items) == 0 {
		return []core.Row{row.New(6).Add(col.New(12).Add(
			text.New("Sin insumos bajo el mínimo.", props.Text{Size: 8, Color: colorGray, Top: 1}),
		))}
	}
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		status := it.Status()
		color := colorGray
		if status == entity.StatusOutOfStock {
			color = colorAlert
		}
		rows = append(rows, row.New(6).Add(
			cell(it.Code, 2, align.Left, nil),
			cell(it.Name, 4, align.Left, nil),
			cell(status, 2, align.Left, color),
			cell(it.CurrentQuantity.StringFixed(2)+" "+it.Unit, 2, align.Right, nil),
			cell(it.MinimumQuantity.StringFixed(2), 2, align.Right, nil),
		))
	}
	return rows
}

func ledgerRows(entries []*entity.LedgerEntry) []core.Row {
	rows := make([]core.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row.New(6).Add(
			cell(e.CreatedAt.Format("02/01 15:04"), 2, align.Left, nil),
			cell(shortID(e.StockItemID), 3, align.Left, nil),
			cell(e.Cause, 2, align.Left, nil),
			cell(e.Delta.StringFixed(2), 2, align.Right, nil),
			cell(e.QuantityAfter.StringFixed(2), 1, align.Right, nil),
			cell("$"+formatMoney(e.TotalCost), 2, align.Right, nil),
		))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func cell(value string, size int, a align.Type, color *props.Color) core.Col {
	return col.New(size).Add(text.New(value, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1, Color: color}))
}

func shortID(id string) string {
	if len(id) > 13 {
		return id[:13]
	}
	return id
}

// formatMoney redondea a entero e inserta puntos de miles.
// Ej: 25000 → "25.000", -1000000.4 → "-1.000.000"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(0)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
