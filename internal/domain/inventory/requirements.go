package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// SaleLine una línea de venta: unidades vendidas de un ítem compuesto.
type SaleLine struct {
	CompositeItemID string
	Units           int
}

// Requirement consumo de un insumo exigido por un conjunto de líneas, separado por vínculo:
// Required sale de vínculos obligatorios y Optional de vínculos opcionales.
type Requirement struct {
	StockItemID string
	Required    decimal.Decimal
	Optional    decimal.Decimal
}

// Total cantidad si se descuenta también la parte opcional.
func (r Requirement) Total() decimal.Decimal {
	return r.Required.Add(r.Optional)
}

// IsOptional ningún vínculo obligatorio aporta el insumo.
func (r Requirement) IsOptional() bool {
	return r.Required.IsZero()
}

// ExpandRequirements aplana las líneas de venta contra la receta (BOM) y acumula por insumo,
// sin mezclar la parte obligatoria con la opcional.
// El resultado viene ordenado por StockItemID ascendente: es el orden de bloqueo.
func ExpandRequirements(lines []SaleLine, bom map[string][]entity.BomLink) ([]Requirement, error) {
	if len(lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	byItem := make(map[string]*Requirement)
	for _, line := range lines {
		if line.CompositeItemID == "" || line.Units <= 0 {
			return nil, domain.ErrInvalidInput
		}
		links, ok := bom[line.CompositeItemID]
		if !ok || len(links) == 0 {
			return nil, domain.ErrNotFound
		}
		for _, link := range links {
			req, seen := byItem[link.StockItemID]
			if !seen {
				req = &Requirement{StockItemID: link.StockItemID}
				byItem[link.StockItemID] = req
			}
			need := link.RequiredFor(line.Units)
			if link.IsOptional {
				req.Optional = req.Optional.Add(need)
			} else {
				req.Required = req.Required.Add(need)
			}
		}
	}

	out := make([]Requirement, 0, len(byItem))
	for _, req := range byItem {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockItemID < out[j].StockItemID })
	return out, nil
}

// Plan cuánto descontar de un insumo con available en stock.
// Falta parte obligatoria -> ok=false. La parte opcional se descuenta completa si cabe
// después de la obligatoria; si no, se omite entera y se informa en skipped.
func (r Requirement) Plan(available decimal.Decimal) (deduct, skipped decimal.Decimal, ok bool) {
	if available.LessThan(r.Required) {
		return decimal.Zero, decimal.Zero, false
	}
	if available.Sub(r.Required).GreaterThanOrEqual(r.Optional) {
		return r.Total(), decimal.Zero, true
	}
	return r.Required, r.Optional, true
}

// SortedIDs devuelve los ids únicos en orden ascendente.
func SortedIDs(ids ...string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
