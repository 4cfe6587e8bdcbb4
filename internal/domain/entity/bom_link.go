package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BomLink vincula un ítem vendible (compuesto) con un insumo y la cantidad consumida por unidad.
type BomLink struct {
	TenantID        string
	CompositeItemID string
	StockItemID     string
	QuantityPerUnit decimal.Decimal
	IsOptional      bool // el plato puede prepararse sin este insumo
	Notes           string
	CreatedAt       time.Time
}

// RequiredFor cantidad necesaria para units unidades del compuesto.
func (l BomLink) RequiredFor(units int) decimal.Decimal {
	return l.QuantityPerUnit.Mul(decimal.NewFromInt(int64(units)))
}
