package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados derivados de un insumo. Nunca se persisten: se calculan desde la cantidad.
const (
	StatusInStock    = "IN_STOCK"
	StatusLowStock   = "LOW_STOCK"
	StatusOutOfStock = "OUT_OF_STOCK"
)

// StockItem representa un insumo inventariable de un restaurante (tenant).
// CurrentQuantity es la suma materializada del ledger; solo la modifica el motor de deducción.
type StockItem struct {
	ID              string
	TenantID        string
	Code            string // único por tenant
	Name            string
	Category        string
	Unit            string // KG, G, L, ML, PCS...
	CurrentQuantity decimal.Decimal
	MinimumQuantity decimal.Decimal  // punto de reorden
	MaximumQuantity *decimal.Decimal // techo opcional
	ReorderQuantity *decimal.Decimal // cantidad estándar de pedido (opcional)
	CostPerUnit     decimal.Decimal
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Status deriva el estado a partir de cantidad y mínimo.
func (s *StockItem) Status() string {
	return DeriveStatus(s.CurrentQuantity, s.MinimumQuantity)
}

// TotalValue valor del stock al costo unitario actual.
func (s *StockItem) TotalValue() decimal.Decimal {
	return s.CurrentQuantity.Mul(s.CostPerUnit)
}

// DeriveStatus: OUT_OF_STOCK si qty <= 0; LOW_STOCK si qty <= mínimo; IN_STOCK en otro caso.
func DeriveStatus(quantity, minimum decimal.Decimal) string {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return StatusOutOfStock
	}
	if quantity.LessThanOrEqual(minimum) {
		return StatusLowStock
	}
	return StatusInStock
}

// StatusRank ordena los estados de peor a mejor (0 = agotado).
func StatusRank(status string) int {
	switch status {
	case StatusOutOfStock:
		return 0
	case StatusLowStock:
		return 1
	default:
		return 2
	}
}
