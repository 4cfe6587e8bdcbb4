package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Causas de movimiento registradas en el ledger.
const (
	CausePurchase         = "PURCHASE"           // compra a proveedor
	CauseManualAddition   = "MANUAL_ADDITION"    // ingreso manual / stock inicial
	CauseReturn           = "RETURN"             // devolución al inventario (p.ej. orden cancelada)
	CauseOrderDeduction   = "ORDER_DEDUCTION"    // consumo por venta
	CauseWastage          = "WASTAGE"            // merma
	CauseManualDeduction  = "MANUAL_DEDUCTION"   // salida manual
	CauseReturnToSupplier = "RETURN_TO_SUPPLIER" // devolución al proveedor
	CauseManualAdjustment = "MANUAL_ADJUSTMENT"  // ajuste por conteo (cualquier signo)
)

// IsInboundCause indica si la causa solo admite deltas positivos.
func IsInboundCause(cause string) bool {
	switch cause {
	case CausePurchase, CauseManualAddition, CauseReturn:
		return true
	}
	return false
}

// IsOutboundCause indica si la causa solo admite deltas negativos.
func IsOutboundCause(cause string) bool {
	switch cause {
	case CauseOrderDeduction, CauseWastage, CauseManualDeduction, CauseReturnToSupplier:
		return true
	}
	return false
}

// IsValidCause verifica que la causa sea conocida.
func IsValidCause(cause string) bool {
	return IsInboundCause(cause) || IsOutboundCause(cause) || cause == CauseManualAdjustment
}

// LedgerEntry es un registro inmutable de un cambio de cantidad, con foto antes/después.
type LedgerEntry struct {
	ID             string
	TenantID       string
	StockItemID    string
	Delta          decimal.Decimal // positivo entrada, negativo salida
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	CostPerUnit    decimal.Decimal
	TotalCost      decimal.Decimal // |delta| * costo
	Cause          string
	Reference      string // id externo (orden, factura de compra...)
	IdempotencyKey string
	ActorID        string
	Notes          string
	CreatedAt      time.Time
}
