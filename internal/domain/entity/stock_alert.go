package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Tipos y estados de alerta.
const (
	AlertTypeLowStock   = "LOW_STOCK"
	AlertTypeOutOfStock = "OUT_OF_STOCK"

	AlertStatusActive       = "ACTIVE"
	AlertStatusAcknowledged = "ACKNOWLEDGED"
	AlertStatusResolved     = "RESOLVED"
)

// StockAlert ciclo de vida: ACTIVE -> ACKNOWLEDGED -> RESOLVED, o ACTIVE -> RESOLVED.
// Como máximo una alerta no resuelta por insumo.
type StockAlert struct {
	ID             string
	TenantID       string
	StockItemID    string
	Type           string
	Status         string
	QuantityAtOpen decimal.Decimal
	MinimumAtOpen  decimal.Decimal
	AcknowledgedBy string
	AcknowledgedAt *time.Time
	ResolvedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsOpen indica si la alerta cuenta para el invariante de unicidad.
func (a *StockAlert) IsOpen() bool {
	return a.Status != AlertStatusResolved
}

// Acknowledge solo es válido desde ACTIVE.
func (a *StockAlert) Acknowledge(actorID string, now time.Time) error {
	if a.Status != AlertStatusActive {
		return domain.ErrInvalidTransition
	}
	a.Status = AlertStatusAcknowledged
	a.AcknowledgedBy = actorID
	a.AcknowledgedAt = &now
	a.UpdatedAt = now
	return nil
}

// Resolve cierra la alerta sin importar si fue reconocida.
func (a *StockAlert) Resolve(now time.Time) error {
	if a.Status == AlertStatusResolved {
		return domain.ErrInvalidTransition
	}
	a.Status = AlertStatusResolved
	a.ResolvedAt = &now
	a.UpdatedAt = now
	return nil
}

// AlertTypeForStatus mapea el estado del insumo al tipo de alerta ("" si IN_STOCK).
func AlertTypeForStatus(status string) string {
	switch status {
	case StatusOutOfStock:
		return AlertTypeOutOfStock
	case StatusLowStock:
		return AlertTypeLowStock
	}
	return ""
}
