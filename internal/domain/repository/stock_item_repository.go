package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockItemFilter filtros de listado del catálogo.
type StockItemFilter struct {
	TenantID string
	Status   string // opcional: IN_STOCK, LOW_STOCK, OUT_OF_STOCK
	Limit    int
	Offset   int
}

// StockItemRepository puerto de persistencia del catálogo de insumos.
// GetByID devuelve (nil, nil) si no existe.
type StockItemRepository interface {
	Create(ctx context.Context, item *entity.StockItem) error
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error)
	// UpdateQuantity escribe la nueva cantidad solo si la actual es expectedBefore;
	// si no coincide devuelve domain.ErrInvariantViolation.
	UpdateQuantity(ctx context.Context, id string, expectedBefore, quantity, costPerUnit decimal.Decimal) error
	UpdateThresholds(ctx context.Context, item *entity.StockItem) error
	List(ctx context.Context, filter StockItemFilter) ([]*entity.StockItem, error)
	// ListBelowMinimum devuelve los insumos con cantidad <= mínimo, mayor déficit primero.
	ListBelowMinimum(ctx context.Context, tenantID string) ([]*entity.StockItem, error)
}
