package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AlertFilter filtros de listado de alertas.
type AlertFilter struct {
	TenantID string
	Status   string
	Limit    int
	Offset   int
}

// AlertRepository puerto de persistencia de alertas de stock.
type AlertRepository interface {
	Create(ctx context.Context, alert *entity.StockAlert) error
	GetByID(ctx context.Context, id string) (*entity.StockAlert, error)
	// GetOpenByItem devuelve la alerta no resuelta del insumo o (nil, nil).
	GetOpenByItem(ctx context.Context, stockItemID string) (*entity.StockAlert, error)
	Update(ctx context.Context, alert *entity.StockAlert) error
	List(ctx context.Context, filter AlertFilter) ([]*entity.StockAlert, error)
	CountOpen(ctx context.Context, tenantID string) (int, error)
}
