package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BomRepository puerto de la receta (bill of materials) de los ítems compuestos.
type BomRepository interface {
	RequirementsFor(ctx context.Context, tenantID, compositeItemID string) ([]entity.BomLink, error)
	Link(ctx context.Context, link *entity.BomLink) error
	Unlink(ctx context.Context, tenantID, compositeItemID, stockItemID string) error
}
