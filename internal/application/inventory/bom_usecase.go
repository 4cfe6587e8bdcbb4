package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// LinkInput nuevo vínculo de receta.
type LinkInput struct {
	TenantID        string
	CompositeItemID string
	StockItemID     string
	QuantityPerUnit decimal.Decimal
	IsOptional      bool
	Notes           string
}

// BomUseCase administra las recetas. Editar vínculos nunca toca el historial del ledger.
type BomUseCase struct {
	bomRepo  repository.BomRepository
	itemRepo repository.StockItemRepository
	log      *logger.Logger
}

// NewBomUseCase construye el caso de uso de recetas.
func NewBomUseCase(bomRepo repository.BomRepository, itemRepo repository.StockItemRepository, log *logger.Logger) *BomUseCase {
	return &BomUseCase{bomRepo: bomRepo, itemRepo: itemRepo, log: log}
}

// RequirementsFor vínculos del compuesto; vacío si no tiene receta.
func (uc *BomUseCase) RequirementsFor(ctx context.Context, tenantID, compositeID string) ([]entity.BomLink, error) {
	if tenantID == "" || compositeID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.bomRepo.RequirementsFor(ctx, tenantID, compositeID)
}

// Link agrega o reemplaza el vínculo (compuesto, insumo). El insumo debe existir en el tenant.
func (uc *BomUseCase) Link(ctx context.Context, in LinkInput) (*entity.BomLink, error) {
	if in.TenantID == "" || in.CompositeItemID == "" || in.StockItemID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.QuantityPerUnit.IsPositive() {
		return nil, fmt.Errorf("cantidad por unidad debe ser positiva: %w", domain.ErrInvalidInput)
	}
	item, err := uc.itemRepo.GetByID(ctx, in.StockItemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.TenantID != in.TenantID {
		return nil, fmt.Errorf("insumo %s: %w", in.StockItemID, domain.ErrNotFound)
	}

	link := &entity.BomLink{
		TenantID:        in.TenantID,
		CompositeItemID: in.CompositeItemID,
		StockItemID:     in.StockItemID,
		QuantityPerUnit: in.QuantityPerUnit,
		IsOptional:      in.IsOptional,
		Notes:           in.Notes,
		CreatedAt:       time.Now(),
	}
	if err := uc.bomRepo.Link(ctx, link); err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("tenant_id", in.TenantID).
		Str("composite_id", in.CompositeItemID).
		Str("item_id", in.StockItemID).
		Str("quantity_per_unit", in.QuantityPerUnit.String()).
		Bool("optional", in.IsOptional).
		Msg("vínculo de receta guardado")
	return link, nil
}

// Unlink elimina el vínculo; ErrNotFound si no existía.
func (uc *BomUseCase) Unlink(ctx context.Context, tenantID, compositeID, stockItemID string) error {
	if tenantID == "" || compositeID == "" || stockItemID == "" {
		return domain.ErrInvalidInput
	}
	return uc.bomRepo.Unlink(ctx, tenantID, compositeID, stockItemID)
}
