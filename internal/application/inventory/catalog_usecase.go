package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// CreateItemInput alta de un insumo.
type CreateItemInput struct {
	TenantID        string
	ActorID         string
	Code            string
	Name            string
	Category        string
	Unit            string
	InitialQuantity decimal.Decimal
	MinimumQuantity decimal.Decimal
	MaximumQuantity *decimal.Decimal
	ReorderQuantity *decimal.Decimal
	CostPerUnit     decimal.Decimal
}

// ThresholdsInput nuevos umbrales de un insumo.
type ThresholdsInput struct {
	TenantID        string
	ItemID          string
	MinimumQuantity decimal.Decimal
	MaximumQuantity *decimal.Decimal
	ReorderQuantity *decimal.Decimal
}

// CatalogUseCase catálogo de insumos: alta, umbrales y consultas.
// Las cantidades no se editan aquí; solo el motor de deducción las modifica.
type CatalogUseCase struct {
	txRunner TxRunner
	itemRepo repository.StockItemRepository
	alerts   *AlertManager
	log      *logger.Logger
	now      func() time.Time
}

// NewCatalogUseCase construye el caso de uso del catálogo.
func NewCatalogUseCase(
	txRunner TxRunner,
	itemRepo repository.StockItemRepository,
	alerts *AlertManager,
	log *logger.Logger,
) *CatalogUseCase {
	return &CatalogUseCase{
		txRunner: txRunner,
		itemRepo: itemRepo,
		alerts:   alerts,
		log:      log,
		now:      time.Now,
	}
}

// Get devuelve el insumo del tenant o ErrNotFound.
func (uc *CatalogUseCase) Get(ctx context.Context, tenantID, id string) (*entity.StockItem, error) {
	if tenantID == "" || id == "" {
		return nil, domain.ErrInvalidInput
	}
	item, err := uc.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// Create da de alta el insumo. Una cantidad inicial se registra como MANUAL_ADDITION
// para que el ledger explique la cantidad desde el primer momento.
func (uc *CatalogUseCase) Create(ctx context.Context, in CreateItemInput) (*entity.StockItem, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.ToUpper(strings.TrimSpace(in.Unit))
	if in.TenantID == "" || in.Code == "" || in.Name == "" || in.Unit == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.InitialQuantity.IsNegative() || in.CostPerUnit.IsNegative() {
		return nil, fmt.Errorf("cantidad o costo negativo: %w", domain.ErrInvalidInput)
	}
	if err := validateThresholds(in.MinimumQuantity, in.MaximumQuantity, in.ReorderQuantity); err != nil {
		return nil, err
	}

	now := uc.now()
	item := &entity.StockItem{
		ID:              uuid.New().String(),
		TenantID:        in.TenantID,
		Code:            in.Code,
		Name:            in.Name,
		Category:        strings.TrimSpace(in.Category),
		Unit:            in.Unit,
		CurrentQuantity: in.InitialQuantity,
		MinimumQuantity: in.MinimumQuantity,
		MaximumQuantity: in.MaximumQuantity,
		ReorderQuantity: in.ReorderQuantity,
		CostPerUnit:     in.CostPerUnit,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.StockItemRepository,
		ledgerRepo repository.LedgerRepository,
		_ repository.AlertRepository,
	) error {
		if err := itemRepo.Create(ctx, item); err != nil {
			return err
		}
		if !item.CurrentQuantity.IsPositive() {
			return nil
		}
		return ledgerRepo.Append(ctx, &entity.LedgerEntry{
			ID:             uuid.New().String(),
			TenantID:       item.TenantID,
			StockItemID:    item.ID,
			Delta:          item.CurrentQuantity,
			QuantityBefore: decimal.Zero,
			QuantityAfter:  item.CurrentQuantity,
			CostPerUnit:    item.CostPerUnit,
			TotalCost:      item.CurrentQuantity.Mul(item.CostPerUnit).Round(4),
			Cause:          entity.CauseManualAddition,
			ActorID:        in.ActorID,
			Notes:          "stock inicial",
			CreatedAt:      now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("tenant_id", item.TenantID).
		Str("item_id", item.ID).
		Str("code", item.Code).
		Str("quantity", item.CurrentQuantity.String()).
		Msg("insumo creado")
	return item, nil
}

// SetThresholds actualiza mínimo, máximo y cantidad de reorden. Si el estado derivado cambia,
// las alertas se reconcilian en la misma transacción.
func (uc *CatalogUseCase) SetThresholds(ctx context.Context, in ThresholdsInput) (*entity.StockItem, error) {
	if in.TenantID == "" || in.ItemID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := validateThresholds(in.MinimumQuantity, in.MaximumQuantity, in.ReorderQuantity); err != nil {
		return nil, err
	}

	var (
		item   *entity.StockItem
		events []AlertEvent
	)
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.StockItemRepository,
		_ repository.LedgerRepository,
		alertRepo repository.AlertRepository,
	) error {
		locked, err := lockItem(ctx, itemRepo, in.TenantID, in.ItemID)
		if err != nil {
			return err
		}
		prev := locked.Status()
		now := uc.now()
		locked.MinimumQuantity = in.MinimumQuantity
		locked.MaximumQuantity = in.MaximumQuantity
		locked.ReorderQuantity = in.ReorderQuantity
		locked.UpdatedAt = now
		if err := itemRepo.UpdateThresholds(ctx, locked); err != nil {
			return err
		}
		events, err = uc.alerts.Sync(ctx, alertRepo, locked, prev, now)
		item = locked
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.alerts.Publish(ctx, events)
	return item, nil
}

// List insumos del tenant, opcionalmente filtrados por estado derivado.
func (uc *CatalogUseCase) List(ctx context.Context, filter repository.StockItemFilter) ([]*entity.StockItem, error) {
	if filter.TenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	switch filter.Status {
	case "", entity.StatusInStock, entity.StatusLowStock, entity.StatusOutOfStock:
	default:
		return nil, fmt.Errorf("status %q: %w", filter.Status, domain.ErrInvalidInput)
	}
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)
	return uc.itemRepo.List(ctx, filter)
}

// ListLowStock insumos en o bajo su mínimo (incluye agotados).
func (uc *CatalogUseCase) ListLowStock(ctx context.Context, tenantID string) ([]*entity.StockItem, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.itemRepo.ListBelowMinimum(ctx, tenantID)
}

func validateThresholds(minimum decimal.Decimal, maximum, reorder *decimal.Decimal) error {
	if minimum.IsNegative() {
		return fmt.Errorf("mínimo negativo: %w", domain.ErrInvalidInput)
	}
	if maximum != nil && maximum.LessThan(minimum) {
		return fmt.Errorf("máximo menor que el mínimo: %w", domain.ErrInvalidInput)
	}
	if reorder != nil && !reorder.IsPositive() {
		return fmt.Errorf("cantidad de reorden debe ser positiva: %w", domain.ErrInvalidInput)
	}
	return nil
}
