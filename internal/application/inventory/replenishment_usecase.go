package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReorderSuggestions devuelve los insumos en o bajo su mínimo con la cantidad sugerida de pedido.
// Stock ideal: el máximo si está definido, si no mínimo * 1.5. Con cantidad de reorden definida
// la sugerencia se redondea hacia arriba a múltiplos de esa cantidad.
func (uc *CatalogUseCase) ReorderSuggestions(ctx context.Context, tenantID string) ([]dto.ReplenishmentSuggestionDTO, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}

	// 1. Insumos en o bajo el punto de reorden
	items, err := uc.itemRepo.ListBelowMinimum(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	// 2. Cantidades sugeridas
	factor := decimal.NewFromFloat(1.5)
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(items))
	for _, item := range items {
		ideal := item.MinimumQuantity.Mul(factor)
		if item.MaximumQuantity != nil {
			ideal = *item.MaximumQuantity
		}
		qty := ideal.Sub(item.CurrentQuantity)
		if qty.IsNegative() {
			qty = decimal.Zero
		}
		if item.ReorderQuantity != nil && item.ReorderQuantity.IsPositive() {
			qty = roundUpTo(qty, *item.ReorderQuantity)
		}

		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			StockItemID:        item.ID,
			Code:               item.Code,
			Name:               item.Name,
			Unit:               item.Unit,
			Status:             item.Status(),
			CurrentQuantity:    item.CurrentQuantity,
			MinimumQuantity:    item.MinimumQuantity,
			IdealQuantity:      ideal,
			SuggestedOrderQty:  qty,
			CostPerUnit:        item.CostPerUnit,
			EstimatedOrderCost: qty.Mul(item.CostPerUnit).Round(2),
		})
	}

	// 3. Ordenar: agotados primero, luego mayor déficit relativo al mínimo, luego código.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		ra, rb := entity.StatusRank(a.Status), entity.StatusRank(b.Status)
		if ra != rb {
			return ra < rb
		}
		fa, fb := coverage(a), coverage(b)
		if !fa.Equal(fb) {
			return fa.LessThan(fb)
		}
		return a.Code < b.Code
	})

	// 4. Prioridad (1 = más urgente)
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

// coverage fracción del mínimo cubierta por el stock actual.
func coverage(s dto.ReplenishmentSuggestionDTO) decimal.Decimal {
	if !s.MinimumQuantity.IsPositive() {
		return decimal.Zero
	}
	return s.CurrentQuantity.Div(s.MinimumQuantity)
}

func roundUpTo(qty, step decimal.Decimal) decimal.Decimal {
	if !qty.IsPositive() {
		return step
	}
	return qty.Div(step).Ceil().Mul(step)
}
