package http

import (
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func toItemResponse(it *entity.StockItem) dto.StockItemResponse {
	return dto.StockItemResponse{
		ID:              it.ID,
		Code:            it.Code,
		Name:            it.Name,
		Category:        it.Category,
		Unit:            it.Unit,
		CurrentQuantity: it.CurrentQuantity,
		MinimumQuantity: it.MinimumQuantity,
		MaximumQuantity: it.MaximumQuantity,
		ReorderQuantity: it.ReorderQuantity,
		CostPerUnit:     it.CostPerUnit,
		TotalValue:      it.TotalValue(),
		Status:          it.Status(),
		IsActive:        it.IsActive,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
	}
}

func toItemList(items []*entity.StockItem) []dto.StockItemResponse {
	out := make([]dto.StockItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	return out
}

func toEntryResponse(e *entity.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:             e.ID,
		StockItemID:    e.StockItemID,
		Delta:          e.Delta,
		QuantityBefore: e.QuantityBefore,
		QuantityAfter:  e.QuantityAfter,
		CostPerUnit:    e.CostPerUnit,
		TotalCost:      e.TotalCost,
		Cause:          e.Cause,
		Reference:      e.Reference,
		IdempotencyKey: e.IdempotencyKey,
		ActorID:        e.ActorID,
		Notes:          e.Notes,
		CreatedAt:      e.CreatedAt,
	}
}

func toEntryList(entries []*entity.LedgerEntry) []dto.LedgerEntryResponse {
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

func toDeductResponse(res *inventory.DeductResult) dto.DeductResponse {
	out := dto.DeductResponse{
		Quantities: res.Quantities,
		Entries:    toEntryList(res.Entries),
	}
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, dto.SkippedIngredientResponse{
			StockItemID: s.StockItemID,
			Required:    s.Required,
			Available:   s.Available,
		})
	}
	return out
}

func toAvailabilityResponse(a *inventory.Availability) dto.AvailabilityResponse {
	out := dto.AvailabilityResponse{
		CompositeItemID: a.CompositeItemID,
		Units:           a.Units,
		Available:       a.Available,
		Lines:           make([]dto.AvailabilityLineResponse, 0, len(a.Lines)),
	}
	for _, l := range a.Lines {
		out.Lines = append(out.Lines, dto.AvailabilityLineResponse{
			StockItemID: l.StockItemID,
			Required:    l.Required,
			Available:   l.Available,
			Sufficient:  l.Sufficient,
			Optional:    l.Optional,
		})
	}
	return out
}

func toBomResponse(l entity.BomLink) dto.BomLinkResponse {
	return dto.BomLinkResponse{
		CompositeItemID: l.CompositeItemID,
		StockItemID:     l.StockItemID,
		QuantityPerUnit: l.QuantityPerUnit,
		IsOptional:      l.IsOptional,
		Notes:           l.Notes,
	}
}

func toAlertResponse(a *entity.StockAlert) dto.StockAlertResponse {
	return dto.StockAlertResponse{
		ID:             a.ID,
		StockItemID:    a.StockItemID,
		Type:           a.Type,
		Status:         a.Status,
		QuantityAtOpen: a.QuantityAtOpen,
		MinimumAtOpen:  a.MinimumAtOpen,
		AcknowledgedBy: a.AcknowledgedBy,
		AcknowledgedAt: a.AcknowledgedAt,
		ResolvedAt:     a.ResolvedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
