package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// DeductFromRequest adapta el request HTTP a Deduct(ctx, DeductInput).
// Usar desde handlers HTTP o desde consumidores que tengan tenantID, userID y dto.DeductRequest.
func (uc *DeductionUseCase) DeductFromRequest(ctx context.Context, tenantID, userID string, in dto.DeductRequest) (*DeductResult, error) {
	lines := make([]domaininv.SaleLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, domaininv.SaleLine{CompositeItemID: l.CompositeItemID, Units: l.Units})
	}
	return uc.Deduct(ctx, DeductInput{
		TenantID:       tenantID,
		ActorID:        userID,
		IdempotencyKey: in.IdempotencyKey,
		Cause:          in.Cause,
		Reference:      in.Reference,
		Lines:          lines,
	})
}

// RestockFromRequest adapta el request HTTP a Restock.
func (uc *DeductionUseCase) RestockFromRequest(ctx context.Context, tenantID, userID, itemID string, in dto.RestockRequest) (*entity.LedgerEntry, error) {
	return uc.Restock(ctx, RestockInput{
		TenantID:       tenantID,
		ItemID:         itemID,
		Quantity:       in.Quantity,
		CostPerUnit:    in.CostPerUnit,
		Cause:          in.Cause,
		Reference:      in.Reference,
		IdempotencyKey: in.IdempotencyKey,
		ActorID:        userID,
		Notes:          in.Notes,
	})
}

// AdjustFromRequest adapta el request HTTP a Adjust.
func (uc *DeductionUseCase) AdjustFromRequest(ctx context.Context, tenantID, userID, itemID string, in dto.AdjustRequest) (*entity.LedgerEntry, error) {
	return uc.Adjust(ctx, AdjustInput{
		TenantID:       tenantID,
		ItemID:         itemID,
		Delta:          in.Delta,
		Cause:          in.Cause,
		Reference:      in.Reference,
		IdempotencyKey: in.IdempotencyKey,
		ActorID:        userID,
		Notes:          in.Notes,
	})
}
