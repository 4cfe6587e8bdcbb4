package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
	recentEntries    = 20
)

// VerifyResult comparación entre la cantidad materializada y la suma del ledger.
type VerifyResult struct {
	StockItemID string
	Quantity    decimal.Decimal
	LedgerSum   decimal.Decimal
	Consistent  bool
}

// InventorySummary resumen de inventario de un tenant para un rango de fechas.
type InventorySummary struct {
	TenantID        string
	From            time.Time
	To              time.Time
	GeneratedAt     time.Time
	ItemCount       int
	StockValue      decimal.Decimal // Σ cantidad * costo
	LowStockCount   int
	OutOfStockCount int
	OpenAlerts      int
	PurchaseCost    decimal.Decimal // costo de entradas PURCHASE en el rango
	ConsumedCost    decimal.Decimal // costo de salidas en el rango
	EntriesInRange  int
	LowStockItems   []*entity.StockItem
	RecentEntries   []*entity.LedgerEntry
}

// LedgerQueryUseCase lectura del ledger, verificación de integridad y reportes.
type LedgerQueryUseCase struct {
	txRunner   TxRunner
	itemRepo   repository.StockItemRepository
	ledgerRepo repository.LedgerRepository
	alertRepo  repository.AlertRepository
	pdfGen     SummaryPDFGenerator
	log        *logger.Logger
	now        func() time.Time
}

// NewLedgerQueryUseCase construye el caso de uso. pdfGen puede ser nil (SummaryPDF no disponible).
func NewLedgerQueryUseCase(
	txRunner TxRunner,
	itemRepo repository.StockItemRepository,
	ledgerRepo repository.LedgerRepository,
	alertRepo repository.AlertRepository,
	pdfGen SummaryPDFGenerator,
	log *logger.Logger,
) *LedgerQueryUseCase {
	return &LedgerQueryUseCase{
		txRunner:   txRunner,
		itemRepo:   itemRepo,
		ledgerRepo: ledgerRepo,
		alertRepo:  alertRepo,
		pdfGen:     pdfGen,
		log:        log,
		now:        time.Now,
	}
}

// List movimientos del ledger en orden cronológico ascendente.
func (uc *LedgerQueryUseCase) List(ctx context.Context, filter repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	if filter.TenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	if filter.Cause != "" && !entity.IsValidCause(filter.Cause) {
		return nil, domain.ErrInvalidInput
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.ErrInvalidInput
	}
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)
	return uc.ledgerRepo.List(ctx, filter)
}

// Verify recalcula la suma del ledger del insumo con la fila bloqueada.
// Una diferencia se informa como InvariantViolationError; nunca se corrige.
func (uc *LedgerQueryUseCase) Verify(ctx context.Context, tenantID, itemID string) (*VerifyResult, error) {
	if tenantID == "" || itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	var res *VerifyResult
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.StockItemRepository,
		ledgerRepo repository.LedgerRepository,
		_ repository.AlertRepository,
	) error {
		item, err := lockItem(ctx, itemRepo, tenantID, itemID)
		if err != nil {
			return err
		}
		sum, err := ledgerRepo.SumDeltas(ctx, itemID)
		if err != nil {
			return err
		}
		res = &VerifyResult{
			StockItemID: itemID,
			Quantity:    item.CurrentQuantity,
			LedgerSum:   sum,
			Consistent:  sum.Equal(item.CurrentQuantity),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Consistent {
		uc.log.Error().
			Str("tenant_id", tenantID).
			Str("item_id", itemID).
			Str("quantity", res.Quantity.String()).
			Str("ledger_sum", res.LedgerSum.String()).
			Msg("ledger inconsistente con la cantidad")
		return res, &domain.InvariantViolationError{
			ItemID: itemID,
			Detail: "cantidad " + res.Quantity.String() + " != suma del ledger " + res.LedgerSum.String(),
		}
	}
	return res, nil
}

// Summary arma el resumen del tenant. Rango vacío: últimos 30 días.
func (uc *LedgerQueryUseCase) Summary(ctx context.Context, tenantID string, from, to time.Time) (*InventorySummary, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := uc.now()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if to.Before(from) {
		return nil, domain.ErrInvalidInput
	}

	s := &InventorySummary{
		TenantID:     tenantID,
		From:         from,
		To:           to,
		GeneratedAt:  now,
		StockValue:   decimal.Zero,
		PurchaseCost: decimal.Zero,
		ConsumedCost: decimal.Zero,
	}

	for offset := 0; ; offset += maxPageLimit {
		items, err := uc.itemRepo.List(ctx, repository.StockItemFilter{TenantID: tenantID, Limit: maxPageLimit, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			s.ItemCount++
			s.StockValue = s.StockValue.Add(item.TotalValue())
			switch item.Status() {
			case entity.StatusLowStock:
				s.LowStockCount++
				s.LowStockItems = append(s.LowStockItems, item)
			case entity.StatusOutOfStock:
				s.OutOfStockCount++
				s.LowStockItems = append(s.LowStockItems, item)
			}
		}
		if len(items) < maxPageLimit {
			break
		}
	}
	s.StockValue = s.StockValue.Round(2)

	for offset := 0; ; offset += maxPageLimit {
		entries, err := uc.ledgerRepo.List(ctx, repository.LedgerFilter{
			TenantID: tenantID,
			From:     &from,
			To:       &to,
			Limit:    maxPageLimit,
			Offset:   offset,
		})
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			s.EntriesInRange++
			switch {
			case e.Cause == entity.CausePurchase:
				s.PurchaseCost = s.PurchaseCost.Add(e.TotalCost)
			case e.Delta.IsNegative():
				s.ConsumedCost = s.ConsumedCost.Add(e.TotalCost)
			}
			s.RecentEntries = append(s.RecentEntries, e)
			if len(s.RecentEntries) > recentEntries {
				s.RecentEntries = s.RecentEntries[1:]
			}
		}
		if len(entries) < maxPageLimit {
			break
		}
	}

	open, err := uc.alertRepo.CountOpen(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	s.OpenAlerts = open
	return s, nil
}

// SummaryPDF genera el PDF del resumen.
func (uc *LedgerQueryUseCase) SummaryPDF(ctx context.Context, tenantID string, from, to time.Time) ([]byte, error) {
	if uc.pdfGen == nil {
		return nil, domain.ErrNotFound
	}
	s, err := uc.Summary(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	return uc.pdfGen.GenerateSummaryPDF(ctx, s)
}

// normalizePage aplica el límite por defecto y el máximo permitido.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
