package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

type fakePDF struct {
	got *inventory.InventorySummary
}

func (g *fakePDF) GenerateSummaryPDF(_ context.Context, s *inventory.InventorySummary) ([]byte, error) {
	g.got = s
	return []byte("%PDF-1.4 fake"), nil
}

// seedSummary deja un arroz en LOW_STOCK, un huevo agotado y sal con una compra.
func seedSummary(t *testing.T, f *fixture) (arroz, huevo, sal *entity.StockItem) {
	t.Helper()
	arroz = f.createItem(t, tenantA, "ARROZ", "10", "5")
	huevo = f.createItem(t, tenantA, "HUEVO", "0", "4")
	sal = f.createItem(t, tenantA, "SAL", "50", "1")
	f.link(t, tenantA, bowl, arroz.ID, "1", false)

	_, err := f.deduct("orden-s", bowl, 7)
	require.NoError(t, err)
	_, err = f.engine.Restock(context.Background(), inventory.RestockInput{
		TenantID: tenantA, ItemID: sal.ID, Quantity: dec("10"), CostPerUnit: decPtr("1000"),
	})
	require.NoError(t, err)
	return arroz, huevo, sal
}

func TestLedgerList_FiltrosYOrden(t *testing.T) {
	f := newFixture(t, time.Second)
	arroz, _, _ := seedSummary(t, f)
	ctx := context.Background()

	entries, err := f.ledger.List(ctx, repository.LedgerFilter{TenantID: tenantA, StockItemID: arroz.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.CauseManualAddition, entries[0].Cause, "orden cronológico ascendente")
	assert.Equal(t, entity.CauseOrderDeduction, entries[1].Cause)

	deductions, err := f.ledger.List(ctx, repository.LedgerFilter{TenantID: tenantA, Cause: entity.CauseOrderDeduction})
	require.NoError(t, err)
	assert.Len(t, deductions, 1)

	byKey, err := f.ledger.List(ctx, repository.LedgerFilter{TenantID: tenantA, IdempotencyKey: "orden-s"})
	require.NoError(t, err)
	assert.Len(t, byKey, 1)

	other, err := f.ledger.List(ctx, repository.LedgerFilter{TenantID: tenantB})
	require.NoError(t, err)
	assert.Empty(t, other)

	now := time.Now()
	earlier := now.Add(-time.Hour)
	_, err = f.ledger.List(ctx, repository.LedgerFilter{TenantID: tenantA, From: &now, To: &earlier})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.ledger.List(ctx, repository.LedgerFilter{TenantID: tenantA, Cause: "REGALO"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVerify_DetectaDesfaseSinCorregirlo(t *testing.T) {
	f := newFixture(t, time.Second)
	arroz := f.createItem(t, tenantA, "ARROZ", "10", "0")
	ctx := context.Background()

	// Escritura directa por fuera del motor.
	require.NoError(t, f.store.StockItems().UpdateQuantity(ctx, arroz.ID, dec("10"), dec("9"), dec("1000")))

	res, err := f.ledger.Verify(ctx, tenantA, arroz.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
	require.NotNil(t, res)
	assert.False(t, res.Consistent)
	assert.True(t, dec("9").Equal(res.Quantity))
	assert.True(t, dec("10").Equal(res.LedgerSum))
	assert.True(t, dec("9").Equal(f.quantity(t, arroz.ID)), "Verify no repara")

	_, err = f.ledger.Verify(ctx, tenantB, arroz.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSummary_Totales(t *testing.T) {
	f := newFixture(t, time.Second)
	seedSummary(t, f)

	s, err := f.ledger.Summary(context.Background(), tenantA, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, s.ItemCount)
	assert.True(t, dec("63000").Equal(s.StockValue))
	assert.Equal(t, 1, s.LowStockCount)
	assert.Equal(t, 1, s.OutOfStockCount)
	assert.Len(t, s.LowStockItems, 2)
	assert.Equal(t, 1, s.OpenAlerts)
	assert.Equal(t, 4, s.EntriesInRange)
	assert.True(t, dec("10000").Equal(s.PurchaseCost))
	assert.True(t, dec("7000").Equal(s.ConsumedCost))
	assert.Len(t, s.RecentEntries, 4)
	assert.True(t, s.From.Before(s.To), "rango por defecto: últimos 30 días")

	_, err = f.ledger.Summary(context.Background(), tenantA, time.Now(), time.Now().Add(-time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSummaryPDF(t *testing.T) {
	f := newFixture(t, time.Second)
	seedSummary(t, f)
	ctx := context.Background()

	_, err := f.ledger.SummaryPDF(ctx, tenantA, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, domain.ErrNotFound, "sin generador configurado")

	gen := &fakePDF{}
	uc := inventory.NewLedgerQueryUseCase(f.store, f.store.StockItems(), f.store.Ledger(), f.store.Alerts(), gen, nopLogger())
	out, err := uc.SummaryPDF(ctx, tenantA, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(out))
	require.NotNil(t, gen.got)
	assert.Equal(t, tenantA, gen.got.TenantID)
	assert.Equal(t, 3, gen.got.ItemCount)
}
