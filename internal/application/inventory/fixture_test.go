package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const (
	tenantA = "00000000-0000-0000-0000-00000000000a"
	tenantB = "00000000-0000-0000-0000-00000000000b"
	actor   = "00000000-0000-0000-0000-000000000001"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// recordingPublisher guarda los eventos publicados después del commit.
type recordingPublisher struct {
	mu     sync.Mutex
	events []inventory.AlertEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...inventory.AlertEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	catalog   *inventory.CatalogUseCase
	engine    *inventory.DeductionUseCase
	bom       *inventory.BomUseCase
	alerts    *inventory.AlertManager
	ledger    *inventory.LedgerQueryUseCase
	published *recordingPublisher
}

// newFixture arma el motor completo sobre el almacén en memoria.
func newFixture(t *testing.T, lockTimeout time.Duration) *fixture {
	t.Helper()
	log := logger.NewNop()
	store := memory.NewStore(lockTimeout)
	pub := &recordingPublisher{}
	alerts := inventory.NewAlertManager(store, store.Alerts(), pub, log, nil)
	return &fixture{
		store:     store,
		catalog:   inventory.NewCatalogUseCase(store, store.StockItems(), alerts, log),
		engine:    inventory.NewDeductionUseCase(store, store.StockItems(), store.Bom(), alerts, log, nil),
		bom:       inventory.NewBomUseCase(store.Bom(), store.StockItems(), log),
		alerts:    alerts,
		ledger:    inventory.NewLedgerQueryUseCase(store, store.StockItems(), store.Ledger(), store.Alerts(), nil, log),
		published: pub,
	}
}

func (f *fixture) createItem(t *testing.T, tenant, code, qty, minimum string) *entity.StockItem {
	t.Helper()
	item, err := f.catalog.Create(context.Background(), inventory.CreateItemInput{
		TenantID:        tenant,
		ActorID:         actor,
		Code:            code,
		Name:            "Insumo " + code,
		Unit:            "kg",
		InitialQuantity: dec(qty),
		MinimumQuantity: dec(minimum),
		CostPerUnit:     dec("1000"),
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) link(t *testing.T, tenant, compositeID, itemID, perUnit string, optional bool) {
	t.Helper()
	_, err := f.bom.Link(context.Background(), inventory.LinkInput{
		TenantID:        tenant,
		CompositeItemID: compositeID,
		StockItemID:     itemID,
		QuantityPerUnit: dec(perUnit),
		IsOptional:      optional,
	})
	require.NoError(t, err)
}

func (f *fixture) deduct(key, compositeID string, units int) (*inventory.DeductResult, error) {
	return f.engine.Deduct(context.Background(), inventory.DeductInput{
		TenantID:       tenantA,
		ActorID:        actor,
		IdempotencyKey: key,
		Lines:          []domaininv.SaleLine{{CompositeItemID: compositeID, Units: units}},
	})
}

func (f *fixture) quantity(t *testing.T, itemID string) decimal.Decimal {
	t.Helper()
	item, err := f.store.StockItems().GetByID(context.Background(), itemID)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item.CurrentQuantity
}

func (f *fixture) entries(t *testing.T, filter repository.LedgerFilter) []*entity.LedgerEntry {
	t.Helper()
	if filter.TenantID == "" {
		filter.TenantID = tenantA
	}
	list, err := f.store.Ledger().List(context.Background(), filter)
	require.NoError(t, err)
	return list
}

// alertsOf todas las alertas del insumo, abiertas o no.
func (f *fixture) alertsOf(t *testing.T, itemID string) []*entity.StockAlert {
	t.Helper()
	list, err := f.store.Alerts().List(context.Background(), repository.AlertFilter{TenantID: tenantA})
	require.NoError(t, err)
	var out []*entity.StockAlert
	for _, a := range list {
		if a.StockItemID == itemID {
			out = append(out, a)
		}
	}
	return out
}

// requireConsistent la cantidad materializada es la suma del ledger.
func (f *fixture) requireConsistent(t *testing.T, itemID string) {
	t.Helper()
	res, err := f.ledger.Verify(context.Background(), tenantA, itemID)
	require.NoError(t, err)
	require.True(t, res.Consistent, "cantidad %s vs ledger %s", res.Quantity, res.LedgerSum)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, ...inventory.AlertEvent) error {
	return errors.New("broker caído")
}

func nopLogger() *logger.Logger { return logger.NewNop() }

func bowlLine(units int) []domaininv.SaleLine {
	return []domaininv.SaleLine{{CompositeItemID: bowl, Units: units}}
}
