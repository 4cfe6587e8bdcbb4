package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var errBoom = errors.New("boom")

func newItem(id, tenant, code, qty string) *entity.StockItem {
	return &entity.StockItem{
		ID: id, TenantID: tenant, Code: code, Name: code, Unit: "KG",
		CurrentQuantity: decimal.RequireFromString(qty), IsActive: true, CreatedAt: time.Now(),
	}
}

type repos struct {
	items  repository.StockItemRepository
	ledger repository.LedgerRepository
	alerts repository.AlertRepository
}

func run(ctx context.Context, s *Store, fn func(r repos) error) error {
	return s.Run(ctx, func(i repository.StockItemRepository, l repository.LedgerRepository, a repository.AlertRepository) error {
		return fn(repos{items: i, ledger: l, alerts: a})
	})
}

func TestStore_EscriturasSoloAlConfirmar(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()
	require.NoError(t, s.StockItems().Create(ctx, newItem("i1", "t", "ARROZ", "10")))

	err := run(ctx, s, func(r repos) error {
		if _, err := r.items.GetForUpdate(ctx, "i1"); err != nil {
			return err
		}
		if err := r.items.UpdateQuantity(ctx, "i1", decimal.RequireFromString("10"), decimal.RequireFromString("7"), decimal.Zero); err != nil {
			return err
		}
		inside, _ := r.items.GetByID(ctx, "i1")
		assert.True(t, decimal.RequireFromString("7").Equal(inside.CurrentQuantity), "la tx ve sus propias escrituras")

		outside, _ := s.StockItems().GetByID(ctx, "i1")
		assert.True(t, decimal.RequireFromString("10").Equal(outside.CurrentQuantity), "fuera de la tx no se ve nada")
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	got, err := s.StockItems().GetByID(ctx, "i1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10").Equal(got.CurrentQuantity), "rollback")
}

func TestStore_CommitYContextoCancelado(t *testing.T) {
	s := NewStore(time.Second)
	require.NoError(t, s.StockItems().Create(context.Background(), newItem("i1", "t", "ARROZ", "10")))

	ctx, cancel := context.WithCancel(context.Background())
	err := run(ctx, s, func(r repos) error {
		if err := r.items.UpdateQuantity(ctx, "i1", decimal.RequireFromString("10"), decimal.RequireFromString("1"), decimal.Zero); err != nil {
			return err
		}
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	got, _ := s.StockItems().GetByID(context.Background(), "i1")
	assert.True(t, decimal.RequireFromString("10").Equal(got.CurrentQuantity))
}

func TestStore_CodigoDuplicado(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()
	require.NoError(t, s.StockItems().Create(ctx, newItem("i1", "t", "ARROZ", "1")))

	assert.ErrorIs(t, s.StockItems().Create(ctx, newItem("i2", "t", "ARROZ", "1")), domain.ErrDuplicate)
	assert.NoError(t, s.StockItems().Create(ctx, newItem("i3", "otro", "ARROZ", "1")))

	err := run(ctx, s, func(r repos) error {
		return r.items.Create(ctx, newItem("i4", "t", "ARROZ", "1"))
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestStore_UpdateQuantityEsCAS(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()
	require.NoError(t, s.StockItems().Create(ctx, newItem("i1", "t", "ARROZ", "10")))

	err := s.StockItems().UpdateQuantity(ctx, "i1", decimal.RequireFromString("9"), decimal.RequireFromString("5"), decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	assert.ErrorIs(t, s.StockItems().UpdateQuantity(ctx, "nada", decimal.Zero, decimal.Zero, decimal.Zero), domain.ErrNotFound)
}

func TestStore_BloqueoConTimeout(t *testing.T) {
	s := NewStore(30 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, s.StockItems().Create(ctx, newItem("i1", "t", "ARROZ", "10")))

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, s, func(r repos) error {
			if _, err := r.items.GetForUpdate(ctx, "i1"); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	start := time.Now()
	err := run(ctx, s, func(r repos) error {
		_, err := r.items.GetForUpdate(ctx, "i1")
		return err
	})
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	close(release)
	require.NoError(t, <-done)

	// Liberado al terminar la tx.
	assert.NoError(t, run(ctx, s, func(r repos) error {
		_, err := r.items.GetForUpdate(ctx, "i1")
		return err
	}))
}

func TestLockTable_CancelacionYReentrada(t *testing.T) {
	lt := newLockTable()
	ctx := context.Background()
	require.NoError(t, lt.acquire(ctx, "k", 0))

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := lt.acquire(cctx, "k", 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "sin límite propio manda el contexto")

	lt.release("k")
	assert.NoError(t, lt.acquire(ctx, "k", time.Millisecond))
	lt.release("k")
	assert.Zero(t, lt.size(), "sin dueño ni espera la clave se descarta")
}

func TestLockTable_NoRetieneClavesLiberadas(t *testing.T) {
	lt := newLockTable()
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("orden-%03d", i)
		require.NoError(t, lt.acquire(ctx, key, time.Second))
		lt.release(key)
	}
	assert.Zero(t, lt.size())

	require.NoError(t, lt.acquire(ctx, "k", 0))
	err := lt.acquire(ctx, "k", 10*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.Equal(t, 1, lt.size(), "el timeout suelta la referencia del que esperaba")
	lt.release("k")
	assert.Zero(t, lt.size())
}

func TestStore_ClaimKeyNoAcumulaCandados(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("orden-%02d", i)
		require.NoError(t, run(ctx, s, func(r repos) error {
			_, err := r.ledger.ClaimKey(ctx, "t1", key, "ORDER_DEDUCTION")
			return err
		}))
	}
	assert.Zero(t, s.keyLk.size())
	assert.Zero(t, s.itemLk.size())
}

func TestStore_ClaimKey(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()

	claim := func(tenant, key string) (bool, error) {
		var ok bool
		err := run(ctx, s, func(r repos) error {
			var err error
			ok, err = r.ledger.ClaimKey(ctx, tenant, key, "DEDUCTION")
			return err
		})
		return ok, err
	}

	ok, err := claim("t", "orden-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = claim("t", "orden-1")
	require.NoError(t, err)
	assert.False(t, ok, "la clave ya fue confirmada")

	ok, err = claim("otro", "orden-1")
	require.NoError(t, err)
	assert.True(t, ok, "las claves son por tenant")

	// Una tx fallida no consume la clave.
	err = run(ctx, s, func(r repos) error {
		if _, err := r.ledger.ClaimKey(ctx, "t", "orden-2", "DEDUCTION"); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	ok, err = claim("t", "orden-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_UnaAlertaAbiertaPorInsumo(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()
	alert := func(id string) *entity.StockAlert {
		return &entity.StockAlert{
			ID: id, TenantID: "t", StockItemID: "i1",
			Type: entity.AlertTypeLowStock, Status: entity.AlertStatusActive, CreatedAt: time.Now(),
		}
	}
	require.NoError(t, s.Alerts().Create(ctx, alert("a1")))
	assert.ErrorIs(t, s.Alerts().Create(ctx, alert("a2")), domain.ErrDuplicate)

	open, err := s.Alerts().CountOpen(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 1, open)
}

func TestStore_BomOrdenadoYUnlink(t *testing.T) {
	s := NewStore(time.Second)
	ctx := context.Background()
	bom := s.Bom()
	for _, id := range []string{"z", "a", "m"} {
		require.NoError(t, bom.Link(ctx, &entity.BomLink{TenantID: "t", CompositeItemID: "bowl", StockItemID: id, QuantityPerUnit: decimal.NewFromInt(1)}))
	}
	links, err := bom.RequirementsFor(ctx, "t", "bowl")
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "a", links[0].StockItemID)
	assert.Equal(t, "z", links[2].StockItemID)

	require.NoError(t, bom.Unlink(ctx, "t", "bowl", "m"))
	assert.ErrorIs(t, bom.Unlink(ctx, "t", "bowl", "m"), domain.ErrNotFound)

	empty, err := bom.RequirementsFor(ctx, "otro", "bowl")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
