// Package memory implementa los puertos de persistencia del inventario en memoria.
// Se usa en tests y con STORAGE_DRIVER=memory; respeta las mismas garantías que PostgreSQL:
// bloqueo exclusivo por insumo con espera acotada, escrituras visibles solo al confirmar
// y claves de idempotencia únicas por tenant.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store estado confirmado compartido por todas las transacciones.
type Store struct {
	mu      sync.RWMutex
	items   map[string]*entity.StockItem
	ledger  []*entity.LedgerEntry
	keys    map[string]struct{}
	alerts  map[string]*entity.StockAlert
	bom     map[string]map[string]entity.BomLink // tenant|composite -> insumo -> vínculo
	users   map[string]*entity.User
	itemLk  *lockTable
	keyLk   *lockTable
	timeout time.Duration
}

// NewStore crea un almacén vacío. lockTimeout <= 0 espera sin límite.
func NewStore(lockTimeout time.Duration) *Store {
	return &Store{
		items:   make(map[string]*entity.StockItem),
		keys:    make(map[string]struct{}),
		alerts:  make(map[string]*entity.StockAlert),
		bom:     make(map[string]map[string]entity.BomLink),
		users:   make(map[string]*entity.User),
		itemLk:  newLockTable(),
		keyLk:   newLockTable(),
		timeout: lockTimeout,
	}
}

// Run ejecuta fn en una transacción. Las escrituras se aplican solo si fn no falla y ctx sigue vivo.
func (s *Store) Run(ctx context.Context, fn func(
	itemRepo repository.StockItemRepository,
	ledgerRepo repository.LedgerRepository,
	alertRepo repository.AlertRepository,
) error) error {
	tx := newTx(s)
	defer tx.releaseAll()

	if err := fn(&itemRepo{s: s, tx: tx}, &ledgerRepo{s: s, tx: tx}, &alertRepo{s: s, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

// StockItems repositorio fuera de transacción (lecturas y altas directas).
func (s *Store) StockItems() repository.StockItemRepository { return &itemRepo{s: s} }

// Ledger repositorio de ledger fuera de transacción.
func (s *Store) Ledger() repository.LedgerRepository { return &ledgerRepo{s: s} }

// Alerts repositorio de alertas fuera de transacción.
func (s *Store) Alerts() repository.AlertRepository { return &alertRepo{s: s} }

// Bom repositorio de recetas (no transaccional).
func (s *Store) Bom() repository.BomRepository { return &bomRepo{s: s} }

// Users repositorio del personal (no transaccional).
func (s *Store) Users() repository.UserRepository { return &userRepo{s: s} }

// quantityCheck cantidad que la transacción espera encontrar confirmada al hacer commit.
type quantityCheck struct {
	expected decimal.Decimal
	created  bool
}

// tx capa de escrituras pendientes sobre el estado confirmado.
type tx struct {
	s        *Store
	items    map[string]*entity.StockItem
	checks   map[string]quantityCheck
	ledger   []*entity.LedgerEntry
	keys     map[string]struct{}
	alerts   map[string]*entity.StockAlert
	newAlert map[string]bool
	heldItem map[string]bool
	heldKey  map[string]bool
}

func newTx(s *Store) *tx {
	return &tx{
		s:        s,
		items:    make(map[string]*entity.StockItem),
		checks:   make(map[string]quantityCheck),
		keys:     make(map[string]struct{}),
		alerts:   make(map[string]*entity.StockAlert),
		newAlert: make(map[string]bool),
		heldItem: make(map[string]bool),
		heldKey:  make(map[string]bool),
	}
}

func (t *tx) lockItem(ctx context.Context, id string) error {
	if t.heldItem[id] {
		return nil
	}
	if err := t.s.itemLk.acquire(ctx, id, t.s.timeout); err != nil {
		return err
	}
	t.heldItem[id] = true
	return nil
}

func (t *tx) lockKey(ctx context.Context, key string) error {
	if t.heldKey[key] {
		return nil
	}
	if err := t.s.keyLk.acquire(ctx, key, t.s.timeout); err != nil {
		return err
	}
	t.heldKey[key] = true
	return nil
}

func (t *tx) releaseAll() {
	for id := range t.heldItem {
		t.s.itemLk.release(id)
	}
	for k := range t.heldKey {
		t.s.keyLk.release(k)
	}
	t.heldItem, t.heldKey = nil, nil
}

// commit valida las cantidades esperadas y la unicidad de alertas abiertas y aplica todo.
func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, chk := range t.checks {
		cur, ok := s.items[id]
		if chk.created {
			if ok || s.codeTaken(t.items[id]) {
				return domain.ErrDuplicate
			}
			continue
		}
		if !ok || !cur.CurrentQuantity.Equal(chk.expected) {
			return &domain.InvariantViolationError{ItemID: id, Detail: "la cantidad cambió antes del commit"}
		}
	}
	for id := range t.newAlert {
		a := t.alerts[id]
		if !a.IsOpen() {
			continue
		}
		for _, other := range s.alerts {
			if other.StockItemID == a.StockItemID && other.IsOpen() {
				if pending, ok := t.alerts[other.ID]; ok && !pending.IsOpen() {
					continue
				}
				return &domain.InvariantViolationError{ItemID: a.StockItemID, Detail: "alerta abierta duplicada"}
			}
		}
	}
	for k := range t.keys {
		if _, ok := s.keys[k]; ok {
			return domain.ErrAlreadyApplied
		}
	}

	for id, it := range t.items {
		s.items[id] = cloneItem(it)
	}
	for _, e := range t.ledger {
		cp := *e
		s.ledger = append(s.ledger, &cp)
	}
	for k := range t.keys {
		s.keys[k] = struct{}{}
	}
	for id, a := range t.alerts {
		s.alerts[id] = cloneAlert(a)
	}
	return nil
}

// codeTaken requiere s.mu tomado.
func (s *Store) codeTaken(item *entity.StockItem) bool {
	for _, it := range s.items {
		if it.TenantID == item.TenantID && it.Code == item.Code {
			return true
		}
	}
	return false
}

// item vista del insumo: pendiente de la tx si existe, si no confirmado. Devuelve copia.
func (s *Store) item(t *tx, id string) *entity.StockItem {
	if t != nil {
		if it, ok := t.items[id]; ok {
			return cloneItem(it)
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if it, ok := s.items[id]; ok {
		return cloneItem(it)
	}
	return nil
}

func (s *Store) alert(t *tx, id string) *entity.StockAlert {
	if t != nil {
		if a, ok := t.alerts[id]; ok {
			return cloneAlert(a)
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.alerts[id]; ok {
		return cloneAlert(a)
	}
	return nil
}

// allItems estado confirmado con las escrituras de la tx superpuestas.
func (s *Store) allItems(t *tx) []*entity.StockItem {
	s.mu.RLock()
	out := make(map[string]*entity.StockItem, len(s.items))
	for id, it := range s.items {
		out[id] = it
	}
	s.mu.RUnlock()
	if t != nil {
		for id, it := range t.items {
			out[id] = it
		}
	}
	list := make([]*entity.StockItem, 0, len(out))
	for _, it := range out {
		list = append(list, cloneItem(it))
	}
	return list
}

func (s *Store) allLedger(t *tx) []*entity.LedgerEntry {
	s.mu.RLock()
	list := make([]*entity.LedgerEntry, 0, len(s.ledger))
	list = append(list, s.ledger...)
	s.mu.RUnlock()
	if t != nil {
		list = append(list, t.ledger...)
	}
	return list
}

func (s *Store) allAlerts(t *tx) []*entity.StockAlert {
	s.mu.RLock()
	out := make(map[string]*entity.StockAlert, len(s.alerts))
	for id, a := range s.alerts {
		out[id] = a
	}
	s.mu.RUnlock()
	if t != nil {
		for id, a := range t.alerts {
			out[id] = a
		}
	}
	list := make([]*entity.StockAlert, 0, len(out))
	for _, a := range out {
		list = append(list, cloneAlert(a))
	}
	return list
}

func cloneItem(it *entity.StockItem) *entity.StockItem {
	cp := *it
	return &cp
}

func cloneAlert(a *entity.StockAlert) *entity.StockAlert {
	cp := *a
	return &cp
}

func keyOf(tenantID, key string) string {
	return tenantID + "|" + key
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
