package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.StockItemRepository = (*itemRepo)(nil)
	_ repository.LedgerRepository    = (*ledgerRepo)(nil)
	_ repository.AlertRepository     = (*alertRepo)(nil)
	_ repository.BomRepository       = (*bomRepo)(nil)
	_ repository.UserRepository      = (*userRepo)(nil)
)

// itemRepo con tx == nil escribe directo en el estado confirmado.
type itemRepo struct {
	s  *Store
	tx *tx
}

func (r *itemRepo) Create(ctx context.Context, item *entity.StockItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, it := range r.s.allItems(r.tx) {
		if it.ID == item.ID || (it.TenantID == item.TenantID && it.Code == item.Code) {
			return domain.ErrDuplicate
		}
	}
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		r.s.items[item.ID] = cloneItem(item)
		return nil
	}
	r.tx.items[item.ID] = cloneItem(item)
	r.tx.checks[item.ID] = quantityCheck{created: true}
	return nil
}

func (r *itemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.s.item(r.tx, id), nil
}

func (r *itemRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	if r.tx == nil {
		return r.GetByID(ctx, id)
	}
	if err := r.tx.lockItem(ctx, id); err != nil {
		return nil, err
	}
	return r.s.item(r.tx, id), nil
}

func (r *itemRepo) UpdateQuantity(ctx context.Context, id string, expectedBefore, quantity, costPerUnit decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		it, ok := r.s.items[id]
		if !ok {
			return domain.ErrNotFound
		}
		if !it.CurrentQuantity.Equal(expectedBefore) {
			return &domain.InvariantViolationError{ItemID: id, Detail: "la cantidad cambió fuera del motor"}
		}
		it.CurrentQuantity, it.CostPerUnit, it.UpdatedAt = quantity, costPerUnit, time.Now()
		return nil
	}

	it := r.s.item(r.tx, id)
	if it == nil {
		return domain.ErrNotFound
	}
	if !it.CurrentQuantity.Equal(expectedBefore) {
		return &domain.InvariantViolationError{ItemID: id, Detail: "la cantidad cambió fuera del motor"}
	}
	if _, seen := r.tx.checks[id]; !seen {
		r.tx.checks[id] = quantityCheck{expected: expectedBefore}
	}
	it.CurrentQuantity, it.CostPerUnit, it.UpdatedAt = quantity, costPerUnit, time.Now()
	r.tx.items[id] = it
	return nil
}

func (r *itemRepo) UpdateThresholds(ctx context.Context, item *entity.StockItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	apply := func(it *entity.StockItem) {
		it.MinimumQuantity = item.MinimumQuantity
		it.MaximumQuantity = item.MaximumQuantity
		it.ReorderQuantity = item.ReorderQuantity
		it.UpdatedAt = item.UpdatedAt
	}
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		it, ok := r.s.items[item.ID]
		if !ok {
			return domain.ErrNotFound
		}
		apply(it)
		return nil
	}
	it := r.s.item(r.tx, item.ID)
	if it == nil {
		return domain.ErrNotFound
	}
	apply(it)
	r.tx.items[item.ID] = it
	return nil
}

func (r *itemRepo) List(ctx context.Context, f repository.StockItemFilter) ([]*entity.StockItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*entity.StockItem
	for _, it := range r.s.allItems(r.tx) {
		if it.TenantID != f.TenantID {
			continue
		}
		if f.Status != "" && it.Status() != f.Status {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, f.Limit, f.Offset), nil
}

func (r *itemRepo) ListBelowMinimum(ctx context.Context, tenantID string) ([]*entity.StockItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*entity.StockItem
	for _, it := range r.s.allItems(r.tx) {
		if it.TenantID == tenantID && it.IsActive && it.CurrentQuantity.LessThanOrEqual(it.MinimumQuantity) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di := out[i].MinimumQuantity.Sub(out[i].CurrentQuantity)
		dj := out[j].MinimumQuantity.Sub(out[j].CurrentQuantity)
		if !di.Equal(dj) {
			return di.GreaterThan(dj)
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

type ledgerRepo struct {
	s  *Store
	tx *tx
}

func (r *ledgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := *e
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		r.s.ledger = append(r.s.ledger, &cp)
		return nil
	}
	r.tx.ledger = append(r.tx.ledger, &cp)
	return nil
}

func (r *ledgerRepo) List(ctx context.Context, f repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*entity.LedgerEntry
	for _, e := range r.s.allLedger(r.tx) {
		switch {
		case e.TenantID != f.TenantID,
			f.StockItemID != "" && e.StockItemID != f.StockItemID,
			f.Cause != "" && e.Cause != f.Cause,
			f.IdempotencyKey != "" && e.IdempotencyKey != f.IdempotencyKey,
			f.From != nil && e.CreatedAt.Before(*f.From),
			f.To != nil && e.CreatedAt.After(*f.To):
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), nil
}

func (r *ledgerRepo) SumDeltas(ctx context.Context, stockItemID string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, e := range r.s.allLedger(r.tx) {
		if e.StockItemID == stockItemID {
			sum = sum.Add(e.Delta)
		}
	}
	return sum, nil
}

// ClaimKey toma el candado de la clave hasta el fin de la tx y revisa las claves confirmadas.
func (r *ledgerRepo) ClaimKey(ctx context.Context, tenantID, key, _ string) (bool, error) {
	k := keyOf(tenantID, key)
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		if _, ok := r.s.keys[k]; ok {
			return false, nil
		}
		r.s.keys[k] = struct{}{}
		return true, nil
	}
	if err := r.tx.lockKey(ctx, k); err != nil {
		return false, err
	}
	if _, ok := r.tx.keys[k]; ok {
		return false, nil
	}
	r.s.mu.RLock()
	_, done := r.s.keys[k]
	r.s.mu.RUnlock()
	if done {
		return false, nil
	}
	r.tx.keys[k] = struct{}{}
	return true, nil
}

type alertRepo struct {
	s  *Store
	tx *tx
}

func (r *alertRepo) Create(ctx context.Context, a *entity.StockAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if open, _ := r.GetOpenByItem(ctx, a.StockItemID); open != nil {
		return domain.ErrDuplicate
	}
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		r.s.alerts[a.ID] = cloneAlert(a)
		return nil
	}
	r.tx.alerts[a.ID] = cloneAlert(a)
	r.tx.newAlert[a.ID] = true
	return nil
}

func (r *alertRepo) GetByID(ctx context.Context, id string) (*entity.StockAlert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.s.alert(r.tx, id), nil
}

func (r *alertRepo) GetOpenByItem(ctx context.Context, stockItemID string) (*entity.StockAlert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, a := range r.s.allAlerts(r.tx) {
		if a.StockItemID == stockItemID && a.IsOpen() {
			return a, nil
		}
	}
	return nil, nil
}

func (r *alertRepo) Update(ctx context.Context, a *entity.StockAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.s.alert(r.tx, a.ID) == nil {
		return domain.ErrNotFound
	}
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		r.s.alerts[a.ID] = cloneAlert(a)
		return nil
	}
	r.tx.alerts[a.ID] = cloneAlert(a)
	return nil
}

func (r *alertRepo) List(ctx context.Context, f repository.AlertFilter) ([]*entity.StockAlert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*entity.StockAlert
	for _, a := range r.s.allAlerts(r.tx) {
		if a.TenantID == f.TenantID && (f.Status == "" || a.Status == f.Status) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *alertRepo) CountOpen(ctx context.Context, tenantID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	for _, a := range r.s.allAlerts(r.tx) {
		if a.TenantID == tenantID && a.IsOpen() {
			n++
		}
	}
	return n, nil
}

type bomRepo struct {
	s *Store
}

func (r *bomRepo) RequirementsFor(ctx context.Context, tenantID, compositeItemID string) ([]entity.BomLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	links := r.s.bom[keyOf(tenantID, compositeItemID)]
	out := make([]entity.BomLink, 0, len(links))
	for _, l := range links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockItemID < out[j].StockItemID })
	return out, nil
}

func (r *bomRepo) Link(ctx context.Context, l *entity.BomLink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := keyOf(l.TenantID, l.CompositeItemID)
	if r.s.bom[k] == nil {
		r.s.bom[k] = make(map[string]entity.BomLink)
	}
	r.s.bom[k][l.StockItemID] = *l
	return nil
}

func (r *bomRepo) Unlink(ctx context.Context, tenantID, compositeItemID, stockItemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	links := r.s.bom[keyOf(tenantID, compositeItemID)]
	if _, ok := links[stockItemID]; !ok {
		return domain.ErrNotFound
	}
	delete(links, stockItemID)
	return nil
}

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, u *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.ID == u.ID || other.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.find(ctx, func(u *entity.User) bool { return u.ID == id })
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.find(ctx, func(u *entity.User) bool { return u.Email == email })
}

func (r *userRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.User
	for _, u := range r.s.users {
		if u.TenantID == tenantID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *userRepo) find(ctx context.Context, match func(*entity.User) bool) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}
