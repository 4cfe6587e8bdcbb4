package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

const stockItemColumns = `id, tenant_id, code, name, category, unit, current_quantity, minimum_quantity,
	maximum_quantity, reorder_quantity, cost_per_unit, is_active, created_at, updated_at`

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

// Create inserta el insumo. Código repetido en el tenant -> domain.ErrDuplicate.
func (r *StockItemRepo) Create(ctx context.Context, item *entity.StockItem) error {
	query := `
		INSERT INTO stock_items (` + stockItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.TenantID, item.Code, item.Name, item.Category, item.Unit,
		item.CurrentQuantity, item.MinimumQuantity, item.MaximumQuantity, item.ReorderQuantity,
		item.CostPerUnit, item.IsActive, item.CreatedAt, item.UpdatedAt,
	)
	return wrap("create stock item", err)
}

// GetByID obtiene un insumo por ID; (nil, nil) si no existe.
func (r *StockItemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE id = $1`
	return r.getOne(ctx, "get stock item", query, id)
}

// GetForUpdate obtiene el insumo y bloquea la fila (SELECT FOR UPDATE); (nil, nil) si no existe.
func (r *StockItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, "get stock item for update", query, id)
}

func (r *StockItemRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.StockItem, error) {
	item, err := scanStockItem(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap(op, err)
	}
	return item, nil
}

// UpdateQuantity compare-and-set sobre current_quantity.
func (r *StockItemRepo) UpdateQuantity(ctx context.Context, id string, expectedBefore, quantity, costPerUnit decimal.Decimal) error {
	query := `
		UPDATE stock_items
		SET current_quantity = $3, cost_per_unit = $4, updated_at = now()
		WHERE id = $1 AND current_quantity = $2`
	tag, err := r.q.Exec(ctx, query, id, expectedBefore, quantity, costPerUnit)
	if err != nil {
		return wrap("update stock quantity", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.InvariantViolationError{
			ItemID: id,
			Detail: fmt.Sprintf("la cantidad cambió fuera del motor (esperada %s)", expectedBefore),
		}
	}
	return nil
}

// UpdateThresholds actualiza mínimo, máximo y cantidad de reorden.
func (r *StockItemRepo) UpdateThresholds(ctx context.Context, item *entity.StockItem) error {
	query := `
		UPDATE stock_items
		SET minimum_quantity = $2, maximum_quantity = $3, reorder_quantity = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, item.ID, item.MinimumQuantity, item.MaximumQuantity, item.ReorderQuantity, item.UpdatedAt)
	if err != nil {
		return wrap("update thresholds", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista insumos del tenant; el estado se filtra con la misma regla que entity.DeriveStatus.
func (r *StockItemRepo) List(ctx context.Context, filter repository.StockItemFilter) ([]*entity.StockItem, error) {
	query := `SELECT ` + stockItemColumns + ` FROM stock_items WHERE tenant_id = $1`
	args := []any{filter.TenantID}
	pos := 2
	switch filter.Status {
	case entity.StatusOutOfStock:
		query += " AND current_quantity <= 0"
	case entity.StatusLowStock:
		query += " AND current_quantity > 0 AND current_quantity <= minimum_quantity"
	case entity.StatusInStock:
		query += " AND current_quantity > 0 AND current_quantity > minimum_quantity"
	}
	query += fmt.Sprintf(" ORDER BY code LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)
	return r.list(ctx, "list stock items", query, args...)
}

// ListBelowMinimum insumos activos en o bajo el mínimo, mayor déficit primero.
func (r *StockItemRepo) ListBelowMinimum(ctx context.Context, tenantID string) ([]*entity.StockItem, error) {
	query := `
		SELECT ` + stockItemColumns + `
		FROM stock_items
		WHERE tenant_id = $1 AND is_active AND current_quantity <= minimum_quantity
		ORDER BY (minimum_quantity - current_quantity) DESC, code`
	return r.list(ctx, "list below minimum", query, tenantID)
}

func (r *StockItemRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()
	var list []*entity.StockItem
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

func scanStockItem(row pgx.Row) (*entity.StockItem, error) {
	var s entity.StockItem
	err := row.Scan(
		&s.ID, &s.TenantID, &s.Code, &s.Name, &s.Category, &s.Unit,
		&s.CurrentQuantity, &s.MinimumQuantity, &s.MaximumQuantity, &s.ReorderQuantity,
		&s.CostPerUnit, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
