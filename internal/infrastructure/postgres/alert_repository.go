package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.AlertRepository = (*AlertRepo)(nil)

const alertColumns = `id, tenant_id, stock_item_id, type, status, quantity_at_open, minimum_at_open,
	COALESCE(acknowledged_by, ''), acknowledged_at, resolved_at, created_at, updated_at`

// AlertRepo alertas de stock sobre PostgreSQL. El índice único parcial
// ux_stock_alerts_open garantiza una sola alerta no resuelta por insumo.
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador.
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

// Create inserta la alerta; domain.ErrDuplicate si ya hay una abierta para el insumo.
func (r *AlertRepo) Create(ctx context.Context, a *entity.StockAlert) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_alerts (id, tenant_id, stock_item_id, type, status, quantity_at_open, minimum_at_open,
			acknowledged_by, acknowledged_at, resolved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.TenantID, a.StockItemID, a.Type, a.Status, a.QuantityAtOpen, a.MinimumAtOpen,
		nullable(a.AcknowledgedBy), a.AcknowledgedAt, a.ResolvedAt, a.CreatedAt, a.UpdatedAt,
	)
	return wrap("create stock alert", err)
}

// GetByID (nil, nil) si no existe.
func (r *AlertRepo) GetByID(ctx context.Context, id string) (*entity.StockAlert, error) {
	return r.getOne(ctx, "get stock alert", `SELECT `+alertColumns+` FROM stock_alerts WHERE id = $1`, id)
}

// GetOpenByItem alerta no resuelta del insumo o (nil, nil).
func (r *AlertRepo) GetOpenByItem(ctx context.Context, stockItemID string) (*entity.StockAlert, error) {
	return r.getOne(ctx, "get open alert",
		`SELECT `+alertColumns+` FROM stock_alerts WHERE stock_item_id = $1 AND status <> 'RESOLVED'`, stockItemID)
}

func (r *AlertRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.StockAlert, error) {
	a, err := scanAlert(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap(op, err)
	}
	return a, nil
}

// Update persiste tipo, estado y marcas de reconocimiento/resolución.
func (r *AlertRepo) Update(ctx context.Context, a *entity.StockAlert) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_alerts
		SET type = $2, status = $3, acknowledged_by = $4, acknowledged_at = $5, resolved_at = $6, updated_at = $7
		WHERE id = $1`,
		a.ID, a.Type, a.Status, nullable(a.AcknowledgedBy), a.AcknowledgedAt, a.ResolvedAt, a.UpdatedAt,
	)
	if err != nil {
		return wrap("update stock alert", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List alertas del tenant, más recientes primero.
func (r *AlertRepo) List(ctx context.Context, f repository.AlertFilter) ([]*entity.StockAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM stock_alerts WHERE tenant_id = $1`
	args := []any{f.TenantID}
	pos := 2
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, f.Status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list stock alerts", err)
	}
	defer rows.Close()
	var list []*entity.StockAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock alert: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// CountOpen alertas ACTIVE o ACKNOWLEDGED del tenant.
func (r *AlertRepo) CountOpen(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM stock_alerts WHERE tenant_id = $1 AND status <> 'RESOLVED'`, tenantID,
	).Scan(&n)
	if err != nil {
		return 0, wrap("count open alerts", err)
	}
	return n, nil
}

func scanAlert(row pgx.Row) (*entity.StockAlert, error) {
	var a entity.StockAlert
	if err := row.Scan(&a.ID, &a.TenantID, &a.StockItemID, &a.Type, &a.Status, &a.QuantityAtOpen,
		&a.MinimumAtOpen, &a.AcknowledgedBy, &a.AcknowledgedAt, &a.ResolvedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
