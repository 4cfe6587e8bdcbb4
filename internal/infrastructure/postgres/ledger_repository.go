package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo ledger append-only sobre PostgreSQL (usable con pool o tx).
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append persiste una entrada. Nunca se actualiza ni se borra.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, tenant_id, stock_item_id, delta, quantity_before, quantity_after,
			cost_per_unit, total_cost, cause, reference, idempotency_key, actor_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.TenantID, e.StockItemID, e.Delta, e.QuantityBefore, e.QuantityAfter,
		e.CostPerUnit, e.TotalCost, e.Cause, nullable(e.Reference), nullable(e.IdempotencyKey),
		nullable(e.ActorID), nullable(e.Notes), e.CreatedAt,
	)
	return wrap("append ledger entry", err)
}

// List entradas filtradas en orden cronológico ascendente.
func (r *LedgerRepo) List(ctx context.Context, f repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	query := `
		SELECT id, tenant_id, stock_item_id, delta, quantity_before, quantity_after, cost_per_unit, total_cost,
			cause, COALESCE(reference, ''), COALESCE(idempotency_key, ''), COALESCE(actor_id, ''),
			COALESCE(notes, ''), created_at
		FROM ledger_entries WHERE tenant_id = $1`
	args := []any{f.TenantID}
	pos := 2
	if f.StockItemID != "" {
		query += fmt.Sprintf(" AND stock_item_id = $%d", pos)
		args = append(args, f.StockItemID)
		pos++
	}
	if f.Cause != "" {
		query += fmt.Sprintf(" AND cause = $%d", pos)
		args = append(args, f.Cause)
		pos++
	}
	if f.IdempotencyKey != "" {
		query += fmt.Sprintf(" AND idempotency_key = $%d", pos)
		args = append(args, f.IdempotencyKey)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at ASC, seq ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list ledger", err)
	}
	defer rows.Close()
	var list []*entity.LedgerEntry
	for rows.Next() {
		var e entity.LedgerEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.StockItemID, &e.Delta, &e.QuantityBefore, &e.QuantityAfter,
			&e.CostPerUnit, &e.TotalCost, &e.Cause, &e.Reference, &e.IdempotencyKey, &e.ActorID,
			&e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// SumDeltas suma de todos los deltas del insumo (0 si no hay entradas).
func (r *LedgerRepo) SumDeltas(ctx context.Context, stockItemID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(delta), 0) FROM ledger_entries WHERE stock_item_id = $1`, stockItemID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, wrap("sum ledger deltas", err)
	}
	return sum, nil
}

// ClaimKey inserta la clave en deduction_keys. Una transacción concurrente con la misma clave
// espera al commit de la primera y luego no inserta nada.
func (r *LedgerRepo) ClaimKey(ctx context.Context, tenantID, key, cause string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO deduction_keys (tenant_id, idempotency_key, cause, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, idempotency_key) DO NOTHING`,
		tenantID, key, cause, time.Now().UTC(),
	)
	if err != nil {
		return false, wrap("claim idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
