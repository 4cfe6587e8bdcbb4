package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BomRepository = (*BomRepo)(nil)

// BomRepo recetas sobre PostgreSQL.
type BomRepo struct {
	q Querier
}

// NewBomRepository construye el adaptador.
func NewBomRepository(q Querier) *BomRepo {
	return &BomRepo{q: q}
}

// RequirementsFor vínculos del compuesto ordenados por insumo.
func (r *BomRepo) RequirementsFor(ctx context.Context, tenantID, compositeItemID string) ([]entity.BomLink, error) {
	rows, err := r.q.Query(ctx, `
		SELECT tenant_id, composite_item_id, stock_item_id, quantity_per_unit, is_optional, COALESCE(notes, ''), created_at
		FROM bom_links
		WHERE tenant_id = $1 AND composite_item_id = $2
		ORDER BY stock_item_id`, tenantID, compositeItemID)
	if err != nil {
		return nil, wrap("bom requirements", err)
	}
	defer rows.Close()
	var links []entity.BomLink
	for rows.Next() {
		var l entity.BomLink
		if err := rows.Scan(&l.TenantID, &l.CompositeItemID, &l.StockItemID, &l.QuantityPerUnit,
			&l.IsOptional, &l.Notes, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bom link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// Link inserta o reemplaza el vínculo (compuesto, insumo).
func (r *BomRepo) Link(ctx context.Context, l *entity.BomLink) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO bom_links (tenant_id, composite_item_id, stock_item_id, quantity_per_unit, is_optional, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, composite_item_id, stock_item_id)
		DO UPDATE SET quantity_per_unit = EXCLUDED.quantity_per_unit,
			is_optional = EXCLUDED.is_optional,
			notes = EXCLUDED.notes`,
		l.TenantID, l.CompositeItemID, l.StockItemID, l.QuantityPerUnit, l.IsOptional, nullable(l.Notes), l.CreatedAt,
	)
	return wrap("link bom", err)
}

// Unlink borra el vínculo; domain.ErrNotFound si no existía.
func (r *BomRepo) Unlink(ctx context.Context, tenantID, compositeItemID, stockItemID string) error {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM bom_links WHERE tenant_id = $1 AND composite_item_id = $2 AND stock_item_id = $3`,
		tenantID, compositeItemID, stockItemID)
	if err != nil {
		return wrap("unlink bom", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
