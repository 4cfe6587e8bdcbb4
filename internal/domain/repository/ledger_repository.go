package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LedgerFilter filtros de lectura del ledger (orden cronológico ascendente).
type LedgerFilter struct {
	TenantID       string
	StockItemID    string
	Cause          string
	IdempotencyKey string
	From           *time.Time
	To             *time.Time
	Limit          int
	Offset         int
}

// LedgerRepository puerto del ledger append-only. No existe Update ni Delete.
type LedgerRepository interface {
	Append(ctx context.Context, entry *entity.LedgerEntry) error
	List(ctx context.Context, filter LedgerFilter) ([]*entity.LedgerEntry, error)
	SumDeltas(ctx context.Context, stockItemID string) (decimal.Decimal, error)
	// ClaimKey reserva la clave de idempotencia dentro de la transacción.
	// Devuelve false si la clave ya fue aplicada.
	ClaimKey(ctx context.Context, tenantID, key, cause string) (bool, error)
}
