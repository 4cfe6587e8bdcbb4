package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: si fn devuelve error no queda nada escrito.
// Los bloqueos tomados con GetForUpdate se liberan al hacer Commit o Rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		itemRepo repository.StockItemRepository,
		ledgerRepo repository.LedgerRepository,
		alertRepo repository.AlertRepository,
	) error) error
}

// AlertPublisher entrega eventos de alerta a colaboradores externos (notificaciones).
type AlertPublisher interface {
	Publish(ctx context.Context, events ...AlertEvent) error
}

// Metrics contadores operativos del motor. Las implementaciones deben ser seguras para uso concurrente.
type Metrics interface {
	DeductionObserved(outcome string, elapsed time.Duration)
	LedgerEntriesWritten(cause string, n int)
	AlertTransition(kind string)
}

// SummaryPDFGenerator genera la representación PDF del resumen de inventario.
type SummaryPDFGenerator interface {
	GenerateSummaryPDF(ctx context.Context, summary *InventorySummary) ([]byte, error)
}

type nopMetrics struct{}

func (nopMetrics) DeductionObserved(string, time.Duration) {}
func (nopMetrics) LedgerEntriesWritten(string, int)        {}
func (nopMetrics) AlertTransition(string)                  {}

// NopMetrics implementación vacía para tests y configuraciones sin métricas.
func NopMetrics() Metrics { return nopMetrics{} }
