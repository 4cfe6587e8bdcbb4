package events

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var _ inventory.AlertPublisher = (*LogPublisher)(nil)

// LogPublisher entrega los eventos de alerta como líneas de log estructurado.
// Se usa cuando no hay brokers Kafka configurados.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, events ...inventory.AlertEvent) error {
	for _, ev := range events {
		p.log.Info().
			Str("channel", "stock-alerts").
			Str("kind", ev.Kind).
			Str("tenant_id", ev.TenantID).
			Str("alert_id", ev.AlertID).
			Str("item_id", ev.StockItemID).
			Str("type", ev.AlertType).
			Str("quantity", ev.Quantity.String()).
			Time("occurred_at", ev.OccurredAt).
			Msg("evento de alerta")
	}
	return nil
}
