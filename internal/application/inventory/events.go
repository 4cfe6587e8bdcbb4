package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento de alerta.
const (
	EventAlertOpened    = "ALERT_OPENED"
	EventAlertEscalated = "ALERT_ESCALATED"
	EventAlertResolved  = "ALERT_RESOLVED"
)

// AlertEvent se emite en el punto de transición, después del commit.
type AlertEvent struct {
	Kind        string          `json:"kind"`
	AlertID     string          `json:"alert_id"`
	TenantID    string          `json:"tenant_id"`
	StockItemID string          `json:"item_id"`
	AlertType   string          `json:"type,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
