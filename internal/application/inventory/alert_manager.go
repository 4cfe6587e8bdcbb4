package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// AlertManager deriva el ciclo de vida de alertas desde las transiciones de estado del catálogo.
// Toda mutación de una alerta ocurre con la fila del insumo bloqueada, dentro de la misma
// transacción que cambió la cantidad.
type AlertManager struct {
	txRunner  TxRunner
	alertRepo repository.AlertRepository
	publisher AlertPublisher
	log       *logger.Logger
	metrics   Metrics
	now       func() time.Time
}

// NewAlertManager construye el gestor. publisher y metrics pueden ser nil.
func NewAlertManager(
	txRunner TxRunner,
	alertRepo repository.AlertRepository,
	publisher AlertPublisher,
	log *logger.Logger,
	metrics Metrics,
) *AlertManager {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &AlertManager{
		txRunner:  txRunner,
		alertRepo: alertRepo,
		publisher: publisher,
		log:       log,
		metrics:   metrics,
		now:       time.Now,
	}
}

// OpenIfAbsent abre una alerta ACTIVE si el insumo no tiene una abierta.
// Si ya existe una abierta de otro tipo, se actualiza su tipo (LOW -> OUT escala, OUT -> LOW baja)
// para que el insumo conserve una única alerta que refleje su estado actual.
func (m *AlertManager) OpenIfAbsent(
	ctx context.Context,
	alertRepo repository.AlertRepository,
	item *entity.StockItem,
	alertType string,
	now time.Time,
) (*AlertEvent, error) {
	open, err := alertRepo.GetOpenByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		if open.Type == alertType {
			return nil, nil
		}
		open.Type = alertType
		open.UpdatedAt = now
		if err := alertRepo.Update(ctx, open); err != nil {
			return nil, err
		}
		return &AlertEvent{
			Kind:        EventAlertEscalated,
			AlertID:     open.ID,
			TenantID:    item.TenantID,
			StockItemID: item.ID,
			AlertType:   alertType,
			Quantity:    item.CurrentQuantity,
			OccurredAt:  now,
		}, nil
	}

	alert := &entity.StockAlert{
		ID:             uuid.New().String(),
		TenantID:       item.TenantID,
		StockItemID:    item.ID,
		Type:           alertType,
		Status:         entity.AlertStatusActive,
		QuantityAtOpen: item.CurrentQuantity,
		MinimumAtOpen:  item.MinimumQuantity,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := alertRepo.Create(ctx, alert); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, &domain.InvariantViolationError{ItemID: item.ID, Detail: "alerta abierta duplicada"}
		}
		return nil, err
	}
	return &AlertEvent{
		Kind:        EventAlertOpened,
		AlertID:     alert.ID,
		TenantID:    item.TenantID,
		StockItemID: item.ID,
		AlertType:   alertType,
		Quantity:    item.CurrentQuantity,
		OccurredAt:  now,
	}, nil
}

// ResolveActive resuelve la alerta abierta del insumo, si existe, esté o no reconocida.
func (m *AlertManager) ResolveActive(
	ctx context.Context,
	alertRepo repository.AlertRepository,
	item *entity.StockItem,
	now time.Time,
) (*AlertEvent, error) {
	open, err := alertRepo.GetOpenByItem(ctx, item.ID)
	if err != nil || open == nil {
		return nil, err
	}
	if err := open.Resolve(now); err != nil {
		return nil, err
	}
	if err := alertRepo.Update(ctx, open); err != nil {
		return nil, err
	}
	return &AlertEvent{
		Kind:        EventAlertResolved,
		AlertID:     open.ID,
		TenantID:    item.TenantID,
		StockItemID: item.ID,
		Quantity:    item.CurrentQuantity,
		OccurredAt:  now,
	}, nil
}

// Sync compara el estado previo con el actual del insumo (ya bloqueado) y abre, ajusta o resuelve.
func (m *AlertManager) Sync(
	ctx context.Context,
	alertRepo repository.AlertRepository,
	item *entity.StockItem,
	prevStatus string,
	now time.Time,
) ([]AlertEvent, error) {
	status := item.Status()
	if status == prevStatus {
		return nil, nil
	}
	var (
		ev  *AlertEvent
		err error
	)
	if status == entity.StatusInStock {
		ev, err = m.ResolveActive(ctx, alertRepo, item, now)
	} else {
		ev, err = m.OpenIfAbsent(ctx, alertRepo, item, entity.AlertTypeForStatus(status), now)
	}
	if err != nil || ev == nil {
		return nil, err
	}
	return []AlertEvent{*ev}, nil
}

// Publish entrega los eventos ya confirmados. Un fallo de entrega se registra pero no revierte nada.
func (m *AlertManager) Publish(ctx context.Context, events []AlertEvent) {
	for _, ev := range events {
		m.metrics.AlertTransition(ev.Kind)
		m.log.Info().
			Str("event", ev.Kind).
			Str("alert_id", ev.AlertID).
			Str("item_id", ev.StockItemID).
			Str("type", ev.AlertType).
			Str("quantity", ev.Quantity.String()).
			Msg("transición de alerta")
	}
	if m.publisher == nil || len(events) == 0 {
		return
	}
	if err := m.publisher.Publish(ctx, events...); err != nil {
		m.log.Error().Err(err).Int("events", len(events)).Msg("publicar eventos de alerta")
	}
}

// Acknowledge marca la alerta como reconocida. Solo válido desde ACTIVE.
func (m *AlertManager) Acknowledge(ctx context.Context, tenantID, alertID, actorID string) (*entity.StockAlert, error) {
	var out *entity.StockAlert
	err := m.withLockedAlert(ctx, tenantID, alertID, func(alertRepo repository.AlertRepository, alert *entity.StockAlert) error {
		if err := alert.Acknowledge(actorID, m.now()); err != nil {
			return err
		}
		out = alert
		return alertRepo.Update(ctx, alert)
	})
	if err != nil {
		return nil, err
	}
	m.log.Info().Str("alert_id", alertID).Str("actor", actorID).Msg("alerta reconocida")
	return out, nil
}

// Resolve cierre manual de una alerta (desde ACTIVE o ACKNOWLEDGED).
func (m *AlertManager) Resolve(ctx context.Context, tenantID, alertID string) (*entity.StockAlert, error) {
	var (
		out *entity.StockAlert
		ev  AlertEvent
	)
	err := m.withLockedAlert(ctx, tenantID, alertID, func(alertRepo repository.AlertRepository, alert *entity.StockAlert) error {
		now := m.now()
		if err := alert.Resolve(now); err != nil {
			return err
		}
		out = alert
		ev = AlertEvent{
			Kind:        EventAlertResolved,
			AlertID:     alert.ID,
			TenantID:    alert.TenantID,
			StockItemID: alert.StockItemID,
			OccurredAt:  now,
		}
		return alertRepo.Update(ctx, alert)
	})
	if err != nil {
		return nil, err
	}
	m.Publish(ctx, []AlertEvent{ev})
	return out, nil
}

// withLockedAlert bloquea primero el insumo de la alerta (mismo orden que el motor) y relee la alerta.
func (m *AlertManager) withLockedAlert(
	ctx context.Context,
	tenantID, alertID string,
	fn func(alertRepo repository.AlertRepository, alert *entity.StockAlert) error,
) error {
	alert, err := m.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return err
	}
	if alert == nil || alert.TenantID != tenantID {
		return domain.ErrNotFound
	}
	return m.txRunner.Run(ctx, func(
		itemRepo repository.StockItemRepository,
		_ repository.LedgerRepository,
		alertRepo repository.AlertRepository,
	) error {
		if _, err := itemRepo.GetForUpdate(ctx, alert.StockItemID); err != nil {
			return err
		}
		current, err := alertRepo.GetByID(ctx, alertID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		return fn(alertRepo, current)
	})
}

// List lista alertas del tenant (status opcional).
func (m *AlertManager) List(ctx context.Context, filter repository.AlertFilter) ([]*entity.StockAlert, error) {
	if filter.TenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	if filter.Status != "" && !isAlertStatus(filter.Status) {
		return nil, fmt.Errorf("status %q: %w", filter.Status, domain.ErrInvalidInput)
	}
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)
	return m.alertRepo.List(ctx, filter)
}

// CountOpen cantidad de alertas no resueltas del tenant.
func (m *AlertManager) CountOpen(ctx context.Context, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, domain.ErrInvalidInput
	}
	return m.alertRepo.CountOpen(ctx, tenantID)
}

func isAlertStatus(s string) bool {
	switch s {
	case entity.AlertStatusActive, entity.AlertStatusAcknowledged, entity.AlertStatusResolved:
		return true
	}
	return false
}
