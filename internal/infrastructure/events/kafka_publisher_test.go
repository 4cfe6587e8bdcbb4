package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/events"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleEvent() inventory.AlertEvent {
	return inventory.AlertEvent{
		Kind:        inventory.EventAlertOpened,
		AlertID:     "al-1",
		TenantID:    "rest-1",
		StockItemID: "item-9",
		AlertType:   "LOW_STOCK",
		Quantity:    decimal.RequireFromString("4"),
		OccurredAt:  time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_UnMensajePorEvento(t *testing.T) {
	w := &fakeWriter{}
	p := events.NewKafkaPublisher(w)

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "rest-1:item-9", string(msg.Key), "clave por insumo para conservar el orden")
	assert.Equal(t, sampleEvent().OccurredAt, msg.Time)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, inventory.EventAlertOpened, string(msg.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "ALERT_OPENED", body["kind"])
	assert.Equal(t, "item-9", body["item_id"])
	assert.Equal(t, "LOW_STOCK", body["type"])
	assert.Equal(t, "4", body["quantity"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_SinEventosNoEscribe(t *testing.T) {
	w := &fakeWriter{err: errors.New("no debería llamarse")}
	assert.NoError(t, events.NewKafkaPublisher(w).Publish(context.Background()))
}

func TestKafkaPublisher_PropagaErrorDelWriter(t *testing.T) {
	w := &fakeWriter{err: kafka.LeaderNotAvailable}
	err := events.NewKafkaPublisher(w).Publish(context.Background(), sampleEvent(), sampleEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, kafka.LeaderNotAvailable)
	assert.Contains(t, err.Error(), "2 eventos")
}

func TestNewKafkaWriter(t *testing.T) {
	w := events.NewKafkaWriter([]string{"localhost:9092"}, "inventory.stock-alerts")
	assert.Equal(t, "inventory.stock-alerts", w.Topic)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := events.NewLogPublisher(logger.NewWriter(&buf, "info"))

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "stock-alerts", line["channel"])
	assert.Equal(t, "ALERT_OPENED", line["kind"])
	assert.Equal(t, "item-9", line["item_id"])
	assert.Equal(t, "evento de alerta", line["message"])
}
