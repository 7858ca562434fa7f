package reporting

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/payloads"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/registry"
)

type fakeInserter struct {
	table string
	rows  []any
	err   error
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	if f.err != nil {
		return f.err
	}
	f.table = table
	f.rows = append(f.rows, rows...)
	return nil
}

func newSink(t *testing.T, inserter *fakeInserter) *Sink {
	t.Helper()
	sink, err := NewSink(inserter, " stock_movements ", logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return sink
}

func event(eventType enums.OutboxEventType, payload any) *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{EventType: eventType},
		Envelope:   outbox.PayloadEnvelope{EventID: uuid.NewString(), OccurredAt: time.Now()},
		Payload:    payload,
	}
}

func TestNewSinkRequiresTable(t *testing.T) {
	_, err := NewSink(&fakeInserter{}, "  ", logger.New(logger.Options{Output: io.Discard}))
	require.Error(t, err)
}

func TestHandleWritesOneRowPerMovement(t *testing.T) {
	inserter := &fakeInserter{}
	sink := newSink(t, inserter)

	shipmentID := uuid.New()
	occurred := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	payload := &payloads.ShipmentProcessedEvent{
		ShipmentID: shipmentID,
		Movements: []payloads.StockMovementRow{
			{MovementID: uuid.New(), ItemID: uuid.New(), ProductID: uuid.New(), WarehouseID: uuid.New(),
				Type: enums.StockMovementIn, Quantity: decimal.RequireFromString("12.5"),
				ReferenceType: "incoming_shipment", ReferenceID: &shipmentID, OccurredAt: occurred},
			{MovementID: uuid.New(), ItemID: uuid.New(), ProductID: uuid.New(), WarehouseID: uuid.New(),
				Type: enums.StockMovementIn, Quantity: decimal.NewFromInt(3),
				ReferenceType: "incoming_shipment", ReferenceID: &shipmentID, OccurredAt: occurred},
		},
	}
	ev := event(enums.EventShipmentProcessed, payload)

	require.NoError(t, sink.Handle(context.Background(), ev))
	assert.Equal(t, "stock_movements", inserter.table)
	require.Len(t, inserter.rows, 2)

	saver, ok := inserter.rows[0].(cbigquery.ValueSaver)
	require.True(t, ok)
	row, insertID, err := saver.Save()
	require.NoError(t, err)
	assert.Equal(t, payload.Movements[0].MovementID.String(), insertID)
	assert.Equal(t, ev.Envelope.EventID, row["event_id"])
	assert.Equal(t, "12.5", row["quantity"])
	assert.Equal(t, cbigquery.NullString{StringVal: shipmentID.String(), Valid: true}, row["reference_id"])
	assert.Equal(t, cbigquery.NullString{}, row["reason"])
	assert.Equal(t, occurred, row["occurred_at"])
}

func TestHandleCarriesAdjustmentReason(t *testing.T) {
	inserter := &fakeInserter{}
	sink := newSink(t, inserter)

	err := sink.Handle(context.Background(), event(enums.EventStockAdjusted, &payloads.StockAdjustedEvent{
		Reason: "cycle count",
		Movements: []payloads.StockMovementRow{
			{MovementID: uuid.New(), Type: enums.StockMovementAdjustment, Quantity: decimal.NewFromInt(-2)},
		},
	}))
	require.NoError(t, err)
	require.Len(t, inserter.rows, 1)

	row, _, err := inserter.rows[0].(cbigquery.ValueSaver).Save()
	require.NoError(t, err)
	assert.Equal(t, cbigquery.NullString{StringVal: "cycle count", Valid: true}, row["reason"])
	assert.Equal(t, "-2", row["quantity"])
	assert.Equal(t, cbigquery.NullString{}, row["reference_id"])
}

func TestHandleIgnoresOtherEvents(t *testing.T) {
	inserter := &fakeInserter{err: errors.New("must not be called")}
	sink := newSink(t, inserter)

	require.NoError(t, sink.Handle(context.Background(), event(enums.EventPOSent, &payloads.POSentEvent{})))
	require.NoError(t, sink.Handle(context.Background(), event(enums.EventStockAdjusted, &payloads.StockAdjustedEvent{})))
}

func TestHandleRowErrorsAreNotRetried(t *testing.T) {
	inserter := &fakeInserter{err: cbigquery.PutMultiError{{RowIndex: 0}}}
	sink := newSink(t, inserter)

	err := sink.Handle(context.Background(), event(enums.EventStockAdjusted, &payloads.StockAdjustedEvent{
		Movements: []payloads.StockMovementRow{{MovementID: uuid.New(), Quantity: decimal.NewFromInt(1)}},
	}))
	var nonRetry registry.NonRetryableError
	require.ErrorAs(t, err, &nonRetry)

	inserter.err = errors.New("googleapi: 503 backend error")
	err = sink.Handle(context.Background(), event(enums.EventStockAdjusted, &payloads.StockAdjustedEvent{
		Movements: []payloads.StockMovementRow{{MovementID: uuid.New(), Quantity: decimal.NewFromInt(1)}},
	}))
	require.Error(t, err)
	assert.False(t, errors.As(err, &nonRetry))
}
