// Package reporting streams stock movement facts to BigQuery.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/angelmondragon/leatherworks-erp/pkg/bigquery"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/payloads"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/registry"
)

// ConsumerName scopes idempotency markers written for this sink.
const ConsumerName = "reporting"

// Sink writes one fact row per stock movement carried by stock events.
type Sink struct {
	client bigquery.RowInserter
	table  string
	logg   *logger.Logger
}

// NewSink builds the stock movement sink.
func NewSink(client bigquery.RowInserter, table string, logg *logger.Logger) (*Sink, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("bigquery table name required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Sink{client: client, table: strings.TrimSpace(table), logg: logg}, nil
}

func (s *Sink) Name() string { return ConsumerName }

// Handle ignores events that carry no movements.
func (s *Sink) Handle(ctx context.Context, event *registry.ResolvedEvent) error {
	rows := factRows(event)
	if len(rows) == 0 {
		return nil
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event_id":   event.Envelope.EventID,
		"event_type": event.Descriptor.EventType,
		"rows":       len(rows),
	})

	if err := s.client.InsertRows(ctx, s.table, rows); err != nil {
		var rowErrs cbigquery.PutMultiError
		if errors.As(err, &rowErrs) {
			// Rejected rows will be rejected again on redelivery.
			s.logg.Error(logCtx, "bigquery rejected stock movement rows", err)
			return registry.NewNonRetryableError(err)
		}
		return fmt.Errorf("insert stock movement facts: %w", err)
	}
	s.logg.Info(logCtx, "stock movement facts ingested")
	return nil
}

// movementFact is one row of the stock movement fact table.
type movementFact struct {
	EventID       string
	EventType     string
	MovementID    uuid.UUID
	ItemID        uuid.UUID
	ProductID     uuid.UUID
	WarehouseID   uuid.UUID
	MovementType  string
	Quantity      string
	ReferenceType string
	ReferenceID   *uuid.UUID
	Reason        string
	OccurredAt    time.Time
}

// Save implements bigquery.ValueSaver. The movement id doubles as the insert id so
// BigQuery drops duplicate deliveries.
func (f movementFact) Save() (map[string]cbigquery.Value, string, error) {
	row := map[string]cbigquery.Value{
		"event_id":       f.EventID,
		"event_type":     f.EventType,
		"movement_id":    f.MovementID.String(),
		"item_id":        f.ItemID.String(),
		"product_id":     f.ProductID.String(),
		"warehouse_id":   f.WarehouseID.String(),
		"movement_type":  f.MovementType,
		"quantity":       f.Quantity,
		"reference_type": nullString(f.ReferenceType),
		"reference_id":   cbigquery.NullString{},
		"reason":         nullString(f.Reason),
		"occurred_at":    f.OccurredAt.UTC(),
	}
	if f.ReferenceID != nil {
		row["reference_id"] = cbigquery.NullString{StringVal: f.ReferenceID.String(), Valid: true}
	}
	return row, f.MovementID.String(), nil
}

func nullString(v string) cbigquery.NullString {
	v = strings.TrimSpace(v)
	return cbigquery.NullString{StringVal: v, Valid: v != ""}
}

func factRows(event *registry.ResolvedEvent) []any {
	var (
		movements []payloads.StockMovementRow
		reason    string
	)
	switch p := event.Payload.(type) {
	case *payloads.ShipmentProcessedEvent:
		movements = p.Movements
	case *payloads.StockAdjustedEvent:
		movements = p.Movements
		reason = p.Reason
	default:
		return nil
	}

	rows := make([]any, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, movementFact{
			EventID:       event.Envelope.EventID,
			EventType:     string(event.Descriptor.EventType),
			MovementID:    m.MovementID,
			ItemID:        m.ItemID,
			ProductID:     m.ProductID,
			WarehouseID:   m.WarehouseID,
			MovementType:  string(m.Type),
			Quantity:      m.Quantity.String(),
			ReferenceType: m.ReferenceType,
			ReferenceID:   m.ReferenceID,
			Reason:        reason,
			OccurredAt:    m.OccurredAt,
		})
	}
	return rows
}
