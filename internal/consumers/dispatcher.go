// Package consumers fans decoded domain events out to their side-effect handlers.
package consumers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/registry"
)

// Handler performs one side effect for a domain event.
type Handler interface {
	Name() string
	Handle(ctx context.Context, event *registry.ResolvedEvent) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Dispatcher runs every handler once per event id. Handlers that already succeeded
// for an event are skipped on redelivery, so one failing handler does not repeat
// the others.
type Dispatcher struct {
	handlers []Handler
	manager  idempotencyChecker
	logg     *logger.Logger
}

// NewDispatcher builds a dispatcher. A nil manager disables de-duplication.
func NewDispatcher(manager idempotencyChecker, logg *logger.Logger, handlers ...Handler) (*Dispatcher, error) {
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	var kept []Handler
	for _, h := range handlers {
		if h != nil {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		return nil, errors.New("at least one handler is required")
	}
	return &Dispatcher{handlers: kept, manager: manager, logg: logg}, nil
}

// Handlers returns handler names in dispatch order.
func (d *Dispatcher) Handlers() []string {
	names := make([]string, 0, len(d.handlers))
	for _, h := range d.handlers {
		names = append(names, h.Name())
	}
	return names
}

// Dispatch runs all handlers. The result is a NonRetryableError only when every
// failing handler reported a non-retryable failure.
func (d *Dispatcher) Dispatch(ctx context.Context, event *registry.ResolvedEvent) error {
	if event == nil {
		return registry.NewNonRetryableError(errors.New("event is required"))
	}
	eventID, err := uuid.Parse(event.Envelope.EventID)
	if err != nil {
		return registry.NewNonRetryableError(fmt.Errorf("invalid event id: %w", err))
	}

	var (
		errs      error
		retryable bool
	)
	for _, h := range d.handlers {
		logCtx := d.logg.WithFields(ctx, map[string]any{
			"consumer":   h.Name(),
			"event_id":   event.Envelope.EventID,
			"event_type": event.Descriptor.EventType,
		})

		if d.manager != nil {
			already, err := d.manager.CheckAndMarkProcessed(ctx, h.Name(), eventID)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s idempotency check: %w", h.Name(), err))
				retryable = true
				continue
			}
			if already {
				d.logg.Debug(logCtx, "event already processed")
				continue
			}
		}

		if err := h.Handle(logCtx, event); err != nil {
			d.logg.Error(logCtx, "event handler failed", err)
			var nonRetry registry.NonRetryableError
			if !errors.As(err, &nonRetry) {
				retryable = true
				if d.manager != nil {
					if delErr := d.manager.Delete(ctx, h.Name(), eventID); delErr != nil {
						d.logg.Error(logCtx, "failed to clear idempotency marker", delErr)
					}
				}
			}
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", h.Name(), err))
		}
	}

	if errs == nil {
		return nil
	}
	if retryable {
		// %v keeps non-retryable handler errors out of the chain.
		return fmt.Errorf("dispatch %s: %v", event.Descriptor.EventType, errs)
	}
	return registry.NewNonRetryableError(errs)
}
