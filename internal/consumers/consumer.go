package consumers

import (
	"context"
	"errors"
	"strings"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/registry"
)

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, event *registry.ResolvedEvent) error
}

// Consumer reads the domain subscription and hands each event to the dispatcher.
type Consumer struct {
	subscription *gcppubsub.Subscriber
	registry     resolver
	dispatcher   dispatcher
	logg         *logger.Logger
}

// NewConsumer builds a domain event consumer.
func NewConsumer(subscription *gcppubsub.Subscriber, reg resolver, d dispatcher, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, errors.New("domain subscription is required")
	}
	if reg == nil {
		return nil, errors.New("event registry is required")
	}
	if d == nil {
		return nil, errors.New("dispatcher is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{subscription: subscription, registry: reg, dispatcher: d, logg: logg}, nil
}

// Run consumes messages until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if c.process(innerCtx, msg.ID, msg.Attributes, msg.Data) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process reports whether the message should be redelivered.
func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) bool {
	fields := map[string]any{
		"message_id":     messageID,
		"event_type":     attrs["event_type"],
		"aggregate_type": attrs["aggregate_type"],
		"aggregate_id":   attrs["aggregate_id"],
	}
	logCtx := c.logg.WithFields(ctx, fields)

	aggregateID, err := uuid.Parse(strings.TrimSpace(attrs["aggregate_id"]))
	if err != nil {
		c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "invalid aggregate id; dropping message")
		return false
	}

	resolved, err := c.registry.Resolve(models.OutboxEvent{
		EventType:     enums.OutboxEventType(strings.TrimSpace(attrs["event_type"])),
		AggregateType: enums.OutboxAggregateType(strings.TrimSpace(attrs["aggregate_type"])),
		AggregateID:   aggregateID,
		Payload:       data,
	})
	if err != nil {
		c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "undecodable domain event; dropping message")
		return false
	}
	logCtx = c.logg.WithField(logCtx, "event_id", resolved.Envelope.EventID)

	if err := c.dispatcher.Dispatch(logCtx, resolved); err != nil {
		var nonRetry registry.NonRetryableError
		if errors.As(err, &nonRetry) {
			c.logg.Error(logCtx, "domain event failed permanently", err)
			return false
		}
		c.logg.Error(logCtx, "domain event failed; requesting redelivery", err)
		return true
	}

	c.logg.Info(logCtx, "domain event handled")
	return false
}
