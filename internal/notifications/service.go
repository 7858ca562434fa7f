// Package notifications renders domain events into transactional email.
package notifications

import (
	"context"
	"fmt"

	"github.com/angelmondragon/leatherworks-erp/pkg/email"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/registry"
)

// ConsumerName scopes idempotency markers written for this handler.
const ConsumerName = "notifications"

// Service sends the emails a domain event triggers.
type Service struct {
	sender     email.Sender
	recipients Recipients
	logg       *logger.Logger
}

// NewService wires the email sender.
func NewService(sender email.Sender, recipients Recipients, logg *logger.Logger) (*Service, error) {
	if sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{sender: sender, recipients: recipients, logg: logg}, nil
}

// Name identifies the handler for idempotency bookkeeping.
func (s *Service) Name() string { return ConsumerName }

// Handle renders and delivers every email for the event. Rendering problems and
// invalid recipients are not retried; provider failures are.
func (s *Service) Handle(ctx context.Context, event *registry.ResolvedEvent) error {
	eventType := event.Descriptor.EventType
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"event_id":   event.Envelope.EventID,
		"event_type": eventType,
	})

	msgs, err := Render(eventType, event.Payload, s.recipients)
	if err != nil {
		return registry.NewNonRetryableError(err)
	}
	if len(msgs) == 0 {
		s.logg.Debug(logCtx, "event has no email side effect")
		return nil
	}

	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return registry.NewNonRetryableError(fmt.Errorf("%s email: %w", eventType, err))
		}
		if err := s.sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("send %s email: %w", eventType, err)
		}
	}
	s.logg.Info(logCtx, "notification emails sent")
	return nil
}
