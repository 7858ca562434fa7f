package email

import (
	"context"

	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

// LogProvider writes messages to the structured log instead of sending them. Used in dev.
type LogProvider struct {
	logg *logger.Logger
}

func NewLogProvider(logg *logger.Logger) *LogProvider {
	return &LogProvider{logg: logg}
}

func (p *LogProvider) Name() string { return ProviderLog }

func (p *LogProvider) Send(ctx context.Context, msg Message) error {
	if p.logg == nil {
		return nil
	}
	logCtx := p.logg.WithFields(ctx, map[string]any{
		"to":      msg.To.Email,
		"subject": msg.Subject,
		"body":    msg.Text,
	})
	p.logg.Info(logCtx, "email captured by log provider")
	return nil
}
