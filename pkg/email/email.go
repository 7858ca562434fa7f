// Package email delivers transactional mail through an ordered provider chain.
// The first provider that accepts a message wins; if all fail their errors are
// combined into one.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/leatherworks-erp/pkg/config"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

const (
	ProviderSendgrid = "sendgrid"
	ProviderSMTP     = "smtp"
	ProviderLog      = "log"
)

var ErrNoProviders = errors.New("no email providers configured")

// Address is a mailbox with an optional display name.
type Address struct {
	Email string
	Name  string
}

// Message is a rendered email ready for delivery.
type Message struct {
	From    Address
	To      Address
	Subject string
	Text    string
	HTML    string
}

// Validate checks the minimum fields every provider needs.
func (m Message) Validate() error {
	if _, err := mail.ParseAddress(m.To.Email); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", m.To.Email, err)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("subject is required")
	}
	if strings.TrimSpace(m.Text) == "" && strings.TrimSpace(m.HTML) == "" {
		return errors.New("message body is required")
	}
	return nil
}

// Provider is one delivery backend.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Sender is what the rest of the code base depends on.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Chain tries providers in order.
type Chain struct {
	providers []Provider
	from      Address
	logg      *logger.Logger
}

// NewChain builds a chain from explicit providers.
func NewChain(from Address, logg *logger.Logger, providers ...Provider) (*Chain, error) {
	var kept []Provider
	for _, p := range providers {
		if p != nil {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoProviders
	}
	return &Chain{providers: kept, from: from, logg: logg}, nil
}

// NewFromConfig builds providers in the configured order. Providers missing
// credentials are skipped with a warning.
func NewFromConfig(cfg config.EmailConfig, logg *logger.Logger) (*Chain, error) {
	from := Address{Email: cfg.FromAddress, Name: cfg.FromName}
	var providers []Provider
	for _, name := range cfg.ProviderOrder() {
		switch name {
		case ProviderSendgrid:
			if strings.TrimSpace(cfg.SendgridAPIKey) == "" {
				warn(logg, "sendgrid provider listed without api key; skipping")
				continue
			}
			providers = append(providers, NewSendgridProvider(cfg.SendgridAPIKey))
		case ProviderSMTP:
			if strings.TrimSpace(cfg.SMTPHost) == "" {
				warn(logg, "smtp provider listed without host; skipping")
				continue
			}
			providers = append(providers, NewSMTPProvider(SMTPSettings{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				Username: cfg.SMTPUsername,
				Password: cfg.SMTPPassword,
			}))
		case ProviderLog:
			providers = append(providers, NewLogProvider(logg))
		default:
			return nil, fmt.Errorf("unknown email provider %q", name)
		}
	}
	return NewChain(from, logg, providers...)
}

// Providers returns the provider names in fallback order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Send delivers msg through the first provider that accepts it.
func (c *Chain) Send(ctx context.Context, msg Message) error {
	if msg.From.Email == "" {
		msg.From = c.from
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	var errs error
	for _, p := range c.providers {
		err := p.Send(ctx, msg)
		if err == nil {
			if c.logg != nil {
				logCtx := c.logg.WithFields(ctx, map[string]any{
					"provider": p.Name(),
					"to":       msg.To.Email,
					"subject":  msg.Subject,
				})
				c.logg.Info(logCtx, "email delivered")
			}
			return nil
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "provider", p.Name()), "email provider failed; trying next")
		}
	}
	return errs
}

func warn(logg *logger.Logger, msg string) {
	if logg != nil {
		logg.Warn(context.Background(), msg)
	}
}
