package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendgridProvider delivers through the SendGrid v3 mail API.
type SendgridProvider struct {
	client *sendgrid.Client
}

func NewSendgridProvider(apiKey string) *SendgridProvider {
	return &SendgridProvider{client: sendgrid.NewSendClient(apiKey)}
}

func (p *SendgridProvider) Name() string { return ProviderSendgrid }

func (p *SendgridProvider) Send(ctx context.Context, msg Message) error {
	payload := mail.NewSingleEmail(
		mail.NewEmail(msg.From.Name, msg.From.Email),
		msg.Subject,
		mail.NewEmail(msg.To.Name, msg.To.Email),
		msg.Text,
		msg.HTML,
	)
	resp, err := p.client.SendWithContext(ctx, payload)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected message: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
