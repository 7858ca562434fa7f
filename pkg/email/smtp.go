package email

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// SMTPSettings configures a relay.
type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
}

type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPProvider delivers through a plain SMTP relay with STARTTLS negotiated by net/smtp.
type SMTPProvider struct {
	settings SMTPSettings
	send     sendMailFunc
}

func NewSMTPProvider(settings SMTPSettings) *SMTPProvider {
	if settings.Port == 0 {
		settings.Port = 587
	}
	return &SMTPProvider{settings: settings, send: smtp.SendMail}
}

func (p *SMTPProvider) Name() string { return ProviderSMTP }

func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if p.settings.Username != "" {
		auth = smtp.PlainAuth("", p.settings.Username, p.settings.Password, p.settings.Host)
	}
	addr := net.JoinHostPort(p.settings.Host, strconv.Itoa(p.settings.Port))
	if err := p.send(addr, auth, msg.From.Email, []string{msg.To.Email}, buildMIME(msg, time.Now())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMIME(msg Message, now time.Time) []byte {
	var buf bytes.Buffer
	writeHeader := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	writeHeader("From", formatAddress(msg.From))
	writeHeader("To", formatAddress(msg.To))
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader("Date", now.UTC().Format(time.RFC1123Z))
	writeHeader("MIME-Version", "1.0")

	if msg.HTML == "" {
		writeHeader("Content-Type", `text/plain; charset="utf-8"`)
		buf.WriteString("\r\n")
		buf.WriteString(msg.Text)
		return buf.Bytes()
	}

	boundary := fmt.Sprintf("lw-%d", now.UnixNano())
	writeHeader("Content-Type", fmt.Sprintf(`multipart/alternative; boundary="%s"`, boundary))
	buf.WriteString("\r\n")
	for _, part := range []struct{ kind, body string }{{"text/plain", msg.Text}, {"text/html", msg.HTML}} {
		if strings.TrimSpace(part.body) == "" {
			continue
		}
		fmt.Fprintf(&buf, "--%s\r\nContent-Type: %s; charset=\"utf-8\"\r\n\r\n%s\r\n", boundary, part.kind, part.body)
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}

func formatAddress(a Address) string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", a.Name), a.Email)
}
