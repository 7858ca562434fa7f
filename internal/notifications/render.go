package notifications

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/angelmondragon/leatherworks-erp/pkg/email"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/payloads"
)

// Recipients holds addresses that are not carried on the event itself.
type Recipients struct {
	WarehouseInbox string
	AppBaseURL     string
}

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil {
			return "not set"
		}
		return t.Format("2006-01-02")
	},
}).Parse(`
{{define "rfq_sent"}}Hello {{.SupplierName}},

Please send us your quotation for request {{.RFQNumber}}:
{{range .Items}}
- {{.ProductSKU}} {{.ProductName}}: {{.Quantity.String}} {{.Unit}}{{end}}

Reply to this message with unit prices and lead times.
{{end}}
{{define "rfq_decided"}}Request for quotation {{.RFQNumber}} was {{.Status}}.
{{if .Reason}}
Reason: {{.Reason}}
{{end}}{{end}}
{{define "po_sent"}}Hello {{.SupplierName}},

Purchase order {{.PONumber}} for a total of {{.Total.StringFixed 2}} is attached to this message.
Expected delivery: {{date .ExpectedAt}}.

Please confirm the order at your earliest convenience.
{{end}}
{{define "po_approved"}}Purchase order {{.PONumber}} was approved.

An incoming shipment with {{.LineCount}} line(s) is waiting for a warehouse assignment.
{{end}}
{{define "quotation_approved"}}Dear {{.CustomerName}},

Your quotation {{.QuotationNumber}} for a total of {{.Total.StringFixed 2}} has been approved.
Valid until: {{date .ValidUntil}}.
{{end}}
{{define "user_invited"}}Hello {{.Name}},

An account with the role {{.Role}} was created for you.
{{if .TemporaryPassword}}
Temporary password: {{.TemporaryPassword}}
Change it after your first sign in.
{{end}}{{end}}
`))

// Render turns a decoded outbox payload into the emails it triggers. Events with no
// email side effect return nil.
func Render(eventType enums.OutboxEventType, payload any, to Recipients) ([]email.Message, error) {
	switch p := payload.(type) {
	case *payloads.RFQSentEvent:
		return single(eventType, p, email.Address{Email: p.SupplierEmail, Name: p.SupplierName},
			fmt.Sprintf("Request for quotation %s", p.RFQNumber))
	case *payloads.RFQDecidedEvent:
		return single(eventType, p, email.Address{Email: p.CreatedByEmail},
			fmt.Sprintf("RFQ %s %s", p.RFQNumber, p.Status))
	case *payloads.POSentEvent:
		return single(eventType, p, email.Address{Email: p.SupplierEmail, Name: p.SupplierName},
			fmt.Sprintf("Purchase order %s", p.PONumber))
	case *payloads.POApprovedEvent:
		if strings.TrimSpace(to.WarehouseInbox) == "" {
			return nil, nil
		}
		return single(eventType, p, email.Address{Email: to.WarehouseInbox},
			fmt.Sprintf("Incoming shipment for %s", p.PONumber))
	case *payloads.QuotationApprovedEvent:
		return single(eventType, p, email.Address{Email: p.CustomerEmail, Name: p.CustomerName},
			fmt.Sprintf("Quotation %s approved", p.QuotationNumber))
	case *payloads.UserInvitedEvent:
		msgs, err := single(eventType, p, email.Address{Email: p.Email, Name: p.Name}, "Your Leatherworks account")
		if err != nil || to.AppBaseURL == "" {
			return msgs, err
		}
		msgs[0].Text += "\nSign in at " + strings.TrimRight(to.AppBaseURL, "/") + "\n"
		return msgs, nil
	default:
		return nil, nil
	}
}

func single(eventType enums.OutboxEventType, data any, to email.Address, subject string) ([]email.Message, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(eventType), data); err != nil {
		return nil, fmt.Errorf("render %s: %w", eventType, err)
	}
	return []email.Message{{
		To:      to,
		Subject: subject,
		Text:    strings.TrimLeft(buf.String(), "\n"),
	}}, nil
}
