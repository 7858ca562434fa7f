// Package docnumber builds human-readable document numbers such as
// RFQ-20260314-7F3A2C for RFQs, purchase orders and quotations.
package docnumber

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PrefixRFQ           = "RFQ"
	PrefixPurchaseOrder = "PO"
	PrefixQuotation     = "QT"
)

// New returns prefix-date-suffix where the suffix is six random hex characters.
// Uniqueness is enforced by the number column's unique index.
func New(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), suffix)
}
