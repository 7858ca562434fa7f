package enums

import "fmt"

// RFQStatus tracks a request for quotation through the purchasing workflow.
type RFQStatus string

const (
	RFQStatusDraft    RFQStatus = "draft"
	RFQStatusSent     RFQStatus = "sent"
	RFQStatusReceived RFQStatus = "received"
	RFQStatusApproved RFQStatus = "approved"
	RFQStatusRejected RFQStatus = "rejected"
)

var validRFQStatuses = []RFQStatus{
	RFQStatusDraft,
	RFQStatusSent,
	RFQStatusReceived,
	RFQStatusApproved,
	RFQStatusRejected,
}

// String implements fmt.Stringer.
func (r RFQStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RFQStatus.
func (r RFQStatus) IsValid() bool {
	for _, candidate := range validRFQStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRFQStatus converts raw input into a RFQStatus.
func ParseRFQStatus(value string) (RFQStatus, error) {
	for _, candidate := range validRFQStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rfq status %q", value)
}

// IsTerminal reports whether the RFQ can no longer change status.
func (r RFQStatus) IsTerminal() bool {
	return r == RFQStatusApproved || r == RFQStatusRejected
}
