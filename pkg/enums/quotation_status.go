package enums

import "fmt"

// QuotationStatus tracks a sales quotation through review.
type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "draft"
	QuotationStatusSubmitted QuotationStatus = "submitted"
	QuotationStatusApproved  QuotationStatus = "approved"
	QuotationStatusRejected  QuotationStatus = "rejected"
)

var validQuotationStatuses = []QuotationStatus{
	QuotationStatusDraft,
	QuotationStatusSubmitted,
	QuotationStatusApproved,
	QuotationStatusRejected,
}

// String implements fmt.Stringer.
func (q QuotationStatus) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuotationStatus.
func (q QuotationStatus) IsValid() bool {
	for _, candidate := range validQuotationStatuses {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuotationStatus converts raw input into a QuotationStatus.
func ParseQuotationStatus(value string) (QuotationStatus, error) {
	for _, candidate := range validQuotationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quotation status %q", value)
}

// IsEditable reports whether quotation lines may still be changed.
func (q QuotationStatus) IsEditable() bool {
	return q == QuotationStatusDraft || q == QuotationStatusRejected
}
