package enums

import "fmt"

// StockRequestStatus tracks a stock movement request awaiting approval.
type StockRequestStatus string

const (
	StockRequestStatusPending  StockRequestStatus = "pending"
	StockRequestStatusApproved StockRequestStatus = "approved"
	StockRequestStatusRejected StockRequestStatus = "rejected"
)

var validStockRequestStatuses = []StockRequestStatus{
	StockRequestStatusPending,
	StockRequestStatusApproved,
	StockRequestStatusRejected,
}

// String implements fmt.Stringer.
func (s StockRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockRequestStatus.
func (s StockRequestStatus) IsValid() bool {
	for _, candidate := range validStockRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockRequestStatus converts raw input into a StockRequestStatus.
func ParseStockRequestStatus(value string) (StockRequestStatus, error) {
	for _, candidate := range validStockRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock request status %q", value)
}
