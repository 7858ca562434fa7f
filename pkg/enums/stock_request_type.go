package enums

import "fmt"

// StockRequestType names the stock mutation a request applies once approved.
type StockRequestType string

const (
	StockRequestAdjustment StockRequestType = "adjustment"
	StockRequestTransfer   StockRequestType = "transfer"
)

var validStockRequestTypes = []StockRequestType{
	StockRequestAdjustment,
	StockRequestTransfer,
}

// String implements fmt.Stringer.
func (s StockRequestType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockRequestType.
func (s StockRequestType) IsValid() bool {
	for _, candidate := range validStockRequestTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockRequestType converts raw input into a StockRequestType.
func ParseStockRequestType(value string) (StockRequestType, error) {
	for _, candidate := range validStockRequestTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock request type %q", value)
}
