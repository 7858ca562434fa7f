package enums

import "fmt"

// ProductUnit is the unit of measure for product quantities.
type ProductUnit string

const (
	ProductUnitPiece ProductUnit = "piece"
	ProductUnitSqft  ProductUnit = "sqft"
	ProductUnitSqm   ProductUnit = "sqm"
	ProductUnitKg    ProductUnit = "kg"
	ProductUnitHide  ProductUnit = "hide"
	ProductUnitLiter ProductUnit = "liter"
)

var validProductUnits = []ProductUnit{
	ProductUnitPiece,
	ProductUnitSqft,
	ProductUnitSqm,
	ProductUnitKg,
	ProductUnitHide,
	ProductUnitLiter,
}

// String implements fmt.Stringer.
func (p ProductUnit) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductUnit.
func (p ProductUnit) IsValid() bool {
	for _, candidate := range validProductUnits {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductUnit converts raw input into a ProductUnit.
func ParseProductUnit(value string) (ProductUnit, error) {
	for _, candidate := range validProductUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product unit %q", value)
}
