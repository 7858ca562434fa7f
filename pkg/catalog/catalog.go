// Package catalog serves the read-only product catalog shipped with the binary.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

//go:embed products.json
var rawProducts []byte

// Product is one catalog entry.
type Product struct {
	SKU          string            `json:"sku"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Unit         enums.ProductUnit `json:"unit"`
	StandardCost decimal.Decimal   `json:"standard_cost"`
	SalePrice    decimal.Decimal   `json:"sale_price"`
	Description  string            `json:"description"`
}

var (
	loadOnce sync.Once
	products []Product
	loadErr  error
)

func load() ([]Product, error) {
	loadOnce.Do(func() {
		products, loadErr = parse(rawProducts)
	})
	return products, loadErr
}

func parse(data []byte) ([]Product, error) {
	var out []Product
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(out))
	for _, p := range out {
		if p.SKU == "" {
			return nil, fmt.Errorf("catalog entry %q has no sku", p.Name)
		}
		if _, dup := seen[p.SKU]; dup {
			return nil, fmt.Errorf("duplicate catalog sku %q", p.SKU)
		}
		if !p.Unit.IsValid() {
			return nil, fmt.Errorf("catalog sku %q has invalid unit %q", p.SKU, p.Unit)
		}
		seen[p.SKU] = struct{}{}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

// List returns catalog products, optionally restricted to one category (case-insensitive).
func List(category string) ([]Product, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	out := make([]Product, 0, len(all))
	for _, p := range all {
		if category == "" || strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Categories returns the distinct categories in sorted order.
func Categories() ([]string, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	set := map[string]struct{}{}
	for _, p := range all {
		set[p.Category] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}
