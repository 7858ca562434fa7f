package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// ProductDTO is the API representation of a product.
type ProductDTO struct {
	ID           uuid.UUID         `json:"id"`
	SKU          string            `json:"sku"`
	Name         string            `json:"name"`
	Description  *string           `json:"description,omitempty"`
	Category     string            `json:"category"`
	Unit         enums.ProductUnit `json:"unit"`
	StandardCost decimal.Decimal   `json:"standard_cost"`
	SalePrice    decimal.Decimal   `json:"sale_price"`
	IsActive     bool              `json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU          string            `json:"sku" validate:"required,max=64"`
	Name         string            `json:"name" validate:"required,max=200"`
	Description  *string           `json:"description,omitempty"`
	Category     string            `json:"category" validate:"required,max=64"`
	Unit         enums.ProductUnit `json:"unit" validate:"required"`
	StandardCost decimal.Decimal   `json:"standard_cost"`
	SalePrice    decimal.Decimal   `json:"sale_price"`
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name         *string            `json:"name,omitempty" validate:"omitempty,max=200"`
	Description  *string            `json:"description,omitempty"`
	Category     *string            `json:"category,omitempty" validate:"omitempty,max=64"`
	Unit         *enums.ProductUnit `json:"unit,omitempty"`
	StandardCost *decimal.Decimal   `json:"standard_cost,omitempty"`
	SalePrice    *decimal.Decimal   `json:"sale_price,omitempty"`
	IsActive     *bool              `json:"is_active,omitempty"`
}

// ListParams filters the product browse endpoint.
type ListParams struct {
	Category string
	Query    string
	IsActive *bool
	pagination.Params
}

// ImportResult reports how many catalog entries were inserted versus already present.
type ImportResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

func toDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		Unit:         p.Unit,
		StandardCost: p.StandardCost,
		SalePrice:    p.SalePrice,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
