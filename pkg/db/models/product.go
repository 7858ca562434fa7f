package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// Product is a stock keeping unit: hides, finished leather, chemicals or goods.
type Product struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	SKU          string            `gorm:"column:sku;not null;uniqueIndex"`
	Name         string            `gorm:"column:name;not null"`
	Description  *string           `gorm:"column:description"`
	Category     string            `gorm:"column:category;not null"`
	Unit         enums.ProductUnit `gorm:"column:unit;type:text;not null"`
	StandardCost decimal.Decimal   `gorm:"column:standard_cost;type:numeric(14,4);not null;default:0"`
	SalePrice    decimal.Decimal   `gorm:"column:sale_price;type:numeric(14,4);not null;default:0"`
	IsActive     bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
