package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// LeatherBatch is one lot in the raw -> wet_blue -> retanning -> finished chain.
type LeatherBatch struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	BatchCode   string           `gorm:"column:batch_code;not null;uniqueIndex"`
	Stage       enums.BatchStage `gorm:"column:stage;type:text;not null;index"`
	ParentID    *uuid.UUID       `gorm:"column:parent_id;type:uuid;index"`
	SupplierID  *uuid.UUID       `gorm:"column:supplier_id;type:uuid"`
	ProductID   *uuid.UUID       `gorm:"column:product_id;type:uuid"`
	Pieces      int              `gorm:"column:pieces;not null;default:0"`
	WeightKg    decimal.Decimal  `gorm:"column:weight_kg;type:numeric(14,4);not null;default:0"`
	AreaSqft    decimal.Decimal  `gorm:"column:area_sqft;type:numeric(14,4);not null;default:0"`
	Grade       *string          `gorm:"column:grade"`
	Notes       *string          `gorm:"column:notes"`
	ProcessedAt time.Time        `gorm:"column:processed_at;not null"`
	CreatedBy   uuid.UUID        `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (b *LeatherBatch) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}
