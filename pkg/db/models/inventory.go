package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// InventoryItem is the stock record for one product in one warehouse.
// Available is kept equal to Quantity minus Reserved on every write.
type InventoryItem struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID           `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_inventory_items_product_warehouse"`
	WarehouseID uuid.UUID           `gorm:"column:warehouse_id;type:uuid;not null;uniqueIndex:ux_inventory_items_product_warehouse;index"`
	Quantity    decimal.Decimal     `gorm:"column:quantity;type:numeric(14,4);not null;default:0"`
	Reserved    decimal.Decimal     `gorm:"column:reserved;type:numeric(14,4);not null;default:0"`
	Available   decimal.Decimal     `gorm:"column:available;type:numeric(14,4);not null;default:0"`
	MinStock    decimal.Decimal     `gorm:"column:min_stock;type:numeric(14,4);not null;default:0"`
	MaxStock    decimal.NullDecimal `gorm:"column:max_stock;type:numeric(14,4)"`
	Product     *Product            `gorm:"foreignKey:ProductID"`
	Warehouse   *Warehouse          `gorm:"foreignKey:WarehouseID"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// Recompute refreshes Available from Quantity and Reserved.
func (i *InventoryItem) Recompute() {
	i.Available = i.Quantity.Sub(i.Reserved)
}

// StockMovement is an append-only ledger row written for every quantity change.
type StockMovement struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	InventoryItemID uuid.UUID               `gorm:"column:inventory_item_id;type:uuid;not null;index"`
	ProductID       uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	WarehouseID     uuid.UUID               `gorm:"column:warehouse_id;type:uuid;not null;index"`
	Type            enums.StockMovementType `gorm:"column:type;type:text;not null"`
	Quantity        decimal.Decimal         `gorm:"column:quantity;type:numeric(14,4);not null"`
	BalanceAfter    decimal.Decimal         `gorm:"column:balance_after;type:numeric(14,4);not null"`
	ReferenceType   *string                 `gorm:"column:reference_type"`
	ReferenceID     *uuid.UUID              `gorm:"column:reference_id;type:uuid;index"`
	Note            *string                 `gorm:"column:note"`
	CreatedBy       *uuid.UUID              `gorm:"column:created_by;type:uuid"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// StockMovementRequest wraps an adjustment or transfer that waits for approval.
type StockMovementRequest struct {
	ID                uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	Type              enums.StockRequestType   `gorm:"column:type;type:text;not null"`
	Status            enums.StockRequestStatus `gorm:"column:status;type:text;not null;index"`
	ProductID         uuid.UUID                `gorm:"column:product_id;type:uuid;not null"`
	WarehouseID       uuid.UUID                `gorm:"column:warehouse_id;type:uuid;not null;index"`
	TargetWarehouseID *uuid.UUID               `gorm:"column:target_warehouse_id;type:uuid"`
	Quantity          decimal.Decimal          `gorm:"column:quantity;type:numeric(14,4);not null"`
	Reason            string                   `gorm:"column:reason;not null"`
	RequestedBy       uuid.UUID                `gorm:"column:requested_by;type:uuid;not null"`
	DecidedBy         *uuid.UUID               `gorm:"column:decided_by;type:uuid"`
	DecidedAt         *time.Time               `gorm:"column:decided_at"`
	DecisionNote      *string                  `gorm:"column:decision_note"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *StockMovementRequest) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
