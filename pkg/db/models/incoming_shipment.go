package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// IncomingShipment is created exactly once when a purchase order is approved.
type IncomingShipment struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseOrderID uuid.UUID              `gorm:"column:purchase_order_id;type:uuid;not null;uniqueIndex"`
	WarehouseID     *uuid.UUID             `gorm:"column:warehouse_id;type:uuid;index"`
	Status          enums.ShipmentStatus   `gorm:"column:status;type:text;not null;index"`
	AssignedBy      *uuid.UUID             `gorm:"column:assigned_by;type:uuid"`
	AssignedAt      *time.Time             `gorm:"column:assigned_at"`
	ProcessedBy     *uuid.UUID             `gorm:"column:processed_by;type:uuid"`
	ProcessedAt     *time.Time             `gorm:"column:processed_at"`
	RejectedAt      *time.Time             `gorm:"column:rejected_at"`
	RejectionReason *string                `gorm:"column:rejection_reason"`
	Lines           []IncomingShipmentLine `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *IncomingShipment) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// IncomingShipmentLine mirrors one purchase order line.
type IncomingShipmentLine struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ShipmentID          uuid.UUID           `gorm:"column:shipment_id;type:uuid;not null;index"`
	PurchaseOrderLineID uuid.UUID           `gorm:"column:purchase_order_line_id;type:uuid;not null"`
	ProductID           uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	ExpectedQuantity    decimal.Decimal     `gorm:"column:expected_quantity;type:numeric(14,4);not null"`
	AcceptedQuantity    decimal.NullDecimal `gorm:"column:accepted_quantity;type:numeric(14,4)"`
}

func (l *IncomingShipmentLine) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}
