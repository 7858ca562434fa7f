package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// PurchaseOrder is an order placed with a supplier, optionally converted from an approved RFQ.
type PurchaseOrder struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	Number       string                    `gorm:"column:number;not null;uniqueIndex"`
	SupplierID   uuid.UUID                 `gorm:"column:supplier_id;type:uuid;not null;index"`
	RFQID        *uuid.UUID                `gorm:"column:rfq_id;type:uuid;uniqueIndex"`
	Status       enums.PurchaseOrderStatus `gorm:"column:status;type:text;not null;index"`
	ExpectedDate *time.Time                `gorm:"column:expected_date"`
	Notes        *string                   `gorm:"column:notes"`
	Total        decimal.Decimal           `gorm:"column:total;type:numeric(14,4);not null;default:0"`
	CreatedBy    uuid.UUID                 `gorm:"column:created_by;type:uuid;not null"`
	ApprovedBy   *uuid.UUID                `gorm:"column:approved_by;type:uuid"`
	SentAt       *time.Time                `gorm:"column:sent_at"`
	ConfirmedAt  *time.Time                `gorm:"column:confirmed_at"`
	ApprovedAt   *time.Time                `gorm:"column:approved_at"`
	ClosedAt     *time.Time                `gorm:"column:closed_at"`
	CancelledAt  *time.Time                `gorm:"column:cancelled_at"`
	Supplier     *Supplier                 `gorm:"foreignKey:SupplierID"`
	Lines        []PurchaseOrderLine       `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PurchaseOrder) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PurchaseOrderLine is the single line model for purchase orders.
type PurchaseOrderLine struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseOrderID  uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity         decimal.Decimal `gorm:"column:quantity;type:numeric(14,4);not null"`
	QuantityReceived decimal.Decimal `gorm:"column:quantity_received;type:numeric(14,4);not null;default:0"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price;type:numeric(14,4);not null"`
	LineTotal        decimal.Decimal `gorm:"column:line_total;type:numeric(14,4);not null"`
}

func (l *PurchaseOrderLine) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// Outstanding returns the quantity still expected from the supplier.
func (l PurchaseOrderLine) Outstanding() decimal.Decimal {
	rest := l.Quantity.Sub(l.QuantityReceived)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}
