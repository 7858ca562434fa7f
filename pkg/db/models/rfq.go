package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// RFQ is a request for quotation sent to one supplier.
type RFQ struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Number             string              `gorm:"column:number;not null;uniqueIndex"`
	SupplierID         uuid.UUID           `gorm:"column:supplier_id;type:uuid;not null;index"`
	Status             enums.RFQStatus     `gorm:"column:status;type:text;not null;index"`
	Notes              *string             `gorm:"column:notes"`
	CreatedBy          uuid.UUID           `gorm:"column:created_by;type:uuid;not null"`
	ApprovedBy         *uuid.UUID          `gorm:"column:approved_by;type:uuid"`
	SentAt             *time.Time          `gorm:"column:sent_at"`
	ReceivedAt         *time.Time          `gorm:"column:received_at"`
	ApprovedAt         *time.Time          `gorm:"column:approved_at"`
	RejectedAt         *time.Time          `gorm:"column:rejected_at"`
	RejectionReason    *string             `gorm:"column:rejection_reason"`
	QuotedTotal        decimal.NullDecimal `gorm:"column:quoted_total;type:numeric(14,4)"`
	QuotedDeliveryDate *time.Time          `gorm:"column:quoted_delivery_date"`
	Supplier           *Supplier           `gorm:"foreignKey:SupplierID"`
	Items              []RFQItem           `gorm:"foreignKey:RFQID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *RFQ) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// RFQItem is one requested product and quantity, with the supplier's quoted price once recorded.
type RFQItem struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	RFQID           uuid.UUID           `gorm:"column:rfq_id;type:uuid;not null;index"`
	ProductID       uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	Quantity        decimal.Decimal     `gorm:"column:quantity;type:numeric(14,4);not null"`
	QuotedUnitPrice decimal.NullDecimal `gorm:"column:quoted_unit_price;type:numeric(14,4)"`
	Notes           *string             `gorm:"column:notes"`
}

func (i *RFQItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
