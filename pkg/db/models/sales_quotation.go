package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// SalesQuotation is a priced offer to a customer.
type SalesQuotation struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Number          string                `gorm:"column:number;not null;uniqueIndex"`
	CustomerID      uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index"`
	Status          enums.QuotationStatus `gorm:"column:status;type:text;not null;index"`
	ValidUntil      *time.Time            `gorm:"column:valid_until"`
	Notes           *string               `gorm:"column:notes"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(14,4);not null;default:0"`
	DiscountTotal   decimal.Decimal       `gorm:"column:discount_total;type:numeric(14,4);not null;default:0"`
	TaxRate         decimal.Decimal       `gorm:"column:tax_rate;type:numeric(6,4);not null;default:0"`
	TaxTotal        decimal.Decimal       `gorm:"column:tax_total;type:numeric(14,4);not null;default:0"`
	Total           decimal.Decimal       `gorm:"column:total;type:numeric(14,4);not null;default:0"`
	CreatedBy       uuid.UUID             `gorm:"column:created_by;type:uuid;not null"`
	SubmittedAt     *time.Time            `gorm:"column:submitted_at"`
	ApprovedBy      *uuid.UUID            `gorm:"column:approved_by;type:uuid"`
	ApprovedAt      *time.Time            `gorm:"column:approved_at"`
	RejectedAt      *time.Time            `gorm:"column:rejected_at"`
	RejectionReason *string               `gorm:"column:rejection_reason"`
	Customer        *Customer             `gorm:"foreignKey:CustomerID"`
	Lines           []SalesQuotationLine  `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (q *SalesQuotation) BeforeCreate(*gorm.DB) error {
	assignID(&q.ID)
	return nil
}

type SalesQuotationLine struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	QuotationID     uuid.UUID       `gorm:"column:quotation_id;type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Description     *string         `gorm:"column:description"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:numeric(14,4);not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(14,4);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(6,2);not null;default:0"`
	LineTotal       decimal.Decimal `gorm:"column:line_total;type:numeric(14,4);not null"`
}

func (l *SalesQuotationLine) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}
