package purchasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// RFQItemInput is one requested product line.
type RFQItemInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Notes     *string         `json:"notes,omitempty"`
}

type CreateRFQInput struct {
	SupplierID uuid.UUID      `json:"supplier_id" validate:"required"`
	Notes      *string        `json:"notes,omitempty"`
	Items      []RFQItemInput `json:"items" validate:"required,min=1,dive"`
}

// UpdateRFQInput replaces items and/or notes while the RFQ is still a draft.
type UpdateRFQInput struct {
	Notes *string        `json:"notes,omitempty"`
	Items []RFQItemInput `json:"items,omitempty" validate:"omitempty,dive"`
}

// QuoteLineInput is the supplier price for one RFQ item.
type QuoteLineInput struct {
	ItemID    uuid.UUID       `json:"item_id" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type RecordQuoteInput struct {
	Items        []QuoteLineInput `json:"items" validate:"required,min=1,dive"`
	QuotedTotal  *decimal.Decimal `json:"quoted_total,omitempty"`
	DeliveryDate *time.Time       `json:"delivery_date,omitempty"`
}

// DecisionInput carries the optional comment or mandatory rejection reason.
type DecisionInput struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

type RFQListParams struct {
	Status     *enums.RFQStatus
	SupplierID *uuid.UUID
	pagination.Params
}

type RFQItemDTO struct {
	ID              uuid.UUID           `json:"id"`
	ProductID       uuid.UUID           `json:"product_id"`
	Quantity        decimal.Decimal     `json:"quantity"`
	QuotedUnitPrice decimal.NullDecimal `json:"quoted_unit_price"`
	Notes           *string             `json:"notes,omitempty"`
}

type RFQDTO struct {
	ID                 uuid.UUID           `json:"id"`
	Number             string              `json:"number"`
	SupplierID         uuid.UUID           `json:"supplier_id"`
	SupplierName       string              `json:"supplier_name,omitempty"`
	Status             enums.RFQStatus     `json:"status"`
	Notes              *string             `json:"notes,omitempty"`
	CreatedBy          uuid.UUID           `json:"created_by"`
	ApprovedBy         *uuid.UUID          `json:"approved_by,omitempty"`
	SentAt             *time.Time          `json:"sent_at,omitempty"`
	ReceivedAt         *time.Time          `json:"received_at,omitempty"`
	ApprovedAt         *time.Time          `json:"approved_at,omitempty"`
	RejectedAt         *time.Time          `json:"rejected_at,omitempty"`
	RejectionReason    *string             `json:"rejection_reason,omitempty"`
	QuotedTotal        decimal.NullDecimal `json:"quoted_total"`
	QuotedDeliveryDate *time.Time          `json:"quoted_delivery_date,omitempty"`
	Items              []RFQItemDTO        `json:"items,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// POLineInput is one ordered product line.
type POLineInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreatePOInput struct {
	SupplierID   uuid.UUID     `json:"supplier_id" validate:"required"`
	ExpectedDate *time.Time    `json:"expected_date,omitempty"`
	Notes        *string       `json:"notes,omitempty"`
	Lines        []POLineInput `json:"lines" validate:"required,min=1,dive"`
}

type POListParams struct {
	Status     *enums.PurchaseOrderStatus
	SupplierID *uuid.UUID
	pagination.Params
}

type POLineDTO struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	LineTotal        decimal.Decimal `json:"line_total"`
}

type PurchaseOrderDTO struct {
	ID           uuid.UUID                 `json:"id"`
	Number       string                    `json:"number"`
	SupplierID   uuid.UUID                 `json:"supplier_id"`
	SupplierName string                    `json:"supplier_name,omitempty"`
	RFQID        *uuid.UUID                `json:"rfq_id,omitempty"`
	Status       enums.PurchaseOrderStatus `json:"status"`
	ExpectedDate *time.Time                `json:"expected_date,omitempty"`
	Notes        *string                   `json:"notes,omitempty"`
	Total        decimal.Decimal           `json:"total"`
	CreatedBy    uuid.UUID                 `json:"created_by"`
	ApprovedBy   *uuid.UUID                `json:"approved_by,omitempty"`
	SentAt       *time.Time                `json:"sent_at,omitempty"`
	ConfirmedAt  *time.Time                `json:"confirmed_at,omitempty"`
	ApprovedAt   *time.Time                `json:"approved_at,omitempty"`
	ClosedAt     *time.Time                `json:"closed_at,omitempty"`
	CancelledAt  *time.Time                `json:"cancelled_at,omitempty"`
	ShipmentID   *uuid.UUID                `json:"shipment_id,omitempty"`
	Lines        []POLineDTO               `json:"lines,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

func rfqToDTO(r *models.RFQ) RFQDTO {
	dto := RFQDTO{
		ID:                 r.ID,
		Number:             r.Number,
		SupplierID:         r.SupplierID,
		Status:             r.Status,
		Notes:              r.Notes,
		CreatedBy:          r.CreatedBy,
		ApprovedBy:         r.ApprovedBy,
		SentAt:             r.SentAt,
		ReceivedAt:         r.ReceivedAt,
		ApprovedAt:         r.ApprovedAt,
		RejectedAt:         r.RejectedAt,
		RejectionReason:    r.RejectionReason,
		QuotedTotal:        r.QuotedTotal,
		QuotedDeliveryDate: r.QuotedDeliveryDate,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.Supplier != nil {
		dto.SupplierName = r.Supplier.Name
	}
	for _, item := range r.Items {
		dto.Items = append(dto.Items, RFQItemDTO{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			QuotedUnitPrice: item.QuotedUnitPrice,
			Notes:           item.Notes,
		})
	}
	return dto
}

func poToDTO(p *models.PurchaseOrder, shipmentID *uuid.UUID) PurchaseOrderDTO {
	dto := PurchaseOrderDTO{
		ID:           p.ID,
		Number:       p.Number,
		SupplierID:   p.SupplierID,
		RFQID:        p.RFQID,
		Status:       p.Status,
		ExpectedDate: p.ExpectedDate,
		Notes:        p.Notes,
		Total:        p.Total,
		CreatedBy:    p.CreatedBy,
		ApprovedBy:   p.ApprovedBy,
		SentAt:       p.SentAt,
		ConfirmedAt:  p.ConfirmedAt,
		ApprovedAt:   p.ApprovedAt,
		ClosedAt:     p.ClosedAt,
		CancelledAt:  p.CancelledAt,
		ShipmentID:   shipmentID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.Supplier != nil {
		dto.SupplierName = p.Supplier.Name
	}
	for _, line := range p.Lines {
		dto.Lines = append(dto.Lines, POLineDTO{
			ID:               line.ID,
			ProductID:        line.ProductID,
			Quantity:         line.Quantity,
			QuantityReceived: line.QuantityReceived,
			UnitPrice:        line.UnitPrice,
			LineTotal:        line.LineTotal,
		})
	}
	return dto
}
