package quotations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// LineInput prices one product. A nil UnitPrice uses the product's sale price.
type LineInput struct {
	ProductID       uuid.UUID        `json:"product_id" validate:"required"`
	Description     *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
}

type CreateQuotationInput struct {
	CustomerID uuid.UUID        `json:"customer_id" validate:"required"`
	ValidUntil *time.Time       `json:"valid_until,omitempty"`
	Notes      *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	TaxRate    *decimal.Decimal `json:"tax_rate,omitempty"`
	Lines      []LineInput      `json:"lines" validate:"required,min=1,dive"`
}

// UpdateQuotationInput replaces the lines when Lines is non-nil.
type UpdateQuotationInput struct {
	ValidUntil *time.Time       `json:"valid_until,omitempty"`
	Notes      *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	TaxRate    *decimal.Decimal `json:"tax_rate,omitempty"`
	Lines      []LineInput      `json:"lines,omitempty" validate:"omitempty,dive"`
}

type RejectInput struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type ApproveInput struct {
	Comment string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

type ListParams struct {
	Status     *enums.QuotationStatus
	CustomerID *uuid.UUID
	pagination.Params
}

type LineDTO struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Description     *string         `json:"description,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

type QuotationDTO struct {
	ID              uuid.UUID             `json:"id"`
	Number          string                `json:"number"`
	CustomerID      uuid.UUID             `json:"customer_id"`
	CustomerName    string                `json:"customer_name,omitempty"`
	Status          enums.QuotationStatus `json:"status"`
	ValidUntil      *time.Time            `json:"valid_until,omitempty"`
	Notes           *string               `json:"notes,omitempty"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	DiscountTotal   decimal.Decimal       `json:"discount_total"`
	TaxRate         decimal.Decimal       `json:"tax_rate"`
	TaxTotal        decimal.Decimal       `json:"tax_total"`
	Total           decimal.Decimal       `json:"total"`
	CreatedBy       uuid.UUID             `json:"created_by"`
	SubmittedAt     *time.Time            `json:"submitted_at,omitempty"`
	ApprovedBy      *uuid.UUID            `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time            `json:"approved_at,omitempty"`
	RejectedAt      *time.Time            `json:"rejected_at,omitempty"`
	RejectionReason *string               `json:"rejection_reason,omitempty"`
	Lines           []LineDTO             `json:"lines"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func toDTO(q *models.SalesQuotation) QuotationDTO {
	dto := QuotationDTO{
		ID:              q.ID,
		Number:          q.Number,
		CustomerID:      q.CustomerID,
		Status:          q.Status,
		ValidUntil:      q.ValidUntil,
		Notes:           q.Notes,
		Subtotal:        q.Subtotal,
		DiscountTotal:   q.DiscountTotal,
		TaxRate:         q.TaxRate,
		TaxTotal:        q.TaxTotal,
		Total:           q.Total,
		CreatedBy:       q.CreatedBy,
		SubmittedAt:     q.SubmittedAt,
		ApprovedBy:      q.ApprovedBy,
		ApprovedAt:      q.ApprovedAt,
		RejectedAt:      q.RejectedAt,
		RejectionReason: q.RejectionReason,
		Lines:           make([]LineDTO, 0, len(q.Lines)),
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
	if q.Customer != nil {
		dto.CustomerName = q.Customer.Name
	}
	for _, l := range q.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			ID:              l.ID,
			ProductID:       l.ProductID,
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			LineTotal:       l.LineTotal,
		})
	}
	return dto
}
