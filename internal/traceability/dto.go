package traceability

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

type BatchDTO struct {
	ID          uuid.UUID        `json:"id"`
	BatchCode   string           `json:"batch_code"`
	Stage       enums.BatchStage `json:"stage"`
	ParentID    *uuid.UUID       `json:"parent_id,omitempty"`
	SupplierID  *uuid.UUID       `json:"supplier_id,omitempty"`
	ProductID   *uuid.UUID       `json:"product_id,omitempty"`
	Pieces      int              `json:"pieces"`
	WeightKg    decimal.Decimal  `json:"weight_kg"`
	AreaSqft    decimal.Decimal  `json:"area_sqft"`
	Grade       *string          `json:"grade,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
	ProcessedAt time.Time        `json:"processed_at"`
	CreatedBy   uuid.UUID        `json:"created_by"`
	CreatedAt   time.Time        `json:"created_at"`
}

type CreateBatchInput struct {
	BatchCode   string           `json:"batch_code" validate:"required,max=64"`
	Stage       enums.BatchStage `json:"stage" validate:"required"`
	ParentID    *uuid.UUID       `json:"parent_id,omitempty"`
	SupplierID  *uuid.UUID       `json:"supplier_id,omitempty"`
	ProductID   *uuid.UUID       `json:"product_id,omitempty"`
	Pieces      int              `json:"pieces" validate:"gte=0"`
	WeightKg    decimal.Decimal  `json:"weight_kg"`
	AreaSqft    decimal.Decimal  `json:"area_sqft"`
	Grade       *string          `json:"grade,omitempty" validate:"omitempty,max=32"`
	Notes       *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	ProcessedAt *time.Time       `json:"processed_at,omitempty"`
}

type ListParams struct {
	Stage      *enums.BatchStage
	SupplierID *uuid.UUID
	pagination.Params
}

// TraceNode is one batch in the descendant tree.
type TraceNode struct {
	Batch    BatchDTO    `json:"batch"`
	Children []TraceNode `json:"children,omitempty"`
}

// Trace is the lineage of a batch: ancestors ordered from the raw batch down to
// the batch itself, and descendants up to MaxTraceDepth levels below it.
type Trace struct {
	Batch       BatchDTO    `json:"batch"`
	Ancestors   []BatchDTO  `json:"ancestors"`
	Descendants []TraceNode `json:"descendants"`
}

func toDTO(b *models.LeatherBatch) BatchDTO {
	return BatchDTO{
		ID:          b.ID,
		BatchCode:   b.BatchCode,
		Stage:       b.Stage,
		ParentID:    b.ParentID,
		SupplierID:  b.SupplierID,
		ProductID:   b.ProductID,
		Pieces:      b.Pieces,
		WeightKg:    b.WeightKg,
		AreaSqft:    b.AreaSqft,
		Grade:       b.Grade,
		Notes:       b.Notes,
		ProcessedAt: b.ProcessedAt,
		CreatedBy:   b.CreatedBy,
		CreatedAt:   b.CreatedAt,
	}
}
