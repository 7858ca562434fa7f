package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

type WarehouseDTO struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Location  *string   `json:"location,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateWarehouseInput struct {
	Code     string  `json:"code" validate:"required,max=32"`
	Name     string  `json:"name" validate:"required,max=200"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=500"`
}

type UpdateWarehouseInput struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=500"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type WarehouseListParams struct {
	IsActive *bool
	pagination.Params
}

type ItemDTO struct {
	ID            uuid.UUID           `json:"id"`
	ProductID     uuid.UUID           `json:"product_id"`
	ProductSKU    string              `json:"product_sku,omitempty"`
	ProductName   string              `json:"product_name,omitempty"`
	Unit          enums.ProductUnit   `json:"unit,omitempty"`
	WarehouseID   uuid.UUID           `json:"warehouse_id"`
	WarehouseCode string              `json:"warehouse_code,omitempty"`
	Quantity      decimal.Decimal     `json:"quantity"`
	Reserved      decimal.Decimal     `json:"reserved"`
	Available     decimal.Decimal     `json:"available"`
	MinStock      decimal.Decimal     `json:"min_stock"`
	MaxStock      decimal.NullDecimal `json:"max_stock"`
	LowStock      bool                `json:"low_stock"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type ItemListParams struct {
	WarehouseID *uuid.UUID
	ProductID   *uuid.UUID
	LowStock    bool
	pagination.Params
}

// UpdateThresholdsInput sets reorder thresholds. A nil MaxStock clears the ceiling.
type UpdateThresholdsInput struct {
	MinStock decimal.Decimal  `json:"min_stock"`
	MaxStock *decimal.Decimal `json:"max_stock,omitempty"`
}

type MovementDTO struct {
	ID              uuid.UUID               `json:"id"`
	InventoryItemID uuid.UUID               `json:"inventory_item_id"`
	ProductID       uuid.UUID               `json:"product_id"`
	WarehouseID     uuid.UUID               `json:"warehouse_id"`
	Type            enums.StockMovementType `json:"type"`
	Quantity        decimal.Decimal         `json:"quantity"`
	BalanceAfter    decimal.Decimal         `json:"balance_after"`
	ReferenceType   *string                 `json:"reference_type,omitempty"`
	ReferenceID     *uuid.UUID              `json:"reference_id,omitempty"`
	Note            *string                 `json:"note,omitempty"`
	CreatedBy       *uuid.UUID              `json:"created_by,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

type MovementListParams struct {
	ItemID      *uuid.UUID
	WarehouseID *uuid.UUID
	ProductID   *uuid.UUID
	Type        *enums.StockMovementType
	pagination.Params
}

// AdjustmentInput is a signed correction to recorded stock, such as a cycle count.
type AdjustmentInput struct {
	ProductID   uuid.UUID       `json:"product_id" validate:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" validate:"required"`
	Delta       decimal.Decimal `json:"delta"`
	Reason      string          `json:"reason" validate:"required,max=500"`
}

type TransferInput struct {
	ProductID       uuid.UUID       `json:"product_id" validate:"required"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	Reason          string          `json:"reason" validate:"required,max=500"`
}

// StockResult is returned by adjustments and transfers.
type StockResult struct {
	Items     []ItemDTO     `json:"items"`
	Movements []MovementDTO `json:"movements"`
}

type CreateStockRequestInput struct {
	Type              enums.StockRequestType `json:"type" validate:"required"`
	ProductID         uuid.UUID              `json:"product_id" validate:"required"`
	WarehouseID       uuid.UUID              `json:"warehouse_id" validate:"required"`
	TargetWarehouseID *uuid.UUID             `json:"target_warehouse_id,omitempty"`
	Quantity          decimal.Decimal        `json:"quantity"`
	Reason            string                 `json:"reason" validate:"required,max=500"`
}

type StockRequestDecisionInput struct {
	Note string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type StockRequestListParams struct {
	Status      *enums.StockRequestStatus
	WarehouseID *uuid.UUID
	pagination.Params
}

type StockRequestDTO struct {
	ID                uuid.UUID                `json:"id"`
	Type              enums.StockRequestType   `json:"type"`
	Status            enums.StockRequestStatus `json:"status"`
	ProductID         uuid.UUID                `json:"product_id"`
	WarehouseID       uuid.UUID                `json:"warehouse_id"`
	TargetWarehouseID *uuid.UUID               `json:"target_warehouse_id,omitempty"`
	Quantity          decimal.Decimal          `json:"quantity"`
	Reason            string                   `json:"reason"`
	RequestedBy       uuid.UUID                `json:"requested_by"`
	DecidedBy         *uuid.UUID               `json:"decided_by,omitempty"`
	DecidedAt         *time.Time               `json:"decided_at,omitempty"`
	DecisionNote      *string                  `json:"decision_note,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}

type ShipmentLineDTO struct {
	ID                  uuid.UUID           `json:"id"`
	PurchaseOrderLineID uuid.UUID           `json:"purchase_order_line_id"`
	ProductID           uuid.UUID           `json:"product_id"`
	ExpectedQuantity    decimal.Decimal     `json:"expected_quantity"`
	AcceptedQuantity    decimal.NullDecimal `json:"accepted_quantity"`
}

type ShipmentDTO struct {
	ID              uuid.UUID            `json:"id"`
	PurchaseOrderID uuid.UUID            `json:"purchase_order_id"`
	WarehouseID     *uuid.UUID           `json:"warehouse_id,omitempty"`
	Status          enums.ShipmentStatus `json:"status"`
	AssignedBy      *uuid.UUID           `json:"assigned_by,omitempty"`
	AssignedAt      *time.Time           `json:"assigned_at,omitempty"`
	ProcessedBy     *uuid.UUID           `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time           `json:"processed_at,omitempty"`
	RejectedAt      *time.Time           `json:"rejected_at,omitempty"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	Lines           []ShipmentLineDTO    `json:"lines,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type ShipmentListParams struct {
	Status      *enums.ShipmentStatus
	WarehouseID *uuid.UUID
	pagination.Params
}

type AssignWarehouseInput struct {
	WarehouseID uuid.UUID `json:"warehouse_id" validate:"required"`
}

// ProcessLineInput overrides the accepted quantity for one shipment line.
type ProcessLineInput struct {
	LineID           uuid.UUID       `json:"line_id" validate:"required"`
	AcceptedQuantity decimal.Decimal `json:"accepted_quantity"`
}

// ProcessShipmentInput lists per-line overrides. Lines not listed accept the expected quantity.
type ProcessShipmentInput struct {
	Lines []ProcessLineInput `json:"lines,omitempty" validate:"omitempty,dive"`
}

type RejectShipmentInput struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

func warehouseToDTO(w *models.Warehouse) WarehouseDTO {
	return WarehouseDTO{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Location:  w.Location,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func itemToDTO(i *models.InventoryItem) ItemDTO {
	dto := ItemDTO{
		ID:          i.ID,
		ProductID:   i.ProductID,
		WarehouseID: i.WarehouseID,
		Quantity:    i.Quantity,
		Reserved:    i.Reserved,
		Available:   i.Available,
		MinStock:    i.MinStock,
		MaxStock:    i.MaxStock,
		LowStock:    i.Available.LessThan(i.MinStock),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	if i.Product != nil {
		dto.ProductSKU = i.Product.SKU
		dto.ProductName = i.Product.Name
		dto.Unit = i.Product.Unit
	}
	if i.Warehouse != nil {
		dto.WarehouseCode = i.Warehouse.Code
	}
	return dto
}

func movementToDTO(m *models.StockMovement) MovementDTO {
	return MovementDTO{
		ID:              m.ID,
		InventoryItemID: m.InventoryItemID,
		ProductID:       m.ProductID,
		WarehouseID:     m.WarehouseID,
		Type:            m.Type,
		Quantity:        m.Quantity,
		BalanceAfter:    m.BalanceAfter,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		Note:            m.Note,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

func requestToDTO(r *models.StockMovementRequest) StockRequestDTO {
	return StockRequestDTO{
		ID:                r.ID,
		Type:              r.Type,
		Status:            r.Status,
		ProductID:         r.ProductID,
		WarehouseID:       r.WarehouseID,
		TargetWarehouseID: r.TargetWarehouseID,
		Quantity:          r.Quantity,
		Reason:            r.Reason,
		RequestedBy:       r.RequestedBy,
		DecidedBy:         r.DecidedBy,
		DecidedAt:         r.DecidedAt,
		DecisionNote:      r.DecisionNote,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func shipmentToDTO(s *models.IncomingShipment) ShipmentDTO {
	dto := ShipmentDTO{
		ID:              s.ID,
		PurchaseOrderID: s.PurchaseOrderID,
		WarehouseID:     s.WarehouseID,
		Status:          s.Status,
		AssignedBy:      s.AssignedBy,
		AssignedAt:      s.AssignedAt,
		ProcessedBy:     s.ProcessedBy,
		ProcessedAt:     s.ProcessedAt,
		RejectedAt:      s.RejectedAt,
		RejectionReason: s.RejectionReason,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	for _, line := range s.Lines {
		dto.Lines = append(dto.Lines, ShipmentLineDTO{
			ID:                  line.ID,
			PurchaseOrderLineID: line.PurchaseOrderLineID,
			ProductID:           line.ProductID,
			ExpectedQuantity:    line.ExpectedQuantity,
			AcceptedQuantity:    line.AcceptedQuantity,
		})
	}
	return dto
}
