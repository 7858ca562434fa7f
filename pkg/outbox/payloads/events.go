package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// RFQSentEvent asks the supplier to quote the listed items.
type RFQSentEvent struct {
	RFQID         uuid.UUID     `json:"rfq_id"`
	RFQNumber     string        `json:"rfq_number"`
	SupplierID    uuid.UUID     `json:"supplier_id"`
	SupplierName  string        `json:"supplier_name"`
	SupplierEmail string        `json:"supplier_email"`
	Items         []RFQItemLine `json:"items"`
	SentAt        time.Time     `json:"sent_at"`
}

// RFQItemLine is one requested product in an RFQ email.
type RFQItemLine struct {
	ProductSKU  string          `json:"product_sku"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
}

// RFQDecidedEvent notifies the requester that a manager approved or rejected the quote.
type RFQDecidedEvent struct {
	RFQID          uuid.UUID       `json:"rfq_id"`
	RFQNumber      string          `json:"rfq_number"`
	Status         enums.RFQStatus `json:"status"`
	CreatedByEmail string          `json:"created_by_email"`
	Reason         string          `json:"reason,omitempty"`
}

// POSentEvent transmits a purchase order to the supplier.
type POSentEvent struct {
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	PONumber        string          `json:"po_number"`
	SupplierEmail   string          `json:"supplier_email"`
	SupplierName    string          `json:"supplier_name"`
	Total           decimal.Decimal `json:"total"`
	ExpectedAt      *time.Time      `json:"expected_at,omitempty"`
}

// POApprovedEvent announces the shipment the warehouse team should expect.
type POApprovedEvent struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	PONumber        string    `json:"po_number"`
	ShipmentID      uuid.UUID `json:"shipment_id"`
	LineCount       int       `json:"line_count"`
	ApprovedBy      uuid.UUID `json:"approved_by"`
}

// ShipmentProcessedEvent carries the stock that entered a warehouse.
type ShipmentProcessedEvent struct {
	ShipmentID      uuid.UUID          `json:"shipment_id"`
	PurchaseOrderID uuid.UUID          `json:"purchase_order_id"`
	WarehouseID     uuid.UUID          `json:"warehouse_id"`
	ProcessedBy     uuid.UUID          `json:"processed_by"`
	ProcessedAt     time.Time          `json:"processed_at"`
	Movements       []StockMovementRow `json:"movements"`
}

// StockAdjustedEvent carries movements produced by adjustments, transfers and approved requests.
type StockAdjustedEvent struct {
	Reason    string             `json:"reason,omitempty"`
	RequestID *uuid.UUID         `json:"request_id,omitempty"`
	Movements []StockMovementRow `json:"movements"`
}

// StockMovementRow is the reporting shape of a single stock movement.
type StockMovementRow struct {
	MovementID    uuid.UUID               `json:"movement_id"`
	ItemID        uuid.UUID               `json:"item_id"`
	ProductID     uuid.UUID               `json:"product_id"`
	WarehouseID   uuid.UUID               `json:"warehouse_id"`
	Type          enums.StockMovementType `json:"type"`
	Quantity      decimal.Decimal         `json:"quantity"`
	ReferenceType string                  `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID              `json:"reference_id,omitempty"`
	OccurredAt    time.Time               `json:"occurred_at"`
}

// QuotationApprovedEvent sends the approved quotation to the customer.
type QuotationApprovedEvent struct {
	QuotationID     uuid.UUID       `json:"quotation_id"`
	QuotationNumber string          `json:"quotation_number"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	Total           decimal.Decimal `json:"total"`
	ValidUntil      *time.Time      `json:"valid_until,omitempty"`
}

// UserInvitedEvent delivers credentials to a newly created account.
type UserInvitedEvent struct {
	UserID            uuid.UUID  `json:"user_id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Role              enums.Role `json:"role"`
	TemporaryPassword string     `json:"temporary_password,omitempty"`
}
