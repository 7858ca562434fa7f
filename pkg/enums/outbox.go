package enums

import "fmt"

// OutboxAggregateType names the entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateRFQ            OutboxAggregateType = "rfq"
	AggregatePurchaseOrder  OutboxAggregateType = "purchase_order"
	AggregateShipment       OutboxAggregateType = "incoming_shipment"
	AggregateInventoryItem  OutboxAggregateType = "inventory_item"
	AggregateStockRequest   OutboxAggregateType = "stock_request"
	AggregateSalesQuotation OutboxAggregateType = "sales_quotation"
	AggregateUser           OutboxAggregateType = "user"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateRFQ,
	AggregatePurchaseOrder,
	AggregateShipment,
	AggregateInventoryItem,
	AggregateStockRequest,
	AggregateSalesQuotation,
	AggregateUser,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event written to the outbox.
type OutboxEventType string

const (
	EventRFQSent           OutboxEventType = "rfq_sent"
	EventRFQDecided        OutboxEventType = "rfq_decided"
	EventPOSent            OutboxEventType = "po_sent"
	EventPOApproved        OutboxEventType = "po_approved"
	EventShipmentProcessed OutboxEventType = "shipment_processed"
	EventStockAdjusted     OutboxEventType = "stock_adjusted"
	EventQuotationApproved OutboxEventType = "quotation_approved"
	EventUserInvited       OutboxEventType = "user_invited"
)

var validOutboxEventTypes = []OutboxEventType{
	EventRFQSent,
	EventRFQDecided,
	EventPOSent,
	EventPOApproved,
	EventShipmentProcessed,
	EventStockAdjusted,
	EventQuotationApproved,
	EventUserInvited,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
