package models

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&User{},
		&Supplier{},
		&Product{},
		&Warehouse{},
		&RFQ{},
		&RFQItem{},
		&PurchaseOrder{},
		&PurchaseOrderLine{},
		&IncomingShipment{},
		&IncomingShipmentLine{},
		&InventoryItem{},
		&StockMovement{},
		&StockMovementRequest{},
		&Customer{},
		&SalesQuotation{},
		&SalesQuotationLine{},
		&LeatherBatch{},
		&AuditLog{},
		&Approval{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
