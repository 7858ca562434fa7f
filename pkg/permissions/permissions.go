// Package permissions holds the static role policy table. Every protected
// route resolves its required permissions here, once per request.
package permissions

import (
	"sort"
	"strings"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// Permission is a "<resource>:<action>" string. Grants may use "<resource>:*" or "*".
type Permission string

const Wildcard = "*"

const (
	RFQRead        Permission = "rfq:read"
	RFQCreate      Permission = "rfq:create"
	RFQUpdate      Permission = "rfq:update"
	RFQSend        Permission = "rfq:send"
	RFQRecordQuote Permission = "rfq:record_quote"
	RFQApprove     Permission = "rfq:approve"
	RFQConvert     Permission = "rfq:convert"

	PORead    Permission = "po:read"
	POCreate  Permission = "po:create"
	POSend    Permission = "po:send"
	POConfirm Permission = "po:confirm"
	POApprove Permission = "po:approve"
	POCancel  Permission = "po:cancel"
	POClose   Permission = "po:close"

	ShipmentRead    Permission = "shipment:read"
	ShipmentAssign  Permission = "shipment:assign"
	ShipmentProcess Permission = "shipment:process"
	ShipmentReject  Permission = "shipment:reject"

	InventoryRead     Permission = "inventory:read"
	InventoryUpdate   Permission = "inventory:update"
	InventoryAdjust   Permission = "inventory:adjust"
	InventoryTransfer Permission = "inventory:transfer"
	InventoryExport   Permission = "inventory:export"

	WarehouseRead   Permission = "warehouse:read"
	WarehouseCreate Permission = "warehouse:create"
	WarehouseUpdate Permission = "warehouse:update"

	StockRequestRead    Permission = "stock_request:read"
	StockRequestCreate  Permission = "stock_request:create"
	StockRequestApprove Permission = "stock_request:approve"

	SupplierRead   Permission = "supplier:read"
	SupplierCreate Permission = "supplier:create"
	SupplierUpdate Permission = "supplier:update"

	ProductRead   Permission = "product:read"
	ProductCreate Permission = "product:create"
	ProductUpdate Permission = "product:update"

	CustomerRead   Permission = "customer:read"
	CustomerCreate Permission = "customer:create"
	CustomerUpdate Permission = "customer:update"
	CustomerDelete Permission = "customer:delete"

	QuotationRead    Permission = "quotation:read"
	QuotationCreate  Permission = "quotation:create"
	QuotationUpdate  Permission = "quotation:update"
	QuotationSubmit  Permission = "quotation:submit"
	QuotationApprove Permission = "quotation:approve"

	BatchRead   Permission = "batch:read"
	BatchCreate Permission = "batch:create"

	UserRead   Permission = "user:read"
	UserManage Permission = "user:manage"

	AuditRead     Permission = "audit:read"
	DashboardRead Permission = "dashboard:read"
	CatalogRead   Permission = "catalog:read"
)

var commonReads = []string{"dashboard:read", "catalog:read"}

var policy = map[enums.Role][]string{
	enums.RoleAdmin: {Wildcard},
	enums.RolePurchaseManager: with(commonReads,
		"rfq:*", "po:*", "supplier:*", "shipment:read", "shipment:assign",
		"product:read", "inventory:read", "warehouse:read", "audit:read",
	),
	enums.RolePurchaseUser: with(commonReads,
		"rfq:read", "rfq:create", "rfq:update", "rfq:record_quote",
		"po:read", "po:create", "supplier:read", "product:read", "shipment:read",
	),
	enums.RoleInventoryManager: with(commonReads,
		"shipment:*", "inventory:*", "warehouse:*", "stock_request:*",
		"product:*", "po:read", "batch:read",
	),
	enums.RoleInventoryUser: with(commonReads,
		"shipment:read", "inventory:read", "inventory:export", "warehouse:read",
		"stock_request:read", "stock_request:create", "product:read",
	),
	enums.RoleSalesManager: with(commonReads,
		"customer:*", "quotation:*", "product:read", "inventory:read",
	),
	enums.RoleSalesUser: with(commonReads,
		"customer:read", "customer:create", "customer:update",
		"quotation:read", "quotation:create", "quotation:update", "quotation:submit",
		"product:read",
	),
	enums.RoleProductionManager: with(commonReads,
		"batch:*", "inventory:read", "product:read", "supplier:read",
	),
	enums.RoleViewer: with(commonReads,
		"rfq:read", "po:read", "shipment:read", "inventory:read",
		"customer:read", "quotation:read", "batch:read",
	),
}

func with(base []string, grants ...string) []string {
	out := make([]string, 0, len(base)+len(grants))
	out = append(out, grants...)
	return append(out, base...)
}

// Can reports whether role holds every required permission. An unknown role holds nothing.
func Can(role enums.Role, required ...Permission) bool {
	grants, ok := policy[role]
	if !ok {
		return false
	}
	for _, perm := range required {
		if !covered(grants, perm) {
			return false
		}
	}
	return true
}

// Grants returns the raw grant list for role, sorted.
func Grants(role enums.Role) []string {
	grants := policy[role]
	out := make([]string, len(grants))
	copy(out, grants)
	sort.Strings(out)
	return out
}

func covered(grants []string, perm Permission) bool {
	resource, _, found := strings.Cut(string(perm), ":")
	if !found || resource == "" {
		return false
	}
	for _, grant := range grants {
		switch {
		case grant == Wildcard:
			return true
		case grant == string(perm):
			return true
		case strings.HasSuffix(grant, ":*") && strings.TrimSuffix(grant, ":*") == resource:
			return true
		}
	}
	return false
}
