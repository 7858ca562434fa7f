package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/leatherworks-erp/api/controllers"
	"github.com/angelmondragon/leatherworks-erp/api/middleware"
	"github.com/angelmondragon/leatherworks-erp/internal/auth"
	"github.com/angelmondragon/leatherworks-erp/internal/crm"
	"github.com/angelmondragon/leatherworks-erp/internal/dashboard"
	"github.com/angelmondragon/leatherworks-erp/internal/inventory"
	"github.com/angelmondragon/leatherworks-erp/internal/products"
	"github.com/angelmondragon/leatherworks-erp/internal/purchasing"
	"github.com/angelmondragon/leatherworks-erp/internal/quotations"
	"github.com/angelmondragon/leatherworks-erp/internal/suppliers"
	"github.com/angelmondragon/leatherworks-erp/internal/traceability"
	"github.com/angelmondragon/leatherworks-erp/internal/users"
	"github.com/angelmondragon/leatherworks-erp/pkg/auth/session"
	"github.com/angelmondragon/leatherworks-erp/pkg/config"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
	"github.com/angelmondragon/leatherworks-erp/pkg/metrics"
	"github.com/angelmondragon/leatherworks-erp/pkg/permissions"
	pkgredis "github.com/angelmondragon/leatherworks-erp/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs for rate
// limiting and idempotency. A nil store disables both.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Dependencies are the infrastructure handles shared by every route.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker
	Metrics  *metrics.HTTPMetrics
}

// Services are the domain services behind the API surface.
type Services struct {
	Auth         auth.Service
	Users        users.Service
	Audit        controllers.AuditLister
	Suppliers    suppliers.Service
	Products     products.Service
	Purchasing   purchasing.Service
	Inventory    inventory.Service
	CRM          crm.Service
	Quotations   quotations.Service
	Traceability traceability.Service
	Dashboard    dashboard.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	var recorder middleware.RateLimitRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}
	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["database"] = deps.DB
	}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	apiPolicy := middleware.RateLimitPolicy{Name: "api", Window: cfg.APIRateLimit.Window, Limit: cfg.APIRateLimit.Limit}
	emailPolicy := middleware.RateLimitPolicy{Name: "email_actions", Window: cfg.APIRateLimit.EmailWindow, Limit: cfg.APIRateLimit.EmailActions}
	if !cfg.APIRateLimit.Enabled {
		apiPolicy, emailPolicy = middleware.RateLimitPolicy{}, middleware.RateLimitPolicy{}
	}
	emailLimited := middleware.RateLimit(emailPolicy, deps.Redis, recorder, logg)

	can := func(perms ...permissions.Permission) func(http.Handler) http.Handler {
		return middleware.RequirePermission(logg, perms...)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Metrics(observer(deps.Metrics)))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, recorder, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(svc.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RateLimit(apiPolicy, deps.Redis, recorder, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Get("/auth/me", controllers.AuthMe(svc.Auth, logg))
			r.Post("/auth/password", controllers.AuthChangePassword(svc.Auth, logg))

			r.Route("/users", func(r chi.Router) {
				r.With(can(permissions.UserRead)).Get("/", controllers.UserList(svc.Users, logg))
				r.With(can(permissions.UserManage), emailLimited).Post("/", controllers.UserCreate(svc.Users, logg))
				r.With(can(permissions.UserRead)).Get("/{userId}", controllers.UserGet(svc.Users, logg))
				r.With(can(permissions.UserManage)).Patch("/{userId}", controllers.UserUpdate(svc.Users, logg))
				r.With(can(permissions.UserManage)).Post("/{userId}/deactivate", controllers.UserDeactivate(svc.Users, logg))
			})

			r.With(can(permissions.AuditRead)).Get("/audit-logs", controllers.AuditLogList(svc.Audit, logg))

			r.Route("/suppliers", func(r chi.Router) {
				r.With(can(permissions.SupplierRead)).Get("/", controllers.SupplierList(svc.Suppliers, logg))
				r.With(can(permissions.SupplierCreate)).Post("/", controllers.SupplierCreate(svc.Suppliers, logg))
				r.With(can(permissions.SupplierRead)).Get("/{supplierId}", controllers.SupplierGet(svc.Suppliers, logg))
				r.With(can(permissions.SupplierUpdate)).Patch("/{supplierId}", controllers.SupplierUpdate(svc.Suppliers, logg))
				r.With(can(permissions.SupplierUpdate)).Post("/{supplierId}/deactivate", controllers.SupplierDeactivate(svc.Suppliers, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.With(can(permissions.ProductRead)).Get("/", controllers.ProductList(svc.Products, logg))
				r.With(can(permissions.ProductCreate)).Post("/", controllers.ProductCreate(svc.Products, logg))
				r.With(can(permissions.ProductRead)).Get("/{productId}", controllers.ProductGet(svc.Products, logg))
				r.With(can(permissions.ProductUpdate)).Patch("/{productId}", controllers.ProductUpdate(svc.Products, logg))
			})

			r.With(can(permissions.CatalogRead)).Get("/catalog/products", controllers.CatalogProducts(logg))

			r.Route("/rfqs", func(r chi.Router) {
				r.With(can(permissions.RFQRead)).Get("/", controllers.RFQList(svc.Purchasing, logg))
				r.With(can(permissions.RFQCreate)).Post("/", controllers.RFQCreate(svc.Purchasing, logg))
				r.With(can(permissions.RFQRead)).Get("/{rfqId}", controllers.RFQGet(svc.Purchasing, logg))
				r.With(can(permissions.RFQUpdate)).Patch("/{rfqId}", controllers.RFQUpdate(svc.Purchasing, logg))
				r.With(can(permissions.RFQSend), emailLimited).Post("/{rfqId}/send", controllers.RFQSend(svc.Purchasing, logg))
				r.With(can(permissions.RFQRecordQuote)).Post("/{rfqId}/record-quote", controllers.RFQRecordQuote(svc.Purchasing, logg))
				r.With(can(permissions.RFQApprove), emailLimited).Post("/{rfqId}/approve", controllers.RFQApprove(svc.Purchasing, logg))
				r.With(can(permissions.RFQApprove), emailLimited).Post("/{rfqId}/reject", controllers.RFQReject(svc.Purchasing, logg))
				r.With(can(permissions.RFQConvert)).Post("/{rfqId}/convert", controllers.RFQConvert(svc.Purchasing, logg))
			})

			r.Route("/purchase-orders", func(r chi.Router) {
				r.With(can(permissions.PORead)).Get("/", controllers.PurchaseOrderList(svc.Purchasing, logg))
				r.With(can(permissions.POCreate)).Post("/", controllers.PurchaseOrderCreate(svc.Purchasing, logg))
				r.With(can(permissions.PORead)).Get("/{poId}", controllers.PurchaseOrderGet(svc.Purchasing, logg))
				r.With(can(permissions.POSend), emailLimited).Post("/{poId}/send", controllers.PurchaseOrderSend(svc.Purchasing, logg))
				r.With(can(permissions.POConfirm)).Post("/{poId}/confirm", controllers.PurchaseOrderConfirm(svc.Purchasing, logg))
				r.With(can(permissions.POApprove)).Post("/{poId}/approve", controllers.PurchaseOrderApprove(svc.Purchasing, logg))
				r.With(can(permissions.POCancel)).Post("/{poId}/cancel", controllers.PurchaseOrderCancel(svc.Purchasing, logg))
				r.With(can(permissions.POClose)).Post("/{poId}/close", controllers.PurchaseOrderClose(svc.Purchasing, logg))
			})

			r.Route("/shipments", func(r chi.Router) {
				r.With(can(permissions.ShipmentRead)).Get("/", controllers.ShipmentList(svc.Inventory, logg))
				r.With(can(permissions.ShipmentRead)).Get("/{shipmentId}", controllers.ShipmentGet(svc.Inventory, logg))
				r.With(can(permissions.ShipmentAssign)).Post("/{shipmentId}/assign-warehouse", controllers.ShipmentAssignWarehouse(svc.Inventory, logg))
				r.With(can(permissions.ShipmentProcess)).Post("/{shipmentId}/process", controllers.ShipmentProcess(svc.Inventory, logg))
				r.With(can(permissions.ShipmentReject)).Post("/{shipmentId}/reject", controllers.ShipmentReject(svc.Inventory, logg))
			})

			r.Route("/warehouses", func(r chi.Router) {
				r.With(can(permissions.WarehouseRead)).Get("/", controllers.WarehouseList(svc.Inventory, logg))
				r.With(can(permissions.WarehouseCreate)).Post("/", controllers.WarehouseCreate(svc.Inventory, logg))
				r.With(can(permissions.WarehouseRead)).Get("/{warehouseId}", controllers.WarehouseGet(svc.Inventory, logg))
				r.With(can(permissions.WarehouseUpdate)).Patch("/{warehouseId}", controllers.WarehouseUpdate(svc.Inventory, logg))
			})

			r.Route("/inventory", func(r chi.Router) {
				r.With(can(permissions.InventoryRead)).Get("/items", controllers.InventoryItemList(svc.Inventory, logg))
				r.With(can(permissions.InventoryRead)).Get("/items/{itemId}", controllers.InventoryItemGet(svc.Inventory, logg))
				r.With(can(permissions.InventoryUpdate)).Patch("/items/{itemId}", controllers.InventoryItemUpdate(svc.Inventory, logg))
				r.With(can(permissions.InventoryRead)).Get("/movements", controllers.InventoryMovementList(svc.Inventory, logg))
				r.With(can(permissions.InventoryExport)).Get("/export", controllers.InventoryExport(svc.Inventory, logg))
				r.With(can(permissions.InventoryAdjust)).Post("/adjustments", controllers.InventoryAdjust(svc.Inventory, logg))
				r.With(can(permissions.InventoryTransfer)).Post("/transfers", controllers.InventoryTransfer(svc.Inventory, logg))
			})

			r.Route("/stock-requests", func(r chi.Router) {
				r.With(can(permissions.StockRequestRead)).Get("/", controllers.StockRequestList(svc.Inventory, logg))
				r.With(can(permissions.StockRequestCreate)).Post("/", controllers.StockRequestCreate(svc.Inventory, logg))
				r.With(can(permissions.StockRequestRead)).Get("/{requestId}", controllers.StockRequestGet(svc.Inventory, logg))
				r.With(can(permissions.StockRequestApprove)).Post("/{requestId}/approve", controllers.StockRequestApprove(svc.Inventory, logg))
				r.With(can(permissions.StockRequestApprove)).Post("/{requestId}/reject", controllers.StockRequestReject(svc.Inventory, logg))
			})

			r.Route("/customers", func(r chi.Router) {
				r.With(can(permissions.CustomerRead)).Get("/", controllers.CustomerList(svc.CRM, logg))
				r.With(can(permissions.CustomerCreate)).Post("/", controllers.CustomerCreate(svc.CRM, logg))
				r.With(can(permissions.CustomerRead)).Get("/{customerId}", controllers.CustomerGet(svc.CRM, logg))
				r.With(can(permissions.CustomerUpdate)).Patch("/{customerId}", controllers.CustomerUpdate(svc.CRM, logg))
				r.With(can(permissions.CustomerDelete)).Delete("/{customerId}", controllers.CustomerDelete(svc.CRM, logg))
			})

			r.Route("/quotations", func(r chi.Router) {
				r.With(can(permissions.QuotationRead)).Get("/", controllers.QuotationList(svc.Quotations, logg))
				r.With(can(permissions.QuotationCreate)).Post("/", controllers.QuotationCreate(svc.Quotations, logg))
				r.With(can(permissions.QuotationRead)).Get("/{quotationId}", controllers.QuotationGet(svc.Quotations, logg))
				r.With(can(permissions.QuotationUpdate)).Patch("/{quotationId}", controllers.QuotationUpdate(svc.Quotations, logg))
				r.With(can(permissions.QuotationSubmit)).Post("/{quotationId}/submit", controllers.QuotationSubmit(svc.Quotations, logg))
				r.With(can(permissions.QuotationApprove), emailLimited).Post("/{quotationId}/approve", controllers.QuotationApprove(svc.Quotations, logg))
				r.With(can(permissions.QuotationApprove)).Post("/{quotationId}/reject", controllers.QuotationReject(svc.Quotations, logg))
			})

			r.Route("/batches", func(r chi.Router) {
				r.With(can(permissions.BatchRead)).Get("/", controllers.BatchList(svc.Traceability, logg))
				r.With(can(permissions.BatchCreate)).Post("/", controllers.BatchCreate(svc.Traceability, logg))
				r.With(can(permissions.BatchRead)).Get("/{batchId}", controllers.BatchGet(svc.Traceability, logg))
				r.With(can(permissions.BatchRead)).Get("/{batchId}/children", controllers.BatchChildren(svc.Traceability, logg))
				r.With(can(permissions.BatchRead)).Get("/{batchId}/trace", controllers.BatchTrace(svc.Traceability, logg))
			})

			r.With(can(permissions.DashboardRead)).Get("/dashboard/stats", controllers.DashboardStats(svc.Dashboard, logg))
		})
	})

	return r
}

// observer avoids handing a typed nil pointer to the metrics middleware.
func observer(m *metrics.HTTPMetrics) middleware.HTTPObserver {
	if m == nil {
		return nil
	}
	return m
}
