package dashboard

import (
	"context"
	"time"

	"github.com/angelmondragon/leatherworks-erp/pkg/cache"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
)

// Stats is the dashboard summary. Status maps hold only statuses that have rows.
type Stats struct {
	RFQsByStatus           map[string]int64 `json:"rfqs_by_status"`
	PurchaseOrdersByStatus map[string]int64 `json:"purchase_orders_by_status"`
	ShipmentsPending       int64            `json:"shipments_pending"`
	ShipmentsAssigned      int64            `json:"shipments_assigned"`
	LowStockItems          int64            `json:"low_stock_items"`
	ActiveCustomers        int64            `json:"active_customers"`
	QuotationsByStatus     map[string]int64 `json:"quotations_by_status"`
	GeneratedAt            time.Time        `json:"generated_at"`
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
}

type ServiceParams struct {
	Repo  *Repository
	Cache *cache.Cache
	TTL   time.Duration
	Clock func() time.Time
}

type service struct {
	repo  *Repository
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dashboard repository required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, cache: params.Cache, ttl: ttl, now: clock}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats, err := cache.Remember(ctx, s.cache, s.cache.Key("dashboard", "stats"), s.ttl, s.load)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *service) load(ctx context.Context) (Stats, error) {
	var (
		out Stats
		err error
	)
	if out.RFQsByStatus, err = s.repo.RFQsByStatus(ctx); err != nil {
		return Stats{}, wrap(err, "rfqs")
	}
	if out.PurchaseOrdersByStatus, err = s.repo.PurchaseOrdersByStatus(ctx); err != nil {
		return Stats{}, wrap(err, "purchase orders")
	}
	shipments, err := s.repo.ShipmentsByStatus(ctx)
	if err != nil {
		return Stats{}, wrap(err, "shipments")
	}
	out.ShipmentsPending = shipments[string(enums.ShipmentStatusPending)]
	out.ShipmentsAssigned = shipments[string(enums.ShipmentStatusAssigned)]
	if out.LowStockItems, err = s.repo.LowStockItems(ctx); err != nil {
		return Stats{}, wrap(err, "low stock items")
	}
	if out.ActiveCustomers, err = s.repo.ActiveCustomers(ctx); err != nil {
		return Stats{}, wrap(err, "customers")
	}
	if out.QuotationsByStatus, err = s.repo.QuotationsByStatus(ctx); err != nil {
		return Stats{}, wrap(err, "quotations")
	}
	out.GeneratedAt = s.now()
	return out, nil
}

func wrap(err error, what string) error {
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count "+what)
}
