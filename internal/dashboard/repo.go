package dashboard

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// Repository runs the aggregate queries behind the dashboard.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type statusCount struct {
	Status string
	Count  int64
}

func (r *Repository) countByStatus(ctx context.Context, model any) (map[string]int64, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).Model(model).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *Repository) RFQsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countByStatus(ctx, &models.RFQ{})
}

func (r *Repository) PurchaseOrdersByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countByStatus(ctx, &models.PurchaseOrder{})
}

func (r *Repository) ShipmentsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countByStatus(ctx, &models.IncomingShipment{})
}

func (r *Repository) QuotationsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countByStatus(ctx, &models.SalesQuotation{})
}

func (r *Repository) LowStockItems(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("available < min_stock").Count(&n).Error
	return n, err
}

func (r *Repository) ActiveCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Where("status = ?", enums.CustomerStatusActive).Count(&n).Error
	return n, err
}
