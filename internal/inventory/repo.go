package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

var errStaleStatus = errors.New("status changed concurrently")

// Repository persists warehouses, stock records and incoming shipments.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) CreateWarehouse(ctx context.Context, w *models.Warehouse) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *Repository) SaveWarehouse(ctx context.Context, w *models.Warehouse) error {
	return r.db.WithContext(ctx).Save(w).Error
}

func (r *Repository) FindWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var w models.Warehouse
	if err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) WarehouseCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Warehouse{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ListWarehouses(ctx context.Context, params WarehouseListParams) ([]models.Warehouse, int, error) {
	q := r.db.WithContext(ctx).Model(&models.Warehouse{})
	if params.IsActive != nil {
		q = q.Where("is_active = ?", *params.IsActive)
	}
	q, limit, err := pagination.Apply(q, params.Params, "")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.Warehouse
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, limit, nil
}

func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) FindItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Warehouse").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// LockItem loads the stock record for (product, warehouse) under a row lock on
// Postgres. It returns gorm.ErrRecordNotFound when no record exists yet.
func (r *Repository) LockItem(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := db.ForUpdate(r.db.WithContext(ctx)).
		First(&item, "product_id = ? AND warehouse_id = ?", productID, warehouseID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Omit("Product", "Warehouse").Create(item).Error
}

func (r *Repository) UpdateItemQuantities(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":  item.Quantity,
			"reserved":  item.Reserved,
			"available": item.Available,
		}).Error
}

func (r *Repository) UpdateItemThresholds(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"min_stock": item.MinStock,
			"max_stock": item.MaxStock,
		}).Error
}

func (r *Repository) ListItems(ctx context.Context, params ItemListParams) ([]models.InventoryItem, int, error) {
	q := r.itemQuery(ctx, params)
	q, limit, err := pagination.Apply(q, params.Params, "inventory_items")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.InventoryItem
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, limit, nil
}

// AllItems returns every matching item without pagination, for exports.
func (r *Repository) AllItems(ctx context.Context, params ItemListParams) ([]models.InventoryItem, error) {
	var rows []models.InventoryItem
	err := r.itemQuery(ctx, params).
		Order("inventory_items.warehouse_id, inventory_items.product_id").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) itemQuery(ctx context.Context, params ItemListParams) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Preload("Product").
		Preload("Warehouse")
	if params.WarehouseID != nil {
		q = q.Where("inventory_items.warehouse_id = ?", *params.WarehouseID)
	}
	if params.ProductID != nil {
		q = q.Where("inventory_items.product_id = ?", *params.ProductID)
	}
	if params.LowStock {
		q = q.Where("inventory_items.available < inventory_items.min_stock")
	}
	return q
}

func (r *Repository) CreateMovement(ctx context.Context, m *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repository) ListMovements(ctx context.Context, params MovementListParams) ([]models.StockMovement, int, error) {
	q := r.db.WithContext(ctx).Model(&models.StockMovement{})
	if params.ItemID != nil {
		q = q.Where("inventory_item_id = ?", *params.ItemID)
	}
	if params.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *params.WarehouseID)
	}
	if params.ProductID != nil {
		q = q.Where("product_id = ?", *params.ProductID)
	}
	if params.Type != nil {
		q = q.Where("type = ?", *params.Type)
	}
	q, limit, err := pagination.Apply(q, params.Params, "")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.StockMovement
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, limit, nil
}

func (r *Repository) CreateRequest(ctx context.Context, req *models.StockMovementRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *Repository) FindRequest(ctx context.Context, id uuid.UUID, lock bool) (*models.StockMovementRequest, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = db.ForUpdate(q)
	}
	var req models.StockMovementRequest
	if err := q.First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repository) TransitionRequest(ctx context.Context, id uuid.UUID, from enums.StockRequestStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.StockMovementRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStaleStatus
	}
	return nil
}

func (r *Repository) ListRequests(ctx context.Context, params StockRequestListParams) ([]models.StockMovementRequest, int, error) {
	q := r.db.WithContext(ctx).Model(&models.StockMovementRequest{})
	if params.Status != nil {
		q = q.Where("status = ?", *params.Status)
	}
	if params.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *params.WarehouseID)
	}
	q, limit, err := pagination.Apply(q, params.Params, "")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.StockMovementRequest
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, limit, nil
}

func (r *Repository) FindShipment(ctx context.Context, id uuid.UUID, lock bool) (*models.IncomingShipment, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = db.ForUpdate(q)
	}
	var s models.IncomingShipment
	if err := q.First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("shipment_id = ?", s.ID).Order("id").Find(&s.Lines).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) TransitionShipment(ctx context.Context, id uuid.UUID, from []enums.ShipmentStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.IncomingShipment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStaleStatus
	}
	return nil
}

func (r *Repository) SetAcceptedQuantities(ctx context.Context, lines []models.IncomingShipmentLine) error {
	for _, line := range lines {
		err := r.db.WithContext(ctx).Model(&models.IncomingShipmentLine{}).
			Where("id = ?", line.ID).
			Update("accepted_quantity", line.AcceptedQuantity).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) ListShipments(ctx context.Context, params ShipmentListParams) ([]models.IncomingShipment, int, error) {
	q := r.db.WithContext(ctx).Model(&models.IncomingShipment{}).Preload("Lines")
	if params.Status != nil {
		q = q.Where("status = ?", *params.Status)
	}
	if params.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *params.WarehouseID)
	}
	q, limit, err := pagination.Apply(q, params.Params, "")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.IncomingShipment
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, limit, nil
}

// ListStaleShipments returns shipments still waiting in one of statuses that were
// created before cutoff, oldest first.
func (r *Repository) ListStaleShipments(ctx context.Context, statuses []enums.ShipmentStatus, cutoff time.Time) ([]models.IncomingShipment, error) {
	var rows []models.IncomingShipment
	err := r.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?", statuses, cutoff).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
