package purchasing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// errStaleStatus means a guarded status update matched no row because the
// status changed underneath the caller.
var errStaleStatus = errors.New("status changed concurrently")

// Repository persists RFQs, purchase orders and the shipments created on approval.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var s models.Supplier
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindProducts loads products keyed by id. Missing ids are simply absent from the map.
func (r *Repository) FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *Repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) CreateRFQ(ctx context.Context, rfq *models.RFQ) error {
	return r.db.WithContext(ctx).Omit("Supplier").Create(rfq).Error
}

// FindRFQ loads an RFQ with supplier and items. lock takes a row lock on Postgres.
func (r *Repository) FindRFQ(ctx context.Context, id uuid.UUID, lock bool) (*models.RFQ, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = db.ForUpdate(q)
	}
	var rfq models.RFQ
	if err := q.First(&rfq, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := r.loadRFQRelations(ctx, &rfq); err != nil {
		return nil, err
	}
	return &rfq, nil
}

func (r *Repository) loadRFQRelations(ctx context.Context, rfq *models.RFQ) error {
	if err := r.db.WithContext(ctx).Where("rfq_id = ?", rfq.ID).Order("id").Find(&rfq.Items).Error; err != nil {
		return err
	}
	supplier, err := r.FindSupplier(ctx, rfq.SupplierID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	rfq.Supplier = supplier
	return nil
}

// ReplaceRFQItems swaps the full item set of a draft RFQ.
func (r *Repository) ReplaceRFQItems(ctx context.Context, rfqID uuid.UUID, items []models.RFQItem) error {
	if err := r.db.WithContext(ctx).Where("rfq_id = ?", rfqID).Delete(&models.RFQItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].RFQID = rfqID
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *Repository) UpdateRFQNotes(ctx context.Context, id uuid.UUID, notes *string) error {
	return r.db.WithContext(ctx).Model(&models.RFQ{}).Where("id = ?", id).Update("notes", notes).Error
}

func (r *Repository) SetRFQItemPrice(ctx context.Context, itemID uuid.UUID, price decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.RFQItem{}).
		Where("id = ?", itemID).
		Update("quoted_unit_price", decimal.NewNullDecimal(price)).Error
}

// TransitionRFQ applies updates only while the RFQ still has status from.
func (r *Repository) TransitionRFQ(ctx context.Context, id uuid.UUID, from enums.RFQStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.RFQ{}).
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

func (r *Repository) ListRFQs(ctx context.Context, params RFQListParams) ([]models.RFQ, int, error) {
	q := r.db.WithContext(ctx).Model(&models.RFQ{}).Preload("Supplier")
	if params.Status != nil {
		q = q.Where("status = ?", *params.Status)
	}
	if params.SupplierID != nil {
		q = q.Where("supplier_id = ?", *params.SupplierID)
	}
	q, limit, err := pagination.Apply(q, params.Params, "")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.RFQ
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, limit, nil
}

func (r *Repository) CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Omit("Supplier").Create(po).Error
}

// FindPurchaseOrder loads a PO with supplier and lines. lock takes a row lock on Postgres.
func (r *Repository) FindPurchaseOrder(ctx context.Context, id uuid.UUID, lock bool) (*models.PurchaseOrder, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = db.ForUpdate(q)
	}
	var po models.PurchaseOrder
	if err := q.First(&po, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("purchase_order_id = ?", po.ID).Order("id").Find(&po.Lines).Error; err != nil {
		return nil, err
	}
	supplier, err := r.FindSupplier(ctx, po.SupplierID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	po.Supplier = supplier
	return &po, nil
}

// PurchaseOrderForRFQ returns the PO converted from rfqID, or gorm.ErrRecordNotFound.
func (r *Repository) PurchaseOrderForRFQ(ctx context.Context, rfqID uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := r.db.WithContext(ctx).First(&po, "rfq_id = ?", rfqID).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

// TransitionPurchaseOrder applies updates only while the PO status is one of from.
func (r *Repository) TransitionPurchaseOrder(ctx context.Context, id uuid.UUID, from []enums.PurchaseOrderStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.PurchaseOrder{}).
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

func (r *Repository) ListPurchaseOrders(ctx context.Context, params POListParams) ([]models.PurchaseOrder, int, error) {
	q := r.db.WithContext(ctx).Model(&models.PurchaseOrder{}).Preload("Supplier")
	if params.Status != nil {
		q = q.Where("status = ?", *params.Status)
	}
	if params.SupplierID != nil {
		q = q.Where("supplier_id = ?", *params.SupplierID)
	}
	q, limit, err := pagination.Apply(q, params.Params, "")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.PurchaseOrder
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, limit, nil
}

func (r *Repository) CreateShipment(ctx context.Context, shipment *models.IncomingShipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

// ShipmentIDForPurchaseOrder returns nil when the PO has not been approved yet.
func (r *Repository) ShipmentIDForPurchaseOrder(ctx context.Context, poID uuid.UUID) (*uuid.UUID, error) {
	var shipment models.IncomingShipment
	err := r.db.WithContext(ctx).Select("id").First(&shipment, "purchase_order_id = ?", poID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shipment.ID, nil
}

// ShipmentIDsForPurchaseOrders maps PO ids to their shipment ids for list responses.
func (r *Repository) ShipmentIDsForPurchaseOrders(ctx context.Context, poIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	out := make(map[uuid.UUID]uuid.UUID, len(poIDs))
	if len(poIDs) == 0 {
		return out, nil
	}
	var rows []models.IncomingShipment
	if err := r.db.WithContext(ctx).Select("id", "purchase_order_id").Where("purchase_order_id IN ?", poIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.PurchaseOrderID] = s.ID
	}
	return out, nil
}

// RejectOpenShipment rejects the PO's shipment when it is still pending or
// assigned. It reports whether a row changed; processed shipments are left alone.
func (r *Repository) RejectOpenShipment(ctx context.Context, poID uuid.UUID, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.IncomingShipment{}).
		Where("purchase_order_id = ? AND status IN ?", poID, []enums.ShipmentStatus{enums.ShipmentStatusPending, enums.ShipmentStatusAssigned}).
		Updates(map[string]any{
			"status":           enums.ShipmentStatusRejected,
			"rejected_at":      at,
			"rejection_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RecordReceipt adds received quantities to PO lines and moves the order to
// received or partially_received. It must run on the caller's transaction.
func (r *Repository) RecordReceipt(ctx context.Context, poID uuid.UUID, received map[uuid.UUID]decimal.Decimal) (enums.PurchaseOrderStatus, error) {
	var lines []models.PurchaseOrderLine
	if err := r.db.WithContext(ctx).Where("purchase_order_id = ?", poID).Find(&lines).Error; err != nil {
		return "", err
	}
	for i := range lines {
		qty, ok := received[lines[i].ID]
		if !ok || !qty.IsPositive() {
			continue
		}
		lines[i].QuantityReceived = lines[i].QuantityReceived.Add(qty)
		if err := r.db.WithContext(ctx).Model(&models.PurchaseOrderLine{}).
			Where("id = ?", lines[i].ID).
			Update("quantity_received", lines[i].QuantityReceived).Error; err != nil {
			return "", err
		}
	}

	status := receiptStatus(lines)
	if err := r.db.WithContext(ctx).Model(&models.PurchaseOrder{}).
		Where("id = ?", poID).
		Update("status", status).Error; err != nil {
		return "", err
	}
	return status, nil
}

func receiptStatus(lines []models.PurchaseOrderLine) enums.PurchaseOrderStatus {
	anyReceived := false
	complete := true
	for _, line := range lines {
		if line.QuantityReceived.IsPositive() {
			anyReceived = true
		}
		if line.Outstanding().IsPositive() {
			complete = false
		}
	}
	switch {
	case complete && anyReceived:
		return enums.PurchaseOrderStatusReceived
	case anyReceived:
		return enums.PurchaseOrderStatusPartiallyReceived
	default:
		return enums.PurchaseOrderStatusApproved
	}
}

// Receipts exposes RecordReceipt to callers that own the transaction, such as
// shipment processing.
type Receipts struct{}

func (Receipts) RecordReceipt(ctx context.Context, tx *gorm.DB, poID uuid.UUID, received map[uuid.UUID]decimal.Decimal) (enums.PurchaseOrderStatus, error) {
	return NewRepository(tx).RecordReceipt(ctx, poID, received)
}
