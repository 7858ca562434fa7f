package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/internal/purchasing"
	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/dbtest"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/lock/locktest"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/payloads"
)

type fixture struct {
	svc     Service
	client  *db.Client
	conn    *gorm.DB
	locker  *locktest.Local
	clerk   audit.Actor
	manager audit.Actor
	main    models.Warehouse
	annex   models.Warehouse
	hide    models.Product
	thread  models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	locker := locktest.New()
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		TxRunner: client,
		Audit:    audit.NewRepository(conn),
		Outbox:   outbox.NewService(outbox.NewRepository(conn), nil),
		Locker:   locker,
		Receipts: purchasing.Receipts{},
		Clock:    func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	main := models.Warehouse{Code: "MAIN", Name: "Main tannery store", IsActive: true}
	annex := models.Warehouse{Code: "ANNEX", Name: "Finishing annex", IsActive: true}
	require.NoError(t, conn.Create(&main).Error)
	require.NoError(t, conn.Create(&annex).Error)
	hide := models.Product{SKU: "HIDE-VEG", Name: "Veg-tan hide", Category: "raw", Unit: enums.ProductUnitHide}
	thread := models.Product{SKU: "THR-WAX", Name: "Waxed thread", Category: "supplies", Unit: enums.ProductUnitPiece}
	require.NoError(t, conn.Create(&hide).Error)
	require.NoError(t, conn.Create(&thread).Error)

	return &fixture{
		svc:     svc,
		client:  client,
		conn:    conn,
		locker:  locker,
		clerk:   audit.Actor{UserID: uuid.New(), Role: enums.RoleInventoryUser},
		manager: audit.Actor{UserID: uuid.New(), Role: enums.RoleInventoryManager},
		main:    main,
		annex:   annex,
		hide:    hide,
		thread:  thread,
	}
}

func (f *fixture) stock(t *testing.T, product models.Product, warehouse models.Warehouse, qty string) {
	t.Helper()
	_, err := f.svc.Adjust(context.Background(), f.manager, AdjustmentInput{
		ProductID:   product.ID,
		WarehouseID: warehouse.ID,
		Delta:       decimal.RequireFromString(qty),
		Reason:      "opening balance",
	})
	require.NoError(t, err)
}

func (f *fixture) item(t *testing.T, product models.Product, warehouse models.Warehouse) models.InventoryItem {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, f.conn.First(&item, "product_id = ? AND warehouse_id = ?", product.ID, warehouse.ID).Error)
	return item
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

// approvedShipment seeds an approved purchase order with a pending shipment.
func (f *fixture) approvedShipment(t *testing.T) (*models.PurchaseOrder, *models.IncomingShipment) {
	t.Helper()
	supplier := models.Supplier{Code: "SUP-" + uuid.NewString()[:6], Name: "Curtidos Leon", Email: "ventas@curtidos.test", IsActive: true}
	require.NoError(t, f.conn.Create(&supplier).Error)
	po := &models.PurchaseOrder{
		Number:     "PO-" + uuid.NewString()[:8],
		SupplierID: supplier.ID,
		Status:     enums.PurchaseOrderStatusApproved,
		CreatedBy:  f.manager.UserID,
		Lines: []models.PurchaseOrderLine{
			{ProductID: f.hide.ID, Quantity: decimal.NewFromInt(40), UnitPrice: decimal.NewFromInt(55), LineTotal: decimal.NewFromInt(2200)},
			{ProductID: f.thread.ID, Quantity: decimal.NewFromInt(300), UnitPrice: decimal.RequireFromString("0.5"), LineTotal: decimal.NewFromInt(150)},
		},
	}
	require.NoError(t, f.conn.Omit("Supplier").Create(po).Error)
	shipment := &models.IncomingShipment{PurchaseOrderID: po.ID, Status: enums.ShipmentStatusPending}
	for _, line := range po.Lines {
		shipment.Lines = append(shipment.Lines, models.IncomingShipmentLine{
			PurchaseOrderLineID: line.ID,
			ProductID:           line.ProductID,
			ExpectedQuantity:    line.Quantity,
		})
	}
	require.NoError(t, f.conn.Create(shipment).Error)
	return po, shipment
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	requireCode(t, err, pkgerrors.CodeDependency)
}

func TestCreateWarehouseRejectsDuplicateCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.svc.CreateWarehouse(ctx, f.manager, CreateWarehouseInput{Code: " cut-room ", Name: "Cutting room"})
	require.NoError(t, err)
	assert.Equal(t, "CUT-ROOM", w.Code)
	assert.True(t, w.IsActive)

	_, err = f.svc.CreateWarehouse(ctx, f.manager, CreateWarehouseInput{Code: "CUT-ROOM", Name: "Other"})
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestAdjustMaintainsAvailableAndLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.stock(t, f.hide, f.main, "25")
	res, err := f.svc.Adjust(ctx, f.manager, AdjustmentInput{
		ProductID:   f.hide.ID,
		WarehouseID: f.main.ID,
		Delta:       decimal.NewFromInt(-5),
		Reason:      "cycle count",
	})
	require.NoError(t, err)
	require.Len(t, res.Movements, 1)
	assert.True(t, res.Movements[0].BalanceAfter.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, enums.StockMovementAdjustment, res.Movements[0].Type)

	item := f.item(t, f.hide, f.main)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(20)))
	assert.True(t, item.Available.Equal(item.Quantity.Sub(item.Reserved)))
	assert.EqualValues(t, 2, f.count(t, &models.StockMovement{}, "inventory_item_id = ?", item.ID))
	assert.EqualValues(t, 2, f.count(t, &models.OutboxEvent{}, "event_type = ?", enums.EventStockAdjusted))
}

func TestAdjustCannotGoNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stock(t, f.hide, f.main, "3")

	_, err := f.svc.Adjust(ctx, f.manager, AdjustmentInput{
		ProductID:   f.hide.ID,
		WarehouseID: f.main.ID,
		Delta:       decimal.NewFromInt(-4),
		Reason:      "damaged",
	})
	requireCode(t, err, pkgerrors.CodeValidation)
	assert.True(t, f.item(t, f.hide, f.main).Quantity.Equal(decimal.NewFromInt(3)))

	_, err = f.svc.Adjust(ctx, f.manager, AdjustmentInput{ProductID: f.hide.ID, WarehouseID: f.main.ID, Reason: "zero"})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestTransferMovesStockBetweenWarehouses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stock(t, f.thread, f.main, "100")

	res, err := f.svc.Transfer(ctx, f.manager, TransferInput{
		ProductID:       f.thread.ID,
		FromWarehouseID: f.main.ID,
		ToWarehouseID:   f.annex.ID,
		Quantity:        decimal.NewFromInt(30),
		Reason:          "finishing batch",
	})
	require.NoError(t, err)
	require.Len(t, res.Movements, 2)
	for _, m := range res.Movements {
		assert.Equal(t, enums.StockMovementTransfer, m.Type)
	}
	assert.True(t, f.item(t, f.thread, f.main).Available.Equal(decimal.NewFromInt(70)))
	assert.True(t, f.item(t, f.thread, f.annex).Available.Equal(decimal.NewFromInt(30)))
}

func TestTransferRejectsInsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stock(t, f.thread, f.main, "10")

	_, err := f.svc.Transfer(ctx, f.manager, TransferInput{
		ProductID:       f.thread.ID,
		FromWarehouseID: f.main.ID,
		ToWarehouseID:   f.annex.ID,
		Quantity:        decimal.NewFromInt(11),
		Reason:          "too much",
	})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Transfer(ctx, f.manager, TransferInput{
		ProductID:       f.thread.ID,
		FromWarehouseID: f.main.ID,
		ToWarehouseID:   f.main.ID,
		Quantity:        decimal.NewFromInt(1),
		Reason:          "same",
	})
	requireCode(t, err, pkgerrors.CodeValidation)
	assert.EqualValues(t, 0, f.count(t, &models.InventoryItem{}, "warehouse_id = ?", f.annex.ID))
}

func TestThresholdsAndLowStockFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stock(t, f.hide, f.main, "4")
	f.stock(t, f.thread, f.main, "500")
	item := f.item(t, f.hide, f.main)

	ceiling := decimal.NewFromInt(5)
	_, err := f.svc.UpdateThresholds(ctx, f.manager, item.ID, UpdateThresholdsInput{MinStock: decimal.NewFromInt(10), MaxStock: &ceiling})
	requireCode(t, err, pkgerrors.CodeValidation)

	ceiling = decimal.NewFromInt(50)
	updated, err := f.svc.UpdateThresholds(ctx, f.manager, item.ID, UpdateThresholdsInput{MinStock: decimal.NewFromInt(10), MaxStock: &ceiling})
	require.NoError(t, err)
	assert.True(t, updated.LowStock)

	page, err := f.svc.ListItems(ctx, ItemListParams{LowStock: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, item.ID, page.Items[0].ID)
	assert.Equal(t, "HIDE-VEG", page.Items[0].ProductSKU)
}

func TestStockRequestApprovalAppliesChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stock(t, f.hide, f.main, "12")

	target := f.annex.ID
	req, err := f.svc.CreateStockRequest(ctx, f.clerk, CreateStockRequestInput{
		Type:              enums.StockRequestTransfer,
		ProductID:         f.hide.ID,
		WarehouseID:       f.main.ID,
		TargetWarehouseID: &target,
		Quantity:          decimal.NewFromInt(2),
		Reason:            "sample run",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.StockRequestStatusPending, req.Status)
	assert.True(t, f.item(t, f.hide, f.main).Quantity.Equal(decimal.NewFromInt(12)), "pending request must not move stock")

	_, err = f.svc.ApproveStockRequest(ctx, f.clerk, req.ID, StockRequestDecisionInput{})
	requireCode(t, err, pkgerrors.CodeForbidden)

	approved, err := f.svc.ApproveStockRequest(ctx, f.manager, req.ID, StockRequestDecisionInput{Note: "ok"})
	require.NoError(t, err)
	assert.Equal(t, enums.StockRequestStatusApproved, approved.Status)
	assert.True(t, f.item(t, f.hide, f.main).Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, f.item(t, f.hide, f.annex).Quantity.Equal(decimal.NewFromInt(2)))
	assert.EqualValues(t, 2, f.count(t, &models.StockMovement{}, "reference_id = ?", req.ID))
	assert.EqualValues(t, 1, f.count(t, &models.Approval{}, "entity_id = ?", req.ID))

	_, err = f.svc.RejectStockRequest(ctx, f.manager, req.ID, StockRequestDecisionInput{Note: "late"})
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestStockRequestRejectLeavesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stock(t, f.hide, f.main, "12")

	req, err := f.svc.CreateStockRequest(ctx, f.clerk, CreateStockRequestInput{
		Type:        enums.StockRequestAdjustment,
		ProductID:   f.hide.ID,
		WarehouseID: f.main.ID,
		Quantity:    decimal.NewFromInt(-3),
		Reason:      "scratched",
	})
	require.NoError(t, err)
	rejected, err := f.svc.RejectStockRequest(ctx, f.manager, req.ID, StockRequestDecisionInput{Note: "recount first"})
	require.NoError(t, err)
	assert.Equal(t, enums.StockRequestStatusRejected, rejected.Status)
	require.NotNil(t, rejected.DecisionNote)
	assert.True(t, f.item(t, f.hide, f.main).Quantity.Equal(decimal.NewFromInt(12)))
}

func TestProcessShipmentBooksStockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po, shipment := f.approvedShipment(t)

	_, err := f.svc.ProcessShipment(ctx, f.manager, shipment.ID, ProcessShipmentInput{})
	requireCode(t, err, pkgerrors.CodeStateConflict)

	assigned, err := f.svc.AssignWarehouse(ctx, f.manager, shipment.ID, AssignWarehouseInput{WarehouseID: f.annex.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusAssigned, assigned.Status)
	assigned, err = f.svc.AssignWarehouse(ctx, f.manager, shipment.ID, AssignWarehouseInput{WarehouseID: f.main.ID})
	require.NoError(t, err)
	assert.Equal(t, f.main.ID, *assigned.WarehouseID)

	processed, err := f.svc.ProcessShipment(ctx, f.manager, shipment.ID, ProcessShipmentInput{})
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusProcessed, processed.Status)
	for _, line := range processed.Lines {
		require.True(t, line.AcceptedQuantity.Valid)
		assert.True(t, line.AcceptedQuantity.Decimal.Equal(line.ExpectedQuantity))
	}
	assert.True(t, f.item(t, f.hide, f.main).Available.Equal(decimal.NewFromInt(40)))
	assert.True(t, f.item(t, f.thread, f.main).Available.Equal(decimal.NewFromInt(300)))
	assert.EqualValues(t, 2, f.count(t, &models.StockMovement{}, "reference_id = ? AND type = ?", shipment.ID, enums.StockMovementIn))

	var reloaded models.PurchaseOrder
	require.NoError(t, f.conn.First(&reloaded, "id = ?", po.ID).Error)
	assert.Equal(t, enums.PurchaseOrderStatusReceived, reloaded.Status)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", enums.EventShipmentProcessed).Find(&events).Error)
	require.Len(t, events, 1)
	envelope, err := outbox.DecodeEnvelope(events[0].Payload)
	require.NoError(t, err)
	var body payloads.ShipmentProcessedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &body))
	assert.Len(t, body.Movements, 2)

	_, err = f.svc.ProcessShipment(ctx, f.manager, shipment.ID, ProcessShipmentInput{})
	requireCode(t, err, pkgerrors.CodeStateConflict)
	assert.True(t, f.item(t, f.hide, f.main).Available.Equal(decimal.NewFromInt(40)), "second run must not double count")
	assert.EqualValues(t, 2, f.count(t, &models.StockMovement{}, "reference_id = ?", shipment.ID))
}

func TestProcessShipmentPartialAcceptance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po, shipment := f.approvedShipment(t)
	_, err := f.svc.AssignWarehouse(ctx, f.manager, shipment.ID, AssignWarehouseInput{WarehouseID: f.main.ID})
	require.NoError(t, err)

	hideLine, threadLine := shipment.Lines[0], shipment.Lines[1]
	_, err = f.svc.ProcessShipment(ctx, f.manager, shipment.ID, ProcessShipmentInput{Lines: []ProcessLineInput{
		{LineID: hideLine.ID, AcceptedQuantity: decimal.NewFromInt(41)},
	}})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.ProcessShipment(ctx, f.manager, shipment.ID, ProcessShipmentInput{Lines: []ProcessLineInput{
		{LineID: hideLine.ID, AcceptedQuantity: decimal.NewFromInt(35)},
		{LineID: threadLine.ID, AcceptedQuantity: decimal.Zero},
	}})
	require.NoError(t, err)
	assert.True(t, f.item(t, f.hide, f.main).Quantity.Equal(decimal.NewFromInt(35)))
	assert.EqualValues(t, 0, f.count(t, &models.InventoryItem{}, "product_id = ?", f.thread.ID))

	var reloaded models.PurchaseOrder
	require.NoError(t, f.conn.First(&reloaded, "id = ?", po.ID).Error)
	assert.Equal(t, enums.PurchaseOrderStatusPartiallyReceived, reloaded.Status)
}

func TestProcessShipmentHeldLockConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, shipment := f.approvedShipment(t)
	_, err := f.svc.AssignWarehouse(ctx, f.manager, shipment.ID, AssignWarehouseInput{WarehouseID: f.main.ID})
	require.NoError(t, err)

	held, err := f.locker.Acquire(ctx, "shipment:"+shipment.ID.String(), time.Minute)
	require.NoError(t, err)
	_, err = f.svc.ProcessShipment(ctx, f.manager, shipment.ID, ProcessShipmentInput{})
	requireCode(t, err, pkgerrors.CodeConflict)
	require.NoError(t, held.Release(ctx))

	_, err = f.svc.ProcessShipment(ctx, f.manager, shipment.ID, ProcessShipmentInput{})
	require.NoError(t, err)
}

func TestRejectShipmentOnlyFromAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, shipment := f.approvedShipment(t)

	_, err := f.svc.RejectShipment(ctx, f.manager, shipment.ID, RejectShipmentInput{Reason: "wrong hides"})
	requireCode(t, err, pkgerrors.CodeStateConflict)

	_, err = f.svc.AssignWarehouse(ctx, f.manager, shipment.ID, AssignWarehouseInput{WarehouseID: f.main.ID})
	require.NoError(t, err)
	rejected, err := f.svc.RejectShipment(ctx, f.manager, shipment.ID, RejectShipmentInput{Reason: "wrong hides"})
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusRejected, rejected.Status)
	assert.EqualValues(t, 0, f.count(t, &models.StockMovement{}, "reference_id = ?", shipment.ID))
}

func (f *fixture) purchasing(t *testing.T) purchasing.Service {
	t.Helper()
	svc, err := purchasing.NewService(purchasing.ServiceParams{
		Repo:     purchasing.NewRepository(f.conn),
		TxRunner: f.client,
		Audit:    audit.NewRepository(f.conn),
		Outbox:   outbox.NewService(outbox.NewRepository(f.conn), nil),
	})
	require.NoError(t, err)
	return svc
}

func TestRejectedShipmentLetsPurchaseOrderCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po, shipment := f.approvedShipment(t)
	_, err := f.svc.AssignWarehouse(ctx, f.manager, shipment.ID, AssignWarehouseInput{WarehouseID: f.main.ID})
	require.NoError(t, err)
	_, err = f.svc.RejectShipment(ctx, f.manager, shipment.ID, RejectShipmentInput{Reason: "hides arrived wet"})
	require.NoError(t, err)

	cancelled, err := f.purchasing(t).CancelPurchaseOrder(ctx, f.manager, po.ID, purchasing.DecisionInput{Reason: "reorder from another tannery"})
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusCancelled, cancelled.Status)

	var reloaded models.IncomingShipment
	require.NoError(t, f.conn.First(&reloaded, "id = ?", shipment.ID).Error)
	require.NotNil(t, reloaded.RejectionReason)
	assert.Equal(t, "hides arrived wet", *reloaded.RejectionReason)
}

func TestEmptyDeliveryLetsPurchaseOrderCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po, shipment := f.approvedShipment(t)
	_, err := f.svc.AssignWarehouse(ctx, f.manager, shipment.ID, AssignWarehouseInput{WarehouseID: f.main.ID})
	require.NoError(t, err)
	_, err = f.svc.ProcessShipment(ctx, f.manager, shipment.ID, ProcessShipmentInput{Lines: []ProcessLineInput{
		{LineID: shipment.Lines[0].ID, AcceptedQuantity: decimal.Zero},
		{LineID: shipment.Lines[1].ID, AcceptedQuantity: decimal.Zero},
	}})
	require.NoError(t, err)

	var reloaded models.PurchaseOrder
	require.NoError(t, f.conn.First(&reloaded, "id = ?", po.ID).Error)
	assert.Equal(t, enums.PurchaseOrderStatusApproved, reloaded.Status)

	cancelled, err := f.purchasing(t).CancelPurchaseOrder(ctx, f.manager, po.ID, purchasing.DecisionInput{})
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderStatusCancelled, cancelled.Status)

	var processed models.IncomingShipment
	require.NoError(t, f.conn.First(&processed, "id = ?", shipment.ID).Error)
	assert.Equal(t, enums.ShipmentStatusProcessed, processed.Status)
}

func TestAssignWarehouseRequiresActiveWarehouse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, shipment := f.approvedShipment(t)
	require.NoError(t, f.conn.Model(&models.Warehouse{}).Where("id = ?", f.annex.ID).Update("is_active", false).Error)

	_, err := f.svc.AssignWarehouse(ctx, f.manager, shipment.ID, AssignWarehouseInput{WarehouseID: f.annex.ID})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestExportItemsWritesWorkbook(t *testing.T) {
	f := newFixture(t)
	f.stock(t, f.hide, f.main, "7")

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportItems(context.Background(), ItemListParams{}, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SKU", rows[0][1])
	assert.Equal(t, "MAIN", rows[1][0])
	assert.Equal(t, "HIDE-VEG", rows[1][1])
	assert.Equal(t, "7", rows[1][4])
}

func TestListFailuresAreTyped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sqlDB, err := f.conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = f.svc.ListShipments(ctx, ShipmentListParams{})
	requireCode(t, err, pkgerrors.CodeInternal)
	_, err = f.svc.ListItems(ctx, ItemListParams{})
	requireCode(t, err, pkgerrors.CodeInternal)
	_, err = f.svc.ListMovements(ctx, MovementListParams{})
	requireCode(t, err, pkgerrors.CodeInternal)
	_, err = f.svc.ListStockRequests(ctx, StockRequestListParams{})
	requireCode(t, err, pkgerrors.CodeInternal)
	_, err = f.svc.ListWarehouses(ctx, WarehouseListParams{})
	requireCode(t, err, pkgerrors.CodeInternal)
}
