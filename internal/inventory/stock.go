package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/payloads"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// Movement reference types.
const (
	refShipment     = "incoming_shipment"
	refStockRequest = "stock_request"
)

// stockChange is one signed quantity change on a (product, warehouse) record.
type stockChange struct {
	productID   uuid.UUID
	warehouseID uuid.UUID
	delta       decimal.Decimal
	kind        enums.StockMovementType
	refType     string
	refID       *uuid.UUID
	note        string
}

// applyChange upserts the stock record, keeps available in step with quantity
// and appends exactly one movement carrying the resulting balance.
func applyChange(ctx context.Context, repo *Repository, actor audit.Actor, ch stockChange) (*models.InventoryItem, *models.StockMovement, error) {
	item, err := repo.LockItem(ctx, ch.productID, ch.warehouseID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if ch.delta.IsNegative() {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "no stock recorded for product in warehouse")
		}
		item = &models.InventoryItem{ProductID: ch.productID, WarehouseID: ch.warehouseID}
		if err := repo.CreateItem(ctx, item); err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create inventory item")
		}
	case err != nil:
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inventory item")
	}

	next := item.Quantity.Add(ch.delta)
	if next.IsNegative() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "resulting quantity cannot be negative").
			WithDetails(map[string]any{"quantity": item.Quantity, "delta": ch.delta})
	}
	item.Quantity = next
	item.Recompute()
	if err := repo.UpdateItemQuantities(ctx, item); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update inventory item")
	}

	movement := &models.StockMovement{
		InventoryItemID: item.ID,
		ProductID:       item.ProductID,
		WarehouseID:     item.WarehouseID,
		Type:            ch.kind,
		Quantity:        ch.delta,
		BalanceAfter:    item.Quantity,
		ReferenceID:     ch.refID,
	}
	if actor.UserID != uuid.Nil {
		by := actor.UserID
		movement.CreatedBy = &by
	}
	if ch.refType != "" {
		ref := ch.refType
		movement.ReferenceType = &ref
	}
	if note := strings.TrimSpace(ch.note); note != "" {
		movement.Note = &note
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append stock movement")
	}
	return item, movement, nil
}

func (s *service) ListItems(ctx context.Context, params ItemListParams) (pagination.Page[ItemDTO], error) {
	rows, limit, err := s.repo.ListItems(ctx, params)
	if err != nil {
		return pagination.Page[ItemDTO]{}, pagination.ListError(err, "list inventory items")
	}
	dtos := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, itemToDTO(&rows[i]))
	}
	return pagination.BuildPage(dtos, limit, func(d ItemDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "inventory item")
	}
	dto := itemToDTO(item)
	return &dto, nil
}

func (s *service) UpdateThresholds(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateThresholdsInput) (*ItemDTO, error) {
	if input.MinStock.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_stock cannot be negative")
	}
	if input.MaxStock != nil && input.MaxStock.LessThan(input.MinStock) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_stock must be greater than or equal to min_stock")
	}

	var out ItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItem(ctx, id)
		if err != nil {
			return notFoundOr(err, "inventory item")
		}
		changes := map[string]any{
			"min_stock": map[string]any{"from": item.MinStock, "to": input.MinStock},
		}
		item.MinStock = input.MinStock
		next := decimal.NullDecimal{}
		if input.MaxStock != nil {
			next = decimal.NewNullDecimal(*input.MaxStock)
		}
		changes["max_stock"] = map[string]any{"from": item.MaxStock, "to": next}
		item.MaxStock = next
		if err := repo.UpdateItemThresholds(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update thresholds")
		}
		if err := s.recordAudit(ctx, tx, actor, "inventory.thresholds", audit.EntityInventoryItem, item.ID, changes); err != nil {
			return err
		}
		out = itemToDTO(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) ListMovements(ctx context.Context, params MovementListParams) (pagination.Page[MovementDTO], error) {
	rows, limit, err := s.repo.ListMovements(ctx, params)
	if err != nil {
		return pagination.Page[MovementDTO]{}, pagination.ListError(err, "list stock movements")
	}
	dtos := make([]MovementDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, movementToDTO(&rows[i]))
	}
	return pagination.BuildPage(dtos, limit, func(d MovementDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) Adjust(ctx context.Context, actor audit.Actor, input AdjustmentInput) (*StockResult, error) {
	if err := validateAdjustment(input.Delta, input.Reason); err != nil {
		return nil, err
	}
	var out *StockResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res, err := s.adjustTx(ctx, tx, actor, input, "", nil)
		if err != nil {
			return err
		}
		out = res
		return s.emitStockAdjusted(ctx, tx, actor, res, input.Reason, nil)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Transfer(ctx context.Context, actor audit.Actor, input TransferInput) (*StockResult, error) {
	if err := validateTransfer(input.Quantity, input.FromWarehouseID, input.ToWarehouseID, input.Reason); err != nil {
		return nil, err
	}
	var out *StockResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res, err := s.transferTx(ctx, tx, actor, input, "", nil)
		if err != nil {
			return err
		}
		out = res
		return s.emitStockAdjusted(ctx, tx, actor, res, input.Reason, nil)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validateAdjustment(delta decimal.Decimal, reason string) error {
	if delta.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}
	if strings.TrimSpace(reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	return nil
}

func validateTransfer(qty decimal.Decimal, from, to uuid.UUID, reason string) error {
	if !qty.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if from == to {
		return pkgerrors.New(pkgerrors.CodeValidation, "source and target warehouse must differ")
	}
	if strings.TrimSpace(reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	return nil
}

func (s *service) adjustTx(ctx context.Context, tx *gorm.DB, actor audit.Actor, input AdjustmentInput, refType string, refID *uuid.UUID) (*StockResult, error) {
	repo := s.repo.WithTx(tx)
	product, err := requireProduct(ctx, repo, input.ProductID)
	if err != nil {
		return nil, err
	}
	warehouse, err := requireActiveWarehouse(ctx, repo, input.WarehouseID)
	if err != nil {
		return nil, err
	}
	item, movement, err := applyChange(ctx, repo, actor, stockChange{
		productID:   input.ProductID,
		warehouseID: input.WarehouseID,
		delta:       input.Delta,
		kind:        enums.StockMovementAdjustment,
		refType:     refType,
		refID:       refID,
		note:        input.Reason,
	})
	if err != nil {
		return nil, err
	}
	item.Product, item.Warehouse = product, warehouse
	if err := s.recordAudit(ctx, tx, actor, "inventory.adjust", audit.EntityInventoryItem, item.ID, map[string]any{
		"delta":         input.Delta,
		"balance_after": movement.BalanceAfter,
		"reason":        strings.TrimSpace(input.Reason),
	}); err != nil {
		return nil, err
	}
	return &StockResult{
		Items:     []ItemDTO{itemToDTO(item)},
		Movements: []MovementDTO{movementToDTO(movement)},
	}, nil
}

func (s *service) transferTx(ctx context.Context, tx *gorm.DB, actor audit.Actor, input TransferInput, refType string, refID *uuid.UUID) (*StockResult, error) {
	repo := s.repo.WithTx(tx)
	product, err := requireProduct(ctx, repo, input.ProductID)
	if err != nil {
		return nil, err
	}
	source, err := requireActiveWarehouse(ctx, repo, input.FromWarehouseID)
	if err != nil {
		return nil, err
	}
	target, err := requireActiveWarehouse(ctx, repo, input.ToWarehouseID)
	if err != nil {
		return nil, err
	}

	current, err := repo.LockItem(ctx, input.ProductID, input.FromWarehouseID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inventory item")
	}
	if current == nil || current.Available.LessThan(input.Quantity) {
		available := decimal.Zero
		if current != nil {
			available = current.Available
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient available stock in source warehouse").
			WithDetails(map[string]any{"available": available, "requested": input.Quantity})
	}

	note := strings.TrimSpace(input.Reason)
	outItem, outMove, err := applyChange(ctx, repo, actor, stockChange{
		productID:   input.ProductID,
		warehouseID: input.FromWarehouseID,
		delta:       input.Quantity.Neg(),
		kind:        enums.StockMovementTransfer,
		refType:     refType,
		refID:       refID,
		note:        note,
	})
	if err != nil {
		return nil, err
	}
	inItem, inMove, err := applyChange(ctx, repo, actor, stockChange{
		productID:   input.ProductID,
		warehouseID: input.ToWarehouseID,
		delta:       input.Quantity,
		kind:        enums.StockMovementTransfer,
		refType:     refType,
		refID:       refID,
		note:        note,
	})
	if err != nil {
		return nil, err
	}
	outItem.Product, outItem.Warehouse = product, source
	inItem.Product, inItem.Warehouse = product, target

	if err := s.recordAudit(ctx, tx, actor, "inventory.transfer", audit.EntityInventoryItem, outItem.ID, map[string]any{
		"quantity":       input.Quantity,
		"from_warehouse": source.Code,
		"to_warehouse":   target.Code,
		"target_item_id": inItem.ID,
		"reason":         note,
	}); err != nil {
		return nil, err
	}
	return &StockResult{
		Items:     []ItemDTO{itemToDTO(outItem), itemToDTO(inItem)},
		Movements: []MovementDTO{movementToDTO(outMove), movementToDTO(inMove)},
	}, nil
}

func (s *service) emitStockAdjusted(ctx context.Context, tx *gorm.DB, actor audit.Actor, res *StockResult, reason string, requestID *uuid.UUID) error {
	if len(res.Items) == 0 {
		return nil
	}
	return s.emit(ctx, tx, actor, enums.EventStockAdjusted, enums.AggregateInventoryItem, res.Items[0].ID, payloads.StockAdjustedEvent{
		Reason:    strings.TrimSpace(reason),
		RequestID: requestID,
		Movements: movementRows(res.Movements),
	})
}

func movementRows(moves []MovementDTO) []payloads.StockMovementRow {
	rows := make([]payloads.StockMovementRow, 0, len(moves))
	for _, m := range moves {
		row := payloads.StockMovementRow{
			MovementID:  m.ID,
			ItemID:      m.InventoryItemID,
			ProductID:   m.ProductID,
			WarehouseID: m.WarehouseID,
			Type:        m.Type,
			Quantity:    m.Quantity,
			ReferenceID: m.ReferenceID,
			OccurredAt:  m.CreatedAt,
		}
		if m.ReferenceType != nil {
			row.ReferenceType = *m.ReferenceType
		}
		rows = append(rows, row)
	}
	return rows
}

func requireProduct(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Product, error) {
	p, err := repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return p, nil
}

func requireActiveWarehouse(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Warehouse, error) {
	w, err := repo.FindWarehouse(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load warehouse")
	}
	if !w.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse is inactive")
	}
	return w, nil
}
