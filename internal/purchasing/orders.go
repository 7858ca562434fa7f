package purchasing

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/docnumber"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/payloads"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

var (
	approvableStatuses  = []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusSent, enums.PurchaseOrderStatusConfirmed}
	cancellableStatuses = []enums.PurchaseOrderStatus{
		enums.PurchaseOrderStatusDraft,
		enums.PurchaseOrderStatusSent,
		enums.PurchaseOrderStatusConfirmed,
		enums.PurchaseOrderStatusApproved,
	}
	closableStatuses = []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusReceived, enums.PurchaseOrderStatusPartiallyReceived}
)

func (s *service) ListPurchaseOrders(ctx context.Context, params POListParams) (pagination.Page[PurchaseOrderDTO], error) {
	rows, limit, err := s.repo.ListPurchaseOrders(ctx, params)
	if err != nil {
		return pagination.Page[PurchaseOrderDTO]{}, pagination.ListError(err, "list purchase orders")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, po := range rows {
		ids = append(ids, po.ID)
	}
	shipments, err := s.repo.ShipmentIDsForPurchaseOrders(ctx, ids)
	if err != nil {
		return pagination.Page[PurchaseOrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipments")
	}
	dtos := make([]PurchaseOrderDTO, 0, len(rows))
	for i := range rows {
		var shipmentID *uuid.UUID
		if id, ok := shipments[rows[i].ID]; ok {
			shipmentID = &id
		}
		dtos = append(dtos, poToDTO(&rows[i], shipmentID))
	}
	return pagination.BuildPage(dtos, limit, func(d PurchaseOrderDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*PurchaseOrderDTO, error) {
	po, err := s.repo.FindPurchaseOrder(ctx, id, false)
	if err != nil {
		return nil, notFoundOr(err, "purchase order")
	}
	shipmentID, err := s.repo.ShipmentIDForPurchaseOrder(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipment")
	}
	dto := poToDTO(po, shipmentID)
	return &dto, nil
}

func (s *service) CreatePurchaseOrder(ctx context.Context, actor audit.Actor, input CreatePOInput) (*PurchaseOrderDTO, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	var out PurchaseOrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		supplier, err := s.activeSupplier(ctx, repo, input.SupplierID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(input.Lines))
		for i, line := range input.Lines {
			if !line.Quantity.IsPositive() {
				return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive").WithDetails(map[string]any{"index": i})
			}
			if line.UnitPrice.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative").WithDetails(map[string]any{"index": i})
			}
			ids = append(ids, line.ProductID)
		}
		if err := requireProducts(ctx, repo, ids); err != nil {
			return err
		}

		po := &models.PurchaseOrder{
			Number:       docnumber.New(docnumber.PrefixPurchaseOrder, s.now()),
			SupplierID:   supplier.ID,
			Status:       enums.PurchaseOrderStatusDraft,
			ExpectedDate: input.ExpectedDate,
			Notes:        trimmed(input.Notes),
			CreatedBy:    actor.UserID,
		}
		for _, line := range input.Lines {
			po.Lines = append(po.Lines, newPOLine(line.ProductID, line.Quantity, line.UnitPrice))
		}
		po.Total = linesTotal(po.Lines)

		if err := repo.CreatePurchaseOrder(ctx, po); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create purchase order")
		}
		if err := s.recordAudit(ctx, tx, actor, "po.create", audit.EntityPurchaseOrder, po.ID, map[string]any{
			"number": po.Number, "total": po.Total, "lines": len(po.Lines),
		}); err != nil {
			return err
		}
		po.Supplier = supplier
		out = poToDTO(po, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) SendPurchaseOrder(ctx context.Context, actor audit.Actor, id uuid.UUID) (*PurchaseOrderDTO, error) {
	from := []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusDraft}
	return s.transitionPO(ctx, id, from, "purchase order can only be sent from draft",
		func(tx *gorm.DB, repo *Repository, po *models.PurchaseOrder) error {
			now := s.now()
			prev := po.Status
			if err := s.applyPO(ctx, repo, po, from, enums.PurchaseOrderStatusSent, map[string]any{"sent_at": now}); err != nil {
				return err
			}
			po.SentAt = &now
			if err := s.recordAudit(ctx, tx, actor, "po.send", audit.EntityPurchaseOrder, po.ID, statusChange(prev, po.Status)); err != nil {
				return err
			}
			event := payloads.POSentEvent{
				PurchaseOrderID: po.ID,
				PONumber:        po.Number,
				Total:           po.Total,
				ExpectedAt:      po.ExpectedDate,
			}
			if po.Supplier != nil {
				event.SupplierEmail = po.Supplier.Email
				event.SupplierName = po.Supplier.Name
			}
			return s.emit(ctx, tx, actor, enums.EventPOSent, enums.AggregatePurchaseOrder, po.ID, event)
		})
}

func (s *service) ConfirmPurchaseOrder(ctx context.Context, actor audit.Actor, id uuid.UUID) (*PurchaseOrderDTO, error) {
	from := []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusSent}
	return s.transitionPO(ctx, id, from, "purchase order can only be confirmed once sent",
		func(tx *gorm.DB, repo *Repository, po *models.PurchaseOrder) error {
			now := s.now()
			if err := s.applyPO(ctx, repo, po, from, enums.PurchaseOrderStatusConfirmed, map[string]any{"confirmed_at": now}); err != nil {
				return err
			}
			po.ConfirmedAt = &now
			return s.recordAudit(ctx, tx, actor, "po.confirm", audit.EntityPurchaseOrder, po.ID,
				statusChange(enums.PurchaseOrderStatusSent, enums.PurchaseOrderStatusConfirmed))
		})
}

// ApprovePurchaseOrder approves the order and opens its incoming shipment with one
// line per order line. Both happen in the same transaction as the approval and audit rows.
func (s *service) ApprovePurchaseOrder(ctx context.Context, actor audit.Actor, id uuid.UUID, input DecisionInput) (*PurchaseOrderDTO, error) {
	return s.transitionPO(ctx, id, approvableStatuses, "purchase order must be sent or confirmed to approve",
		func(tx *gorm.DB, repo *Repository, po *models.PurchaseOrder) error {
			now := s.now()
			prev := po.Status
			approver := actor.UserID
			if err := s.applyPO(ctx, repo, po, approvableStatuses, enums.PurchaseOrderStatusApproved, map[string]any{
				"approved_at": now,
				"approved_by": approver,
			}); err != nil {
				return err
			}
			po.ApprovedAt = &now
			po.ApprovedBy = &approver

			shipment := &models.IncomingShipment{
				PurchaseOrderID: po.ID,
				Status:          enums.ShipmentStatusPending,
			}
			for _, line := range po.Lines {
				shipment.Lines = append(shipment.Lines, models.IncomingShipmentLine{
					PurchaseOrderLineID: line.ID,
					ProductID:           line.ProductID,
					ExpectedQuantity:    line.Outstanding(),
				})
			}
			if err := repo.CreateShipment(ctx, shipment); err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.New(pkgerrors.CodeConflict, "shipment already exists for purchase order")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create incoming shipment")
			}

			comment := strings.TrimSpace(input.Reason)
			if err := s.recordDecision(ctx, tx, actor, audit.EntityPurchaseOrder, po.ID, enums.ApprovalApproved, comment); err != nil {
				return err
			}
			if err := s.recordAudit(ctx, tx, actor, "po.approve", audit.EntityPurchaseOrder, po.ID, map[string]any{
				"status":      map[string]any{"from": prev, "to": po.Status},
				"shipment_id": shipment.ID,
			}); err != nil {
				return err
			}
			return s.emit(ctx, tx, actor, enums.EventPOApproved, enums.AggregatePurchaseOrder, po.ID, payloads.POApprovedEvent{
				PurchaseOrderID: po.ID,
				PONumber:        po.Number,
				ShipmentID:      shipment.ID,
				LineCount:       len(shipment.Lines),
				ApprovedBy:      approver,
			})
		})
}

// CancelPurchaseOrder cancels an order that has not received any goods. An
// approved order whose shipment is still open takes the shipment down with it,
// so a rejected or empty delivery never leaves the order stuck in approved.
func (s *service) CancelPurchaseOrder(ctx context.Context, actor audit.Actor, id uuid.UUID, input DecisionInput) (*PurchaseOrderDTO, error) {
	return s.transitionPO(ctx, id, cancellableStatuses, "purchase order can no longer be cancelled",
		func(tx *gorm.DB, repo *Repository, po *models.PurchaseOrder) error {
			now := s.now()
			prev := po.Status
			reason := strings.TrimSpace(input.Reason)
			if err := s.applyPO(ctx, repo, po, cancellableStatuses, enums.PurchaseOrderStatusCancelled, map[string]any{"cancelled_at": now}); err != nil {
				return err
			}
			po.CancelledAt = &now
			changes := statusChange(prev, po.Status)
			if reason != "" {
				changes["reason"] = reason
			}
			if prev == enums.PurchaseOrderStatusApproved {
				shipmentReason := "purchase order cancelled"
				if reason != "" {
					shipmentReason += ": " + reason
				}
				closed, err := repo.RejectOpenShipment(ctx, po.ID, shipmentReason, now)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reject open shipment")
				}
				if closed {
					changes["shipment_rejected"] = true
				}
			}
			return s.recordAudit(ctx, tx, actor, "po.cancel", audit.EntityPurchaseOrder, po.ID, changes)
		})
}

func (s *service) ClosePurchaseOrder(ctx context.Context, actor audit.Actor, id uuid.UUID) (*PurchaseOrderDTO, error) {
	return s.transitionPO(ctx, id, closableStatuses, "only received purchase orders can be closed",
		func(tx *gorm.DB, repo *Repository, po *models.PurchaseOrder) error {
			now := s.now()
			prev := po.Status
			if err := s.applyPO(ctx, repo, po, closableStatuses, enums.PurchaseOrderStatusClosed, map[string]any{"closed_at": now}); err != nil {
				return err
			}
			po.ClosedAt = &now
			return s.recordAudit(ctx, tx, actor, "po.close", audit.EntityPurchaseOrder, po.ID, statusChange(prev, po.Status))
		})
}

type poMutation func(tx *gorm.DB, repo *Repository, po *models.PurchaseOrder) error

func (s *service) transitionPO(ctx context.Context, id uuid.UUID, from []enums.PurchaseOrderStatus, conflictMsg string, mutate poMutation) (*PurchaseOrderDTO, error) {
	var out PurchaseOrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		po, err := repo.FindPurchaseOrder(ctx, id, true)
		if err != nil {
			return notFoundOr(err, "purchase order")
		}
		if !containsStatus(from, po.Status) {
			return poConflict(po.Status, conflictMsg)
		}
		if err := mutate(tx, repo, po); err != nil {
			return err
		}
		shipmentID, err := repo.ShipmentIDForPurchaseOrder(ctx, po.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipment")
		}
		out = poToDTO(po, shipmentID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) applyPO(ctx context.Context, repo *Repository, po *models.PurchaseOrder, from []enums.PurchaseOrderStatus, to enums.PurchaseOrderStatus, updates map[string]any) error {
	updates["status"] = to
	if err := repo.TransitionPurchaseOrder(ctx, po.ID, from, updates); err != nil {
		if errors.Is(err, errStaleStatus) {
			return poConflict(po.Status, "purchase order status changed concurrently")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update purchase order status")
	}
	po.Status = to
	return nil
}

func newPOLine(productID uuid.UUID, qty, price decimal.Decimal) models.PurchaseOrderLine {
	return models.PurchaseOrderLine{
		ProductID:        productID,
		Quantity:         qty,
		QuantityReceived: decimal.Zero,
		UnitPrice:        price,
		LineTotal:        qty.Mul(price).Round(4),
	}
}

func linesTotal(lines []models.PurchaseOrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal)
	}
	return total
}

func containsStatus(set []enums.PurchaseOrderStatus, status enums.PurchaseOrderStatus) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}

func poConflict(current enums.PurchaseOrderStatus, msg string) error {
	return pkgerrors.StateConflict(audit.EntityPurchaseOrder, string(current), msg)
}
