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
	"github.com/angelmondragon/leatherworks-erp/pkg/lock"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/payloads"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

var assignableStatuses = []enums.ShipmentStatus{enums.ShipmentStatusPending, enums.ShipmentStatusAssigned}

func (s *service) ListShipments(ctx context.Context, params ShipmentListParams) (pagination.Page[ShipmentDTO], error) {
	rows, limit, err := s.repo.ListShipments(ctx, params)
	if err != nil {
		return pagination.Page[ShipmentDTO]{}, pagination.ListError(err, "list shipments")
	}
	dtos := make([]ShipmentDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, shipmentToDTO(&rows[i]))
	}
	return pagination.BuildPage(dtos, limit, func(d ShipmentDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) GetShipment(ctx context.Context, id uuid.UUID) (*ShipmentDTO, error) {
	shipment, err := s.repo.FindShipment(ctx, id, false)
	if err != nil {
		return nil, notFoundOr(err, "shipment")
	}
	dto := shipmentToDTO(shipment)
	return &dto, nil
}

// AssignWarehouse moves a pending shipment to assigned. An assigned shipment
// may be pointed at a different warehouse until it is processed.
func (s *service) AssignWarehouse(ctx context.Context, actor audit.Actor, id uuid.UUID, input AssignWarehouseInput) (*ShipmentDTO, error) {
	var out ShipmentDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindShipment(ctx, id, true)
		if err != nil {
			return notFoundOr(err, "shipment")
		}
		if !containsStatus(assignableStatuses, shipment.Status) {
			return shipmentConflict(shipment.Status, "warehouse can only be assigned to pending or assigned shipments")
		}
		warehouse, err := requireActiveWarehouse(ctx, repo, input.WarehouseID)
		if err != nil {
			return err
		}

		now := s.now()
		assigner := actor.UserID
		prev := shipment.Status
		var prevWarehouse *uuid.UUID
		if shipment.WarehouseID != nil {
			w := *shipment.WarehouseID
			prevWarehouse = &w
		}
		if err := s.applyShipment(ctx, repo, shipment, assignableStatuses, enums.ShipmentStatusAssigned, map[string]any{
			"warehouse_id": warehouse.ID,
			"assigned_by":  assigner,
			"assigned_at":  now,
		}); err != nil {
			return err
		}
		shipment.WarehouseID = &warehouse.ID
		shipment.AssignedBy = &assigner
		shipment.AssignedAt = &now

		changes := statusChange(prev, shipment.Status)
		changes["warehouse_id"] = map[string]any{"from": prevWarehouse, "to": warehouse.ID}
		if err := s.recordAudit(ctx, tx, actor, "shipment.assign", audit.EntityShipment, shipment.ID, changes); err != nil {
			return err
		}
		out = shipmentToDTO(shipment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ProcessShipment books accepted quantities into the assigned warehouse. The
// shipment lock serialises concurrent calls and the status guard inside the
// transaction rejects a second run.
func (s *service) ProcessShipment(ctx context.Context, actor audit.Actor, id uuid.UUID, input ProcessShipmentInput) (*ShipmentDTO, error) {
	overrides := make(map[uuid.UUID]decimal.Decimal, len(input.Lines))
	for _, line := range input.Lines {
		if line.AcceptedQuantity.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "accepted_quantity cannot be negative")
		}
		if _, dup := overrides[line.LineID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate shipment line in request")
		}
		overrides[line.LineID] = line.AcceptedQuantity
	}

	held, err := s.locker.Acquire(ctx, "shipment:"+id.String(), s.shipmentTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "shipment is already being processed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire shipment lock")
	}
	defer func() {
		if err := held.Release(context.WithoutCancel(ctx)); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "shipment_id", id.String()), "release shipment lock: "+err.Error())
		}
	}()

	var out ShipmentDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindShipment(ctx, id, true)
		if err != nil {
			return notFoundOr(err, "shipment")
		}
		if shipment.Status != enums.ShipmentStatusAssigned || shipment.WarehouseID == nil {
			return shipmentConflict(shipment.Status, "only assigned shipments can be processed")
		}
		warehouseID := *shipment.WarehouseID

		known := make(map[uuid.UUID]struct{}, len(shipment.Lines))
		for _, line := range shipment.Lines {
			known[line.ID] = struct{}{}
		}
		for lineID := range overrides {
			if _, ok := known[lineID]; !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "line does not belong to shipment").
					WithDetails(map[string]any{"line_id": lineID})
			}
		}

		ref := shipment.ID
		received := make(map[uuid.UUID]decimal.Decimal, len(shipment.Lines))
		var moves []MovementDTO
		for i := range shipment.Lines {
			line := &shipment.Lines[i]
			accepted := line.ExpectedQuantity
			if qty, ok := overrides[line.ID]; ok {
				accepted = qty
			}
			if accepted.GreaterThan(line.ExpectedQuantity) {
				return pkgerrors.New(pkgerrors.CodeValidation, "accepted quantity exceeds expected quantity").
					WithDetails(map[string]any{"line_id": line.ID, "expected": line.ExpectedQuantity, "accepted": accepted})
			}
			line.AcceptedQuantity = decimal.NewNullDecimal(accepted)
			if !accepted.IsPositive() {
				continue
			}
			_, movement, err := applyChange(ctx, repo, actor, stockChange{
				productID:   line.ProductID,
				warehouseID: warehouseID,
				delta:       accepted,
				kind:        enums.StockMovementIn,
				refType:     refShipment,
				refID:       &ref,
			})
			if err != nil {
				return err
			}
			moves = append(moves, movementToDTO(movement))
			received[line.PurchaseOrderLineID] = received[line.PurchaseOrderLineID].Add(accepted)
		}
		if err := repo.SetAcceptedQuantities(ctx, shipment.Lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record accepted quantities")
		}
		poStatus, err := s.receipts.RecordReceipt(ctx, tx, shipment.PurchaseOrderID, received)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record purchase order receipt")
		}

		now := s.now()
		processor := actor.UserID
		prev := shipment.Status
		if err := s.applyShipment(ctx, repo, shipment, []enums.ShipmentStatus{enums.ShipmentStatusAssigned}, enums.ShipmentStatusProcessed, map[string]any{
			"processed_by": processor,
			"processed_at": now,
		}); err != nil {
			return err
		}
		shipment.ProcessedBy = &processor
		shipment.ProcessedAt = &now

		changes := statusChange(prev, shipment.Status)
		changes["movements"] = len(moves)
		changes["purchase_order_status"] = poStatus
		if err := s.recordAudit(ctx, tx, actor, "shipment.process", audit.EntityShipment, shipment.ID, changes); err != nil {
			return err
		}
		if err := s.emit(ctx, tx, actor, enums.EventShipmentProcessed, enums.AggregateShipment, shipment.ID, payloads.ShipmentProcessedEvent{
			ShipmentID:      shipment.ID,
			PurchaseOrderID: shipment.PurchaseOrderID,
			WarehouseID:     warehouseID,
			ProcessedBy:     processor,
			ProcessedAt:     now,
			Movements:       movementRows(moves),
		}); err != nil {
			return err
		}
		out = shipmentToDTO(shipment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) RejectShipment(ctx context.Context, actor audit.Actor, id uuid.UUID, input RejectShipmentInput) (*ShipmentDTO, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	var out ShipmentDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindShipment(ctx, id, true)
		if err != nil {
			return notFoundOr(err, "shipment")
		}
		if shipment.Status != enums.ShipmentStatusAssigned {
			return shipmentConflict(shipment.Status, "only assigned shipments can be rejected")
		}
		now := s.now()
		prev := shipment.Status
		if err := s.applyShipment(ctx, repo, shipment, []enums.ShipmentStatus{enums.ShipmentStatusAssigned}, enums.ShipmentStatusRejected, map[string]any{
			"rejected_at":      now,
			"rejection_reason": reason,
		}); err != nil {
			return err
		}
		shipment.RejectedAt = &now
		shipment.RejectionReason = &reason

		if err := s.recordDecision(ctx, tx, actor, audit.EntityShipment, shipment.ID, enums.ApprovalRejected, reason); err != nil {
			return err
		}
		changes := statusChange(prev, shipment.Status)
		changes["reason"] = reason
		if err := s.recordAudit(ctx, tx, actor, "shipment.reject", audit.EntityShipment, shipment.ID, changes); err != nil {
			return err
		}
		out = shipmentToDTO(shipment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) applyShipment(ctx context.Context, repo *Repository, shipment *models.IncomingShipment, from []enums.ShipmentStatus, to enums.ShipmentStatus, updates map[string]any) error {
	updates["status"] = to
	if err := repo.TransitionShipment(ctx, shipment.ID, from, updates); err != nil {
		if errors.Is(err, errStaleStatus) {
			return shipmentConflict(shipment.Status, "shipment status changed concurrently")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update shipment status")
	}
	shipment.Status = to
	return nil
}

func shipmentConflict(current enums.ShipmentStatus, msg string) error {
	return pkgerrors.StateConflict(audit.EntityShipment, string(current), msg)
}

func containsStatus(set []enums.ShipmentStatus, status enums.ShipmentStatus) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}
