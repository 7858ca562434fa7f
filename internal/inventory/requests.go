package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

func (s *service) ListStockRequests(ctx context.Context, params StockRequestListParams) (pagination.Page[StockRequestDTO], error) {
	rows, limit, err := s.repo.ListRequests(ctx, params)
	if err != nil {
		return pagination.Page[StockRequestDTO]{}, pagination.ListError(err, "list stock requests")
	}
	dtos := make([]StockRequestDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, requestToDTO(&rows[i]))
	}
	return pagination.BuildPage(dtos, limit, func(d StockRequestDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) GetStockRequest(ctx context.Context, id uuid.UUID) (*StockRequestDTO, error) {
	req, err := s.repo.FindRequest(ctx, id, false)
	if err != nil {
		return nil, notFoundOr(err, "stock request")
	}
	dto := requestToDTO(req)
	return &dto, nil
}

// CreateStockRequest records a pending adjustment or transfer. Stock is untouched
// until a different user approves it.
func (s *service) CreateStockRequest(ctx context.Context, actor audit.Actor, input CreateStockRequestInput) (*StockRequestDTO, error) {
	switch input.Type {
	case enums.StockRequestAdjustment:
		if err := validateAdjustment(input.Quantity, input.Reason); err != nil {
			return nil, err
		}
		if input.TargetWarehouseID != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustments do not take a target warehouse")
		}
	case enums.StockRequestTransfer:
		if input.TargetWarehouseID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "target_warehouse_id is required for transfers")
		}
		if err := validateTransfer(input.Quantity, input.WarehouseID, *input.TargetWarehouseID, input.Reason); err != nil {
			return nil, err
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown stock request type")
	}

	req := &models.StockMovementRequest{
		Type:              input.Type,
		Status:            enums.StockRequestStatusPending,
		ProductID:         input.ProductID,
		WarehouseID:       input.WarehouseID,
		TargetWarehouseID: input.TargetWarehouseID,
		Quantity:          input.Quantity,
		Reason:            strings.TrimSpace(input.Reason),
		RequestedBy:       actor.UserID,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := requireProduct(ctx, repo, input.ProductID); err != nil {
			return err
		}
		if _, err := requireActiveWarehouse(ctx, repo, input.WarehouseID); err != nil {
			return err
		}
		if input.TargetWarehouseID != nil {
			if _, err := requireActiveWarehouse(ctx, repo, *input.TargetWarehouseID); err != nil {
				return err
			}
		}
		if err := repo.CreateRequest(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create stock request")
		}
		return s.recordAudit(ctx, tx, actor, "stock_request.create", audit.EntityStockRequest, req.ID, map[string]any{
			"type":     req.Type,
			"quantity": req.Quantity,
		})
	})
	if err != nil {
		return nil, err
	}
	dto := requestToDTO(req)
	return &dto, nil
}

// ApproveStockRequest applies the requested change in the same transaction as
// the status change.
func (s *service) ApproveStockRequest(ctx context.Context, actor audit.Actor, id uuid.UUID, input StockRequestDecisionInput) (*StockRequestDTO, error) {
	return s.decideRequest(ctx, actor, id, enums.StockRequestStatusApproved, input.Note, func(tx *gorm.DB, req *models.StockMovementRequest) error {
		if req.RequestedBy == actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "requester cannot approve their own stock request")
		}
		refID := req.ID
		var (
			res *StockResult
			err error
		)
		switch req.Type {
		case enums.StockRequestAdjustment:
			res, err = s.adjustTx(ctx, tx, actor, AdjustmentInput{
				ProductID:   req.ProductID,
				WarehouseID: req.WarehouseID,
				Delta:       req.Quantity,
				Reason:      req.Reason,
			}, refStockRequest, &refID)
		case enums.StockRequestTransfer:
			if req.TargetWarehouseID == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "transfer request has no target warehouse")
			}
			res, err = s.transferTx(ctx, tx, actor, TransferInput{
				ProductID:       req.ProductID,
				FromWarehouseID: req.WarehouseID,
				ToWarehouseID:   *req.TargetWarehouseID,
				Quantity:        req.Quantity,
				Reason:          req.Reason,
			}, refStockRequest, &refID)
		default:
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown stock request type")
		}
		if err != nil {
			return err
		}
		return s.emitStockAdjusted(ctx, tx, actor, res, req.Reason, &refID)
	})
}

func (s *service) RejectStockRequest(ctx context.Context, actor audit.Actor, id uuid.UUID, input StockRequestDecisionInput) (*StockRequestDTO, error) {
	return s.decideRequest(ctx, actor, id, enums.StockRequestStatusRejected, input.Note, nil)
}

func (s *service) decideRequest(ctx context.Context, actor audit.Actor, id uuid.UUID, to enums.StockRequestStatus, note string, apply func(tx *gorm.DB, req *models.StockMovementRequest) error) (*StockRequestDTO, error) {
	note = strings.TrimSpace(note)
	var out StockRequestDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		req, err := repo.FindRequest(ctx, id, true)
		if err != nil {
			return notFoundOr(err, "stock request")
		}
		if req.Status != enums.StockRequestStatusPending {
			return pkgerrors.StateConflict(audit.EntityStockRequest, string(req.Status), "stock request has already been decided")
		}
		if apply != nil {
			if err := apply(tx, req); err != nil {
				return err
			}
		}

		now := s.now()
		decider := actor.UserID
		updates := map[string]any{
			"status":     to,
			"decided_by": decider,
			"decided_at": now,
		}
		if note != "" {
			updates["decision_note"] = note
			req.DecisionNote = &note
		}
		if err := repo.TransitionRequest(ctx, req.ID, enums.StockRequestStatusPending, updates); err != nil {
			if errors.Is(err, errStaleStatus) {
				return pkgerrors.StateConflict(audit.EntityStockRequest, string(req.Status), "stock request status changed concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update stock request")
		}
		prev := req.Status
		req.Status = to
		req.DecidedBy = &decider
		req.DecidedAt = &now

		decision := enums.ApprovalApproved
		action := "stock_request.approve"
		if to == enums.StockRequestStatusRejected {
			decision = enums.ApprovalRejected
			action = "stock_request.reject"
		}
		if err := s.recordDecision(ctx, tx, actor, audit.EntityStockRequest, req.ID, decision, note); err != nil {
			return err
		}
		if err := s.recordAudit(ctx, tx, actor, action, audit.EntityStockRequest, req.ID, statusChange(prev, to)); err != nil {
			return err
		}
		out = requestToDTO(req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
