package purchasing

import (
	"context"
	"errors"
	"strings"
	"time"

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

func (s *service) ListRFQs(ctx context.Context, params RFQListParams) (pagination.Page[RFQDTO], error) {
	rows, limit, err := s.repo.ListRFQs(ctx, params)
	if err != nil {
		return pagination.Page[RFQDTO]{}, pagination.ListError(err, "list rfqs")
	}
	dtos := make([]RFQDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, rfqToDTO(&rows[i]))
	}
	return pagination.BuildPage(dtos, limit, func(d RFQDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) GetRFQ(ctx context.Context, id uuid.UUID) (*RFQDTO, error) {
	rfq, err := s.repo.FindRFQ(ctx, id, false)
	if err != nil {
		return nil, notFoundOr(err, "rfq")
	}
	dto := rfqToDTO(rfq)
	return &dto, nil
}

func (s *service) CreateRFQ(ctx context.Context, actor audit.Actor, input CreateRFQInput) (*RFQDTO, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	var out RFQDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.activeSupplier(ctx, repo, input.SupplierID); err != nil {
			return err
		}
		items, err := s.buildRFQItems(ctx, repo, input.Items)
		if err != nil {
			return err
		}

		rfq := &models.RFQ{
			Number:     docnumber.New(docnumber.PrefixRFQ, s.now()),
			SupplierID: input.SupplierID,
			Status:     enums.RFQStatusDraft,
			Notes:      trimmed(input.Notes),
			CreatedBy:  actor.UserID,
			Items:      items,
		}
		if err := repo.CreateRFQ(ctx, rfq); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create rfq")
		}
		if err := s.recordAudit(ctx, tx, actor, "rfq.create", audit.EntityRFQ, rfq.ID, map[string]any{
			"number": rfq.Number, "supplier_id": rfq.SupplierID, "items": len(items),
		}); err != nil {
			return err
		}
		loaded, err := repo.FindRFQ(ctx, rfq.ID, false)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload rfq")
		}
		out = rfqToDTO(loaded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) UpdateRFQ(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateRFQInput) (*RFQDTO, error) {
	var out RFQDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rfq, err := repo.FindRFQ(ctx, id, true)
		if err != nil {
			return notFoundOr(err, "rfq")
		}
		if rfq.Status != enums.RFQStatusDraft {
			return rfqConflict(rfq.Status, "rfq can only be edited while draft")
		}

		changes := map[string]any{}
		if input.Notes != nil {
			if err := repo.UpdateRFQNotes(ctx, id, trimmed(input.Notes)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update rfq notes")
			}
			changes["notes"] = true
		}
		if input.Items != nil {
			if len(input.Items) == 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
			}
			items, err := s.buildRFQItems(ctx, repo, input.Items)
			if err != nil {
				return err
			}
			if err := repo.ReplaceRFQItems(ctx, id, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace rfq items")
			}
			changes["items"] = len(items)
		}
		if err := s.recordAudit(ctx, tx, actor, "rfq.update", audit.EntityRFQ, id, changes); err != nil {
			return err
		}
		loaded, err := repo.FindRFQ(ctx, id, false)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload rfq")
		}
		out = rfqToDTO(loaded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) SendRFQ(ctx context.Context, actor audit.Actor, id uuid.UUID) (*RFQDTO, error) {
	return s.transitionRFQ(ctx, id, enums.RFQStatusDraft, "rfq can only be sent from draft",
		func(tx *gorm.DB, repo *Repository, rfq *models.RFQ) error {
			now := s.now()
			if err := s.applyRFQ(ctx, repo, rfq, enums.RFQStatusSent, map[string]any{"sent_at": now}); err != nil {
				return err
			}
			rfq.SentAt = &now
			if err := s.recordAudit(ctx, tx, actor, "rfq.send", audit.EntityRFQ, rfq.ID, statusChange(enums.RFQStatusDraft, enums.RFQStatusSent)); err != nil {
				return err
			}

			event, err := s.rfqSentEvent(ctx, repo, rfq, now)
			if err != nil {
				return err
			}
			return s.emit(ctx, tx, actor, enums.EventRFQSent, enums.AggregateRFQ, rfq.ID, event)
		})
}

func (s *service) RecordQuote(ctx context.Context, actor audit.Actor, id uuid.UUID, input RecordQuoteInput) (*RFQDTO, error) {
	return s.transitionRFQ(ctx, id, enums.RFQStatusSent, "quotes can only be recorded for sent rfqs",
		func(tx *gorm.DB, repo *Repository, rfq *models.RFQ) error {
			prices := make(map[uuid.UUID]decimal.Decimal, len(input.Items))
			for _, line := range input.Items {
				if line.UnitPrice.IsNegative() {
					return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
				}
				prices[line.ItemID] = line.UnitPrice
			}

			total := decimal.Zero
			for i := range rfq.Items {
				item := &rfq.Items[i]
				price, ok := prices[item.ID]
				if !ok {
					return pkgerrors.New(pkgerrors.CodeValidation, "every rfq item needs a quoted price").
						WithDetails(map[string]any{"item_id": item.ID})
				}
				delete(prices, item.ID)
				if err := repo.SetRFQItemPrice(ctx, item.ID, price); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store quoted price")
				}
				item.QuotedUnitPrice = decimal.NewNullDecimal(price)
				total = total.Add(item.Quantity.Mul(price))
			}
			if len(prices) > 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "quote references items outside this rfq")
			}
			if input.QuotedTotal != nil {
				if input.QuotedTotal.IsNegative() {
					return pkgerrors.New(pkgerrors.CodeValidation, "quoted total cannot be negative")
				}
				total = *input.QuotedTotal
			}

			now := s.now()
			updates := map[string]any{
				"received_at":          now,
				"quoted_total":         decimal.NewNullDecimal(total),
				"quoted_delivery_date": input.DeliveryDate,
			}
			if err := s.applyRFQ(ctx, repo, rfq, enums.RFQStatusReceived, updates); err != nil {
				return err
			}
			rfq.ReceivedAt = &now
			rfq.QuotedTotal = decimal.NewNullDecimal(total)
			rfq.QuotedDeliveryDate = input.DeliveryDate
			return s.recordAudit(ctx, tx, actor, "rfq.record_quote", audit.EntityRFQ, rfq.ID, map[string]any{
				"quoted_total": total, "status": enums.RFQStatusReceived,
			})
		})
}

func (s *service) ApproveRFQ(ctx context.Context, actor audit.Actor, id uuid.UUID, input DecisionInput) (*RFQDTO, error) {
	return s.decideRFQ(ctx, actor, id, enums.RFQStatusApproved, strings.TrimSpace(input.Reason))
}

func (s *service) RejectRFQ(ctx context.Context, actor audit.Actor, id uuid.UUID, input DecisionInput) (*RFQDTO, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	return s.decideRFQ(ctx, actor, id, enums.RFQStatusRejected, reason)
}

func (s *service) decideRFQ(ctx context.Context, actor audit.Actor, id uuid.UUID, to enums.RFQStatus, reason string) (*RFQDTO, error) {
	return s.transitionRFQ(ctx, id, enums.RFQStatusReceived, "only received rfqs can be approved or rejected",
		func(tx *gorm.DB, repo *Repository, rfq *models.RFQ) error {
			now := s.now()
			decision := enums.ApprovalApproved
			updates := map[string]any{}
			if to == enums.RFQStatusApproved {
				approver := actor.UserID
				updates["approved_at"] = now
				updates["approved_by"] = approver
				rfq.ApprovedAt = &now
				rfq.ApprovedBy = &approver
			} else {
				decision = enums.ApprovalRejected
				updates["rejected_at"] = now
				updates["rejection_reason"] = reason
				rfq.RejectedAt = &now
				rfq.RejectionReason = &reason
			}
			if err := s.applyRFQ(ctx, repo, rfq, to, updates); err != nil {
				return err
			}
			if err := s.recordDecision(ctx, tx, actor, audit.EntityRFQ, rfq.ID, decision, reason); err != nil {
				return err
			}
			if err := s.recordAudit(ctx, tx, actor, "rfq."+string(decision), audit.EntityRFQ, rfq.ID, statusChange(enums.RFQStatusReceived, to)); err != nil {
				return err
			}

			event := payloads.RFQDecidedEvent{
				RFQID:     rfq.ID,
				RFQNumber: rfq.Number,
				Status:    to,
				Reason:    reason,
			}
			if creator, err := repo.FindUser(ctx, rfq.CreatedBy); err == nil {
				event.CreatedByEmail = creator.Email
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load rfq creator")
			}
			return s.emit(ctx, tx, actor, enums.EventRFQDecided, enums.AggregateRFQ, rfq.ID, event)
		})
}

// ConvertRFQ creates a draft purchase order from an approved RFQ at its quoted prices.
// An RFQ converts at most once.
func (s *service) ConvertRFQ(ctx context.Context, actor audit.Actor, id uuid.UUID) (*PurchaseOrderDTO, error) {
	var out PurchaseOrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rfq, err := repo.FindRFQ(ctx, id, true)
		if err != nil {
			return notFoundOr(err, "rfq")
		}
		if rfq.Status != enums.RFQStatusApproved {
			return rfqConflict(rfq.Status, "only approved rfqs can be converted")
		}
		if _, err := repo.PurchaseOrderForRFQ(ctx, rfq.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "rfq already converted to a purchase order")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing purchase order")
		}

		rfqID := rfq.ID
		po := &models.PurchaseOrder{
			Number:       docnumber.New(docnumber.PrefixPurchaseOrder, s.now()),
			SupplierID:   rfq.SupplierID,
			RFQID:        &rfqID,
			Status:       enums.PurchaseOrderStatusDraft,
			ExpectedDate: rfq.QuotedDeliveryDate,
			Notes:        rfq.Notes,
			CreatedBy:    actor.UserID,
		}
		for _, item := range rfq.Items {
			price := decimal.Zero
			if item.QuotedUnitPrice.Valid {
				price = item.QuotedUnitPrice.Decimal
			}
			po.Lines = append(po.Lines, newPOLine(item.ProductID, item.Quantity, price))
		}
		po.Total = linesTotal(po.Lines)

		if err := repo.CreatePurchaseOrder(ctx, po); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "rfq already converted to a purchase order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create purchase order")
		}
		if err := s.recordAudit(ctx, tx, actor, "rfq.convert", audit.EntityRFQ, rfq.ID, map[string]any{"purchase_order_id": po.ID}); err != nil {
			return err
		}
		if err := s.recordAudit(ctx, tx, actor, "po.create", audit.EntityPurchaseOrder, po.ID, map[string]any{
			"number": po.Number, "rfq_id": rfq.ID, "total": po.Total,
		}); err != nil {
			return err
		}
		po.Supplier = rfq.Supplier
		out = poToDTO(po, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type rfqMutation func(tx *gorm.DB, repo *Repository, rfq *models.RFQ) error

// transitionRFQ locks the RFQ, checks the expected status and runs mutate in one transaction.
func (s *service) transitionRFQ(ctx context.Context, id uuid.UUID, from enums.RFQStatus, conflictMsg string, mutate rfqMutation) (*RFQDTO, error) {
	var out RFQDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rfq, err := repo.FindRFQ(ctx, id, true)
		if err != nil {
			return notFoundOr(err, "rfq")
		}
		if rfq.Status != from {
			return rfqConflict(rfq.Status, conflictMsg)
		}
		if err := mutate(tx, repo, rfq); err != nil {
			return err
		}
		out = rfqToDTO(rfq)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) applyRFQ(ctx context.Context, repo *Repository, rfq *models.RFQ, to enums.RFQStatus, updates map[string]any) error {
	updates["status"] = to
	if err := repo.TransitionRFQ(ctx, rfq.ID, rfq.Status, updates); err != nil {
		if errors.Is(err, errStaleStatus) {
			return rfqConflict(rfq.Status, "rfq status changed concurrently")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update rfq status")
	}
	rfq.Status = to
	return nil
}

func (s *service) rfqSentEvent(ctx context.Context, repo *Repository, rfq *models.RFQ, sentAt time.Time) (payloads.RFQSentEvent, error) {
	event := payloads.RFQSentEvent{
		RFQID:      rfq.ID,
		RFQNumber:  rfq.Number,
		SupplierID: rfq.SupplierID,
		SentAt:     sentAt,
	}
	if rfq.Supplier != nil {
		event.SupplierName = rfq.Supplier.Name
		event.SupplierEmail = rfq.Supplier.Email
	}
	ids := make([]uuid.UUID, 0, len(rfq.Items))
	for _, item := range rfq.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := repo.FindProducts(ctx, ids)
	if err != nil {
		return event, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	for _, item := range rfq.Items {
		p := products[item.ProductID]
		event.Items = append(event.Items, payloads.RFQItemLine{
			ProductSKU:  p.SKU,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			Unit:        string(p.Unit),
		})
	}
	return event, nil
}

func (s *service) activeSupplier(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Supplier, error) {
	supplier, err := repo.FindSupplier(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier")
	}
	if !supplier.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier is inactive")
	}
	return supplier, nil
}

func (s *service) buildRFQItems(ctx context.Context, repo *Repository, inputs []RFQItemInput) ([]models.RFQItem, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ProductID)
	}
	if err := requireProducts(ctx, repo, ids); err != nil {
		return nil, err
	}
	items := make([]models.RFQItem, 0, len(inputs))
	for i, in := range inputs {
		if !in.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive").
				WithDetails(map[string]any{"index": i})
		}
		items = append(items, models.RFQItem{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			Notes:     trimmed(in.Notes),
		})
	}
	return items, nil
}

func requireProducts(ctx context.Context, repo *Repository, ids []uuid.UUID) error {
	products, err := repo.FindProducts(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	for _, id := range ids {
		if _, ok := products[id]; !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "product does not exist").
				WithDetails(map[string]any{"product_id": id})
		}
	}
	return nil
}

func rfqConflict(current enums.RFQStatus, msg string) error {
	return pkgerrors.StateConflict(audit.EntityRFQ, string(current), msg)
}

func statusChange[T ~string](from, to T) map[string]any {
	return map[string]any{"status": map[string]T{"from": from, "to": to}}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	if out == "" {
		return nil
	}
	return &out
}
