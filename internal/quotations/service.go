package quotations

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
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/payloads"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// Service drives sales quotations from draft through review.
type Service interface {
	List(ctx context.Context, params ListParams) (pagination.Page[QuotationDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*QuotationDTO, error)
	Create(ctx context.Context, actor audit.Actor, input CreateQuotationInput) (*QuotationDTO, error)
	Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateQuotationInput) (*QuotationDTO, error)
	Submit(ctx context.Context, actor audit.Actor, id uuid.UUID) (*QuotationDTO, error)
	Approve(ctx context.Context, actor audit.Actor, id uuid.UUID, input ApproveInput) (*QuotationDTO, error)
	Reject(ctx context.Context, actor audit.Actor, id uuid.UUID, input RejectInput) (*QuotationDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo     *Repository
	TxRunner txRunner
	Audit    audit.Writer
	Outbox   outbox.Emitter
	Clock    func() time.Time
}

type service struct {
	repo   *Repository
	tx     txRunner
	audit  audit.Writer
	outbox outbox.Emitter
	now    func() time.Time
}

var (
	hundred         = decimal.NewFromInt(100)
	editableStatus  = []enums.QuotationStatus{enums.QuotationStatusDraft, enums.QuotationStatusRejected}
	submittedStatus = []enums.QuotationStatus{enums.QuotationStatusSubmitted}
)

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil || params.TxRunner == nil || params.Audit == nil || params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quotation service dependencies missing")
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:   params.Repo,
		tx:     params.TxRunner,
		audit:  params.Audit,
		outbox: params.Outbox,
		now:    clock,
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[QuotationDTO], error) {
	rows, limit, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[QuotationDTO]{}, pagination.ListError(err, "list quotations")
	}
	dtos := make([]QuotationDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, toDTO(&rows[i]))
	}
	return pagination.BuildPage(dtos, limit, func(d QuotationDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*QuotationDTO, error) {
	quote, err := s.repo.Find(ctx, id, false)
	if err != nil {
		return nil, notFoundOr(err)
	}
	dto := toDTO(quote)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, actor audit.Actor, input CreateQuotationInput) (*QuotationDTO, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	taxRate, err := resolveTaxRate(input.TaxRate, decimal.Zero)
	if err != nil {
		return nil, err
	}

	quote := &models.SalesQuotation{
		Number:     docnumber.New(docnumber.PrefixQuotation, s.now()),
		CustomerID: input.CustomerID,
		Status:     enums.QuotationStatusDraft,
		ValidUntil: input.ValidUntil,
		Notes:      trimmed(input.Notes),
		TaxRate:    taxRate,
		CreatedBy:  actor.UserID,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		customer, err := activeCustomer(ctx, repo, input.CustomerID)
		if err != nil {
			return err
		}
		lines, err := buildLines(ctx, repo, input.Lines)
		if err != nil {
			return err
		}
		quote.Lines = lines
		applyTotals(quote)
		if err := repo.Create(ctx, quote); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "quotation number collision, retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create quotation")
		}
		quote.Customer = customer
		return s.recordAudit(ctx, tx, actor, "quotation.create", quote.ID, map[string]any{
			"number":   quote.Number,
			"customer": customer.Code,
			"total":    quote.Total,
		})
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(quote)
	return &dto, nil
}

// Update edits a draft or rejected quotation. Replacing lines recomputes totals.
func (s *service) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateQuotationInput) (*QuotationDTO, error) {
	var out QuotationDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := repo.Find(ctx, id, true)
		if err != nil {
			return notFoundOr(err)
		}
		if !quote.Status.IsEditable() {
			return conflict(quote.Status, "only draft or rejected quotations can be edited")
		}
		changes := map[string]any{}
		if input.ValidUntil != nil {
			quote.ValidUntil = input.ValidUntil
			changes["valid_until"] = input.ValidUntil
		}
		if input.Notes != nil {
			quote.Notes = trimmed(input.Notes)
			changes["notes"] = quote.Notes
		}
		if input.TaxRate != nil {
			rate, err := resolveTaxRate(input.TaxRate, quote.TaxRate)
			if err != nil {
				return err
			}
			changes["tax_rate"] = map[string]any{"from": quote.TaxRate, "to": rate}
			quote.TaxRate = rate
		}
		if input.Lines != nil {
			if len(input.Lines) == 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
			}
			lines, err := buildLines(ctx, repo, input.Lines)
			if err != nil {
				return err
			}
			quote.Lines = lines
			changes["lines"] = len(lines)
		}
		prevTotal := quote.Total
		applyTotals(quote)
		if !prevTotal.Equal(quote.Total) {
			changes["total"] = map[string]any{"from": prevTotal, "to": quote.Total}
		}
		if input.Lines != nil {
			err = repo.ReplaceLines(ctx, quote)
		} else {
			err = repo.SaveHeader(ctx, quote)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update quotation")
		}
		if err := s.recordAudit(ctx, tx, actor, "quotation.update", quote.ID, changes); err != nil {
			return err
		}
		out = toDTO(quote)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit sends a draft or a previously rejected quotation for review.
func (s *service) Submit(ctx context.Context, actor audit.Actor, id uuid.UUID) (*QuotationDTO, error) {
	return s.transition(ctx, id, editableStatus, "only draft or rejected quotations can be submitted",
		func(tx *gorm.DB, repo *Repository, quote *models.SalesQuotation) error {
			now := s.now()
			prev := quote.Status
			if err := apply(ctx, repo, quote, editableStatus, enums.QuotationStatusSubmitted, map[string]any{
				"submitted_at":     now,
				"rejected_at":      nil,
				"rejection_reason": nil,
			}); err != nil {
				return err
			}
			quote.SubmittedAt = &now
			quote.RejectedAt = nil
			quote.RejectionReason = nil
			return s.recordAudit(ctx, tx, actor, "quotation.submit", quote.ID, statusChange(prev, quote.Status))
		})
}

// Approve records the decision and queues the customer email when the
// customer has an address on file.
func (s *service) Approve(ctx context.Context, actor audit.Actor, id uuid.UUID, input ApproveInput) (*QuotationDTO, error) {
	return s.transition(ctx, id, submittedStatus, "only submitted quotations can be approved",
		func(tx *gorm.DB, repo *Repository, quote *models.SalesQuotation) error {
			now := s.now()
			prev := quote.Status
			approver := actor.UserID
			if err := apply(ctx, repo, quote, submittedStatus, enums.QuotationStatusApproved, map[string]any{
				"approved_at": now,
				"approved_by": approver,
			}); err != nil {
				return err
			}
			quote.ApprovedAt = &now
			quote.ApprovedBy = &approver

			if err := s.recordDecision(ctx, tx, actor, quote.ID, enums.ApprovalApproved, strings.TrimSpace(input.Comment)); err != nil {
				return err
			}
			changes := statusChange(prev, quote.Status)
			email := ""
			if quote.Customer != nil && quote.Customer.Email != nil {
				email = *quote.Customer.Email
			}
			changes["customer_notified"] = email != ""
			if err := s.recordAudit(ctx, tx, actor, "quotation.approve", quote.ID, changes); err != nil {
				return err
			}
			if email == "" {
				return nil
			}
			return s.emit(ctx, tx, actor, quote.ID, payloads.QuotationApprovedEvent{
				QuotationID:     quote.ID,
				QuotationNumber: quote.Number,
				CustomerName:    quote.Customer.Name,
				CustomerEmail:   email,
				Total:           quote.Total,
				ValidUntil:      quote.ValidUntil,
			})
		})
}

func (s *service) Reject(ctx context.Context, actor audit.Actor, id uuid.UUID, input RejectInput) (*QuotationDTO, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	return s.transition(ctx, id, submittedStatus, "only submitted quotations can be rejected",
		func(tx *gorm.DB, repo *Repository, quote *models.SalesQuotation) error {
			now := s.now()
			prev := quote.Status
			if err := apply(ctx, repo, quote, submittedStatus, enums.QuotationStatusRejected, map[string]any{
				"rejected_at":      now,
				"rejection_reason": reason,
			}); err != nil {
				return err
			}
			quote.RejectedAt = &now
			quote.RejectionReason = &reason
			if err := s.recordDecision(ctx, tx, actor, quote.ID, enums.ApprovalRejected, reason); err != nil {
				return err
			}
			changes := statusChange(prev, quote.Status)
			changes["reason"] = reason
			return s.recordAudit(ctx, tx, actor, "quotation.reject", quote.ID, changes)
		})
}

type mutation func(tx *gorm.DB, repo *Repository, quote *models.SalesQuotation) error

func (s *service) transition(ctx context.Context, id uuid.UUID, from []enums.QuotationStatus, conflictMsg string, mutate mutation) (*QuotationDTO, error) {
	var out QuotationDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := repo.Find(ctx, id, true)
		if err != nil {
			return notFoundOr(err)
		}
		if !containsStatus(from, quote.Status) {
			return conflict(quote.Status, conflictMsg)
		}
		if err := mutate(tx, repo, quote); err != nil {
			return err
		}
		out = toDTO(quote)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func apply(ctx context.Context, repo *Repository, quote *models.SalesQuotation, from []enums.QuotationStatus, to enums.QuotationStatus, updates map[string]any) error {
	updates["status"] = to
	if err := repo.Transition(ctx, quote.ID, from, updates); err != nil {
		if errors.Is(err, errStaleStatus) {
			return conflict(quote.Status, "quotation status changed concurrently")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update quotation status")
	}
	quote.Status = to
	return nil
}

func activeCustomer(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Customer, error) {
	c, err := repo.FindCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	if c.Status != enums.CustomerStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer is inactive")
	}
	return c, nil
}

func buildLines(ctx context.Context, repo *Repository, inputs []LineInput) ([]models.SalesQuotationLine, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ProductID)
	}
	products, err := repo.FindProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	lines := make([]models.SalesQuotationLine, 0, len(inputs))
	for i, in := range inputs {
		product, ok := products[in.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product does not exist").
				WithDetails(map[string]any{"line": i, "product_id": in.ProductID})
		}
		if !in.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"line": i})
		}
		price := product.SalePrice
		if in.UnitPrice != nil {
			price = *in.UnitPrice
		}
		if price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative").
				WithDetails(map[string]any{"line": i})
		}
		if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_percent must be between 0 and 100").
				WithDetails(map[string]any{"line": i})
		}
		gross := in.Quantity.Mul(price)
		lines = append(lines, models.SalesQuotationLine{
			ProductID:       in.ProductID,
			Description:     trimmed(in.Description),
			Quantity:        in.Quantity,
			UnitPrice:       price,
			DiscountPercent: in.DiscountPercent,
			LineTotal:       gross.Sub(lineDiscount(gross, in.DiscountPercent)).Round(4),
		})
	}
	return lines, nil
}

// applyTotals derives header totals from the lines: subtotal is the gross sum,
// tax applies to the discounted amount.
func applyTotals(quote *models.SalesQuotation) {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, l := range quote.Lines {
		gross := l.Quantity.Mul(l.UnitPrice)
		subtotal = subtotal.Add(gross)
		discount = discount.Add(lineDiscount(gross, l.DiscountPercent))
	}
	quote.Subtotal = subtotal.Round(4)
	quote.DiscountTotal = discount.Round(4)
	net := quote.Subtotal.Sub(quote.DiscountTotal)
	quote.TaxTotal = net.Mul(quote.TaxRate).Round(4)
	quote.Total = net.Add(quote.TaxTotal)
}

func lineDiscount(gross, percent decimal.Decimal) decimal.Decimal {
	return gross.Mul(percent).Div(hundred)
}

func resolveTaxRate(in *decimal.Decimal, fallback decimal.Decimal) (decimal.Decimal, error) {
	if in == nil {
		return fallback, nil
	}
	if in.IsNegative() || in.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "tax_rate must be a fraction between 0 and 1")
	}
	return *in, nil
}

func (s *service) recordAudit(ctx context.Context, tx *gorm.DB, actor audit.Actor, action string, id uuid.UUID, changes any) error {
	if err := s.audit.Record(ctx, tx, audit.Entry{
		Actor:      actor,
		Action:     action,
		EntityType: audit.EntityQuotation,
		EntityID:   id,
		Changes:    changes,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record audit")
	}
	return nil
}

func (s *service) recordDecision(ctx context.Context, tx *gorm.DB, actor audit.Actor, id uuid.UUID, decision enums.ApprovalDecision, comment string) error {
	d := audit.Decision{
		EntityType: audit.EntityQuotation,
		EntityID:   id,
		Decision:   decision,
		DecidedBy:  actor.UserID,
	}
	if comment != "" {
		d.Comment = &comment
	}
	if err := s.audit.RecordDecision(ctx, tx, d); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record approval")
	}
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, actor audit.Actor, id uuid.UUID, data payloads.QuotationApprovedEvent) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventQuotationApproved,
		AggregateType: enums.AggregateSalesQuotation,
		AggregateID:   id,
		Actor:         actor.Ref(),
		Data:          data,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit outbox event")
	}
	return nil
}

func conflict(current enums.QuotationStatus, msg string) error {
	return pkgerrors.StateConflict(audit.EntityQuotation, string(current), msg)
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load quotation")
}

func containsStatus(set []enums.QuotationStatus, status enums.QuotationStatus) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}

func statusChange(from, to enums.QuotationStatus) map[string]any {
	return map[string]any{"status": map[string]any{"from": from, "to": to}}
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
