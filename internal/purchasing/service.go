package purchasing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// Service drives the RFQ and purchase order workflows.
type Service interface {
	ListRFQs(ctx context.Context, params RFQListParams) (pagination.Page[RFQDTO], error)
	GetRFQ(ctx context.Context, id uuid.UUID) (*RFQDTO, error)
	CreateRFQ(ctx context.Context, actor audit.Actor, input CreateRFQInput) (*RFQDTO, error)
	UpdateRFQ(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateRFQInput) (*RFQDTO, error)
	SendRFQ(ctx context.Context, actor audit.Actor, id uuid.UUID) (*RFQDTO, error)
	RecordQuote(ctx context.Context, actor audit.Actor, id uuid.UUID, input RecordQuoteInput) (*RFQDTO, error)
	ApproveRFQ(ctx context.Context, actor audit.Actor, id uuid.UUID, input DecisionInput) (*RFQDTO, error)
	RejectRFQ(ctx context.Context, actor audit.Actor, id uuid.UUID, input DecisionInput) (*RFQDTO, error)
	ConvertRFQ(ctx context.Context, actor audit.Actor, id uuid.UUID) (*PurchaseOrderDTO, error)

	ListPurchaseOrders(ctx context.Context, params POListParams) (pagination.Page[PurchaseOrderDTO], error)
	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*PurchaseOrderDTO, error)
	CreatePurchaseOrder(ctx context.Context, actor audit.Actor, input CreatePOInput) (*PurchaseOrderDTO, error)
	SendPurchaseOrder(ctx context.Context, actor audit.Actor, id uuid.UUID) (*PurchaseOrderDTO, error)
	ConfirmPurchaseOrder(ctx context.Context, actor audit.Actor, id uuid.UUID) (*PurchaseOrderDTO, error)
	ApprovePurchaseOrder(ctx context.Context, actor audit.Actor, id uuid.UUID, input DecisionInput) (*PurchaseOrderDTO, error)
	CancelPurchaseOrder(ctx context.Context, actor audit.Actor, id uuid.UUID, input DecisionInput) (*PurchaseOrderDTO, error)
	ClosePurchaseOrder(ctx context.Context, actor audit.Actor, id uuid.UUID) (*PurchaseOrderDTO, error)
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

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "purchasing repository required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit writer required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
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

func (s *service) recordAudit(ctx context.Context, tx *gorm.DB, actor audit.Actor, action, entity string, id uuid.UUID, changes any) error {
	if err := s.audit.Record(ctx, tx, audit.Entry{
		Actor:      actor,
		Action:     action,
		EntityType: entity,
		EntityID:   id,
		Changes:    changes,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record audit")
	}
	return nil
}

func (s *service) recordDecision(ctx context.Context, tx *gorm.DB, actor audit.Actor, entity string, id uuid.UUID, decision enums.ApprovalDecision, comment string) error {
	d := audit.Decision{
		EntityType: entity,
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

func (s *service) emit(ctx context.Context, tx *gorm.DB, actor audit.Actor, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, id uuid.UUID, data any) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   id,
		Actor:         actor.Ref(),
		Data:          data,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit outbox event")
	}
	return nil
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load "+what)
}
