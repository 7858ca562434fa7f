package inventory

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/lock"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// Service covers warehouses, stock records, movement requests and incoming shipments.
type Service interface {
	ListWarehouses(ctx context.Context, params WarehouseListParams) (pagination.Page[WarehouseDTO], error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseDTO, error)
	CreateWarehouse(ctx context.Context, actor audit.Actor, input CreateWarehouseInput) (*WarehouseDTO, error)
	UpdateWarehouse(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateWarehouseInput) (*WarehouseDTO, error)

	ListItems(ctx context.Context, params ItemListParams) (pagination.Page[ItemDTO], error)
	GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error)
	UpdateThresholds(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateThresholdsInput) (*ItemDTO, error)
	ListMovements(ctx context.Context, params MovementListParams) (pagination.Page[MovementDTO], error)
	Adjust(ctx context.Context, actor audit.Actor, input AdjustmentInput) (*StockResult, error)
	Transfer(ctx context.Context, actor audit.Actor, input TransferInput) (*StockResult, error)
	ExportItems(ctx context.Context, params ItemListParams, w io.Writer) error

	ListStockRequests(ctx context.Context, params StockRequestListParams) (pagination.Page[StockRequestDTO], error)
	GetStockRequest(ctx context.Context, id uuid.UUID) (*StockRequestDTO, error)
	CreateStockRequest(ctx context.Context, actor audit.Actor, input CreateStockRequestInput) (*StockRequestDTO, error)
	ApproveStockRequest(ctx context.Context, actor audit.Actor, id uuid.UUID, input StockRequestDecisionInput) (*StockRequestDTO, error)
	RejectStockRequest(ctx context.Context, actor audit.Actor, id uuid.UUID, input StockRequestDecisionInput) (*StockRequestDTO, error)

	ListShipments(ctx context.Context, params ShipmentListParams) (pagination.Page[ShipmentDTO], error)
	GetShipment(ctx context.Context, id uuid.UUID) (*ShipmentDTO, error)
	AssignWarehouse(ctx context.Context, actor audit.Actor, id uuid.UUID, input AssignWarehouseInput) (*ShipmentDTO, error)
	ProcessShipment(ctx context.Context, actor audit.Actor, id uuid.UUID, input ProcessShipmentInput) (*ShipmentDTO, error)
	RejectShipment(ctx context.Context, actor audit.Actor, id uuid.UUID, input RejectShipmentInput) (*ShipmentDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReceiptRecorder books accepted quantities against purchase order lines on
// the caller's transaction.
type ReceiptRecorder interface {
	RecordReceipt(ctx context.Context, tx *gorm.DB, poID uuid.UUID, received map[uuid.UUID]decimal.Decimal) (enums.PurchaseOrderStatus, error)
}

type ServiceParams struct {
	Repo        *Repository
	TxRunner    txRunner
	Audit       audit.Writer
	Outbox      outbox.Emitter
	Locker      lock.Locker
	Receipts    ReceiptRecorder
	ShipmentTTL time.Duration
	Logger      *logger.Logger
	Clock       func() time.Time
}

type service struct {
	repo        *Repository
	tx          txRunner
	audit       audit.Writer
	outbox      outbox.Emitter
	locker      lock.Locker
	receipts    ReceiptRecorder
	shipmentTTL time.Duration
	logg        *logger.Logger
	now         func() time.Time
}

const defaultShipmentTTL = 30 * time.Second

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory repository required")
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
	if params.Locker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "locker required")
	}
	if params.Receipts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "receipt recorder required")
	}
	ttl := params.ShipmentTTL
	if ttl <= 0 {
		ttl = defaultShipmentTTL
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:        params.Repo,
		tx:          params.TxRunner,
		audit:       params.Audit,
		outbox:      params.Outbox,
		locker:      params.Locker,
		receipts:    params.Receipts,
		shipmentTTL: ttl,
		logg:        params.Logger,
		now:         clock,
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

func statusChange[T ~string](from, to T) map[string]any {
	return map[string]any{"status": map[string]T{"from": from, "to": to}}
}
