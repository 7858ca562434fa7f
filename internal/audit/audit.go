package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// Entity types recorded in audit_logs and approvals.
const (
	EntityRFQ           = "rfq"
	EntityPurchaseOrder = "purchase_order"
	EntityShipment      = "incoming_shipment"
	EntityInventoryItem = "inventory_item"
	EntityStockRequest  = "stock_request"
	EntityQuotation     = "sales_quotation"
	EntityCustomer      = "customer"
	EntitySupplier      = "supplier"
	EntityProduct       = "product"
	EntityWarehouse     = "warehouse"
	EntityBatch         = "leather_batch"
	EntityUser          = "user"
)

// Actor is the authenticated caller performing a mutation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// Ref converts the actor to the outbox envelope form.
func (a Actor) Ref() *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Role: string(a.Role)}
}

// Entry describes one audit log row.
type Entry struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Changes    any
}

// Decision describes one approvals row.
type Decision struct {
	EntityType string
	EntityID   uuid.UUID
	Decision   enums.ApprovalDecision
	DecidedBy  uuid.UUID
	Comment    *string
}

// Writer is what domain services call inside their transaction.
type Writer interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	RecordDecision(ctx context.Context, tx *gorm.DB, decision Decision) error
}

// Repository persists and lists audit rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record inserts an audit log row on the caller's transaction.
func (r *Repository) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.Action == "" || entry.EntityType == "" || entry.EntityID == uuid.Nil {
		return fmt.Errorf("audit entry incomplete: action=%q entity=%q", entry.Action, entry.EntityType)
	}
	row := models.AuditLog{
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
	}
	if entry.Actor.UserID != uuid.Nil {
		id := entry.Actor.UserID
		row.ActorID = &id
	}
	if entry.Actor.Role != "" {
		role := string(entry.Actor.Role)
		row.ActorRole = &role
	}
	if entry.Changes != nil {
		data, err := json.Marshal(entry.Changes)
		if err != nil {
			return fmt.Errorf("encode audit changes: %w", err)
		}
		row.Changes = data
	}
	return tx.WithContext(ctx).Create(&row).Error
}

// RecordDecision inserts an approvals row on the caller's transaction.
func (r *Repository) RecordDecision(ctx context.Context, tx *gorm.DB, decision Decision) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if !decision.Decision.IsValid() {
		return fmt.Errorf("invalid approval decision %q", decision.Decision)
	}
	row := models.Approval{
		EntityType: decision.EntityType,
		EntityID:   decision.EntityID,
		Decision:   decision.Decision,
		DecidedBy:  decision.DecidedBy,
		Comment:    decision.Comment,
	}
	return tx.WithContext(ctx).Create(&row).Error
}

// ListParams filters the audit log listing.
type ListParams struct {
	EntityType string
	EntityID   *uuid.UUID
	ActorID    *uuid.UUID
	pagination.Params
}

// LogDTO is the transport shape of an audit row.
type LogDTO struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty"`
	ActorRole  *string         `json:"actor_role,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// List returns audit rows newest first.
func (r *Repository) List(ctx context.Context, params ListParams) (pagination.Page[LogDTO], error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if params.EntityType != "" {
		q = q.Where("entity_type = ?", params.EntityType)
	}
	if params.EntityID != nil {
		q = q.Where("entity_id = ?", *params.EntityID)
	}
	if params.ActorID != nil {
		q = q.Where("actor_id = ?", *params.ActorID)
	}
	q, limit, err := pagination.Apply(q, params.Params, "")
	if err != nil {
		return pagination.Page[LogDTO]{}, pagination.ListError(err, "list audit logs")
	}
	var rows []models.AuditLog
	if err := q.Find(&rows).Error; err != nil {
		return pagination.Page[LogDTO]{}, pagination.ListError(err, "list audit logs")
	}
	out := make([]LogDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, LogDTO{
			ID:         row.ID,
			ActorID:    row.ActorID,
			ActorRole:  row.ActorRole,
			Action:     row.Action,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Changes:    row.Changes,
			CreatedAt:  row.CreatedAt,
		})
	}
	return pagination.BuildPage(out, limit, func(d LogDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

// Decisions returns the approval trail for one entity, oldest first.
func (r *Repository) Decisions(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.Approval, error) {
	var rows []models.Approval
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
