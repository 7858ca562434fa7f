package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// AuditLog records who changed what. Rows are written in the same transaction as the change.
type AuditLog struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ActorID    *uuid.UUID      `gorm:"column:actor_id;type:uuid;index"`
	ActorRole  *string         `gorm:"column:actor_role"`
	Action     string          `gorm:"column:action;not null"`
	EntityType string          `gorm:"column:entity_type;not null;index:ix_audit_logs_entity"`
	EntityID   uuid.UUID       `gorm:"column:entity_id;type:uuid;not null;index:ix_audit_logs_entity"`
	Changes    json.RawMessage `gorm:"column:changes;type:jsonb"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// Approval is the decision row written when a manager approves or rejects a document.
type Approval struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	EntityType string                 `gorm:"column:entity_type;not null;index:ix_approvals_entity"`
	EntityID   uuid.UUID              `gorm:"column:entity_id;type:uuid;not null;index:ix_approvals_entity"`
	Decision   enums.ApprovalDecision `gorm:"column:decision;type:text;not null"`
	DecidedBy  uuid.UUID              `gorm:"column:decided_by;type:uuid;not null"`
	Comment    *string                `gorm:"column:comment"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (a *Approval) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
