package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// Customer is a CRM account that can receive sales quotations.
type Customer struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Code      string               `gorm:"column:code;not null;uniqueIndex"`
	Name      string               `gorm:"column:name;not null"`
	Company   *string              `gorm:"column:company"`
	Email     *string              `gorm:"column:email"`
	Phone     *string              `gorm:"column:phone"`
	Address   *string              `gorm:"column:address"`
	Status    enums.CustomerStatus `gorm:"column:status;type:text;not null;index"`
	Notes     *string              `gorm:"column:notes"`
	CreatedBy uuid.UUID            `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
