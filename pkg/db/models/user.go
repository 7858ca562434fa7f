package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
)

// User represents an ERP operator. Role is the only authorization input.
type User struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Email              string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash       string     `gorm:"column:password_hash;not null"`
	FirstName          string     `gorm:"column:first_name;not null"`
	LastName           string     `gorm:"column:last_name;not null"`
	Role               enums.Role `gorm:"column:role;type:text;not null"`
	IsActive           bool       `gorm:"column:is_active;not null;default:true"`
	MustChangePassword bool       `gorm:"column:must_change_password;not null;default:false"`
	LastLoginAt        *time.Time `gorm:"column:last_login_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// FullName joins first and last name for display and email greetings.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
