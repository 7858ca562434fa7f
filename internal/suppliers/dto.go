package suppliers

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

type SupplierDTO struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	ContactName *string   `json:"contact_name,omitempty"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	Address     *string   `json:"address,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateSupplierInput struct {
	Code        string  `json:"code" validate:"required,max=32"`
	Name        string  `json:"name" validate:"required,max=200"`
	ContactName *string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Address     *string `json:"address,omitempty"`
}

type UpdateSupplierInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	ContactName *string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Address     *string `json:"address,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type ListParams struct {
	Query    string
	IsActive *bool
	pagination.Params
}

func toDTO(s *models.Supplier) SupplierDTO {
	return SupplierDTO{
		ID:          s.ID,
		Code:        s.Code,
		Name:        s.Name,
		ContactName: s.ContactName,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
