package crm

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

type CustomerDTO struct {
	ID        uuid.UUID            `json:"id"`
	Code      string               `json:"code"`
	Name      string               `json:"name"`
	Company   *string              `json:"company,omitempty"`
	Email     *string              `json:"email,omitempty"`
	Phone     *string              `json:"phone,omitempty"`
	Address   *string              `json:"address,omitempty"`
	Status    enums.CustomerStatus `json:"status"`
	Notes     *string              `json:"notes,omitempty"`
	CreatedBy uuid.UUID            `json:"created_by"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

type CreateCustomerInput struct {
	Code    string  `json:"code" validate:"required,max=32"`
	Name    string  `json:"name" validate:"required,max=200"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes   *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type UpdateCustomerInput struct {
	Name    *string               `json:"name,omitempty" validate:"omitempty,max=200"`
	Company *string               `json:"company,omitempty" validate:"omitempty,max=200"`
	Email   *string               `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string               `json:"phone,omitempty" validate:"omitempty,max=40"`
	Address *string               `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes   *string               `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Status  *enums.CustomerStatus `json:"status,omitempty"`
}

type ListParams struct {
	Search string
	Status *enums.CustomerStatus
	pagination.Params
}

func toDTO(c *models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:        c.ID,
		Code:      c.Code,
		Name:      c.Name,
		Company:   c.Company,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Status:    c.Status,
		Notes:     c.Notes,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
