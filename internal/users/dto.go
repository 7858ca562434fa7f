package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Role               enums.Role `json:"role"`
	IsActive           bool       `json:"is_active"`
	MustChangePassword bool       `json:"must_change_password"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CreateUserInput is the admin payload for a new account. An empty password
// triggers a generated temporary one that is emailed to the user.
type CreateUserInput struct {
	Email     string     `json:"email" validate:"required,email"`
	FirstName string     `json:"first_name" validate:"required,max=100"`
	LastName  string     `json:"last_name" validate:"required,max=100"`
	Role      enums.Role `json:"role" validate:"required"`
	Password  string     `json:"password,omitempty"`
}

// UpdateUserInput patches name, role and active flag.
type UpdateUserInput struct {
	FirstName *string     `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string     `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Role      *enums.Role `json:"role,omitempty"`
	IsActive  *bool       `json:"is_active,omitempty"`
}

// ListParams filters the admin listing.
type ListParams struct {
	Role     *enums.Role
	IsActive *bool
	Search   string
	pagination.Params
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:                 u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Role:               u.Role,
		IsActive:           u.IsActive,
		MustChangePassword: u.MustChangePassword,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}
