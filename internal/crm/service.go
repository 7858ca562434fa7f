package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/cache"
	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// Service manages CRM customers. Reads go through the Redis cache and every
// write drops all cached customer keys.
type Service interface {
	List(ctx context.Context, params ListParams) (pagination.Page[CustomerDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error)
	Create(ctx context.Context, actor audit.Actor, input CreateCustomerInput) (*CustomerDTO, error)
	Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error)
	Delete(ctx context.Context, actor audit.Actor, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo     *Repository
	TxRunner txRunner
	Audit    audit.Writer
	Cache    *cache.Cache
	TTL      time.Duration
}

type service struct {
	repo  *Repository
	tx    txRunner
	audit audit.Writer
	cache *cache.Cache
	ttl   time.Duration
}

var emailCheck = validator.New()

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil || params.TxRunner == nil || params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "crm service dependencies missing")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &service{
		repo:  params.Repo,
		tx:    params.TxRunner,
		audit: params.Audit,
		cache: params.Cache,
		ttl:   ttl,
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[CustomerDTO], error) {
	status := ""
	if params.Status != nil {
		status = string(*params.Status)
	}
	key := s.cache.Key("crm", "customers", "list", fmt.Sprintf("q=%s|status=%s|limit=%d|cursor=%s",
		strings.ToLower(strings.TrimSpace(params.Search)), status, pagination.NormalizeLimit(params.Limit), params.Cursor))

	return cache.Remember(ctx, s.cache, key, s.ttl, func(ctx context.Context) (pagination.Page[CustomerDTO], error) {
		rows, limit, err := s.repo.List(ctx, params)
		if err != nil {
			return pagination.Page[CustomerDTO]{}, pagination.ListError(err, "list customers")
		}
		dtos := make([]CustomerDTO, 0, len(rows))
		for i := range rows {
			dtos = append(dtos, toDTO(&rows[i]))
		}
		return pagination.BuildPage(dtos, limit, func(d CustomerDTO) pagination.Cursor {
			return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
		}), nil
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	key := s.cache.Key("crm", "customers", id.String())
	dto, err := cache.Remember(ctx, s.cache, key, s.ttl, func(ctx context.Context) (CustomerDTO, error) {
		c, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return CustomerDTO{}, notFoundOr(err)
		}
		return toDTO(c), nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *service) Create(ctx context.Context, actor audit.Actor, input CreateCustomerInput) (*CustomerDTO, error) {
	c := &models.Customer{
		Code:      strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:      strings.TrimSpace(input.Name),
		Company:   input.Company,
		Phone:     input.Phone,
		Address:   input.Address,
		Notes:     input.Notes,
		Status:    enums.CustomerStatusActive,
		CreatedBy: actor.UserID,
	}
	if c.Code == "" || c.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code and name are required")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	c.Email = email

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.CodeExists(ctx, c.Code)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check customer code")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "customer code already exists")
		}
		if err := repo.Create(ctx, c); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "customer code already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create customer")
		}
		return s.record(ctx, tx, actor, "customer.create", c.ID, map[string]any{"code": c.Code, "name": c.Name})
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, "crm", "customers")
	dto := toDTO(c)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateCustomerInput) (*CustomerDTO, error) {
	var out CustomerDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := repo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err)
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
			}
			c.Name = name
		}
		if input.Email != nil {
			email, err := normalizeEmail(input.Email)
			if err != nil {
				return err
			}
			c.Email = email
		}
		if input.Company != nil {
			c.Company = input.Company
		}
		if input.Phone != nil {
			c.Phone = input.Phone
		}
		if input.Address != nil {
			c.Address = input.Address
		}
		if input.Notes != nil {
			c.Notes = input.Notes
		}
		if input.Status != nil {
			if !input.Status.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "unknown customer status")
			}
			c.Status = *input.Status
		}
		if err := repo.Save(ctx, c); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update customer")
		}
		out = toDTO(c)
		return s.record(ctx, tx, actor, "customer.update", c.ID, input)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, "crm", "customers")
	return &out, nil
}

// Delete marks the customer inactive. Quotations keep their reference.
func (s *service) Delete(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := repo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err)
		}
		prev := c.Status
		c.Status = enums.CustomerStatusInactive
		if err := repo.Save(ctx, c); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate customer")
		}
		return s.record(ctx, tx, actor, "customer.delete", c.ID, map[string]any{
			"status": map[string]any{"from": prev, "to": c.Status},
		})
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, "crm", "customers")
	return nil
}

func (s *service) record(ctx context.Context, tx *gorm.DB, actor audit.Actor, action string, id uuid.UUID, changes any) error {
	if err := s.audit.Record(ctx, tx, audit.Entry{
		Actor:      actor,
		Action:     action,
		EntityType: audit.EntityCustomer,
		EntityID:   id,
		Changes:    changes,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record audit")
	}
	return nil
}

func normalizeEmail(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	email := strings.ToLower(strings.TrimSpace(*raw))
	if email == "" {
		return nil, nil
	}
	if err := emailCheck.Var(email, "email"); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is not a valid address")
	}
	return &email, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
}
