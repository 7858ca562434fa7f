package suppliers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// Service manages the supplier master list used by purchasing.
type Service interface {
	List(ctx context.Context, params ListParams) (pagination.Page[SupplierDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*SupplierDTO, error)
	Create(ctx context.Context, actor audit.Actor, input CreateSupplierInput) (*SupplierDTO, error)
	Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateSupplierInput) (*SupplierDTO, error)
	Deactivate(ctx context.Context, actor audit.Actor, id uuid.UUID) (*SupplierDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo     *Repository
	TxRunner txRunner
	Audit    audit.Writer
}

type service struct {
	repo  *Repository
	tx    txRunner
	audit audit.Writer
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil || params.TxRunner == nil || params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "supplier service dependencies missing")
	}
	return &service{repo: params.Repo, tx: params.TxRunner, audit: params.Audit}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[SupplierDTO], error) {
	rows, limit, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[SupplierDTO]{}, pagination.ListError(err, "list suppliers")
	}
	dtos := make([]SupplierDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, toDTO(&rows[i]))
	}
	return pagination.BuildPage(dtos, limit, func(d SupplierDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SupplierDTO, error) {
	sup, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(sup)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, actor audit.Actor, input CreateSupplierInput) (*SupplierDTO, error) {
	sup := &models.Supplier{
		Code:        strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:        strings.TrimSpace(input.Name),
		ContactName: input.ContactName,
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:       input.Phone,
		Address:     input.Address,
		IsActive:    true,
	}
	if sup.Code == "" || sup.Name == "" || sup.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code, name and email are required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByCode(ctx, sup.Code); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "supplier code already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check supplier code")
		}
		if err := repo.Create(ctx, sup); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "supplier code already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create supplier")
		}
		return s.record(ctx, tx, actor, "supplier.create", sup.ID, map[string]any{"code": sup.Code, "name": sup.Name})
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(sup)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateSupplierInput) (*SupplierDTO, error) {
	var out SupplierDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sup, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			sup.Name = strings.TrimSpace(*input.Name)
		}
		if input.ContactName != nil {
			sup.ContactName = input.ContactName
		}
		if input.Email != nil {
			sup.Email = strings.ToLower(strings.TrimSpace(*input.Email))
		}
		if input.Phone != nil {
			sup.Phone = input.Phone
		}
		if input.Address != nil {
			sup.Address = input.Address
		}
		if input.IsActive != nil {
			sup.IsActive = *input.IsActive
		}
		if sup.Name == "" || sup.Email == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
		}
		if err := repo.Save(ctx, sup); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update supplier")
		}
		out = toDTO(sup)
		return s.record(ctx, tx, actor, "supplier.update", sup.ID, input)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) Deactivate(ctx context.Context, actor audit.Actor, id uuid.UUID) (*SupplierDTO, error) {
	inactive := false
	return s.Update(ctx, actor, id, UpdateSupplierInput{IsActive: &inactive})
}

func (s *service) record(ctx context.Context, tx *gorm.DB, actor audit.Actor, action string, id uuid.UUID, changes any) error {
	if err := s.audit.Record(ctx, tx, audit.Entry{
		Actor: actor, Action: action, EntityType: audit.EntitySupplier, EntityID: id, Changes: changes,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record audit")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Supplier, error) {
	sup, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load supplier")
	}
	return sup, nil
}
