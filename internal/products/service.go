package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/catalog"
	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// Service exposes product master data operations.
type Service interface {
	List(ctx context.Context, params ListParams) (pagination.Page[ProductDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, actor audit.Actor, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	ImportCatalog(ctx context.Context, actor audit.Actor) (ImportResult, error)
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
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product service dependencies missing")
	}
	return &service{repo: params.Repo, tx: params.TxRunner, audit: params.Audit}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[ProductDTO], error) {
	rows, limit, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pagination.ListError(err, "list products")
	}
	dtos := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, toDTO(&rows[i]))
	}
	return pagination.BuildPage(dtos, limit, func(p ProductDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	p, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(p)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, actor audit.Actor, input CreateProductInput) (*ProductDTO, error) {
	p := &models.Product{
		SKU:          strings.ToUpper(strings.TrimSpace(input.SKU)),
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Category:     strings.ToLower(strings.TrimSpace(input.Category)),
		Unit:         input.Unit,
		StandardCost: input.StandardCost,
		SalePrice:    input.SalePrice,
		IsActive:     true,
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.insert(ctx, tx, actor, p)
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(p)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	var out ProductDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		p, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			p.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			p.Description = input.Description
		}
		if input.Category != nil {
			p.Category = strings.ToLower(strings.TrimSpace(*input.Category))
		}
		if input.Unit != nil {
			p.Unit = *input.Unit
		}
		if input.StandardCost != nil {
			p.StandardCost = *input.StandardCost
		}
		if input.SalePrice != nil {
			p.SalePrice = *input.SalePrice
		}
		if input.IsActive != nil {
			p.IsActive = *input.IsActive
		}
		if err := validateProduct(p); err != nil {
			return err
		}
		if err := repo.Save(ctx, p); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Actor: actor, Action: "product.update", EntityType: audit.EntityProduct, EntityID: p.ID, Changes: input,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record audit")
		}
		out = toDTO(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportCatalog inserts every embedded catalog product whose SKU is not yet present.
func (s *service) ImportCatalog(ctx context.Context, actor audit.Actor) (ImportResult, error) {
	entries, err := catalog.List("")
	if err != nil {
		return ImportResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load catalog")
	}

	var result ImportResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, entry := range entries {
			exists, err := repo.SKUExists(ctx, entry.SKU)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check sku")
			}
			if exists {
				result.Skipped++
				continue
			}
			p := &models.Product{
				SKU:          entry.SKU,
				Name:         entry.Name,
				Category:     entry.Category,
				Unit:         entry.Unit,
				StandardCost: entry.StandardCost,
				SalePrice:    entry.SalePrice,
				IsActive:     true,
			}
			if entry.Description != "" {
				desc := entry.Description
				p.Description = &desc
			}
			if err := s.insert(ctx, tx, actor, p); err != nil {
				return err
			}
			result.Created++
		}
		return nil
	})
	return result, err
}

func (s *service) insert(ctx context.Context, tx *gorm.DB, actor audit.Actor, p *models.Product) error {
	repo := s.repo.WithTx(tx)
	exists, err := repo.SKUExists(ctx, p.SKU)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check sku")
	}
	if exists {
		return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
	}
	if err := repo.Create(ctx, p); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	if err := s.audit.Record(ctx, tx, audit.Entry{
		Actor: actor, Action: "product.create", EntityType: audit.EntityProduct, EntityID: p.ID,
		Changes: map[string]any{"sku": p.SKU, "name": p.Name},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record audit")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Product, error) {
	p, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return p, nil
}

func validateProduct(p *models.Product) error {
	switch {
	case p.SKU == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	case p.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case p.Category == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	case !p.Unit.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid unit").WithDetails(map[string]any{"unit": p.Unit})
	case p.StandardCost.LessThan(decimal.Zero), p.SalePrice.LessThan(decimal.Zero):
		return pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}
	return nil
}
