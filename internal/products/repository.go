package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

// Repository persists products.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repository) Save(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SKUExists reports whether sku is already taken.
func (r *Repository) SKUExists(ctx context.Context, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("sku = ?", sku).Count(&count).Error
	return count > 0, err
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Product, int, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if c := strings.TrimSpace(params.Category); c != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(c))
	}
	if params.IsActive != nil {
		q = q.Where("is_active = ?", *params.IsActive)
	}
	if s := strings.TrimSpace(params.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(sku) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	q, limit, err := pagination.Apply(q, params.Params, "")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.Product
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, limit, nil
}
