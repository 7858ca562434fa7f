package crm

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, c *models.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repository) Save(ctx context.Context, c *models.Customer) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Customer{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Customer, int, error) {
	q := r.db.WithContext(ctx).Model(&models.Customer{})
	if params.Status != nil {
		q = q.Where("status = ?", *params.Status)
	}
	if term := strings.ToLower(strings.TrimSpace(params.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ? OR LOWER(COALESCE(company, '')) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ?", like, like, like, like)
	}
	q, limit, err := pagination.Apply(q, params.Params, "")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.Customer
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, limit, nil
}
