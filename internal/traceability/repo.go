package traceability

import (
	"context"

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

func (r *Repository) Create(ctx context.Context, b *models.LeatherBatch) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *Repository) Find(ctx context.Context, id uuid.UUID) (*models.LeatherBatch, error) {
	var b models.LeatherBatch
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LeatherBatch{}).Where("batch_code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) SupplierExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Supplier{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ProductExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ChildrenOf returns the direct children of every id in parents, oldest first.
func (r *Repository) ChildrenOf(ctx context.Context, parents []uuid.UUID) ([]models.LeatherBatch, error) {
	var rows []models.LeatherBatch
	if len(parents) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("parent_id IN ?", parents).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]models.LeatherBatch, int, error) {
	q := r.db.WithContext(ctx).Model(&models.LeatherBatch{})
	if params.Stage != nil {
		q = q.Where("stage = ?", *params.Stage)
	}
	if params.SupplierID != nil {
		q = q.Where("supplier_id = ?", *params.SupplierID)
	}
	q, limit, err := pagination.Apply(q, params.Params, "")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.LeatherBatch
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, limit, nil
}
