package quotations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

var errStaleStatus = errors.New("status changed concurrently")

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

func (r *Repository) FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, q *models.SalesQuotation) error {
	return r.db.WithContext(ctx).Omit("Customer").Create(q).Error
}

// Find loads a quotation with customer and lines. lock takes a row lock on Postgres.
func (r *Repository) Find(ctx context.Context, id uuid.UUID, lock bool) (*models.SalesQuotation, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = db.ForUpdate(q)
	}
	var quote models.SalesQuotation
	if err := q.First(&quote, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("quotation_id = ?", quote.ID).Order("id").Find(&quote.Lines).Error; err != nil {
		return nil, err
	}
	customer, err := r.FindCustomer(ctx, quote.CustomerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	quote.Customer = customer
	return &quote, nil
}

// ReplaceLines swaps all lines and stores the recomputed header totals.
func (r *Repository) ReplaceLines(ctx context.Context, quote *models.SalesQuotation) error {
	if err := r.db.WithContext(ctx).Where("quotation_id = ?", quote.ID).Delete(&models.SalesQuotationLine{}).Error; err != nil {
		return err
	}
	for i := range quote.Lines {
		quote.Lines[i].ID = uuid.Nil
		quote.Lines[i].QuotationID = quote.ID
	}
	if len(quote.Lines) > 0 {
		if err := r.db.WithContext(ctx).Create(&quote.Lines).Error; err != nil {
			return err
		}
	}
	return r.SaveHeader(ctx, quote)
}

func (r *Repository) SaveHeader(ctx context.Context, quote *models.SalesQuotation) error {
	return r.db.WithContext(ctx).Model(&models.SalesQuotation{}).
		Where("id = ?", quote.ID).
		Updates(map[string]any{
			"valid_until":    quote.ValidUntil,
			"notes":          quote.Notes,
			"subtotal":       quote.Subtotal,
			"discount_total": quote.DiscountTotal,
			"tax_rate":       quote.TaxRate,
			"tax_total":      quote.TaxTotal,
			"total":          quote.Total,
		}).Error
}

func (r *Repository) Transition(ctx context.Context, id uuid.UUID, from []enums.QuotationStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.SalesQuotation{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStaleStatus
	}
	return nil
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]models.SalesQuotation, int, error) {
	q := r.db.WithContext(ctx).Model(&models.SalesQuotation{}).Preload("Customer").Preload("Lines")
	if params.Status != nil {
		q = q.Where("status = ?", *params.Status)
	}
	if params.CustomerID != nil {
		q = q.Where("customer_id = ?", *params.CustomerID)
	}
	q, limit, err := pagination.Apply(q, params.Params, "")
	if err != nil {
		return nil, 0, err
	}
	var rows []models.SalesQuotation
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, limit, nil
}
