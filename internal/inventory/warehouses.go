package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

func (s *service) ListWarehouses(ctx context.Context, params WarehouseListParams) (pagination.Page[WarehouseDTO], error) {
	rows, limit, err := s.repo.ListWarehouses(ctx, params)
	if err != nil {
		return pagination.Page[WarehouseDTO]{}, pagination.ListError(err, "list warehouses")
	}
	dtos := make([]WarehouseDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, warehouseToDTO(&rows[i]))
	}
	return pagination.BuildPage(dtos, limit, func(d WarehouseDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	}), nil
}

func (s *service) GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseDTO, error) {
	w, err := s.repo.FindWarehouse(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "warehouse")
	}
	dto := warehouseToDTO(w)
	return &dto, nil
}

func (s *service) CreateWarehouse(ctx context.Context, actor audit.Actor, input CreateWarehouseInput) (*WarehouseDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code and name are required")
	}
	w := &models.Warehouse{
		Code:     code,
		Name:     name,
		Location: input.Location,
		IsActive: true,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.WarehouseCodeExists(ctx, code)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check warehouse code")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "warehouse code already exists")
		}
		if err := repo.CreateWarehouse(ctx, w); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "warehouse code already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create warehouse")
		}
		return s.recordAudit(ctx, tx, actor, "warehouse.create", audit.EntityWarehouse, w.ID, map[string]any{
			"code": w.Code,
			"name": w.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	dto := warehouseToDTO(w)
	return &dto, nil
}

func (s *service) UpdateWarehouse(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateWarehouseInput) (*WarehouseDTO, error) {
	var out WarehouseDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		w, err := repo.FindWarehouse(ctx, id)
		if err != nil {
			return notFoundOr(err, "warehouse")
		}
		changes := map[string]any{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
			}
			changes["name"] = map[string]any{"from": w.Name, "to": name}
			w.Name = name
		}
		if input.Location != nil {
			changes["location"] = *input.Location
			w.Location = input.Location
		}
		if input.IsActive != nil && *input.IsActive != w.IsActive {
			changes["is_active"] = map[string]any{"from": w.IsActive, "to": *input.IsActive}
			w.IsActive = *input.IsActive
		}
		if err := repo.SaveWarehouse(ctx, w); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update warehouse")
		}
		if err := s.recordAudit(ctx, tx, actor, "warehouse.update", audit.EntityWarehouse, w.ID, changes); err != nil {
			return err
		}
		out = warehouseToDTO(w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
