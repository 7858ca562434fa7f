package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/catalog"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/dbtest"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		TxRunner: client,
		Audit:    audit.NewRepository(conn),
	})
	require.NoError(t, err)
	return svc
}

var actor = audit.Actor{UserID: uuid.New(), Role: enums.RoleInventoryManager}

func TestCreateNormalizesAndRejectsDuplicateSKU(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, actor, CreateProductInput{
		SKU: " hide-cow-01 ", Name: "Cow hide", Category: "Raw", Unit: enums.ProductUnitHide,
		StandardCost: decimal.RequireFromString("42.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "HIDE-COW-01", dto.SKU)
	assert.Equal(t, "raw", dto.Category)

	_, err = svc.Create(ctx, actor, CreateProductInput{SKU: "HIDE-COW-01", Name: "Again", Category: "raw", Unit: enums.ProductUnitHide})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateRejectsInvalidUnit(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), actor, CreateProductInput{SKU: "X", Name: "X", Category: "c", Unit: "bale"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dto, err := svc.Create(ctx, actor, CreateProductInput{SKU: "CHEM-1", Name: "Chrome salt", Category: "chemical", Unit: enums.ProductUnitKg})
	require.NoError(t, err)

	price := decimal.RequireFromString("3.10")
	inactive := false
	updated, err := svc.Update(ctx, actor, dto.ID, UpdateProductInput{SalePrice: &price, IsActive: &inactive})
	require.NoError(t, err)
	assert.True(t, updated.SalePrice.Equal(price))
	assert.False(t, updated.IsActive)

	negative := decimal.NewFromInt(-1)
	_, err = svc.Update(ctx, actor, dto.ID, UpdateProductInput{StandardCost: &negative})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Update(ctx, actor, uuid.New(), UpdateProductInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestImportCatalogIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	entries, err := catalog.List("")
	require.NoError(t, err)

	first, err := svc.ImportCatalog(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, len(entries), first.Created)
	assert.Zero(t, first.Skipped)

	second, err := svc.ImportCatalog(ctx, actor)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, len(entries), second.Skipped)

	page, err := svc.List(ctx, ListParams{Params: paginationAll()})
	require.NoError(t, err)
	assert.Len(t, page.Items, len(entries))
}

func TestListFiltersByQuery(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, sku := range []string{"BAG-TOTE", "BAG-CLUTCH", "BELT-01"} {
		_, err := svc.Create(ctx, actor, CreateProductInput{SKU: sku, Name: sku, Category: "goods", Unit: enums.ProductUnitPiece})
		require.NoError(t, err)
	}
	page, err := svc.List(ctx, ListParams{Query: "bag"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func paginationAll() pagination.Params {
	return pagination.Params{Limit: pagination.MaxLimit}
}
