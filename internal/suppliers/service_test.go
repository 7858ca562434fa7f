package suppliers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/dbtest"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
)

func newTestService(t *testing.T) (Service, *audit.Repository) {
	t.Helper()
	client, conn := dbtest.Client(t)
	auditRepo := audit.NewRepository(conn)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), TxRunner: client, Audit: auditRepo})
	require.NoError(t, err)
	return svc, auditRepo
}

func TestSupplierLifecycle(t *testing.T) {
	svc, auditRepo := newTestService(t)
	ctx := context.Background()
	actor := audit.Actor{UserID: uuid.New(), Role: enums.RolePurchaseManager}

	created, err := svc.Create(ctx, actor, CreateSupplierInput{Code: "tan-01", Name: "Curtiduria Leon", Email: "Ventas@Leon.test"})
	require.NoError(t, err)
	assert.Equal(t, "TAN-01", created.Code)
	assert.Equal(t, "ventas@leon.test", created.Email)
	assert.True(t, created.IsActive)

	_, err = svc.Create(ctx, actor, CreateSupplierInput{Code: "TAN-01", Name: "Dup", Email: "dup@leon.test"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	phone := "+52 477 000 0000"
	updated, err := svc.Update(ctx, actor, created.ID, UpdateSupplierInput{Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)

	deactivated, err := svc.Deactivate(ctx, actor, created.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	logs, err := auditRepo.List(ctx, audit.ListParams{EntityType: audit.EntitySupplier, EntityID: &created.ID})
	require.NoError(t, err)
	assert.Len(t, logs.Items, 3)
}

func TestSupplierListSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	actor := audit.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}
	for _, code := range []string{"HIDES-1", "HIDES-2", "CHEM-1"} {
		_, err := svc.Create(ctx, actor, CreateSupplierInput{Code: code, Name: code + " co", Email: code + "@x.test"})
		require.NoError(t, err)
	}
	page, err := svc.List(ctx, ListParams{Query: "hides"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	_, err = svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
