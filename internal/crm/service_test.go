package crm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/cache"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/dbtest"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
)

type memoryStore struct {
	data map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = value.(string)
	return nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryStore) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	n := 0
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) CacheKey(parts ...string) string {
	return "lw:cache:" + strings.Join(parts, ":")
}

func newService(t *testing.T) (Service, *gorm.DB, *memoryStore) {
	t.Helper()
	client, conn := dbtest.Client(t)
	store := &memoryStore{data: map[string]string{}}
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		TxRunner: client,
		Audit:    audit.NewRepository(conn),
		Cache:    cache.New(store, nil),
		TTL:      time.Minute,
	})
	require.NoError(t, err)
	return svc, conn, store
}

var sales = audit.Actor{UserID: uuid.New(), Role: enums.RoleSalesUser}

func ptr(s string) *string { return &s }

func TestCreateCustomerNormalizesAndValidates(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, sales, CreateCustomerInput{Code: "c-001", Name: "Botas Rivera", Email: ptr(" Compras@Rivera.MX ")})
	require.NoError(t, err)
	assert.Equal(t, "C-001", c.Code)
	assert.Equal(t, "compras@rivera.mx", *c.Email)
	assert.Equal(t, enums.CustomerStatusActive, c.Status)

	_, err = svc.Create(ctx, sales, CreateCustomerInput{Code: "C-001", Name: "Dup"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, sales, CreateCustomerInput{Code: "C-002", Name: "Bad", Email: ptr("not-an-email")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListIsCachedAndWritesInvalidate(t *testing.T) {
	svc, conn, store := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, sales, CreateCustomerInput{Code: "C-1", Name: "Marroquineria Sol"})
	require.NoError(t, err)

	first, err := svc.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, first.Items, 1)

	// A row written behind the service's back stays invisible until a write invalidates.
	require.NoError(t, conn.Create(&models.Customer{Code: "C-RAW", Name: "Raw insert", Status: enums.CustomerStatusActive, CreatedBy: sales.UserID}).Error)
	cached, err := svc.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Len(t, cached.Items, 1)

	_, err = svc.Create(ctx, sales, CreateCustomerInput{Code: "C-2", Name: "Talabarteria Norte"})
	require.NoError(t, err)
	for key := range store.data {
		assert.False(t, strings.HasPrefix(key, "lw:cache:crm:customers:"), "stale key %s", key)
	}
	fresh, err := svc.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Len(t, fresh.Items, 3)
}

func TestGetServesCacheUntilUpdate(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, sales, CreateCustomerInput{Code: "C-9", Name: "Old name"})
	require.NoError(t, err)
	_, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, sales, c.ID, UpdateCustomerInput{Name: ptr("New name")})
	require.NoError(t, err)
	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "New name", got.Name)

	_, err = svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteIsSoft(t *testing.T) {
	svc, conn, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, sales, CreateCustomerInput{Code: "C-5", Name: "Cinturones Paz"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, sales, c.ID))

	var row models.Customer
	require.NoError(t, conn.First(&row, "id = ?", c.ID).Error)
	assert.Equal(t, enums.CustomerStatusInactive, row.Status)

	active := enums.CustomerStatusActive
	page, err := svc.List(ctx, ListParams{Status: &active})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	var audits int64
	require.NoError(t, conn.Model(&models.AuditLog{}).Where("entity_id = ?", c.ID).Count(&audits).Error)
	assert.EqualValues(t, 2, audits)
}

func TestServiceWorksWithoutCache(t *testing.T) {
	client, conn := dbtest.Client(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), TxRunner: client, Audit: audit.NewRepository(conn)})
	require.NoError(t, err)

	c, err := svc.Create(context.Background(), sales, CreateCustomerInput{Code: "C-NC", Name: "No cache"})
	require.NoError(t, err)
	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}
