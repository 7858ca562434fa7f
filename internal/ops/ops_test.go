package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/internal/products"
	"github.com/angelmondragon/leatherworks-erp/pkg/config"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/dbtest"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/security"
)

var testPassCfg = config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

type fakeImporter struct {
	calls []audit.Actor
}

func (f *fakeImporter) ImportCatalog(ctx context.Context, actor audit.Actor) (products.ImportResult, error) {
	f.calls = append(f.calls, actor)
	return products.ImportResult{Created: 4}, nil
}

func TestSeedCreatesBootstrapData(t *testing.T) {
	conn := dbtest.Open(t)
	importer := &fakeImporter{}

	result, err := Seed(context.Background(), conn, testPassCfg, importer, SeedOptions{
		AdminEmail:    "Admin@Leatherworks.test",
		AdminPassword: "tannery2026",
	})
	require.NoError(t, err)

	assert.True(t, result.AdminCreated)
	assert.Empty(t, result.GeneratedPassword)
	assert.Equal(t, len(defaultWarehouses), result.Warehouses)
	assert.Equal(t, len(demoSuppliers), result.Suppliers)
	assert.Equal(t, 4, result.Catalog.Created)

	var admin models.User
	require.NoError(t, conn.Where("email = ?", "admin@leatherworks.test").First(&admin).Error)
	assert.Equal(t, enums.RoleAdmin, admin.Role)
	assert.False(t, admin.MustChangePassword)
	ok, err := security.VerifyPassword("tannery2026", admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, importer.calls, 1)
	assert.Equal(t, admin.ID, importer.calls[0].UserID)
}

func TestSeedIsIdempotent(t *testing.T) {
	conn := dbtest.Open(t)
	opts := SeedOptions{AdminEmail: "admin@leatherworks.test"}

	first, err := Seed(context.Background(), conn, testPassCfg, nil, opts)
	require.NoError(t, err)
	assert.NotEmpty(t, first.GeneratedPassword)

	second, err := Seed(context.Background(), conn, testPassCfg, nil, opts)
	require.NoError(t, err)
	assert.False(t, second.AdminCreated)
	assert.Equal(t, first.AdminID, second.AdminID)
	assert.Zero(t, second.Warehouses)
	assert.Zero(t, second.Suppliers)

	var warehouses int64
	require.NoError(t, conn.Model(&models.Warehouse{}).Count(&warehouses).Error)
	assert.Equal(t, int64(len(defaultWarehouses)), warehouses)

	var admin models.User
	require.NoError(t, conn.First(&admin, "email = ?", "admin@leatherworks.test").Error)
	assert.True(t, admin.MustChangePassword)
}

func TestSeedRejectsWeakPassword(t *testing.T) {
	conn := dbtest.Open(t)

	_, err := Seed(context.Background(), conn, testPassCfg, nil, SeedOptions{AdminEmail: "admin@leatherworks.test", AdminPassword: "short"})
	assert.ErrorIs(t, err, security.ErrWeakPassword)
}

func TestChangePassword(t *testing.T) {
	conn := dbtest.Open(t)
	_, err := Seed(context.Background(), conn, testPassCfg, nil, SeedOptions{AdminEmail: "admin@leatherworks.test"})
	require.NoError(t, err)

	require.NoError(t, ChangePassword(context.Background(), conn, testPassCfg, "ADMIN@leatherworks.test", "newsecret99"))

	var admin models.User
	require.NoError(t, conn.First(&admin, "email = ?", "admin@leatherworks.test").Error)
	ok, err := security.VerifyPassword("newsecret99", admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, admin.MustChangePassword)

	assert.Error(t, ChangePassword(context.Background(), conn, testPassCfg, "nobody@leatherworks.test", "newsecret99"))
}

func TestClearDB(t *testing.T) {
	conn := dbtest.Open(t)
	_, err := Seed(context.Background(), conn, testPassCfg, nil, SeedOptions{AdminEmail: "admin@leatherworks.test"})
	require.NoError(t, err)

	_, err = ClearDB(context.Background(), conn, config.AppConfig{Env: config.AppEnvProd}, true)
	assert.ErrorIs(t, err, ErrProduction)

	_, err = ClearDB(context.Background(), conn, config.AppConfig{Env: config.AppEnvDev}, false)
	assert.ErrorIs(t, err, ErrNotConfirmed)

	cleared, err := ClearDB(context.Background(), conn, config.AppConfig{Env: config.AppEnvDev}, true)
	require.NoError(t, err)
	assert.Contains(t, cleared, "users")

	var users, suppliers int64
	require.NoError(t, conn.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, conn.Model(&models.Supplier{}).Count(&suppliers).Error)
	assert.Zero(t, users)
	assert.Zero(t, suppliers)
}
