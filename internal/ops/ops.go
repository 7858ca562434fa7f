// Package ops holds the operator commands run through cmd/ops: seeding a fresh
// database, resetting a password and wiping domain data outside production.
package ops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/internal/products"
	"github.com/angelmondragon/leatherworks-erp/pkg/config"
	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/security"
)

// ErrProduction is returned when a destructive command targets a production env.
var ErrProduction = errors.New("refusing to run against production")

// ErrNotConfirmed is returned when clear-db runs without explicit confirmation.
var ErrNotConfirmed = errors.New("clear-db requires -confirm")

// CatalogImporter loads the static catalog into the products table.
type CatalogImporter interface {
	ImportCatalog(ctx context.Context, actor audit.Actor) (products.ImportResult, error)
}

// SeedOptions describe the bootstrap administrator. An empty password makes
// Seed generate one and force a change on first login.
type SeedOptions struct {
	AdminEmail     string
	AdminPassword  string
	AdminFirstName string
	AdminLastName  string
}

type SeedResult struct {
	AdminID           string
	AdminCreated      bool
	GeneratedPassword string
	Warehouses        int
	Suppliers         int
	Catalog           products.ImportResult
}

type seedWarehouse struct {
	code, name, location string
}

type seedSupplier struct {
	code, name, email, contact string
}

var defaultWarehouses = []seedWarehouse{
	{"WH-MAIN", "Main Warehouse", "Leon, Guanajuato"},
	{"WH-HIDES", "Raw Hides Store", "Leon, Guanajuato"},
	{"WH-FG", "Finished Goods", "Guadalajara, Jalisco"},
}

var demoSuppliers = []seedSupplier{
	{"SUP-TAN-01", "Curtidos del Bajio", "ventas@curtidosbajio.example", "Rosa Medina"},
	{"SUP-HW-01", "Herrajes Finos", "pedidos@herrajesfinos.example", "Jorge Salas"},
	{"SUP-THR-01", "Hilos y Avios Industriales", "contacto@hilosavios.example", "Lucia Ortega"},
}

// Seed creates the administrator, default warehouses, demo suppliers and the
// catalog products. Rows that already exist are left untouched, so reruns are safe.
func Seed(ctx context.Context, conn *gorm.DB, passCfg config.PasswordConfig, importer CatalogImporter, opts SeedOptions) (SeedResult, error) {
	var result SeedResult
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" {
		return result, fmt.Errorf("admin email is required")
	}

	admin, created, generated, err := ensureAdmin(ctx, conn, passCfg, email, opts)
	if err != nil {
		return result, err
	}
	result.AdminID = admin.ID.String()
	result.AdminCreated = created
	result.GeneratedPassword = generated

	for _, wh := range defaultWarehouses {
		location := wh.location
		res := conn.WithContext(ctx).
			Where(models.Warehouse{Code: wh.code}).
			Attrs(models.Warehouse{Name: wh.name, Location: &location, IsActive: true}).
			FirstOrCreate(&models.Warehouse{})
		if res.Error != nil {
			return result, fmt.Errorf("seed warehouse %s: %w", wh.code, res.Error)
		}
		result.Warehouses += int(res.RowsAffected)
	}

	for _, sup := range demoSuppliers {
		contact := sup.contact
		res := conn.WithContext(ctx).
			Where(models.Supplier{Code: sup.code}).
			Attrs(models.Supplier{Name: sup.name, Email: sup.email, ContactName: &contact, IsActive: true}).
			FirstOrCreate(&models.Supplier{})
		if res.Error != nil {
			return result, fmt.Errorf("seed supplier %s: %w", sup.code, res.Error)
		}
		result.Suppliers += int(res.RowsAffected)
	}

	if importer != nil {
		imported, err := importer.ImportCatalog(ctx, audit.Actor{UserID: admin.ID, Role: admin.Role})
		if err != nil {
			return result, fmt.Errorf("import catalog: %w", err)
		}
		result.Catalog = imported
	}
	return result, nil
}

func ensureAdmin(ctx context.Context, conn *gorm.DB, passCfg config.PasswordConfig, email string, opts SeedOptions) (*models.User, bool, string, error) {
	var existing models.User
	err := conn.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, false, "", nil
	}
	if !db.IsNotFound(err) {
		return nil, false, "", fmt.Errorf("lookup admin: %w", err)
	}

	password, generated := opts.AdminPassword, ""
	if password == "" {
		if password, err = security.GenerateTempPassword(16); err != nil {
			return nil, false, "", fmt.Errorf("generate password: %w", err)
		}
		generated = password
	} else if err := security.CheckPasswordPolicy(password); err != nil {
		return nil, false, "", err
	}

	hash, err := security.HashPassword(password, passCfg)
	if err != nil {
		return nil, false, "", fmt.Errorf("hash password: %w", err)
	}
	admin := &models.User{
		Email:              email,
		PasswordHash:       hash,
		FirstName:          firstNonEmpty(opts.AdminFirstName, "System"),
		LastName:           firstNonEmpty(opts.AdminLastName, "Administrator"),
		Role:               enums.RoleAdmin,
		IsActive:           true,
		MustChangePassword: generated != "",
	}
	if err := conn.WithContext(ctx).Create(admin).Error; err != nil {
		return nil, false, "", fmt.Errorf("create admin: %w", err)
	}
	return admin, true, generated, nil
}

// ChangePassword replaces the password of the account with the given email.
// The forced-change flag is cleared because an operator chose the value.
func ChangePassword(ctx context.Context, conn *gorm.DB, passCfg config.PasswordConfig, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if err := security.CheckPasswordPolicy(password); err != nil {
		return err
	}
	hash, err := security.HashPassword(password, passCfg)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res := conn.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Updates(map[string]any{"password_hash": hash, "must_change_password": false})
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no user with email %s", email)
	}
	return nil
}

// domainTables lists every table cleared by ClearDB, children before parents.
var domainTables = []string{
	"outbox_dlq",
	"outbox_events",
	"approvals",
	"audit_logs",
	"leather_batches",
	"sales_quotation_lines",
	"sales_quotations",
	"customers",
	"stock_movement_requests",
	"stock_movements",
	"inventory_items",
	"incoming_shipment_lines",
	"incoming_shipments",
	"purchase_order_lines",
	"purchase_orders",
	"rfq_items",
	"rfqs",
	"warehouses",
	"products",
	"suppliers",
	"users",
}

// ClearDB deletes every row of the domain tables. It refuses to run in
// production and without confirmation.
func ClearDB(ctx context.Context, conn *gorm.DB, app config.AppConfig, confirmed bool) ([]string, error) {
	if app.IsProd() {
		return nil, ErrProduction
	}
	if !confirmed {
		return nil, ErrNotConfirmed
	}

	present := make([]string, 0, len(domainTables))
	for _, table := range domainTables {
		if conn.Migrator().HasTable(table) {
			present = append(present, table)
		}
	}
	if len(present) == 0 {
		return present, nil
	}

	err := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			return tx.Exec("TRUNCATE TABLE " + strings.Join(present, ", ") + " RESTART IDENTITY CASCADE").Error
		}
		for _, table := range present {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return present, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
