package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/internal/ops"
	"github.com/angelmondragon/leatherworks-erp/internal/products"
	"github.com/angelmondragon/leatherworks-erp/pkg/config"
	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "ops"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "", "ops command: seed|change-password|clear-db")
	email := flag.String("email", os.Getenv("LEATHERWORKS_SEED_ADMIN_EMAIL"), "account email (seed admin or change-password target)")
	password := flag.String("password", os.Getenv("LEATHERWORKS_SEED_ADMIN_PASSWORD"), "new password; seed generates one when empty")
	firstName := flag.String("first-name", "", "seed admin first name")
	lastName := flag.String("last-name", "", "seed admin last name")
	confirm := flag.Bool("confirm", false, "required by clear-db")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "ops",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	switch *cmd {
	case "seed":
		catalog, err := products.NewService(products.ServiceParams{
			Repo:     products.NewRepository(dbClient.DB()),
			TxRunner: dbClient,
			Audit:    audit.NewRepository(dbClient.DB()),
		})
		requireResource(ctx, logg, "products service", err)

		result, err := ops.Seed(ctx, dbClient.DB(), cfg.Password, catalog, ops.SeedOptions{
			AdminEmail:     *email,
			AdminPassword:  *password,
			AdminFirstName: *firstName,
			AdminLastName:  *lastName,
		})
		if err != nil {
			fail(ctx, logg, "seed failed", err)
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"admin_id":         result.AdminID,
			"admin_created":    result.AdminCreated,
			"warehouses_added": result.Warehouses,
			"suppliers_added":  result.Suppliers,
			"products_added":   result.Catalog.Created,
			"products_skipped": result.Catalog.Skipped,
		}), "seed complete")
		if result.GeneratedPassword != "" {
			fmt.Printf("admin %s created with temporary password: %s\n", *email, result.GeneratedPassword)
		}

	case "change-password":
		if err := ops.ChangePassword(ctx, dbClient.DB(), cfg.Password, *email, *password); err != nil {
			fail(ctx, logg, "change-password failed", err)
		}
		logg.Info(ctx, "password updated")

	case "clear-db":
		tables, err := ops.ClearDB(ctx, dbClient.DB(), cfg.App, *confirm)
		if err != nil {
			fail(ctx, logg, "clear-db failed", err)
		}
		logg.Info(logg.WithField(ctx, "tables", tables), "database cleared")

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		flag.Usage()
		os.Exit(2)
	}
}

func fail(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
