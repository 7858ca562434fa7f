package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/leatherworks-erp/api/routes"
	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/internal/auth"
	"github.com/angelmondragon/leatherworks-erp/internal/crm"
	"github.com/angelmondragon/leatherworks-erp/internal/dashboard"
	"github.com/angelmondragon/leatherworks-erp/internal/inventory"
	"github.com/angelmondragon/leatherworks-erp/internal/products"
	"github.com/angelmondragon/leatherworks-erp/internal/purchasing"
	"github.com/angelmondragon/leatherworks-erp/internal/quotations"
	"github.com/angelmondragon/leatherworks-erp/internal/suppliers"
	"github.com/angelmondragon/leatherworks-erp/internal/traceability"
	"github.com/angelmondragon/leatherworks-erp/internal/users"
	"github.com/angelmondragon/leatherworks-erp/pkg/auth/session"
	"github.com/angelmondragon/leatherworks-erp/pkg/cache"
	"github.com/angelmondragon/leatherworks-erp/pkg/config"
	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/instance"
	"github.com/angelmondragon/leatherworks-erp/pkg/lock"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
	"github.com/angelmondragon/leatherworks-erp/pkg/metrics"
	"github.com/angelmondragon/leatherworks-erp/pkg/migrate"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox"
	"github.com/angelmondragon/leatherworks-erp/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	services, err := buildServices(cfg, logg, dbClient, redisClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:       dbClient,
			Redis:    redisClient,
			Sessions: sessionManager,
			Metrics:  metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		}, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server stopped")
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, sessions *session.Manager) (routes.Services, error) {
	var svc routes.Services

	auditRepo := audit.NewRepository(dbClient.DB())
	emitter := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	readCache := cache.New(redisClient, logg)
	userRepo := users.NewRepository(dbClient.DB())

	locker, err := lock.NewRedisLocker(redisClient)
	if err != nil {
		return svc, fmt.Errorf("locker: %w", err)
	}

	svc.Audit = auditRepo
	if svc.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	}); err != nil {
		return svc, fmt.Errorf("auth service: %w", err)
	}
	if svc.Users, err = users.NewService(users.ServiceParams{
		Repo:           userRepo,
		TxRunner:       dbClient,
		Audit:          auditRepo,
		Outbox:         emitter,
		PasswordConfig: cfg.Password,
		Sessions:       sessions,
		Logger:         logg,
	}); err != nil {
		return svc, fmt.Errorf("users service: %w", err)
	}
	if svc.Suppliers, err = suppliers.NewService(suppliers.ServiceParams{
		Repo:     suppliers.NewRepository(dbClient.DB()),
		TxRunner: dbClient,
		Audit:    auditRepo,
	}); err != nil {
		return svc, fmt.Errorf("suppliers service: %w", err)
	}
	if svc.Products, err = products.NewService(products.ServiceParams{
		Repo:     products.NewRepository(dbClient.DB()),
		TxRunner: dbClient,
		Audit:    auditRepo,
	}); err != nil {
		return svc, fmt.Errorf("products service: %w", err)
	}
	if svc.Purchasing, err = purchasing.NewService(purchasing.ServiceParams{
		Repo:     purchasing.NewRepository(dbClient.DB()),
		TxRunner: dbClient,
		Audit:    auditRepo,
		Outbox:   emitter,
	}); err != nil {
		return svc, fmt.Errorf("purchasing service: %w", err)
	}
	if svc.Inventory, err = inventory.NewService(inventory.ServiceParams{
		Repo:        inventory.NewRepository(dbClient.DB()),
		TxRunner:    dbClient,
		Audit:       auditRepo,
		Outbox:      emitter,
		Locker:      locker,
		Receipts:    purchasing.Receipts{},
		ShipmentTTL: cfg.Lock.ShipmentTTL,
		Logger:      logg,
	}); err != nil {
		return svc, fmt.Errorf("inventory service: %w", err)
	}
	if svc.CRM, err = crm.NewService(crm.ServiceParams{
		Repo:     crm.NewRepository(dbClient.DB()),
		TxRunner: dbClient,
		Audit:    auditRepo,
		Cache:    readCache,
		TTL:      cfg.Cache.CRMTTL,
	}); err != nil {
		return svc, fmt.Errorf("crm service: %w", err)
	}
	if svc.Quotations, err = quotations.NewService(quotations.ServiceParams{
		Repo:     quotations.NewRepository(dbClient.DB()),
		TxRunner: dbClient,
		Audit:    auditRepo,
		Outbox:   emitter,
	}); err != nil {
		return svc, fmt.Errorf("quotations service: %w", err)
	}
	if svc.Traceability, err = traceability.NewService(traceability.ServiceParams{
		Repo:     traceability.NewRepository(dbClient.DB()),
		TxRunner: dbClient,
		Audit:    auditRepo,
	}); err != nil {
		return svc, fmt.Errorf("traceability service: %w", err)
	}
	if svc.Dashboard, err = dashboard.NewService(dashboard.ServiceParams{
		Repo:  dashboard.NewRepository(dbClient.DB()),
		Cache: readCache,
		TTL:   cfg.Cache.DashboardTTL,
	}); err != nil {
		return svc, fmt.Errorf("dashboard service: %w", err)
	}
	return svc, nil
}
