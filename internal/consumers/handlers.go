package consumers

import (
	"context"
	"fmt"

	"github.com/angelmondragon/leatherworks-erp/internal/notifications"
	"github.com/angelmondragon/leatherworks-erp/internal/reporting"
	"github.com/angelmondragon/leatherworks-erp/pkg/bigquery"
	"github.com/angelmondragon/leatherworks-erp/pkg/config"
	"github.com/angelmondragon/leatherworks-erp/pkg/email"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

// BuildHandlers wires the email handler and, when a dataset is configured, the
// BigQuery stock movement sink. cleanup closes whatever clients were opened.
func BuildHandlers(ctx context.Context, cfg *config.Config, logg *logger.Logger) (handlers []Handler, cleanup func(), err error) {
	cleanup = func() {}

	chain, err := email.NewFromConfig(cfg.Email, logg)
	if err != nil {
		return nil, cleanup, fmt.Errorf("email providers: %w", err)
	}
	logg.Info(logg.WithField(ctx, "providers", chain.Providers()), "email providers configured")

	notifier, err := notifications.NewService(chain, notifications.Recipients{
		WarehouseInbox: cfg.Email.WarehouseInbox,
		AppBaseURL:     cfg.Email.AppBaseURL,
	}, logg)
	if err != nil {
		return nil, cleanup, err
	}
	handlers = append(handlers, notifier)

	if !cfg.BigQuery.Enabled() {
		logg.Info(ctx, "bigquery dataset not configured; stock reporting disabled")
		return handlers, cleanup, nil
	}

	bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		return nil, cleanup, fmt.Errorf("bigquery: %w", err)
	}
	cleanup = func() {
		if err := bq.Close(); err != nil {
			logg.Error(context.Background(), "failed to close bigquery client", err)
		}
	}

	sink, err := reporting.NewSink(bq, bq.StockMovementsTable(), logg)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return append(handlers, sink), cleanup, nil
}
