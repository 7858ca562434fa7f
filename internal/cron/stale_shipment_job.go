package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

const defaultStaleShipmentAge = 72 * time.Hour

var waitingShipmentStatuses = []enums.ShipmentStatus{
	enums.ShipmentStatusPending,
	enums.ShipmentStatusAssigned,
}

type staleShipmentReader interface {
	ListStaleShipments(ctx context.Context, statuses []enums.ShipmentStatus, cutoff time.Time) ([]models.IncomingShipment, error)
}

type StaleShipmentJobParams struct {
	Logger     *logger.Logger
	Repository staleShipmentReader
	MaxAge     time.Duration
}

// NewStaleShipmentJob warns about shipments that have waited too long for a
// warehouse assignment or for processing.
func NewStaleShipmentJob(params StaleShipmentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("shipment repository required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultStaleShipmentAge
	}
	return &staleShipmentJob{
		logg:   params.Logger,
		repo:   params.Repository,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type staleShipmentJob struct {
	logg   *logger.Logger
	repo   staleShipmentReader
	maxAge time.Duration
	now    func() time.Time
}

func (j *staleShipmentJob) Name() string { return "stale-shipments" }

func (j *staleShipmentJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	rows, err := j.repo.ListStaleShipments(ctx, waitingShipmentStatuses, now.Add(-j.maxAge))
	if err != nil {
		return fmt.Errorf("list stale shipments: %w", err)
	}

	for _, shipment := range rows {
		fields := map[string]any{
			"shipment_id":       shipment.ID.String(),
			"purchase_order_id": shipment.PurchaseOrderID.String(),
			"status":            shipment.Status,
			"waiting_hours":     int(now.Sub(shipment.CreatedAt).Hours()),
		}
		if shipment.WarehouseID != nil {
			fields["warehouse_id"] = shipment.WarehouseID.String()
		}
		j.logg.Warn(j.logg.WithFields(ctx, fields), "shipment waiting past threshold")
	}

	j.logg.Info(j.logg.WithField(ctx, "stale_count", len(rows)), "stale shipment scan complete")
	return nil
}
