package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
	"gorm.io/gorm"
)

const (
	outboxRetentionDays = 30
	outboxMinAttempts   = 5
	dlqRetentionDays    = 90
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  outboxRetentionRepo
	DLQ         dlqRetentionRepo
	Retention   int
	DLQDays     int
	MinAttempts int
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type dlqRetentionRepo interface {
	DeleteFailedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewOutboxRetentionJob prunes delivered outbox rows and, when a DLQ repository is
// given, dead letters past their own retention window.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		dlq:         params.DLQ,
		retention:   params.Retention,
		dlqDays:     params.DLQDays,
		minAttempts: params.MinAttempts,
		now:         time.Now,
	}
	if job.retention <= 0 {
		job.retention = outboxRetentionDays
	}
	if job.dlqDays <= 0 {
		job.dlqDays = dlqRetentionDays
	}
	if job.minAttempts <= 0 {
		job.minAttempts = outboxMinAttempts
	}
	return job, nil
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	repo        outboxRetentionRepo
	dlq         dlqRetentionRepo
	retention   int
	dlqDays     int
	minAttempts int
	now         func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-days(j.retention))
	dlqCutoff := now.Add(-days(j.dlqDays))

	var deleted, dlqDeleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.minAttempts)
		if err != nil {
			return err
		}
		deleted = rows
		if j.dlq == nil {
			return nil
		}
		dlqDeleted, err = j.dlq.DeleteFailedBefore(ctx, tx, dlqCutoff)
		return err
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":           cutoff,
		"dlq_cutoff":       dlqCutoff,
		"min_attempts":     j.minAttempts,
		"rows_deleted":     deleted,
		"dlq_rows_deleted": dlqDeleted,
	})
	j.logg.Info(logCtx, "outbox retention cleanup complete")
	return nil
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
