package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/petlife-licenser/pkg/logger"
	"github.com/angelmondragon/petlife-licenser/pkg/metrics"
)

const day = 24 * time.Hour

// ValidationRetentionJobParams configure pruning of the validation audit trail.
type ValidationRetentionJobParams struct {
	Logger     *logger.Logger
	Repository validationRetentionRepo
	Metrics    *metrics.CronJobMetrics
	Days       int
}

type validationRetentionRepo interface {
	DeleteValidationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewValidationRetentionJob deletes validation records older than Days. Days must be positive;
// callers skip registering the job when retention is disabled.
func NewValidationRetentionJob(params ValidationRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("license repository required")
	}
	if params.Days <= 0 {
		return nil, fmt.Errorf("retention days must be positive")
	}
	return &validationRetentionJob{
		logg: params.Logger,
		repo:    params.Repository,
		metrics: params.Metrics,
		days:    params.Days,
		now:     time.Now,
	}, nil
}

type validationRetentionJob struct {
	logg    *logger.Logger
	repo    validationRetentionRepo
	metrics *metrics.CronJobMetrics
	days    int
	now     func() time.Time
}

func (j *validationRetentionJob) Name() string { return "validation-retention" }

func (j *validationRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.days) * day)
	deleted, err := j.repo.DeleteValidationsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("validation retention: %w", err)
	}
	j.metrics.AddPruned(j.Name(), deleted)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.days,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "cron.validation_retention.pruned")
	return nil
}
