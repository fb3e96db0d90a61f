package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldops/tracker/internal/core/ports"
)

// CleanupJob periodically purges terminal missions whose end date is
// older than the retention window. A failed run is logged and retried
// on the next tick.
type CleanupJob struct {
	missions      ports.MissionService
	interval      time.Duration
	retentionDays int
	log           zerolog.Logger
}

func NewCleanupJob(missions ports.MissionService, interval time.Duration, retentionDays int, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		missions:      missions,
		interval:      interval,
		retentionDays: retentionDays,
		log:           log,
	}
}

// Run ticks until the context is cancelled. The first pass happens one
// full interval after startup so deploys do not trigger mass deletes.
func (j *CleanupJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *CleanupJob) runOnce(ctx context.Context) {
	deleted, err := j.missions.DeleteOldCompleted(ctx, j.retentionDays)
	if err != nil {
		j.log.Error().Err(err).
			Int("retention_days", j.retentionDays).
			Msg("cleanup run failed")
		return
	}
	j.log.Info().
		Int64("deleted", deleted).
		Int("retention_days", j.retentionDays).
		Msg("cleanup run finished")
}
