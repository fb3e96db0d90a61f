package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldops/tracker/internal/core/ports"
)

// OverdueJob periodically scans for missions whose end date has passed
// without reaching a terminal status and logs a warning for each.
type OverdueJob struct {
	missions ports.MissionService
	interval time.Duration
	log      zerolog.Logger
}

func NewOverdueJob(missions ports.MissionService, interval time.Duration, log zerolog.Logger) *OverdueJob {
	return &OverdueJob{missions: missions, interval: interval, log: log}
}

// Run ticks until the context is cancelled.
func (j *OverdueJob) Run(ctx context.Context) {
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

func (j *OverdueJob) runOnce(ctx context.Context) {
	overdue, err := j.missions.FindOverdue(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("overdue scan failed")
		return
	}

	for _, m := range overdue {
		if m.EndDate == nil {
			continue
		}
		j.log.Warn().
			Int64("mission_id", m.ID).
			Str("titre", m.Title).
			Str("agent", m.ReferentAgent).
			Time("date_fin", *m.EndDate).
			Msg("mission past its end date")
	}
}
