package ports

import (
	"context"
	"time"

	"github.com/fieldops/tracker/internal/core/domain"
)

// MissionRepository defines persistence operations for missions.
// DeleteByID and DeleteAll cascade to the mission's steps and,
// transitively, to the reports of those steps.
type MissionRepository interface {
	Create(ctx context.Context, m *domain.Mission) (*domain.Mission, error)
	FindAll(ctx context.Context) ([]*domain.Mission, error)
	FindByID(ctx context.Context, id int64) (*domain.Mission, error)
	Update(ctx context.Context, m *domain.Mission) (*domain.Mission, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)

	// DeleteTerminalEndedBefore removes every mission whose status is
	// terminal and whose end date is set and strictly before cutoff.
	// It returns the number of missions removed (children included via
	// the cascade).
	DeleteTerminalEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// FindOverdue returns missions in non-terminal status whose end
	// date is set and already past now.
	FindOverdue(ctx context.Context, now time.Time) ([]*domain.Mission, error)
}

// MissionStepRepository defines persistence operations for steps.
// DeleteByID and DeleteAll cascade to the step's reports. Find results
// carry the owning mission attached.
type MissionStepRepository interface {
	Create(ctx context.Context, s *domain.MissionStep) (*domain.MissionStep, error)
	FindAll(ctx context.Context) ([]*domain.MissionStep, error)
	FindByID(ctx context.Context, id int64) (*domain.MissionStep, error)
	Update(ctx context.Context, s *domain.MissionStep) (*domain.MissionStep, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// MissionReportRepository defines persistence operations for reports.
// The details field is encrypted at rest by the implementation; callers
// read and write plaintext. Find results carry the owning step attached.
type MissionReportRepository interface {
	Create(ctx context.Context, r *domain.MissionReport) (*domain.MissionReport, error)
	FindAll(ctx context.Context) ([]*domain.MissionReport, error)
	FindByID(ctx context.Context, id int64) (*domain.MissionReport, error)
	Update(ctx context.Context, r *domain.MissionReport) (*domain.MissionReport, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}
