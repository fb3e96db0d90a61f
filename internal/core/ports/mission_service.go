package ports

import (
	"context"
	"time"

	"github.com/fieldops/tracker/internal/core/domain"
)

// CreateMissionInput carries the fields accepted when creating a mission.
type CreateMissionInput struct {
	Title         string
	Status        string
	ReferentAgent string
	StartDate     *time.Time
	EndDate       *time.Time
}

// UpdateMissionInput carries a partial mission update. Nil fields are
// absent from the payload and left untouched.
type UpdateMissionInput struct {
	Title         *string
	Status        *string
	ReferentAgent *string
	StartDate     *time.Time
	EndDate       *time.Time
}

// MissionService defines use-case operations for missions.
type MissionService interface {
	Create(ctx context.Context, input CreateMissionInput) (*domain.Mission, error)
	FindAll(ctx context.Context) ([]*domain.Mission, error)
	UpdateByID(ctx context.Context, id int64, input UpdateMissionInput) (*domain.Mission, error)
	PatchByID(ctx context.Context, id int64, input UpdateMissionInput) (*domain.Mission, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)

	// DeleteOldCompleted removes terminal missions whose end date is
	// older than the given number of days, returning how many were
	// removed. days must be a positive number.
	DeleteOldCompleted(ctx context.Context, days int) (int64, error)

	// FindOverdue lists non-terminal missions whose end date has passed.
	FindOverdue(ctx context.Context) ([]*domain.Mission, error)
}

// CreateMissionStepInput carries the fields accepted when creating a
// step. MissionID is required; nil means the payload named no parent.
type CreateMissionStepInput struct {
	Description   string
	Status        string
	AssignedAgent string
	Location      string
	StartDate     *time.Time
	EndDate       *time.Time
	MissionID     *int64
}

// UpdateMissionStepInput carries a partial step update. A non-nil
// MissionID re-parents the step after an existence check.
type UpdateMissionStepInput struct {
	Description   *string
	Status        *string
	AssignedAgent *string
	Location      *string
	StartDate     *time.Time
	EndDate       *time.Time
	MissionID     *int64
}

// MissionStepService defines use-case operations for mission steps.
type MissionStepService interface {
	Create(ctx context.Context, input CreateMissionStepInput) (*domain.MissionStep, error)
	FindAll(ctx context.Context) ([]*domain.MissionStep, error)
	UpdateByID(ctx context.Context, id int64, input UpdateMissionStepInput) (*domain.MissionStep, error)
	PatchByID(ctx context.Context, id int64, input UpdateMissionStepInput) (*domain.MissionStep, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// CreateMissionReportInput carries the fields accepted when creating a
// report. MissionStepID is required; nil means no parent was named.
type CreateMissionReportInput struct {
	Details       string
	AuthorAgent   string
	MissionStepID *int64
}

// UpdateMissionReportInput carries a partial report update.
type UpdateMissionReportInput struct {
	Details       *string
	AuthorAgent   *string
	MissionStepID *int64
}

// MissionReportService defines use-case operations for mission reports.
type MissionReportService interface {
	Create(ctx context.Context, input CreateMissionReportInput) (*domain.MissionReport, error)
	FindAll(ctx context.Context) ([]*domain.MissionReport, error)
	UpdateByID(ctx context.Context, id int64, input UpdateMissionReportInput) (*domain.MissionReport, error)
	PatchByID(ctx context.Context, id int64, input UpdateMissionReportInput) (*domain.MissionReport, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}
