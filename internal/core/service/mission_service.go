package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldops/tracker/internal/api/metrics"
	"github.com/fieldops/tracker/internal/core/domain"
	"github.com/fieldops/tracker/internal/core/ports"
)

// MissionService validates and persists missions and owns the
// time-windowed cleanup and overdue queries.
type MissionService struct {
	repo     ports.MissionRepository
	notifier ports.Notifier
	logger   zerolog.Logger
}

// NewMissionService wires a MissionService. notifier may be nil when no
// realtime relay is attached (tests, maintenance tools).
func NewMissionService(repo ports.MissionRepository, notifier ports.Notifier, logger zerolog.Logger) *MissionService {
	return &MissionService{repo: repo, notifier: notifier, logger: logger}
}

// missionEvent is the opaque payload pushed to the realtime relay on
// lifecycle changes.
type missionEvent struct {
	Type    string          `json:"type"`
	Mission *domain.Mission `json:"mission,omitempty"`
	ID      int64           `json:"id,omitempty"`
}

func (s *MissionService) Create(ctx context.Context, input ports.CreateMissionInput) (*domain.Mission, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.Validationf("titre is required")
	}
	if strings.TrimSpace(input.ReferentAgent) == "" {
		return nil, domain.Validationf("agentReferent is required")
	}
	status, ok := domain.NormalizeStatus(input.Status)
	if !ok {
		return nil, domain.Validationf("invalid statut (expected one of: %s)", domain.StatusList())
	}
	if err := domain.ValidateDateRange(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	mission := &domain.Mission{
		Title:         input.Title,
		Status:        status,
		ReferentAgent: input.ReferentAgent,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.repo.Create(ctx, mission)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create mission")
		return nil, err
	}

	metrics.MissionsCreatedTotal.WithLabelValues(string(created.Status)).Inc()
	s.logger.Info().Int64("mission_id", created.ID).Str("statut", string(created.Status)).Msg("mission created")
	s.publish(ctx, missionEvent{Type: "mission:created", Mission: created})

	return created, nil
}

func (s *MissionService) FindAll(ctx context.Context) ([]*domain.Mission, error) {
	return s.repo.FindAll(ctx)
}

// UpdateByID merges the supplied fields onto the stored mission. The
// date-range check runs against the merged record, so patching dateFin
// below a stored dateDebut fails even when dateDebut is not in the
// payload.
func (s *MissionService) UpdateByID(ctx context.Context, id int64, input ports.UpdateMissionInput) (*domain.Mission, error) {
	mission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, domain.Validationf("titre cannot be empty")
		}
		mission.Title = *input.Title
	}
	if input.ReferentAgent != nil {
		if strings.TrimSpace(*input.ReferentAgent) == "" {
			return nil, domain.Validationf("agentReferent cannot be empty")
		}
		mission.ReferentAgent = *input.ReferentAgent
	}
	if input.Status != nil {
		status, ok := domain.NormalizeStatus(*input.Status)
		if !ok {
			return nil, domain.Validationf("invalid statut (expected one of: %s)", domain.StatusList())
		}
		mission.Status = status
	}
	if input.StartDate != nil {
		mission.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		mission.EndDate = input.EndDate
	}
	if err := domain.ValidateDateRange(mission.StartDate, mission.EndDate); err != nil {
		return nil, err
	}

	mission.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Update(ctx, mission)
	if err != nil {
		s.logger.Error().Err(err).Int64("mission_id", id).Msg("failed to update mission")
		return nil, err
	}

	s.publish(ctx, missionEvent{Type: "mission:updated", Mission: updated})
	return updated, nil
}

func (s *MissionService) PatchByID(ctx context.Context, id int64, input ports.UpdateMissionInput) (*domain.Mission, error) {
	return s.UpdateByID(ctx, id, input)
}

func (s *MissionService) DeleteByID(ctx context.Context, id int64) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("mission_id", id).Msg("mission deleted")
	s.publish(ctx, missionEvent{Type: "mission:deleted", ID: id})
	return nil
}

func (s *MissionService) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}

func (s *MissionService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// DeleteOldCompleted removes ANNULE/TERMINE missions whose end date is
// older than days days, cascading to their steps and reports.
func (s *MissionService) DeleteOldCompleted(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, domain.Validationf("days must be a number > 0")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	// The repository reports how many missions it removed even when the
	// child cascade fails part-way; that count must reach the caller.
	deleted, err := s.repo.DeleteTerminalEndedBefore(ctx, cutoff)
	if deleted > 0 {
		metrics.MissionsCleanedTotal.Add(float64(deleted))
	}
	return deleted, err
}

func (s *MissionService) FindOverdue(ctx context.Context) ([]*domain.Mission, error) {
	overdue, err := s.repo.FindOverdue(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	metrics.MissionsOverdueDetected.Set(float64(len(overdue)))
	return overdue, nil
}

// publish pushes a lifecycle event to the relay. Delivery failures are
// logged and never fail the originating operation.
func (s *MissionService) publish(ctx context.Context, ev missionEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyAll(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("event", ev.Type).Msg("failed to publish mission event")
	}
}
