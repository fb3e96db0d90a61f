package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldops/tracker/internal/core/domain"
	"github.com/fieldops/tracker/internal/core/ports"
)

// MissionStepService validates and persists mission steps. Every write
// that names a mission resolves it against the mission store first; the
// resolved entity, not the raw identifier, is attached before saving.
type MissionStepService struct {
	repo        ports.MissionStepRepository
	missionRepo ports.MissionRepository
	logger      zerolog.Logger
}

func NewMissionStepService(repo ports.MissionStepRepository, missionRepo ports.MissionRepository, logger zerolog.Logger) *MissionStepService {
	return &MissionStepService{repo: repo, missionRepo: missionRepo, logger: logger}
}

func (s *MissionStepService) Create(ctx context.Context, input ports.CreateMissionStepInput) (*domain.MissionStep, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, domain.Validationf("description is required")
	}
	if strings.TrimSpace(input.AssignedAgent) == "" {
		return nil, domain.Validationf("agentAssigne is required")
	}
	status, ok := domain.NormalizeStatus(input.Status)
	if !ok {
		return nil, domain.Validationf("invalid statut (expected one of: %s)", domain.StatusList())
	}
	if err := domain.ValidateDateRange(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if input.MissionID == nil {
		return nil, domain.Validationf("missionStep must reference a mission (missionId or mission:{id})")
	}

	mission, err := s.missionRepo.FindByID(ctx, *input.MissionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	step := &domain.MissionStep{
		Description:   input.Description,
		Status:        status,
		AssignedAgent: input.AssignedAgent,
		Location:      input.Location,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		CreatedAt:     now,
		UpdatedAt:     now,
		Mission:       mission,
		MissionID:     mission.ID,
	}

	created, err := s.repo.Create(ctx, step)
	if err != nil {
		s.logger.Error().Err(err).Int64("mission_id", mission.ID).Msg("failed to create mission step")
		return nil, err
	}

	s.logger.Info().Int64("step_id", created.ID).Int64("mission_id", mission.ID).Msg("mission step created")
	return created, nil
}

func (s *MissionStepService) FindAll(ctx context.Context) ([]*domain.MissionStep, error) {
	return s.repo.FindAll(ctx)
}

// UpdateByID merges the supplied fields onto the stored step. A new
// mission identifier is re-resolved with the same existence check as
// create before reassignment.
func (s *MissionStepService) UpdateByID(ctx context.Context, id int64, input ports.UpdateMissionStepInput) (*domain.MissionStep, error) {
	step, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, domain.Validationf("description cannot be empty")
		}
		step.Description = *input.Description
	}
	if input.AssignedAgent != nil {
		if strings.TrimSpace(*input.AssignedAgent) == "" {
			return nil, domain.Validationf("agentAssigne cannot be empty")
		}
		step.AssignedAgent = *input.AssignedAgent
	}
	if input.Status != nil {
		status, ok := domain.NormalizeStatus(*input.Status)
		if !ok {
			return nil, domain.Validationf("invalid statut (expected one of: %s)", domain.StatusList())
		}
		step.Status = status
	}
	if input.Location != nil {
		step.Location = *input.Location
	}
	if input.StartDate != nil {
		step.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		step.EndDate = input.EndDate
	}
	if err := domain.ValidateDateRange(step.StartDate, step.EndDate); err != nil {
		return nil, err
	}

	if input.MissionID != nil {
		mission, err := s.missionRepo.FindByID(ctx, *input.MissionID)
		if err != nil {
			return nil, err
		}
		step.Mission = mission
		step.MissionID = mission.ID
	}

	step.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Update(ctx, step)
	if err != nil {
		s.logger.Error().Err(err).Int64("step_id", id).Msg("failed to update mission step")
		return nil, err
	}
	return updated, nil
}

func (s *MissionStepService) PatchByID(ctx context.Context, id int64, input ports.UpdateMissionStepInput) (*domain.MissionStep, error) {
	return s.UpdateByID(ctx, id, input)
}

func (s *MissionStepService) DeleteByID(ctx context.Context, id int64) error {
	return s.repo.DeleteByID(ctx, id)
}

func (s *MissionStepService) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}

func (s *MissionStepService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
