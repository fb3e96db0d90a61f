package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldops/tracker/internal/core/domain"
	"github.com/fieldops/tracker/internal/core/ports"
)

// MissionReportService validates and persists mission reports. The
// details field travels through this service as plaintext; the report
// repository encrypts it at the persistence boundary.
type MissionReportService struct {
	repo     ports.MissionReportRepository
	stepRepo ports.MissionStepRepository
	logger   zerolog.Logger
}

func NewMissionReportService(repo ports.MissionReportRepository, stepRepo ports.MissionStepRepository, logger zerolog.Logger) *MissionReportService {
	return &MissionReportService{repo: repo, stepRepo: stepRepo, logger: logger}
}

func (s *MissionReportService) Create(ctx context.Context, input ports.CreateMissionReportInput) (*domain.MissionReport, error) {
	if strings.TrimSpace(input.Details) == "" {
		return nil, domain.Validationf("details is required")
	}
	if strings.TrimSpace(input.AuthorAgent) == "" {
		return nil, domain.Validationf("agentRedacteur is required")
	}
	if input.MissionStepID == nil {
		return nil, domain.Validationf("missionReport must reference a missionStep (missionStepId or missionStep:{id})")
	}

	step, err := s.stepRepo.FindByID(ctx, *input.MissionStepID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	report := &domain.MissionReport{
		Details:       input.Details,
		AuthorAgent:   input.AuthorAgent,
		CreatedAt:     now,
		UpdatedAt:     now,
		MissionStep:   step,
		MissionStepID: step.ID,
	}

	created, err := s.repo.Create(ctx, report)
	if err != nil {
		s.logger.Error().Err(err).Int64("step_id", step.ID).Msg("failed to create mission report")
		return nil, err
	}

	s.logger.Info().Int64("report_id", created.ID).Int64("step_id", step.ID).Msg("mission report created")
	return created, nil
}

func (s *MissionReportService) FindAll(ctx context.Context) ([]*domain.MissionReport, error) {
	return s.repo.FindAll(ctx)
}

func (s *MissionReportService) UpdateByID(ctx context.Context, id int64, input ports.UpdateMissionReportInput) (*domain.MissionReport, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Details != nil {
		if strings.TrimSpace(*input.Details) == "" {
			return nil, domain.Validationf("details cannot be empty")
		}
		report.Details = *input.Details
	}
	if input.AuthorAgent != nil {
		if strings.TrimSpace(*input.AuthorAgent) == "" {
			return nil, domain.Validationf("agentRedacteur cannot be empty")
		}
		report.AuthorAgent = *input.AuthorAgent
	}

	if input.MissionStepID != nil {
		step, err := s.stepRepo.FindByID(ctx, *input.MissionStepID)
		if err != nil {
			return nil, err
		}
		report.MissionStep = step
		report.MissionStepID = step.ID
	}

	report.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Update(ctx, report)
	if err != nil {
		s.logger.Error().Err(err).Int64("report_id", id).Msg("failed to update mission report")
		return nil, err
	}
	return updated, nil
}

func (s *MissionReportService) PatchByID(ctx context.Context, id int64, input ports.UpdateMissionReportInput) (*domain.MissionReport, error) {
	return s.UpdateByID(ctx, id, input)
}

func (s *MissionReportService) DeleteByID(ctx context.Context, id int64) error {
	return s.repo.DeleteByID(ctx, id)
}

func (s *MissionReportService) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}

func (s *MissionReportService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
