package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/myuon/flowit-sub001/common/logger"
	"github.com/myuon/flowit-sub001/common/models"
	"github.com/myuon/flowit-sub001/common/repository"
)

// ScheduleService manages cron triggers. The worker's scheduler picks up
// changes on its refresh interval; nothing here talks to it directly.
type ScheduleService struct {
	schedules *repository.ScheduleRepository
	workflows *repository.WorkflowRepository
	log       *logger.Logger
}

// NewScheduleService creates a new schedule service
func NewScheduleService(
	schedules *repository.ScheduleRepository,
	workflows *repository.WorkflowRepository,
	log *logger.Logger,
) *ScheduleService {
	return &ScheduleService{schedules: schedules, workflows: workflows, log: log}
}

// Create registers a cron trigger for a workflow. The cron expression is
// parsed up front so a broken trigger never reaches the scheduler.
func (s *ScheduleService) Create(ctx context.Context, workflowID uuid.UUID, cronExpr string, inputs map[string]any, enabled bool) (*models.Schedule, error) {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return nil, badRequest(fmt.Errorf("invalid cron expression %q: %w", cronExpr, err))
	}
	if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
		return nil, err
	}

	if inputs == nil {
		inputs = map[string]any{}
	}
	inputsRaw, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schedule inputs: %w", err)
	}

	schedule := &models.Schedule{
		ID:         uuid.New(),
		WorkflowID: workflowID,
		CronExpr:   cronExpr,
		Inputs:     inputsRaw,
		Enabled:    enabled,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, err
	}

	s.log.Info("schedule created",
		"schedule_id", schedule.ID,
		"workflow_id", workflowID,
		"cron", cronExpr)
	return schedule, nil
}

// ListByWorkflow returns a workflow's schedules
func (s *ScheduleService) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.Schedule, error) {
	if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
		return nil, err
	}
	return s.schedules.ListByWorkflow(ctx, workflowID)
}

// Delete removes a schedule
func (s *ScheduleService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("schedule deleted", "schedule_id", id)
	return nil
}
