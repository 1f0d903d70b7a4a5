package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/logger"
	"github.com/myuon/flowit-sub001/common/models"
	"github.com/myuon/flowit-sub001/common/repository"
)

// ExecutionService fronts the persistent queue for the API: enqueue against
// the current version, read rows and logs, cancel non-terminal runs. The
// worker owns every other transition.
type ExecutionService struct {
	workflows  *repository.WorkflowRepository
	versions   *repository.VersionRepository
	executions *repository.ExecutionRepository
	logs       *repository.ExecutionLogRepository
	log        *logger.Logger
}

// NewExecutionService creates a new execution service
func NewExecutionService(
	workflows *repository.WorkflowRepository,
	versions *repository.VersionRepository,
	executions *repository.ExecutionRepository,
	logs *repository.ExecutionLogRepository,
	log *logger.Logger,
) *ExecutionService {
	return &ExecutionService{
		workflows:  workflows,
		versions:   versions,
		executions: executions,
		logs:       logs,
		log:        log,
	}
}

// Enqueue creates a pending execution of the workflow's current version.
// Submitted inputs are checked against the DSL's declared input schemas
// before the row is written; the worker never re-validates.
func (s *ExecutionService) Enqueue(ctx context.Context, workflowID uuid.UUID, inputs map[string]any) (uuid.UUID, error) {
	workflow, err := s.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return uuid.Nil, err
	}
	if workflow.CurrentVersionID == nil {
		return uuid.Nil, badRequest(fmt.Errorf("workflow %s has no published version", workflowID))
	}

	version, err := s.versions.GetByID(ctx, *workflow.CurrentVersionID)
	if err != nil {
		return uuid.Nil, err
	}

	var wf dsl.Workflow
	if err := json.Unmarshal(version.DSL, &wf); err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode stored DSL: %w", err)
	}
	if err := dsl.ValidateInputs(wf.Inputs, inputs); err != nil {
		return uuid.Nil, err
	}

	if inputs == nil {
		inputs = map[string]any{}
	}
	inputsRaw, err := json.Marshal(inputs)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to serialize inputs: %w", err)
	}

	id, err := s.executions.Enqueue(ctx, workflowID, version.ID, inputsRaw)
	if err != nil {
		return uuid.Nil, err
	}

	s.log.Info("execution enqueued",
		"execution_id", id,
		"workflow_id", workflowID,
		"version", version.Version)
	return id, nil
}

// Get returns one execution row
func (s *ExecutionService) Get(ctx context.Context, id uuid.UUID) (*models.Execution, error) {
	return s.executions.GetByID(ctx, id)
}

// ListByWorkflow returns a workflow's executions, newest first
func (s *ExecutionService) ListByWorkflow(ctx context.Context, workflowID uuid.UUID, limit int) ([]*models.Execution, error) {
	if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
		return nil, err
	}
	return s.executions.ListByWorkflow(ctx, workflowID, limit)
}

// Cancel moves a pending or running execution to cancelled. A worker that
// already holds the claim finishes its walk, but its finalise only matches
// running rows, so the cancelled status on the row stands.
func (s *ExecutionService) Cancel(ctx context.Context, id uuid.UUID) error {
	if err := s.executions.Cancel(ctx, id); err != nil {
		return err
	}
	s.log.Info("execution cancelled", "execution_id", id)
	return nil
}

// Logs returns the execution's persisted node logs in write order
func (s *ExecutionService) Logs(ctx context.Context, executionID uuid.UUID) ([]*models.ExecutionLog, error) {
	if _, err := s.executions.GetByID(ctx, executionID); err != nil {
		return nil, err
	}
	return s.logs.ListByExecution(ctx, executionID)
}
