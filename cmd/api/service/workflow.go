package service

import (
	"context"
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"

	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/logger"
	"github.com/myuon/flowit-sub001/common/models"
	"github.com/myuon/flowit-sub001/common/node"
	"github.com/myuon/flowit-sub001/common/repository"
	"github.com/myuon/flowit-sub001/common/validation"
)

// WorkflowService owns workflow definitions: the head row plus its chain of
// immutable DSL versions. Every definition change cuts a new version and
// advances the head.
type WorkflowService struct {
	workflows      *repository.WorkflowRepository
	versions       *repository.VersionRepository
	registry       *node.Registry
	patchValidator *validation.PatchValidator
	log            *logger.Logger
}

// NewWorkflowService creates a new workflow service
func NewWorkflowService(
	workflows *repository.WorkflowRepository,
	versions *repository.VersionRepository,
	registry *node.Registry,
	log *logger.Logger,
) *WorkflowService {
	return &WorkflowService{
		workflows:      workflows,
		versions:       versions,
		registry:       registry,
		patchValidator: validation.NewPatchValidator(),
		log:            log,
	}
}

// WorkflowDetail is a workflow head joined with its current version DSL
type WorkflowDetail struct {
	Workflow *models.Workflow        `json:"workflow"`
	Version  *models.WorkflowVersion `json:"version,omitempty"`
}

// Create validates the DSL and persists the workflow with version 1 as its
// current version.
func (s *WorkflowService) Create(ctx context.Context, name, description string, dslRaw json.RawMessage) (*WorkflowDetail, error) {
	wf, err := s.parseAndValidate(dslRaw)
	if err != nil {
		return nil, err
	}

	canonical, err := json.Marshal(wf)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workflow DSL: %w", err)
	}

	workflow := &models.Workflow{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
	}
	if err := s.workflows.Create(ctx, workflow); err != nil {
		return nil, err
	}

	version := &models.WorkflowVersion{
		ID:         uuid.New(),
		WorkflowID: workflow.ID,
		Version:    1,
		DSL:        canonical,
	}
	if err := s.workflows.PublishVersion(ctx, version); err != nil {
		return nil, err
	}
	workflow.CurrentVersionID = &version.ID

	s.log.Info("workflow created",
		"workflow_id", workflow.ID,
		"name", name,
		"nodes", len(wf.Nodes),
		"edges", len(wf.Edges))

	return &WorkflowDetail{Workflow: workflow, Version: version}, nil
}

// Get returns the workflow head and its current version when published
func (s *WorkflowService) Get(ctx context.Context, id uuid.UUID) (*WorkflowDetail, error) {
	workflow, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &WorkflowDetail{Workflow: workflow}
	if workflow.CurrentVersionID != nil {
		version, err := s.versions.GetByID(ctx, *workflow.CurrentVersionID)
		if err != nil {
			return nil, err
		}
		detail.Version = version
	}
	return detail, nil
}

// List returns up to limit workflow heads
func (s *WorkflowService) List(ctx context.Context, limit int) ([]*models.Workflow, error) {
	return s.workflows.List(ctx, limit)
}

// Delete removes the workflow head; versions, executions and logs cascade
func (s *WorkflowService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.workflows.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("workflow deleted", "workflow_id", id)
	return nil
}

// Patch applies RFC-6902 operations to the current DSL. The patched document
// must still validate; on success a new immutable version is cut and the
// head advances to it. The previous version stays readable forever.
func (s *WorkflowService) Patch(ctx context.Context, id uuid.UUID, operations []map[string]interface{}) (*WorkflowDetail, error) {
	if err := s.patchValidator.ValidateOperations(operations); err != nil {
		return nil, badRequest(err)
	}

	workflow, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workflow.CurrentVersionID == nil {
		return nil, badRequest(fmt.Errorf("workflow %s has no version to patch", id))
	}

	current, err := s.versions.GetByID(ctx, *workflow.CurrentVersionID)
	if err != nil {
		return nil, err
	}

	patchDoc, err := json.Marshal(operations)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize patch operations: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(patchDoc)
	if err != nil {
		return nil, badRequest(fmt.Errorf("invalid JSON patch: %w", err))
	}

	patched, err := patch.Apply(current.DSL)
	if err != nil {
		return nil, badRequest(fmt.Errorf("failed to apply patch: %w", err))
	}

	wf, err := s.parseAndValidate(patched)
	if err != nil {
		return nil, err
	}
	canonical, err := json.Marshal(wf)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize patched DSL: %w", err)
	}

	next, err := s.versions.NextNumber(ctx, id)
	if err != nil {
		return nil, err
	}

	version := &models.WorkflowVersion{
		ID:         uuid.New(),
		WorkflowID: id,
		Version:    next,
		DSL:        canonical,
	}
	if err := s.workflows.PublishVersion(ctx, version); err != nil {
		return nil, err
	}
	workflow.CurrentVersionID = &version.ID

	s.log.Info("workflow patched",
		"workflow_id", id,
		"version", next,
		"operations", len(operations))

	return &WorkflowDetail{Workflow: workflow, Version: version}, nil
}

// ListVersions returns the version history, newest first
func (s *WorkflowService) ListVersions(ctx context.Context, workflowID uuid.UUID) ([]*models.WorkflowVersion, error) {
	if _, err := s.workflows.GetByID(ctx, workflowID); err != nil {
		return nil, err
	}
	return s.versions.ListByWorkflow(ctx, workflowID)
}

// GetVersion returns one version by its sequential number
func (s *WorkflowService) GetVersion(ctx context.Context, workflowID uuid.UUID, version int) (*models.WorkflowVersion, error) {
	return s.versions.GetByNumber(ctx, workflowID, version)
}

// parseAndValidate decodes raw DSL and runs structural validation against
// the node registry. Validation failures come back as dsl.ValidationErrors
// so handlers can surface the individual messages.
func (s *WorkflowService) parseAndValidate(raw json.RawMessage) (*dsl.Workflow, error) {
	var wf dsl.Workflow
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, badRequest(fmt.Errorf("invalid workflow JSON: %w", err))
	}
	if errs := dsl.Validate(&wf, s.registry); len(errs) > 0 {
		return nil, errs
	}
	return &wf, nil
}
