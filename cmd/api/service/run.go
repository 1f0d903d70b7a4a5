package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/executor"
	"github.com/myuon/flowit-sub001/common/logger"
	"github.com/myuon/flowit-sub001/common/node"
	"github.com/myuon/flowit-sub001/common/telemetry"
)

// RunService backs the synchronous validate and execute endpoints. Runs are
// fully in-memory: a fresh execution id, no queue row, no secrets beyond
// what the request carries.
type RunService struct {
	registry *node.Registry
	executor *executor.Executor
	log      *logger.Logger
}

// NewRunService creates a new run service
func NewRunService(registry *node.Registry, exec *executor.Executor, log *logger.Logger) *RunService {
	return &RunService{registry: registry, executor: exec, log: log}
}

// ValidateResult is the validate endpoint payload
type ValidateResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate parses and structurally validates a workflow document
func (s *RunService) Validate(raw json.RawMessage) *ValidateResult {
	var wf dsl.Workflow
	if err := json.Unmarshal(raw, &wf); err != nil {
		return &ValidateResult{Valid: false, Errors: []string{"invalid workflow JSON: " + err.Error()}}
	}
	if errs := dsl.Validate(&wf, s.registry); len(errs) > 0 {
		return &ValidateResult{Valid: false, Errors: errs.Strings()}
	}
	return &ValidateResult{Valid: true}
}

// RunResult is the synchronous execute outcome
type RunResult struct {
	ExecutionID string         `json:"executionId"`
	Outputs     map[string]any `json:"outputs,omitempty"`
	Logs        []string       `json:"logs,omitempty"`
	Err         string         `json:"error,omitempty"`
}

// Execute validates and runs a workflow document in-process. A validation
// failure returns (nil, *ValidateResult describing it); a run failure
// returns a RunResult whose Err carries the failing node's message.
func (s *RunService) Execute(ctx context.Context, raw json.RawMessage, inputs map[string]any, secrets map[string]string) (*RunResult, *ValidateResult) {
	var wf dsl.Workflow
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, &ValidateResult{Valid: false, Errors: []string{"invalid workflow JSON: " + err.Error()}}
	}
	if errs := dsl.Validate(&wf, s.registry); len(errs) > 0 {
		return nil, &ValidateResult{Valid: false, Errors: errs.Strings()}
	}

	executionID := uuid.New().String()
	started := time.Now()

	st, err := s.executor.Execute(ctx, &wf, executor.Options{
		ExecutionID: executionID,
		Inputs:      inputs,
		Secrets:     secrets,
	})

	telemetry.ExecutionDuration.Observe(time.Since(started).Seconds())

	result := &RunResult{ExecutionID: executionID, Logs: st.Logs}
	if err != nil {
		telemetry.ExecutionsTotal.WithLabelValues("error").Inc()
		result.Err = st.Err
		s.log.Warn("synchronous execution failed",
			"execution_id", executionID,
			"error", st.Err)
		return result, nil
	}

	telemetry.ExecutionsTotal.WithLabelValues("success").Inc()
	result.Outputs = st.WorkflowOutputs(&wf)
	return result, nil
}
