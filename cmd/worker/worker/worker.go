// Package worker implements the queue consumer: poll pending executions,
// claim them one by one, run each claimed batch member concurrently and
// finalise the rows. Claiming is optimistic; losing a claim to a competing
// worker is normal operation.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/myuon/flowit-sub001/common/cache"
	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/events"
	"github.com/myuon/flowit-sub001/common/executor"
	"github.com/myuon/flowit-sub001/common/models"
	"github.com/myuon/flowit-sub001/common/repository"
	"github.com/myuon/flowit-sub001/common/telemetry"
)

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// QueueStore is the persistent queue surface the worker drives
type QueueStore interface {
	FindPending(ctx context.Context, limit int) ([]*models.Execution, error)
	Claim(ctx context.Context, id uuid.UUID, workerID string) error
	MarkCompleted(ctx context.Context, id uuid.UUID, outputs json.RawMessage) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	CountPending(ctx context.Context) (int64, error)
}

// VersionStore loads immutable DSL snapshots
type VersionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.WorkflowVersion, error)
}

// LogStore persists per-node execution logs
type LogStore interface {
	Create(ctx context.Context, workflowID, executionID uuid.UUID, nodeID string, data json.RawMessage) error
}

// Options configures a worker
type Options struct {
	PollInterval    time.Duration
	BatchSize       int
	VersionCacheTTL time.Duration
}

// Worker is one queue consumer. Batch members run concurrently; each run is
// sequential inside, in the executor.
type Worker struct {
	id       string
	queue    QueueStore
	versions VersionStore
	logs     LogStore
	cache    cache.Cache
	executor *executor.Executor
	events   events.Publisher
	logger   Logger
	opts     Options

	wg sync.WaitGroup
}

// New creates a worker with a unique id
func New(
	queue QueueStore,
	versions VersionStore,
	logs LogStore,
	versionCache cache.Cache,
	exec *executor.Executor,
	publisher events.Publisher,
	logger Logger,
	opts Options,
) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 5
	}
	if opts.VersionCacheTTL <= 0 {
		opts.VersionCacheTTL = 5 * time.Minute
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Worker{
		id:       "worker-" + uuid.New().String(),
		queue:    queue,
		versions: versions,
		logs:     logs,
		cache:    versionCache,
		executor: exec,
		events:   publisher,
		logger:   logger,
		opts:     opts,
	}
}

// ID returns the worker's unique identity, as written into claimed rows
func (w *Worker) ID() string {
	return w.id
}

// Run polls until ctx is cancelled, then drains in-flight executions and
// returns. Poll failures are logged and retried on the next tick.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("Worker started",
		"worker_id", w.id,
		"poll_interval", w.opts.PollInterval.String(),
		"batch_size", w.opts.BatchSize)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		w.Poll(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("Worker draining", "worker_id", w.id)
			w.wg.Wait()
			w.logger.Info("Worker stopped", "worker_id", w.id)
			return
		case <-ticker.C:
		}
	}
}

// Poll runs one find-claim-dispatch cycle and waits for the batch to finish.
func (w *Worker) Poll(ctx context.Context) {
	if pending, err := w.queue.CountPending(ctx); err == nil {
		telemetry.QueuePending.Set(float64(pending))
	}

	candidates, err := w.queue.FindPending(ctx, w.opts.BatchSize)
	if err != nil {
		w.logger.Error("Failed to poll pending executions", "error", err)
		return
	}

	var claimed []*models.Execution
	for _, execution := range candidates {
		err := w.queue.Claim(ctx, execution.ID, w.id)
		if errors.Is(err, repository.ErrClaimLost) {
			telemetry.ClaimsLost.Inc()
			w.logger.Debug("Claim lost", "execution_id", execution.ID)
			continue
		}
		if err != nil {
			w.logger.Error("Failed to claim execution", "execution_id", execution.ID, "error", err)
			continue
		}
		claimed = append(claimed, execution)
	}

	// Claimed rows must reach a terminal state even if the poll context is
	// cancelled mid-run, so runs detach from the shutdown signal.
	runCtx := context.WithoutCancel(ctx)
	for _, execution := range claimed {
		execution := execution
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runExecution(runCtx, execution)
		}()
	}
	w.wg.Wait()
}

// runExecution loads the DSL, walks the workflow and finalises the row.
// Every failure path ends in MarkFailed so no claimed row stays running.
func (w *Worker) runExecution(ctx context.Context, execution *models.Execution) {
	started := time.Now()
	w.logger.Info("Running execution",
		"execution_id", execution.ID,
		"workflow_id", execution.WorkflowID,
		"worker_id", w.id)

	wf, err := w.loadWorkflow(ctx, execution.VersionID)
	if err != nil {
		w.fail(ctx, execution, fmt.Sprintf("failed to load workflow version: %s", err))
		return
	}

	var inputs map[string]any
	if len(execution.Inputs) > 0 {
		if err := json.Unmarshal(execution.Inputs, &inputs); err != nil {
			w.fail(ctx, execution, fmt.Sprintf("failed to decode inputs: %s", err))
			return
		}
	}

	workflowID := execution.WorkflowID.String()
	executionID := execution.ID.String()

	w.publish(ctx, events.Event{
		Type:        events.TypeExecutionStarted,
		ExecutionID: executionID,
		WorkflowID:  workflowID,
	})

	st, runErr := w.executor.Execute(ctx, wf, executor.Options{
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		Inputs:      inputs,
		Secrets:     map[string]string{},
		WriteLog: func(nodeID string, data any) error {
			raw, err := json.Marshal(data)
			if err != nil {
				return fmt.Errorf("failed to serialize log data: %w", err)
			}
			return w.logs.Create(ctx, execution.WorkflowID, execution.ID, nodeID, raw)
		},
		OnNodeStart: func(nodeID, nodeType string) {
			w.publish(ctx, events.Event{
				Type:        events.TypeNodeStarted,
				ExecutionID: executionID,
				WorkflowID:  workflowID,
				NodeID:      nodeID,
				NodeType:    nodeType,
			})
		},
		OnNodeComplete: func(nodeID, nodeType string) {
			w.publish(ctx, events.Event{
				Type:        events.TypeNodeCompleted,
				ExecutionID: executionID,
				WorkflowID:  workflowID,
				NodeID:      nodeID,
				NodeType:    nodeType,
			})
		},
	})

	telemetry.ExecutionDuration.Observe(time.Since(started).Seconds())

	if runErr != nil {
		w.fail(ctx, execution, st.Err)
		return
	}

	outputs, err := json.Marshal(st.WorkflowOutputs(wf))
	if err != nil {
		w.fail(ctx, execution, fmt.Sprintf("failed to serialize outputs: %s", err))
		return
	}
	if err := w.queue.MarkCompleted(ctx, execution.ID, outputs); err != nil {
		if errors.Is(err, repository.ErrFinaliseLost) {
			w.logger.Debug("Finalise lost, execution cancelled mid-run",
				"execution_id", execution.ID)
			return
		}
		w.logger.Error("Failed to mark execution completed",
			"execution_id", execution.ID, "error", err)
		return
	}

	telemetry.ExecutionsTotal.WithLabelValues("success").Inc()
	w.publish(ctx, events.Event{
		Type:        events.TypeExecutionCompleted,
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		Status:      string(models.ExecutionSuccess),
	})
	w.logger.Info("Execution completed",
		"execution_id", execution.ID,
		"duration", time.Since(started).String())
}

func (w *Worker) fail(ctx context.Context, execution *models.Execution, message string) {
	if err := w.queue.MarkFailed(ctx, execution.ID, message); err != nil {
		if errors.Is(err, repository.ErrFinaliseLost) {
			w.logger.Debug("Finalise lost, execution cancelled mid-run",
				"execution_id", execution.ID)
			return
		}
		w.logger.Error("Failed to mark execution failed",
			"execution_id", execution.ID, "error", err)
	}

	telemetry.ExecutionsTotal.WithLabelValues("error").Inc()
	w.publish(ctx, events.Event{
		Type:        events.TypeExecutionFailed,
		ExecutionID: execution.ID.String(),
		WorkflowID:  execution.WorkflowID.String(),
		Status:      string(models.ExecutionError),
		Error:       message,
	})
	w.logger.Warn("Execution failed",
		"execution_id", execution.ID,
		"error", message)
}

// loadWorkflow reads a version's DSL through the TTL cache. Versions are
// immutable, so a cached copy never goes stale.
func (w *Worker) loadWorkflow(ctx context.Context, versionID uuid.UUID) (*dsl.Workflow, error) {
	key := "version:" + versionID.String()

	if w.cache != nil {
		if raw, ok, err := w.cache.Get(ctx, key); err == nil && ok {
			var wf dsl.Workflow
			if err := json.Unmarshal(raw, &wf); err == nil {
				return &wf, nil
			}
		}
	}

	version, err := w.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}

	var wf dsl.Workflow
	if err := json.Unmarshal(version.DSL, &wf); err != nil {
		return nil, fmt.Errorf("failed to decode stored DSL: %w", err)
	}

	if w.cache != nil {
		_ = w.cache.Set(ctx, key, version.DSL, w.opts.VersionCacheTTL)
	}
	return &wf, nil
}

func (w *Worker) publish(ctx context.Context, event events.Event) {
	if err := w.events.Publish(ctx, event); err != nil {
		w.logger.Warn("Failed to publish event", "type", event.Type, "error", err)
	}
}
