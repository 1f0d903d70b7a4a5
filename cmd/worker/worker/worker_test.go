package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/myuon/flowit-sub001/common/cache"
	"github.com/myuon/flowit-sub001/common/condition"
	"github.com/myuon/flowit-sub001/common/events"
	"github.com/myuon/flowit-sub001/common/executor"
	"github.com/myuon/flowit-sub001/common/models"
	"github.com/myuon/flowit-sub001/common/node"
	"github.com/myuon/flowit-sub001/common/nodes"
	"github.com/myuon/flowit-sub001/common/repository"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, kv ...interface{})  {}
func (nopLogger) Error(msg string, kv ...interface{}) {}
func (nopLogger) Warn(msg string, kv ...interface{})  {}
func (nopLogger) Debug(msg string, kv ...interface{}) {}

// fakeQueue is an in-memory queue honoring the claim and finalise
// protocols. cancelAfterClaim simulates an admin cancelling the row while
// the worker runs it.
type fakeQueue struct {
	mu               sync.Mutex
	rows             map[uuid.UUID]*models.Execution
	cancelAfterClaim bool
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{rows: make(map[uuid.UUID]*models.Execution)}
}

func (q *fakeQueue) add(e *models.Execution) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rows[e.ID] = e
}

func (q *fakeQueue) get(id uuid.UUID) models.Execution {
	q.mu.Lock()
	defer q.mu.Unlock()
	return *q.rows[id]
}

func (q *fakeQueue) FindPending(ctx context.Context, limit int) ([]*models.Execution, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*models.Execution
	for _, e := range q.rows {
		if e.Status == models.ExecutionPending && len(out) < limit {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (q *fakeQueue) Claim(ctx context.Context, id uuid.UUID, workerID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	row, ok := q.rows[id]
	if !ok || row.Status != models.ExecutionPending {
		return repository.ErrClaimLost
	}
	row.Status = models.ExecutionRunning
	row.WorkerID = workerID
	if q.cancelAfterClaim {
		row.Status = models.ExecutionCancelled
	}
	return nil
}

func (q *fakeQueue) MarkCompleted(ctx context.Context, id uuid.UUID, outputs json.RawMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.rows[id].Status != models.ExecutionRunning {
		return repository.ErrFinaliseLost
	}
	q.rows[id].Status = models.ExecutionSuccess
	q.rows[id].Outputs = outputs
	return nil
}

func (q *fakeQueue) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.rows[id].Status != models.ExecutionRunning {
		return repository.ErrFinaliseLost
	}
	q.rows[id].Status = models.ExecutionError
	q.rows[id].Error = errMsg
	return nil
}

func (q *fakeQueue) CountPending(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var n int64
	for _, e := range q.rows {
		if e.Status == models.ExecutionPending {
			n++
		}
	}
	return n, nil
}

type fakeVersions struct {
	mu       sync.Mutex
	versions map[uuid.UUID]*models.WorkflowVersion
	loads    int
}

func (f *fakeVersions) GetByID(ctx context.Context, id uuid.UUID) (*models.WorkflowVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	v, ok := f.versions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

type logEntry struct {
	nodeID string
	data   json.RawMessage
}

type fakeLogs struct {
	mu      sync.Mutex
	entries []logEntry
}

func (f *fakeLogs) Create(ctx context.Context, workflowID, executionID uuid.UUID, nodeID string, data json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, logEntry{nodeID: nodeID, data: data})
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

const workflowJSON = `{
	"dslVersion": "v1",
	"meta": {"name": "test"},
	"nodes": [
		{
			"id": "tpl",
			"type": "template",
			"params": {"template": {"type": "static", "value": "done"}}
		},
		{
			"id": "rec",
			"type": "log",
			"params": {"message": {"type": "static", "value": "finished"}}
		},
		{"id": "out", "type": "output", "label": "result"}
	],
	"edges": [
		{"id": "e1", "source": "tpl", "target": "rec", "sourceHandle": "result", "targetHandle": "value"},
		{"id": "e2", "source": "rec", "target": "out", "sourceHandle": "value", "targetHandle": "value"}
	]
}`

const failingWorkflowJSON = `{
	"dslVersion": "v1",
	"meta": {"name": "boom"},
	"nodes": [
		{
			"id": "tpl",
			"type": "template",
			"params": {"template": {"type": "secret", "ref": "MISSING"}}
		}
	],
	"edges": []
}`

func testExecutor(t *testing.T) *executor.Executor {
	t.Helper()
	registry := node.NewRegistry(nopLogger{})
	nodes.RegisterAll(registry, nodes.Deps{Evaluator: condition.NewEvaluator()})
	return executor.New(registry, nopLogger{})
}

func setup(t *testing.T, dslJSON string) (*Worker, *fakeQueue, *fakeVersions, *fakeLogs, *recordingPublisher, uuid.UUID) {
	t.Helper()

	versionID := uuid.New()
	versions := &fakeVersions{versions: map[uuid.UUID]*models.WorkflowVersion{
		versionID: {ID: versionID, Version: 1, DSL: json.RawMessage(dslJSON)},
	}}

	queue := newFakeQueue()
	logs := &fakeLogs{}
	publisher := &recordingPublisher{}
	versionCache := cache.NewMemoryCache()
	t.Cleanup(func() { versionCache.Close() })

	w := New(queue, versions, logs, versionCache, testExecutor(t), publisher, nopLogger{}, Options{
		PollInterval:    10 * time.Millisecond,
		BatchSize:       5,
		VersionCacheTTL: time.Minute,
	})
	return w, queue, versions, logs, publisher, versionID
}

func pendingExecution(workflowID, versionID uuid.UUID) *models.Execution {
	return &models.Execution{
		ID:         uuid.New(),
		WorkflowID: workflowID,
		VersionID:  versionID,
		Status:     models.ExecutionPending,
		Inputs:     json.RawMessage(`{}`),
	}
}

func TestPoll_RunsExecutionToSuccess(t *testing.T) {
	w, queue, _, logs, publisher, versionID := setup(t, workflowJSON)

	execution := pendingExecution(uuid.New(), versionID)
	queue.add(execution)

	w.Poll(context.Background())

	row := queue.get(execution.ID)
	if row.Status != models.ExecutionSuccess {
		t.Fatalf("Expected success, got %s (error: %s)", row.Status, row.Error)
	}
	if row.WorkerID != w.ID() {
		t.Errorf("Expected worker id %s on row, got %s", w.ID(), row.WorkerID)
	}

	var outputs map[string]map[string]any
	if err := json.Unmarshal(row.Outputs, &outputs); err != nil {
		t.Fatalf("Outputs not JSON: %v", err)
	}
	if outputs["result"]["value"] != "done" {
		t.Errorf("Expected workflow output done, got %v", outputs)
	}

	// The log node wrote one persistent entry.
	if len(logs.entries) != 1 || logs.entries[0].nodeID != "rec" {
		t.Errorf("Expected one log entry from rec, got %+v", logs.entries)
	}

	want := []string{
		events.TypeExecutionStarted,
		events.TypeNodeStarted, events.TypeNodeCompleted,
		events.TypeNodeStarted, events.TypeNodeCompleted,
		events.TypeNodeStarted, events.TypeNodeCompleted,
		events.TypeExecutionCompleted,
	}
	got := publisher.types()
	if len(got) != len(want) {
		t.Fatalf("Expected %d events, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestPoll_MarksFailedOnNodeError(t *testing.T) {
	w, queue, _, _, publisher, versionID := setup(t, failingWorkflowJSON)

	execution := pendingExecution(uuid.New(), versionID)
	queue.add(execution)

	w.Poll(context.Background())

	row := queue.get(execution.ID)
	if row.Status != models.ExecutionError {
		t.Fatalf("Expected error status, got %s", row.Status)
	}
	if row.Error == "" {
		t.Fatal("Expected failure message on row")
	}

	got := publisher.types()
	if got[len(got)-1] != events.TypeExecutionFailed {
		t.Errorf("Expected final event execution.failed, got %v", got)
	}
}

func TestPoll_MarksFailedOnMissingVersion(t *testing.T) {
	w, queue, _, _, _, _ := setup(t, workflowJSON)

	execution := pendingExecution(uuid.New(), uuid.New())
	queue.add(execution)

	w.Poll(context.Background())

	row := queue.get(execution.ID)
	if row.Status != models.ExecutionError {
		t.Fatalf("Expected error status for missing version, got %s", row.Status)
	}
}

func TestPoll_SkipsLostClaims(t *testing.T) {
	w, queue, _, _, _, versionID := setup(t, workflowJSON)

	mine := pendingExecution(uuid.New(), versionID)
	stolen := pendingExecution(uuid.New(), versionID)
	queue.add(mine)
	queue.add(stolen)

	// A competing worker grabs one row between find and claim.
	if err := queue.Claim(context.Background(), stolen.ID, "rival"); err != nil {
		t.Fatalf("rival claim failed: %v", err)
	}

	w.Poll(context.Background())

	if got := queue.get(mine.ID).Status; got != models.ExecutionSuccess {
		t.Errorf("Expected own row to succeed, got %s", got)
	}
	if got := queue.get(stolen.ID); got.Status != models.ExecutionRunning || got.WorkerID != "rival" {
		t.Errorf("Expected stolen row untouched, got %+v", got)
	}
}

func TestPoll_CancelledMidRunStaysCancelled(t *testing.T) {
	w, queue, _, _, publisher, versionID := setup(t, workflowJSON)
	queue.cancelAfterClaim = true

	execution := pendingExecution(uuid.New(), versionID)
	queue.add(execution)

	w.Poll(context.Background())

	// The worker's walk finished, but the cancelled state on the row wins.
	row := queue.get(execution.ID)
	if row.Status != models.ExecutionCancelled {
		t.Fatalf("Expected cancelled to stick, got %s", row.Status)
	}
	if len(row.Outputs) != 0 {
		t.Errorf("Expected no outputs on cancelled row, got %s", row.Outputs)
	}

	for _, typ := range publisher.types() {
		if typ == events.TypeExecutionCompleted || typ == events.TypeExecutionFailed {
			t.Errorf("Expected no terminal event after lost finalise, got %s", typ)
		}
	}
}

func TestPoll_CachesVersions(t *testing.T) {
	w, queue, versions, _, _, versionID := setup(t, workflowJSON)

	workflowID := uuid.New()
	queue.add(pendingExecution(workflowID, versionID))
	w.Poll(context.Background())

	queue.add(pendingExecution(workflowID, versionID))
	w.Poll(context.Background())

	versions.mu.Lock()
	loads := versions.loads
	versions.mu.Unlock()
	if loads != 1 {
		t.Errorf("Expected one version load through the cache, got %d", loads)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	w, queue, _, _, _, versionID := setup(t, workflowJSON)
	queue.add(pendingExecution(uuid.New(), versionID))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Worker did not stop after cancellation")
	}
}
