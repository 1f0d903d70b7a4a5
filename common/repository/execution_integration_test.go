package repository

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/myuon/flowit-sub001/common/db"
	"github.com/myuon/flowit-sub001/common/logger"
	"github.com/myuon/flowit-sub001/common/models"
)

// Integration tests against a real Postgres. Gated: set
// FLOWIT_TEST_DATABASE_URL to run.
func testDB(t *testing.T) *db.DB {
	t.Helper()

	url := os.Getenv("FLOWIT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FLOWIT_TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	database := db.NewFromPool(pool, logger.New("error", "text"))
	require.NoError(t, EnsureSchema(context.Background(), database))
	return database
}

func seedWorkflow(t *testing.T, database *db.DB) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	wfRepo := NewWorkflowRepository(database)

	wf := &models.Workflow{ID: uuid.New(), Name: "integration-test"}
	require.NoError(t, wfRepo.Create(ctx, wf))

	v := &models.WorkflowVersion{
		ID:         uuid.New(),
		WorkflowID: wf.ID,
		Version:    1,
		DSL:        json.RawMessage(`{"dslVersion":"v1","meta":{"name":"t"},"nodes":[],"edges":[]}`),
	}
	require.NoError(t, wfRepo.PublishVersion(ctx, v))

	head, err := wfRepo.GetByID(ctx, wf.ID)
	require.NoError(t, err)
	require.NotNil(t, head.CurrentVersionID)
	require.Equal(t, v.ID, *head.CurrentVersionID)

	t.Cleanup(func() { _ = wfRepo.Delete(context.Background(), wf.ID) })
	return wf.ID, v.ID
}

func TestExecutionQueue_EnqueueAndFindOrdering(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	wfID, verID := seedWorkflow(t, database)

	repo := NewExecutionRepository(database)

	first, err := repo.Enqueue(ctx, wfID, verID, json.RawMessage(`{"n":1}`))
	require.NoError(t, err)
	second, err := repo.Enqueue(ctx, wfID, verID, json.RawMessage(`{"n":2}`))
	require.NoError(t, err)

	pending, err := repo.FindPending(ctx, 100)
	require.NoError(t, err)

	// Oldest schedule first; our two rows appear in enqueue order.
	var ours []uuid.UUID
	for _, e := range pending {
		if e.WorkflowID == wfID {
			ours = append(ours, e.ID)
			require.Equal(t, models.ExecutionPending, e.Status)
		}
	}
	require.Equal(t, []uuid.UUID{first, second}, ours)
}

func TestExecutionQueue_ClaimRace(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	wfID, verID := seedWorkflow(t, database)

	repo := NewExecutionRepository(database)
	id, err := repo.Enqueue(ctx, wfID, verID, nil)
	require.NoError(t, err)

	// Two workers race for the same row; exactly one wins.
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.Claim(ctx, id, uuid.NewString())
		}(i)
	}
	wg.Wait()

	wins, losses := 0, 0
	for _, err := range results {
		switch err {
		case nil:
			wins++
		case ErrClaimLost:
			losses++
		default:
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, losses)

	e, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.ExecutionRunning, e.Status)
	require.NotEmpty(t, e.WorkerID)
	require.NotNil(t, e.StartedAt)
}

func TestExecutionQueue_Lifecycle(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	wfID, verID := seedWorkflow(t, database)

	repo := NewExecutionRepository(database)

	// success path
	id, err := repo.Enqueue(ctx, wfID, verID, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Claim(ctx, id, "worker-1"))
	require.NoError(t, repo.MarkCompleted(ctx, id, json.RawMessage(`{"out":{"value":1}}`)))

	e, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.ExecutionSuccess, e.Status)
	require.NotNil(t, e.CompletedAt)

	// failure path
	id2, err := repo.Enqueue(ctx, wfID, verID, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Claim(ctx, id2, "worker-1"))
	require.NoError(t, repo.MarkFailed(ctx, id2, "node a failed"))

	e2, err := repo.GetByID(ctx, id2)
	require.NoError(t, err)
	require.Equal(t, models.ExecutionError, e2.Status)
	require.Equal(t, "node a failed", e2.Error)

	// cancel is terminal-only from non-terminal states
	id3, err := repo.Enqueue(ctx, wfID, verID, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Cancel(ctx, id3))
	require.ErrorIs(t, repo.Cancel(ctx, id3), ErrNotFound)
	require.ErrorIs(t, repo.Claim(ctx, id3, "worker-1"), ErrClaimLost)
}

func TestExecutionQueue_CancelledRowSurvivesLateFinalise(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	wfID, verID := seedWorkflow(t, database)

	repo := NewExecutionRepository(database)

	// Admin cancels while the worker holds the claim; the worker's walk
	// still finishes and tries to finalise.
	id, err := repo.Enqueue(ctx, wfID, verID, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Claim(ctx, id, "worker-1"))
	require.NoError(t, repo.Cancel(ctx, id))

	require.ErrorIs(t, repo.MarkCompleted(ctx, id, json.RawMessage(`{"out":1}`)), ErrFinaliseLost)

	e, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.ExecutionCancelled, e.Status)
	require.Empty(t, e.Outputs)

	// Same for a failing walk.
	id2, err := repo.Enqueue(ctx, wfID, verID, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Claim(ctx, id2, "worker-1"))
	require.NoError(t, repo.Cancel(ctx, id2))

	require.ErrorIs(t, repo.MarkFailed(ctx, id2, "node a failed"), ErrFinaliseLost)

	e2, err := repo.GetByID(ctx, id2)
	require.NoError(t, err)
	require.Equal(t, models.ExecutionCancelled, e2.Status)
	require.Empty(t, e2.Error)
}

func TestExecutionLogs_Ordering(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()
	wfID, verID := seedWorkflow(t, database)

	execRepo := NewExecutionRepository(database)
	logRepo := NewExecutionLogRepository(database)

	execID, err := execRepo.Enqueue(ctx, wfID, verID, nil)
	require.NoError(t, err)

	for i, nodeID := range []string{"a", "b", "c"} {
		data, _ := json.Marshal(map[string]any{"seq": i})
		require.NoError(t, logRepo.Create(ctx, wfID, execID, nodeID, data))
	}

	logs, err := logRepo.ListByExecution(ctx, execID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	require.Equal(t, "a", logs[0].NodeID)
	require.Equal(t, "c", logs[2].NodeID)
}
