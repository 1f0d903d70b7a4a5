package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/myuon/flowit-sub001/common/db"
	"github.com/myuon/flowit-sub001/common/models"
)

const executionColumns = `
	id, workflow_id, version_id, status, inputs, outputs, error, worker_id,
	scheduled_at, retry_count, max_retries, started_at, completed_at, created_at`

// ExecutionRepository is the persistent queue: rows are created pending,
// claimed by exactly one worker, and finalised by that worker.
type ExecutionRepository struct {
	db *db.DB
}

// NewExecutionRepository creates a new execution repository
func NewExecutionRepository(database *db.DB) *ExecutionRepository {
	return &ExecutionRepository{db: database}
}

// Enqueue creates a pending execution scheduled now and returns its id.
func (r *ExecutionRepository) Enqueue(ctx context.Context, workflowID, versionID uuid.UUID, inputs json.RawMessage) (uuid.UUID, error) {
	id := uuid.New()
	query := `
		INSERT INTO executions (id, workflow_id, version_id, status, inputs, scheduled_at, retry_count)
		VALUES ($1, $2, $3, 'pending', $4, now(), 0)
	`

	if _, err := r.db.Exec(ctx, query, id, workflowID, versionID, inputs); err != nil {
		return uuid.Nil, fmt.Errorf("failed to enqueue execution: %w", err)
	}
	return id, nil
}

// FindPending returns up to limit pending executions, oldest schedule
// first. Callers still race on Claim; this is only the candidate list.
func (r *ExecutionRepository) FindPending(ctx context.Context, limit int) ([]*models.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE status = 'pending'
		ORDER BY scheduled_at ASC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending executions: %w", err)
	}
	defer rows.Close()

	return scanExecutions(rows)
}

// Claim atomically transitions pending -> running for one worker. The
// conditional update is the whole protocol: zero matched rows means a
// competing worker already owns the execution and ErrClaimLost is
// returned.
func (r *ExecutionRepository) Claim(ctx context.Context, id uuid.UUID, workerID string) error {
	query := `
		UPDATE executions
		SET status = 'running', worker_id = $2, started_at = now()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, id, workerID)
	if err != nil {
		return fmt.Errorf("failed to claim execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrClaimLost
	}
	return nil
}

// MarkCompleted finalises a run as success with its workflow outputs. Only
// running rows finalise; a row cancelled mid-run keeps its terminal state
// and ErrFinaliseLost is returned.
func (r *ExecutionRepository) MarkCompleted(ctx context.Context, id uuid.UUID, outputs json.RawMessage) error {
	query := `
		UPDATE executions
		SET status = 'success', outputs = $2, completed_at = now()
		WHERE id = $1 AND status = 'running'
	`

	tag, err := r.db.Exec(ctx, query, id, outputs)
	if err != nil {
		return fmt.Errorf("failed to mark execution completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFinaliseLost
	}
	return nil
}

// MarkFailed finalises a run as error with the failure message. Same
// running-only guard as MarkCompleted.
func (r *ExecutionRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	query := `
		UPDATE executions
		SET status = 'error', error = $2, completed_at = now()
		WHERE id = $1 AND status = 'running'
	`

	tag, err := r.db.Exec(ctx, query, id, errMsg)
	if err != nil {
		return fmt.Errorf("failed to mark execution failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFinaliseLost
	}
	return nil
}

// Cancel moves a non-terminal execution to cancelled. ErrNotFound means
// the row does not exist or already reached a terminal state.
func (r *ExecutionRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE executions
		SET status = 'cancelled', completed_at = now()
		WHERE id = $1 AND status IN ('pending', 'running')
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to cancel execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves one execution row
func (r *ExecutionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`

	e, err := scanExecution(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return e, nil
}

// ListByWorkflow retrieves executions of one workflow, newest first
func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID uuid.UUID, limit int) ([]*models.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE workflow_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	return scanExecutions(rows)
}

// CountPending returns the pending-row count, for the queue gauge.
func (r *ExecutionRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM executions WHERE status = 'pending'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending executions: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	e := &models.Execution{}
	var errMsg, workerID *string
	err := row.Scan(
		&e.ID,
		&e.WorkflowID,
		&e.VersionID,
		&e.Status,
		&e.Inputs,
		&e.Outputs,
		&errMsg,
		&workerID,
		&e.ScheduledAt,
		&e.RetryCount,
		&e.MaxRetries,
		&e.StartedAt,
		&e.CompletedAt,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if errMsg != nil {
		e.Error = *errMsg
	}
	if workerID != nil {
		e.WorkerID = *workerID
	}
	return e, nil
}

func scanExecutions(rows pgx.Rows) ([]*models.Execution, error) {
	var executions []*models.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		executions = append(executions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}
	return executions, nil
}
