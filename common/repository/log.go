package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/myuon/flowit-sub001/common/db"
	"github.com/myuon/flowit-sub001/common/models"
)

// ExecutionLogRepository handles the append-only per-node log records
type ExecutionLogRepository struct {
	db *db.DB
}

// NewExecutionLogRepository creates a new execution log repository
func NewExecutionLogRepository(database *db.DB) *ExecutionLogRepository {
	return &ExecutionLogRepository{db: database}
}

// Create appends one log record
func (r *ExecutionLogRepository) Create(ctx context.Context, workflowID, executionID uuid.UUID, nodeID string, data json.RawMessage) error {
	query := `
		INSERT INTO execution_logs (workflow_id, execution_id, node_id, data, created_at)
		VALUES ($1, $2, $3, $4, now())
	`

	if _, err := r.db.Exec(ctx, query, workflowID, executionID, nodeID, data); err != nil {
		return fmt.Errorf("failed to create execution log: %w", err)
	}
	return nil
}

// ListByExecution returns a run's log records ordered by creation time,
// then insertion id for same-timestamp records.
func (r *ExecutionLogRepository) ListByExecution(ctx context.Context, executionID uuid.UUID) ([]*models.ExecutionLog, error) {
	query := `
		SELECT id, workflow_id, execution_id, node_id, data, created_at
		FROM execution_logs
		WHERE execution_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list execution logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ExecutionLog
	for rows.Next() {
		l := &models.ExecutionLog{}
		if err := rows.Scan(&l.ID, &l.WorkflowID, &l.ExecutionID, &l.NodeID, &l.Data, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan execution log: %w", err)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution logs: %w", err)
	}
	return logs, nil
}
