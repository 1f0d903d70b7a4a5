package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/myuon/flowit-sub001/common/db"
	"github.com/myuon/flowit-sub001/common/models"
)

// WorkflowRepository handles database operations for workflow heads
type WorkflowRepository struct {
	db *db.DB
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(database *db.DB) *WorkflowRepository {
	return &WorkflowRepository{db: database}
}

// Create inserts a new workflow head
func (r *WorkflowRepository) Create(ctx context.Context, wf *models.Workflow) error {
	query := `
		INSERT INTO workflows (id, name, description, current_version_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
	`

	_, err := r.db.Exec(ctx, query, wf.ID, wf.Name, wf.Description, wf.CurrentVersionID)
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", err)
	}
	return nil
}

// GetByID retrieves a workflow by its id
func (r *WorkflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Workflow, error) {
	query := `
		SELECT id, name, description, current_version_id, created_at, updated_at
		FROM workflows
		WHERE id = $1
	`

	wf := &models.Workflow{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&wf.ID,
		&wf.Name,
		&wf.Description,
		&wf.CurrentVersionID,
		&wf.CreatedAt,
		&wf.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	return wf, nil
}

// List retrieves workflows ordered by creation time, newest first
func (r *WorkflowRepository) List(ctx context.Context, limit int) ([]*models.Workflow, error) {
	query := `
		SELECT id, name, description, current_version_id, created_at, updated_at
		FROM workflows
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		wf := &models.Workflow{}
		err := rows.Scan(
			&wf.ID,
			&wf.Name,
			&wf.Description,
			&wf.CurrentVersionID,
			&wf.CreatedAt,
			&wf.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		workflows = append(workflows, wf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}
	return workflows, nil
}

// PublishVersion inserts a new version and advances the workflow head to it
// in one transaction, so readers never observe a head pointing at a missing
// version.
func (r *WorkflowRepository) PublishVersion(ctx context.Context, v *models.WorkflowVersion) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO workflow_versions (id, workflow_id, version, dsl, created_at)
			VALUES ($1, $2, $3, $4, now())
		`, v.ID, v.WorkflowID, v.Version, v.DSL)
		if err != nil {
			return fmt.Errorf("failed to create workflow version: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE workflows
			SET current_version_id = $2, updated_at = now()
			WHERE id = $1
		`, v.WorkflowID, v.ID)
		if err != nil {
			return fmt.Errorf("failed to set current version: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Delete removes a workflow and, via cascade, its versions and executions
func (r *WorkflowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
