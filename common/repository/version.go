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

// VersionRepository handles database operations for immutable workflow versions
type VersionRepository struct {
	db *db.DB
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(database *db.DB) *VersionRepository {
	return &VersionRepository{db: database}
}

// GetByID retrieves a version by its id
func (r *VersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WorkflowVersion, error) {
	query := `
		SELECT id, workflow_id, version, dsl, created_at
		FROM workflow_versions
		WHERE id = $1
	`

	v := &models.WorkflowVersion{}
	err := r.db.QueryRow(ctx, query, id).Scan(&v.ID, &v.WorkflowID, &v.Version, &v.DSL, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow version: %w", err)
	}
	return v, nil
}

// GetByNumber retrieves one version of a workflow by its sequence number
func (r *VersionRepository) GetByNumber(ctx context.Context, workflowID uuid.UUID, version int) (*models.WorkflowVersion, error) {
	query := `
		SELECT id, workflow_id, version, dsl, created_at
		FROM workflow_versions
		WHERE workflow_id = $1 AND version = $2
	`

	v := &models.WorkflowVersion{}
	err := r.db.QueryRow(ctx, query, workflowID, version).Scan(&v.ID, &v.WorkflowID, &v.Version, &v.DSL, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow version: %w", err)
	}
	return v, nil
}

// ListByWorkflow retrieves all versions of a workflow, newest first
func (r *VersionRepository) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.WorkflowVersion, error) {
	query := `
		SELECT id, workflow_id, version, dsl, created_at
		FROM workflow_versions
		WHERE workflow_id = $1
		ORDER BY version DESC
	`

	rows, err := r.db.Query(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow versions: %w", err)
	}
	defer rows.Close()

	var versions []*models.WorkflowVersion
	for rows.Next() {
		v := &models.WorkflowVersion{}
		if err := rows.Scan(&v.ID, &v.WorkflowID, &v.Version, &v.DSL, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workflow version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflow versions: %w", err)
	}
	return versions, nil
}

// NextNumber returns the next version number for a workflow
func (r *VersionRepository) NextNumber(ctx context.Context, workflowID uuid.UUID) (int, error) {
	var max int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM workflow_versions WHERE workflow_id = $1`,
		workflowID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next version: %w", err)
	}
	return max + 1, nil
}
