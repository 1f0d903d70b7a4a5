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

// ScheduleRepository handles database operations for cron triggers
type ScheduleRepository struct {
	db *db.DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(database *db.DB) *ScheduleRepository {
	return &ScheduleRepository{db: database}
}

// Create inserts a new schedule
func (r *ScheduleRepository) Create(ctx context.Context, s *models.Schedule) error {
	query := `
		INSERT INTO workflow_schedules (id, workflow_id, cron_expr, inputs, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
	`

	if _, err := r.db.Exec(ctx, query, s.ID, s.WorkflowID, s.CronExpr, s.Inputs, s.Enabled); err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

// GetByID retrieves a schedule by its id
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	query := `
		SELECT id, workflow_id, cron_expr, inputs, enabled, created_at, updated_at
		FROM workflow_schedules
		WHERE id = $1
	`

	s := &models.Schedule{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.WorkflowID, &s.CronExpr, &s.Inputs, &s.Enabled, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return s, nil
}

// ListByWorkflow retrieves all schedules of one workflow
func (r *ScheduleRepository) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*models.Schedule, error) {
	query := `
		SELECT id, workflow_id, cron_expr, inputs, enabled, created_at, updated_at
		FROM workflow_schedules
		WHERE workflow_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// ListEnabled retrieves every enabled schedule, for the trigger scheduler
func (r *ScheduleRepository) ListEnabled(ctx context.Context) ([]*models.Schedule, error) {
	query := `
		SELECT id, workflow_id, cron_expr, inputs, enabled, created_at, updated_at
		FROM workflow_schedules
		WHERE enabled = true
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled schedules: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// Delete removes a schedule
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM workflow_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSchedules(rows pgx.Rows) ([]*models.Schedule, error) {
	var schedules []*models.Schedule
	for rows.Next() {
		s := &models.Schedule{}
		if err := rows.Scan(&s.ID, &s.WorkflowID, &s.CronExpr, &s.Inputs, &s.Enabled, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}
	return schedules, nil
}
