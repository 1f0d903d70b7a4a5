package repository

import (
	"context"
	"fmt"

	"github.com/myuon/flowit-sub001/common/db"
)

// DDL statements, applied idempotently at service startup via the
// bootstrap DB init hook. Versions are immutable; executions double as the
// work queue, so the pending index carries the poll ordering.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS workflows (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		current_version_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS workflow_versions (
		id UUID PRIMARY KEY,
		workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
		version INT NOT NULL,
		dsl JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (workflow_id, version)
	)`,

	`CREATE TABLE IF NOT EXISTS executions (
		id UUID PRIMARY KEY,
		workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
		version_id UUID NOT NULL REFERENCES workflow_versions(id),
		status TEXT NOT NULL DEFAULT 'pending',
		inputs JSONB,
		outputs JSONB,
		error TEXT,
		worker_id TEXT,
		scheduled_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		retry_count INT NOT NULL DEFAULT 0,
		max_retries INT NOT NULL DEFAULT 3,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_executions_pending
		ON executions (scheduled_at) WHERE status = 'pending'`,

	`CREATE INDEX IF NOT EXISTS idx_executions_workflow
		ON executions (workflow_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS execution_logs (
		id BIGSERIAL PRIMARY KEY,
		workflow_id UUID NOT NULL,
		execution_id UUID NOT NULL,
		node_id TEXT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_execution_logs_execution
		ON execution_logs (execution_id, created_at, id)`,

	`CREATE TABLE IF NOT EXISTS workflow_schedules (
		id UUID PRIMARY KEY,
		workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
		cron_expr TEXT NOT NULL,
		inputs JSONB,
		enabled BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema applies the DDL. Safe to run on every startup.
func EnsureSchema(ctx context.Context, database *db.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
