package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Schedule is a cron trigger: while enabled, the worker's scheduler
// enqueues an execution of the workflow's current version on the cron
// expression, with the stored inputs.
type Schedule struct {
	ID         uuid.UUID       `json:"id"`
	WorkflowID uuid.UUID       `json:"workflowId"`
	CronExpr   string          `json:"cronExpr"`
	Inputs     json.RawMessage `json:"inputs,omitempty"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
