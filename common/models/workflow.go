package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Workflow is the stored definition head. The DSL itself lives in
// immutable WorkflowVersion rows; CurrentVersionID is the only field that
// moves after creation.
type Workflow struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	CurrentVersionID *uuid.UUID `json:"currentVersionId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// WorkflowVersion is one immutable DSL snapshot. Version numbers are
// sequential per workflow, starting at 1.
type WorkflowVersion struct {
	ID         uuid.UUID       `json:"id"`
	WorkflowID uuid.UUID       `json:"workflowId"`
	Version    int             `json:"version"`
	DSL        json.RawMessage `json:"dsl"`
	CreatedAt  time.Time       `json:"createdAt"`
}
