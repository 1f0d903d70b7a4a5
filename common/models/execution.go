package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the queue row lifecycle state.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionSuccess   ExecutionStatus = "success"
	ExecutionError     ExecutionStatus = "error"
	ExecutionCancelled ExecutionStatus = "cancelled"
)

// IsTerminal reports whether the status never changes again.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionSuccess, ExecutionError, ExecutionCancelled:
		return true
	}
	return false
}

// Execution is one attempt to run a workflow version: a row in the
// persistent queue. Created pending, claimed to running by exactly one
// worker, finalised by that worker.
type Execution struct {
	ID          uuid.UUID       `json:"id"`
	WorkflowID  uuid.UUID       `json:"workflowId"`
	VersionID   uuid.UUID       `json:"versionId"`
	Status      ExecutionStatus `json:"status"`
	Inputs      json.RawMessage `json:"inputs,omitempty"`
	Outputs     json.RawMessage `json:"outputs,omitempty"`
	Error       string          `json:"error,omitempty"`
	WorkerID    string          `json:"workerId,omitempty"`
	ScheduledAt time.Time       `json:"scheduledAt"`
	// RetryCount and MaxRetries are persisted for a future retry policy;
	// nothing exercises them today.
	RetryCount  int        `json:"retryCount"`
	MaxRetries  int        `json:"maxRetries"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ExecutionLog is one append-only per-node log record.
type ExecutionLog struct {
	ID          int64           `json:"id"`
	WorkflowID  uuid.UUID       `json:"workflowId"`
	ExecutionID uuid.UUID       `json:"executionId"`
	NodeID      string          `json:"nodeId"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"createdAt"`
}
