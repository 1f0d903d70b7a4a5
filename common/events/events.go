// Package events publishes execution lifecycle events for editor clients.
// Production rides Redis Pub/Sub; cmd/runner and tests use the in-memory
// bus.
package events

import (
	"context"
	"fmt"
	"time"
)

// Event types published over the run lifecycle.
const (
	TypeExecutionStarted   = "execution.started"
	TypeNodeStarted        = "node.started"
	TypeNodeCompleted      = "node.completed"
	TypeExecutionCompleted = "execution.completed"
	TypeExecutionFailed    = "execution.failed"
)

// Event is one lifecycle notification.
type Event struct {
	Type        string    `json:"type"`
	ExecutionID string    `json:"executionId"`
	WorkflowID  string    `json:"workflowId"`
	NodeID      string    `json:"nodeId,omitempty"`
	NodeType    string    `json:"nodeType,omitempty"`
	Status      string    `json:"status,omitempty"`
	Error       string    `json:"error,omitempty"`
	TS          time.Time `json:"ts"`
}

// Publisher delivers events to whoever watches the workflow.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Channel returns the Pub/Sub channel name for a workflow's events.
func Channel(workflowID string) string {
	return fmt.Sprintf("workflow:events:%s", workflowID)
}

// ChannelPattern matches every workflow's event channel, for fanout
// subscribers.
const ChannelPattern = "workflow:events:*"

// Nop is a Publisher that drops everything.
type Nop struct{}

func (Nop) Publish(ctx context.Context, event Event) error { return nil }
