// Package node defines the plug-in contract for workflow nodes and the
// process-wide registry the executor resolves node types against. The
// registry is populated explicitly at startup and treated as read-only
// during execution.
package node

import (
	"context"
	"fmt"

	"github.com/myuon/flowit-sub001/common/dsl"
)

// RunContext is everything a node implementation receives for one
// invocation: assembled port values, resolved parameters and the run
// environment. Cancellation rides the context.Context passed to Run.
type RunContext struct {
	NodeID      string
	ExecutionID string
	WorkflowID  string

	// Inputs are the port values assembled from upstream outputs.
	Inputs map[string]any
	// Params are the node's parameters after reference resolution.
	Params map[string]any
	// WorkflowInputs is a copy of the workflow-level input object.
	WorkflowInputs map[string]any

	// Log appends a line to the run's ordered log.
	Log func(message string)
	// WriteLog persists arbitrary JSON against (workflow, execution, node).
	// Nil when no persistent sink is configured.
	WriteLog func(data any) error
}

// Logf is a convenience wrapper over Log.
func (c *RunContext) Logf(format string, args ...any) {
	if c.Log != nil {
		c.Log(fmt.Sprintf(format, args...))
	}
}

// Runner is the executable part of a node definition. The returned map is
// keyed by output port name and must cover every declared output port;
// missing ports read as nil downstream.
type Runner interface {
	Run(ctx context.Context, rc *RunContext) (map[string]any, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, rc *RunContext) (map[string]any, error)

func (f RunnerFunc) Run(ctx context.Context, rc *RunContext) (map[string]any, error) {
	return f(ctx, rc)
}

// Brancher is implemented by node types with selective outgoing-edge
// semantics. TakenHandles inspects the node's outputs and reports which
// source handles carry the run forward; ok=false means every outgoing edge
// is taken and no pruning happens.
type Brancher interface {
	TakenHandles(outputs map[string]any) (handles []string, ok bool)
}

// Display carries the editor-facing presentation of a node type.
type Display struct {
	Icon     string   `json:"icon,omitempty"`
	Color    string   `json:"color,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Definition is one registered node type: identity, schemas, presentation
// and behavior.
type Definition struct {
	ID          string                     `json:"id"`
	DisplayName string                     `json:"displayName"`
	Description string                     `json:"description,omitempty"`
	Inputs      map[string]dsl.IOSchema    `json:"inputs,omitempty"`
	Outputs     map[string]dsl.IOSchema    `json:"outputs,omitempty"`
	Params      map[string]dsl.ParamSchema `json:"params,omitempty"`
	Display     Display                    `json:"display"`
	Runner      Runner                     `json:"-"`
}

// CatalogEntry is the registry projection the editor consumes when picking
// nodes. Schemas are deliberately absent; the full definition endpoint
// carries those.
type CatalogEntry struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Color       string   `json:"color,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	InputCount  int      `json:"inputCount"`
	OutputCount int      `json:"outputCount"`
}
