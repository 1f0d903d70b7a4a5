// Package executor walks a workflow's topological order one node at a time,
// resolving inputs and parameters, invoking node runners and pruning
// branches the run did not take. A run is single-threaded; parallelism
// lives across runs, in the worker.
package executor

import (
	"context"
	"fmt"

	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/node"
	"github.com/myuon/flowit-sub001/common/resolver"
	"github.com/myuon/flowit-sub001/common/telemetry"
)

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Options configures one run.
type Options struct {
	ExecutionID string
	WorkflowID  string
	Inputs      map[string]any
	Secrets     map[string]string

	// WriteLog persists arbitrary node JSON against the run. Nil disables
	// the persistent sink; the in-memory log always works.
	WriteLog func(nodeID string, data any) error

	// Run lifecycle callbacks, invoked in node execution order.
	OnNodeStart    func(nodeID, nodeType string)
	OnNodeComplete func(nodeID, nodeType string)
}

// Executor evaluates workflows against a node registry.
type Executor struct {
	registry *node.Registry
	logger   Logger
}

// New creates an executor bound to a registry.
func New(registry *node.Registry, logger Logger) *Executor {
	return &Executor{registry: registry, logger: logger}
}

// Execute runs the workflow to completion or first failure. The returned
// State is always usable: it carries the logs and outputs accumulated up to
// the stop point, and State.Err mirrors the returned error's message.
func (e *Executor) Execute(ctx context.Context, wf *dsl.Workflow, opts Options) (*State, error) {
	st := &State{
		ExecutionID: opts.ExecutionID,
		WorkflowID:  opts.WorkflowID,
		Outputs:     make(map[string]map[string]any),
		Inputs:      opts.Inputs,
		Secrets:     opts.Secrets,
		Executed:    make(map[string]struct{}),
		Skipped:     make(map[string]struct{}),
	}
	if st.Inputs == nil {
		st.Inputs = map[string]any{}
	}
	if st.Secrets == nil {
		st.Secrets = map[string]string{}
	}

	graph, err := dsl.BuildGraph(wf)
	if err != nil {
		st.Err = err.Error()
		return st, err
	}
	st.graph = graph

	for _, nodeID := range graph.Order {
		if err := ctx.Err(); err != nil {
			st.Err = "execution cancelled"
			st.AppendLog(fmt.Sprintf("[%s] Cancelled", nodeID))
			return st, fmt.Errorf("execution cancelled: %w", err)
		}

		if st.WasExecuted(nodeID) || st.WasSkipped(nodeID) {
			continue
		}

		// Dependency gate: a predecessor that never executed was pruned;
		// its consumers are pruned with it.
		if gated := e.dependenciesIncomplete(graph, st, nodeID); gated {
			st.Skipped[nodeID] = struct{}{}
			continue
		}

		n := graph.Nodes[nodeID]
		if err := e.executeNode(ctx, graph, st, n, opts); err != nil {
			st.Err = errMessage(err)
			st.AppendLog(fmt.Sprintf("[%s] Error: %s", nodeID, st.Err))
			return st, err
		}
	}

	return st, nil
}

func (e *Executor) dependenciesIncomplete(graph *dsl.Graph, st *State, nodeID string) bool {
	for _, dep := range graph.Dependencies(nodeID) {
		if !st.WasExecuted(dep) {
			return true
		}
	}
	return false
}

func (e *Executor) executeNode(ctx context.Context, graph *dsl.Graph, st *State, n *dsl.Node, opts Options) error {
	def := e.registry.Get(n.Type)
	if def == nil {
		return &InternalError{Message: fmt.Sprintf("node type not registered: %s", n.Type)}
	}

	st.CurrentNode = n.ID
	if opts.OnNodeStart != nil {
		opts.OnNodeStart(n.ID, n.Type)
	}
	st.AppendLog(fmt.Sprintf("[%s] Executing %s", n.ID, n.Type))

	inputs := resolver.AssembleInputs(graph.Incoming[n.ID], st.Outputs)
	params, err := resolver.ResolveParams(n, st.Inputs, st.Secrets)
	if err != nil {
		telemetry.NodeExecutionsTotal.WithLabelValues(n.Type, "error").Inc()
		return &NodeError{NodeID: n.ID, Err: err}
	}

	rc := &node.RunContext{
		NodeID:         n.ID,
		ExecutionID:    st.ExecutionID,
		WorkflowID:     st.WorkflowID,
		Inputs:         inputs,
		Params:         params,
		WorkflowInputs: copyMap(st.Inputs),
		Log: func(message string) {
			st.AppendLog(fmt.Sprintf("[%s] %s", n.ID, message))
		},
	}
	if opts.WriteLog != nil {
		nodeID := n.ID
		rc.WriteLog = func(data any) error {
			return opts.WriteLog(nodeID, data)
		}
	}

	outputs, err := def.Runner.Run(ctx, rc)
	if err != nil {
		telemetry.NodeExecutionsTotal.WithLabelValues(n.Type, "error").Inc()
		if e.logger != nil {
			e.logger.Error("node execution failed",
				"execution_id", st.ExecutionID,
				"node_id", n.ID,
				"node_type", n.Type,
				"error", err)
		}
		return &NodeError{NodeID: n.ID, Err: err}
	}
	telemetry.NodeExecutionsTotal.WithLabelValues(n.Type, "success").Inc()

	if outputs == nil {
		outputs = map[string]any{}
	}
	st.Outputs[n.ID] = outputs
	st.Executed[n.ID] = struct{}{}

	if opts.OnNodeComplete != nil {
		opts.OnNodeComplete(n.ID, n.Type)
	}
	st.AppendLog(fmt.Sprintf("[%s] Completed", n.ID))

	// Branch pruning: a branching node declares which source handles the
	// run follows; targets behind any other handle are skipped, downstream
	// included.
	if br, ok := def.Runner.(node.Brancher); ok {
		if taken, selective := br.TakenHandles(outputs); selective {
			e.pruneUntaken(graph, st, n.ID, taken)
		}
	}

	return nil
}

// pruneUntaken skips every direct target whose edge handle is not in the
// taken set, then closes over their downstream nodes.
func (e *Executor) pruneUntaken(graph *dsl.Graph, st *State, nodeID string, taken []string) {
	takenSet := make(map[string]struct{}, len(taken))
	for _, h := range taken {
		takenSet[h] = struct{}{}
	}

	for _, edge := range graph.Outgoing[nodeID] {
		if _, ok := takenSet[edge.SourceHandle]; ok {
			continue
		}
		e.skipTransitively(graph, st, edge.Target)
	}
}

func (e *Executor) skipTransitively(graph *dsl.Graph, st *State, nodeID string) {
	if st.WasExecuted(nodeID) || st.WasSkipped(nodeID) {
		return
	}
	st.Skipped[nodeID] = struct{}{}

	for _, edge := range graph.Outgoing[nodeID] {
		e.skipTransitively(graph, st, edge.Target)
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// errMessage strips the wrapper prefix for the user-visible run error: a
// node's message is preserved verbatim per the node contract.
func errMessage(err error) string {
	if ne, ok := err.(*NodeError); ok {
		return ne.Err.Error()
	}
	return err.Error()
}
