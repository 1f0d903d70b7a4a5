package executor

import (
	"github.com/myuon/flowit-sub001/common/dsl"
)

// State is the in-memory record of one run: node outputs, the ordered log,
// and the error that ended the run early, if any. Once a node's outputs are
// stored they are never mutated.
type State struct {
	ExecutionID string
	WorkflowID  string

	// Outputs maps node id to its port-value map.
	Outputs map[string]map[string]any
	// Inputs is the workflow-level input object.
	Inputs map[string]any
	// Secrets is the per-run secret map.
	Secrets map[string]string

	// Logs is the strictly ordered run log.
	Logs []string

	// CurrentNode is the node being executed, for observability.
	CurrentNode string
	// Err carries the human-readable message of the failure that stopped
	// the run. Empty on success.
	Err string

	// Executed and Skipped partition the nodes the walk has passed over.
	Executed map[string]struct{}
	Skipped  map[string]struct{}

	graph *dsl.Graph
}

// AppendLog adds a line to the run log.
func (s *State) AppendLog(line string) {
	s.Logs = append(s.Logs, line)
}

// WasExecuted reports whether the node ran to completion.
func (s *State) WasExecuted(nodeID string) bool {
	_, ok := s.Executed[nodeID]
	return ok
}

// WasSkipped reports whether the node was pruned.
func (s *State) WasSkipped(nodeID string) bool {
	_, ok := s.Skipped[nodeID]
	return ok
}

// WorkflowOutputs derives the run's workflow-level outputs: the port maps of
// every node that is an output node or a sink, keyed by label when present,
// id otherwise. Nodes that produced no outputs (skipped or never reached)
// contribute nothing.
func (s *State) WorkflowOutputs(wf *dsl.Workflow) map[string]any {
	out := make(map[string]any)
	for i := range wf.Nodes {
		n := &wf.Nodes[i]
		if n.Type != "output" && !s.graph.IsSink(n.ID) {
			continue
		}
		ports, ok := s.Outputs[n.ID]
		if !ok {
			continue
		}
		out[n.DisplayKey()] = ports
	}
	return out
}
