package dsl

import (
	"errors"
	"fmt"
)

// ErrCyclicWorkflow is returned when the edge set admits no topological order.
var ErrCyclicWorkflow = errors.New("workflow contains cycles")

// Graph is the adjacency view of a workflow: node lookup, edges indexed by
// endpoint, and a topological order. It is built once per run and treated as
// read-only afterwards.
type Graph struct {
	Nodes    map[string]*Node
	Incoming map[string][]Edge // keyed by edge target
	Outgoing map[string][]Edge // keyed by edge source
	Order    []string
}

// BuildGraph indexes the workflow and computes a topological order with
// Kahn's algorithm. The order is deterministic for a given workflow: ready
// nodes are processed in declaration order.
func BuildGraph(wf *Workflow) (*Graph, error) {
	g := &Graph{
		Nodes:    make(map[string]*Node, len(wf.Nodes)),
		Incoming: make(map[string][]Edge),
		Outgoing: make(map[string][]Edge),
	}

	for i := range wf.Nodes {
		n := &wf.Nodes[i]
		if _, dup := g.Nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id: %s", n.ID)
		}
		g.Nodes[n.ID] = n
	}

	for _, e := range wf.Edges {
		if _, ok := g.Nodes[e.Source]; !ok {
			return nil, fmt.Errorf("edge references non-existent node: %s", e.Source)
		}
		if _, ok := g.Nodes[e.Target]; !ok {
			return nil, fmt.Errorf("edge references non-existent node: %s", e.Target)
		}
		g.Outgoing[e.Source] = append(g.Outgoing[e.Source], e)
		g.Incoming[e.Target] = append(g.Incoming[e.Target], e)
	}

	order, err := g.kahn(wf)
	if err != nil {
		return nil, err
	}
	g.Order = order

	return g, nil
}

// ExecutionOrder computes the topological order of a workflow.
func ExecutionOrder(wf *Workflow) ([]string, error) {
	g, err := BuildGraph(wf)
	if err != nil {
		return nil, err
	}
	return g.Order, nil
}

func (g *Graph) kahn(wf *Workflow) ([]string, error) {
	indegree := make(map[string]int, len(wf.Nodes))
	for _, n := range wf.Nodes {
		indegree[n.ID] = 0
	}
	for _, e := range wf.Edges {
		indegree[e.Target]++
	}

	queue := make([]string, 0, len(wf.Nodes))
	for _, n := range wf.Nodes {
		if indegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	order := make([]string, 0, len(wf.Nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, e := range g.Outgoing[id] {
			indegree[e.Target]--
			if indegree[e.Target] == 0 {
				queue = append(queue, e.Target)
			}
		}
	}

	// Fewer ordered nodes than declared means some were never freed: a cycle.
	if len(order) != len(wf.Nodes) {
		return nil, ErrCyclicWorkflow
	}

	return order, nil
}

// Dependencies returns the distinct source node ids of edges into nodeID,
// in first-appearance order.
func (g *Graph) Dependencies(nodeID string) []string {
	seen := make(map[string]struct{})
	var deps []string
	for _, e := range g.Incoming[nodeID] {
		if _, ok := seen[e.Source]; ok {
			continue
		}
		seen[e.Source] = struct{}{}
		deps = append(deps, e.Source)
	}
	return deps
}

// IsSink reports whether the node has no outgoing edges.
func (g *Graph) IsSink(nodeID string) bool {
	return len(g.Outgoing[nodeID]) == 0
}
