package executor

import "fmt"

// NodeError wraps a failure thrown by a node's Run. The node's message is
// preserved verbatim; it becomes the run's error string.
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s failed: %v", e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// InternalError reports a scheduler invariant breach, such as a node id in
// the topological order with no definition behind it.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal scheduler error: " + e.Message
}
