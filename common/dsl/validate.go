package dsl

import (
	"fmt"
	"strings"
)

// MsgCycles is the user-facing message emitted for a cyclic workflow.
const MsgCycles = "Workflow contains cycles"

// ValidationError is one structural problem found in a workflow.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationErrors is the full list of problems; empty means accepted.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return "workflow validation failed: " + strings.Join(parts, "; ")
}

// Strings flattens the list for API responses.
func (es ValidationErrors) Strings() []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.String()
	}
	return out
}

// TypeChecker answers whether a node type id is registered. A nil checker
// skips node-type validation.
type TypeChecker interface {
	Has(nodeType string) bool
}

// Validate checks a workflow for structural problems: version tag, name,
// unique node ids, known node types, resolvable edge endpoints and
// acyclicity. It returns nil for an accepted workflow and is idempotent.
func Validate(wf *Workflow, types TypeChecker) ValidationErrors {
	var errs ValidationErrors

	if wf.DSLVersion != Version {
		errs = append(errs, ValidationError{
			Path:    "dslVersion",
			Message: fmt.Sprintf("unsupported DSL version %q, expected %q", wf.DSLVersion, Version),
		})
	}

	if strings.TrimSpace(wf.Meta.Name) == "" {
		errs = append(errs, ValidationError{
			Path:    "meta.name",
			Message: "workflow name is required",
		})
	}

	ids := make(map[string]struct{}, len(wf.Nodes))
	structurallySound := true
	for i, n := range wf.Nodes {
		if n.ID == "" {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("nodes[%d].id", i),
				Message: "node id is required",
			})
			structurallySound = false
			continue
		}
		if _, dup := ids[n.ID]; dup {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("nodes[%d].id", i),
				Message: fmt.Sprintf("duplicate node id: %s", n.ID),
			})
			structurallySound = false
			continue
		}
		ids[n.ID] = struct{}{}

		if types != nil && !types.Has(n.Type) {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("nodes[%d].type", i),
				Message: fmt.Sprintf("unknown node type: %s", n.Type),
			})
		}
	}

	for i, e := range wf.Edges {
		if _, ok := ids[e.Source]; !ok {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("edges[%d].source", i),
				Message: fmt.Sprintf("edge references non-existent node: %s", e.Source),
			})
			structurallySound = false
		}
		if _, ok := ids[e.Target]; !ok {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("edges[%d].target", i),
				Message: fmt.Sprintf("edge references non-existent node: %s", e.Target),
			})
			structurallySound = false
		}
	}

	// Cycle detection only makes sense on a graph whose ids and endpoints
	// held up above.
	if structurallySound {
		if _, err := ExecutionOrder(wf); err != nil {
			errs = append(errs, ValidationError{Message: MsgCycles})
		}
	}

	return errs
}
