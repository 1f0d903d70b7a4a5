// Package dsl defines the canonical workflow description: typed nodes and
// edges, I/O schemas, parameter references, validation and ordering. The
// persisted JSON form of Workflow is an external contract; field names are
// fixed.
package dsl

import (
	"encoding/json"
	"fmt"
	"time"
)

// Version is the currently supported dslVersion tag. Workflows carrying any
// other tag are rejected by Validate.
const Version = "v1"

// SchemaKind enumerates the value kinds an IOSchema can describe.
type SchemaKind string

const (
	KindString  SchemaKind = "string"
	KindNumber  SchemaKind = "number"
	KindBoolean SchemaKind = "boolean"
	KindArray   SchemaKind = "array"
	KindObject  SchemaKind = "object"
	KindAny     SchemaKind = "any"
)

// IOSchema is a recursive value-type descriptor used for node ports and
// workflow-level inputs/outputs. The runtime does not enforce it; it exists
// for the editor and for optional validation at the API edge.
type IOSchema struct {
	Kind        SchemaKind          `json:"kind"`
	Items       *IOSchema           `json:"items,omitempty"`
	Properties  map[string]IOSchema `json:"properties,omitempty"`
	Description string              `json:"description,omitempty"`
	Required    bool                `json:"required,omitempty"`
}

// ParamValueType tags the three parameter reference forms.
type ParamValueType string

const (
	ParamStatic ParamValueType = "static"
	ParamSecret ParamValueType = "secret"
	ParamInput  ParamValueType = "input"
)

// ParamValue is the sum type for a node parameter reference:
// a literal, an opaque secret key, or a dot-path into the workflow inputs.
type ParamValue struct {
	Type  ParamValueType
	Value any    // static
	Ref   string // secret
	Path  string // input
}

// Static builds a literal parameter value.
func Static(v any) ParamValue { return ParamValue{Type: ParamStatic, Value: v} }

// Secret builds a secret reference.
func Secret(ref string) ParamValue { return ParamValue{Type: ParamSecret, Ref: ref} }

// Input builds a workflow-input path reference.
func Input(path string) ParamValue { return ParamValue{Type: ParamInput, Path: path} }

// MarshalJSON encodes the wire forms {"type":"static","value":…},
// {"type":"secret","ref":…} and {"type":"input","path":…}.
func (p ParamValue) MarshalJSON() ([]byte, error) {
	switch p.Type {
	case ParamStatic:
		return json.Marshal(struct {
			Type  ParamValueType `json:"type"`
			Value any            `json:"value"`
		}{p.Type, p.Value})
	case ParamSecret:
		return json.Marshal(struct {
			Type ParamValueType `json:"type"`
			Ref  string         `json:"ref"`
		}{p.Type, p.Ref})
	case ParamInput:
		return json.Marshal(struct {
			Type ParamValueType `json:"type"`
			Path string         `json:"path"`
		}{p.Type, p.Path})
	default:
		return nil, fmt.Errorf("unknown param value type: %q", p.Type)
	}
}

// UnmarshalJSON decodes any of the three wire forms.
func (p *ParamValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  ParamValueType  `json:"type"`
		Value json.RawMessage `json:"value"`
		Ref   string          `json:"ref"`
		Path  string          `json:"path"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Type {
	case ParamStatic:
		p.Type = ParamStatic
		if len(raw.Value) > 0 {
			if err := json.Unmarshal(raw.Value, &p.Value); err != nil {
				return fmt.Errorf("invalid static value: %w", err)
			}
		}
	case ParamSecret:
		p.Type = ParamSecret
		p.Ref = raw.Ref
	case ParamInput:
		p.Type = ParamInput
		p.Path = raw.Path
	default:
		return fmt.Errorf("unknown param value type: %q", raw.Type)
	}
	return nil
}

// ParamType enumerates the editor-facing parameter declarations.
type ParamType string

const (
	ParamTypeString  ParamType = "string"
	ParamTypeNumber  ParamType = "number"
	ParamTypeBoolean ParamType = "boolean"
	ParamTypeSelect  ParamType = "select"
	ParamTypeSecret  ParamType = "secret"
	ParamTypeJSON    ParamType = "json"
)

// ParamSchema declares a parameter for the editor: its type, constraints and
// presentation.
type ParamSchema struct {
	Type        ParamType `json:"type"`
	Label       string    `json:"label"`
	Description string    `json:"description,omitempty"`
	Default     any       `json:"default,omitempty"`
	Required    bool      `json:"required,omitempty"`
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
	Step        *float64  `json:"step,omitempty"`
	Options     []string  `json:"options,omitempty"`
}

// Node is one typed computational step in a workflow.
type Node struct {
	ID      string                `json:"id"`
	Type    string                `json:"type"`
	Label   string                `json:"label,omitempty"`
	Params  map[string]ParamValue `json:"params,omitempty"`
	Inputs  map[string]IOSchema   `json:"inputs,omitempty"`
	Outputs map[string]IOSchema   `json:"outputs,omitempty"`
}

// DisplayKey is the key a node contributes workflow outputs under.
func (n Node) DisplayKey() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge connects an output port of one node to an input port of another.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Meta carries workflow identity fields.
type Meta struct {
	Name      string    `json:"name"`
	Version   string    `json:"version,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Workflow is the canonical persisted DSL.
type Workflow struct {
	DSLVersion string              `json:"dslVersion"`
	Meta       Meta                `json:"meta"`
	Inputs     map[string]IOSchema `json:"inputs,omitempty"`
	Outputs    map[string]IOSchema `json:"outputs,omitempty"`
	Secrets    []string            `json:"secrets,omitempty"`
	Nodes      []Node              `json:"nodes"`
	Edges      []Edge              `json:"edges"`
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i]
		}
	}
	return nil
}
