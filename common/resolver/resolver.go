// Package resolver turns parameter references and incoming edges into the
// plain values a node invocation receives.
package resolver

import (
	"encoding/json"
	"fmt"

	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/tidwall/gjson"
)

// SecretMissingError reports a secret reference with no value in the
// per-run secret map.
type SecretMissingError struct {
	Ref string
}

func (e *SecretMissingError) Error() string {
	return fmt.Sprintf("secret not found: %s", e.Ref)
}

// Resolve produces the plain value for one parameter reference.
//
// static returns the literal; secret looks up the per-run secret map and
// fails with SecretMissingError when absent; input descends a dot path into
// the workflow-level inputs and yields nil on any missing or null step.
// Missing and null are deliberately indistinguishable.
func Resolve(pv dsl.ParamValue, inputs map[string]any, secrets map[string]string) (any, error) {
	switch pv.Type {
	case dsl.ParamStatic:
		return pv.Value, nil

	case dsl.ParamSecret:
		val, ok := secrets[pv.Ref]
		if !ok {
			return nil, &SecretMissingError{Ref: pv.Ref}
		}
		return val, nil

	case dsl.ParamInput:
		return lookupPath(inputs, pv.Path), nil

	default:
		return nil, fmt.Errorf("unknown param value type: %q", pv.Type)
	}
}

// ResolveParams resolves a node's whole parameter map. The first failing
// reference aborts with its parameter name wrapped in.
func ResolveParams(n *dsl.Node, inputs map[string]any, secrets map[string]string) (map[string]any, error) {
	resolved := make(map[string]any, len(n.Params))
	for name, pv := range n.Params {
		val, err := Resolve(pv, inputs, secrets)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve param %s: %w", name, err)
		}
		resolved[name] = val
	}
	return resolved, nil
}

// AssembleInputs builds the port-value map for a node from its incoming
// edges: each edge copies outputs[source][sourceHandle] to the target
// handle, in edge order, last write winning. Sources that never produced
// outputs (skipped branches) contribute nothing.
func AssembleInputs(incoming []dsl.Edge, outputs map[string]map[string]any) map[string]any {
	inputs := make(map[string]any)
	for _, e := range incoming {
		src, ok := outputs[e.Source]
		if !ok {
			continue
		}
		inputs[e.TargetHandle] = src[e.SourceHandle]
	}
	return inputs
}

// lookupPath descends the inputs object along a gjson dot path. The inputs
// map is marshalled once per lookup; input objects are small and this keeps
// gjson's path grammar (array indices included) for free.
func lookupPath(inputs map[string]any, path string) any {
	if len(inputs) == 0 || path == "" {
		return nil
	}

	raw, err := json.Marshal(inputs)
	if err != nil {
		return nil
	}

	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return nil
	}
	return result.Value()
}
