// Package validation holds guardrails for workflow patching: structural
// checks on RFC-6902 operations before they are applied to the current DSL
// to cut a new version.
package validation

import (
	"fmt"
	"strings"
)

// Paths a patch may never touch: version identity belongs to the engine.
var protectedPaths = []string{"/dslVersion"}

// MaxOperations caps one patch request.
const MaxOperations = 50

// PatchValidator validates JSON Patch operations for workflows
type PatchValidator struct{}

// NewPatchValidator creates a new patch validator
func NewPatchValidator() *PatchValidator {
	return &PatchValidator{}
}

// ValidateOperations validates all patch operations
func (v *PatchValidator) ValidateOperations(operations []map[string]interface{}) error {
	if len(operations) == 0 {
		return fmt.Errorf("patch validation failed: empty operation list")
	}
	if len(operations) > MaxOperations {
		return fmt.Errorf("patch validation failed: too many operations (%d > %d)", len(operations), MaxOperations)
	}

	for i, op := range operations {
		if err := v.validateOperation(op, i); err != nil {
			return err
		}
	}

	return nil
}

// validateOperation validates a single operation
func (v *PatchValidator) validateOperation(op map[string]interface{}, index int) error {
	opType, ok := op["op"].(string)
	if !ok {
		return fmt.Errorf("operation %d: missing or invalid 'op' field", index)
	}

	path, ok := op["path"].(string)
	if !ok {
		return fmt.Errorf("operation %d: missing or invalid 'path' field", index)
	}

	for _, protected := range protectedPaths {
		if path == protected || strings.HasPrefix(path, protected+"/") {
			return fmt.Errorf("operation %d: path %s is protected", index, path)
		}
	}

	switch opType {
	case "add", "replace":
		if _, ok := op["value"]; !ok {
			return fmt.Errorf("operation %d: 'value' required for %s operation", index, opType)
		}

		if path == "/nodes/-" {
			if err := v.validateNodeValue(op["value"], index); err != nil {
				return err
			}
		}
		if path == "/edges/-" {
			if err := v.validateEdgeValue(op["value"], index); err != nil {
				return err
			}
		}

	case "remove":
		return nil

	case "move", "copy":
		from, ok := op["from"].(string)
		if !ok {
			return fmt.Errorf("operation %d: 'from' required for %s operation", index, opType)
		}
		for _, protected := range protectedPaths {
			if from == protected || strings.HasPrefix(from, protected+"/") {
				return fmt.Errorf("operation %d: from path %s is protected", index, from)
			}
		}

	default:
		return fmt.Errorf("operation %d: unsupported operation type: %s", index, opType)
	}

	return nil
}

// validateNodeValue validates a node appended by a patch
func (v *PatchValidator) validateNodeValue(value interface{}, opIndex int) error {
	nodeValue, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("operation %d: node value must be an object, got %T", opIndex, value)
	}

	if id, ok := nodeValue["id"].(string); !ok || id == "" {
		return fmt.Errorf("operation %d: node must have 'id' field (string)", opIndex)
	}
	if typ, ok := nodeValue["type"].(string); !ok || typ == "" {
		return fmt.Errorf("operation %d: node must have 'type' field (string)", opIndex)
	}

	if params, exists := nodeValue["params"]; exists {
		if _, ok := params.(map[string]interface{}); !ok {
			return fmt.Errorf("operation %d: node 'params' must be an object, got %T", opIndex, params)
		}
	}

	return nil
}

// validateEdgeValue validates an edge appended by a patch
func (v *PatchValidator) validateEdgeValue(value interface{}, opIndex int) error {
	edgeValue, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("operation %d: edge value must be an object, got %T", opIndex, value)
	}

	for _, field := range []string{"id", "source", "target"} {
		if s, ok := edgeValue[field].(string); !ok || s == "" {
			return fmt.Errorf("operation %d: edge must have '%s' field (string)", opIndex, field)
		}
	}

	return nil
}
