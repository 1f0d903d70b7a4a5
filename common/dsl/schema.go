package dsl

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema renders an IOSchema as a draft-07 JSON Schema fragment.
// `any` renders as the empty schema, which accepts every value.
func JSONSchema(s IOSchema) map[string]any {
	out := map[string]any{}
	if s.Description != "" {
		out["description"] = s.Description
	}

	switch s.Kind {
	case KindString:
		out["type"] = "string"
	case KindNumber:
		out["type"] = "number"
	case KindBoolean:
		out["type"] = "boolean"
	case KindArray:
		out["type"] = "array"
		if s.Items != nil {
			out["items"] = JSONSchema(*s.Items)
		}
	case KindObject:
		out["type"] = "object"
		if len(s.Properties) > 0 {
			props := make(map[string]any, len(s.Properties))
			var required []string
			for name, prop := range s.Properties {
				props[name] = JSONSchema(prop)
				if prop.Required {
					required = append(required, name)
				}
			}
			out["properties"] = props
			if len(required) > 0 {
				out["required"] = required
			}
		}
	case KindAny:
		// empty schema
	}

	return out
}

// InputsJSONSchema builds the document schema for a workflow's input map.
func InputsJSONSchema(inputs map[string]IOSchema) map[string]any {
	props := make(map[string]any, len(inputs))
	var required []string
	for name, s := range inputs {
		props[name] = JSONSchema(s)
		if s.Required {
			required = append(required, name)
		}
	}

	doc := map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

// InputsError reports submitted inputs that do not satisfy the workflow's
// declared input schemas.
type InputsError struct {
	Problems []string
}

func (e *InputsError) Error() string {
	return "invalid workflow inputs: " + strings.Join(e.Problems, "; ")
}

// ValidateInputs checks a submitted input object against the workflow's
// declared input schemas. Declared-schema enforcement happens at the API
// edge only; the runtime itself stays schema-unchecked.
func ValidateInputs(inputs map[string]IOSchema, values map[string]any) error {
	if len(inputs) == 0 {
		return nil
	}
	if values == nil {
		values = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(InputsJSONSchema(inputs))
	documentLoader := gojsonschema.NewGoLoader(values)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate inputs: %w", err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return &InputsError{Problems: problems}
	}

	return nil
}
