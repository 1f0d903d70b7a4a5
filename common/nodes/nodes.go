// Package nodes carries the built-in node set. Nothing here registers
// itself; services call RegisterAll at startup so initialization order
// stays visible.
package nodes

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/myuon/flowit-sub001/common/condition"
	"github.com/myuon/flowit-sub001/common/httpclient"
	"github.com/myuon/flowit-sub001/common/node"
)

// Deps are the collaborators the built-in nodes need.
type Deps struct {
	// Evaluator backs the if-condition expression mode. Nil falls back to
	// a fresh evaluator.
	Evaluator *condition.Evaluator
	// HTTP backs the http-request node. Nil disables it (the type is not
	// registered), which is what cmd/runner wants when offline.
	HTTP *httpclient.Client
}

// RegisterAll registers the built-in node set on the registry.
func RegisterAll(reg *node.Registry, deps Deps) {
	if deps.Evaluator == nil {
		deps.Evaluator = condition.NewEvaluator()
	}

	reg.Register(ifConditionDefinition(deps.Evaluator))
	reg.Register(switchDefinition())
	reg.Register(templateDefinition())
	reg.Register(expressionDefinition())
	reg.Register(logDefinition())
	reg.Register(outputDefinition())

	if deps.HTTP != nil {
		reg.Register(httpRequestDefinition(deps.HTTP))
	}
}

// truthy applies JS-style truthiness: nil, false, zero, NaN and the empty
// string are false; everything else, empty collections included, is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

// stringify renders a value for text contexts. Numbers print without
// trailing zeros; composites render as JSON.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// stringParam reads a string parameter, tolerating absence.
func stringParam(params map[string]any, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
