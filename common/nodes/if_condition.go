package nodes

import (
	"context"
	"fmt"

	"github.com/myuon/flowit-sub001/common/condition"
	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/node"
)

// ifConditionRunner evaluates its input to a boolean and declares which
// outgoing handle the run follows.
type ifConditionRunner struct {
	evaluator *condition.Evaluator
}

func (r *ifConditionRunner) Run(ctx context.Context, rc *node.RunContext) (map[string]any, error) {
	value := rc.Inputs["value"]

	mode := stringParam(rc.Params, "mode")
	if mode == "" {
		mode = "truthy"
	}

	var result bool
	switch mode {
	case "truthy":
		result = truthy(value)
	case "expression":
		expr := stringParam(rc.Params, "expression")
		if expr == "" {
			return nil, fmt.Errorf("expression mode requires an expression parameter")
		}
		var err error
		result, err = r.evaluator.Evaluate(expr, value, rc.Inputs)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown condition mode: %s", mode)
	}

	rc.Logf("Condition evaluated to %t", result)

	return map[string]any{
		"result": result,
		"value":  value,
	}, nil
}

// TakenHandles routes by the boolean result: true takes the "true" handle,
// false the "false" handle. A non-boolean result takes everything.
func (r *ifConditionRunner) TakenHandles(outputs map[string]any) ([]string, bool) {
	result, ok := outputs["result"].(bool)
	if !ok {
		return nil, false
	}
	if result {
		return []string{"true"}, true
	}
	return []string{"false"}, true
}

func ifConditionDefinition(evaluator *condition.Evaluator) *node.Definition {
	return &node.Definition{
		ID:          "if-condition",
		DisplayName: "If Condition",
		Description: "Routes the flow by a truthiness check or a CEL expression",
		Inputs: map[string]dsl.IOSchema{
			"value": {Kind: dsl.KindAny, Description: "Value the condition inspects"},
		},
		Outputs: map[string]dsl.IOSchema{
			"result": {Kind: dsl.KindBoolean},
			"value":  {Kind: dsl.KindAny},
		},
		Params: map[string]dsl.ParamSchema{
			"mode": {
				Type:    dsl.ParamTypeSelect,
				Label:   "Mode",
				Options: []string{"truthy", "expression"},
				Default: "truthy",
			},
			"expression": {
				Type:        dsl.ParamTypeString,
				Label:       "Expression",
				Description: "CEL expression with `value` and `inputs` bound",
			},
		},
		Display: node.Display{
			Icon:     "git-branch",
			Color:    "#f59e0b",
			Category: "logic",
			Tags:     []string{"control-flow", "branch"},
		},
		Runner: &ifConditionRunner{evaluator: evaluator},
	}
}
