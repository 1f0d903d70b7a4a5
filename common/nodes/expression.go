package nodes

import (
	"context"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/node"
)

// expressionRunner evaluates an expr-lang program over the node's input
// port map. Programs are compiled once per expression text.
type expressionRunner struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

func newExpressionRunner() *expressionRunner {
	return &expressionRunner{cache: make(map[string]*vm.Program)}
}

func (r *expressionRunner) Run(ctx context.Context, rc *node.RunContext) (map[string]any, error) {
	source := stringParam(rc.Params, "expression")
	if source == "" {
		return nil, fmt.Errorf("expression parameter is required")
	}

	program, err := r.program(source)
	if err != nil {
		return nil, err
	}

	env := make(map[string]any, len(rc.Inputs))
	for k, v := range rc.Inputs {
		env[k] = v
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("expression evaluation failed: %w", err)
	}

	return map[string]any{"result": result}, nil
}

func (r *expressionRunner) program(source string) (*vm.Program, error) {
	r.mu.RLock()
	program, ok := r.cache[source]
	r.mu.RUnlock()
	if ok {
		return program, nil
	}

	// Compile without a typed env: port names vary per workflow.
	program, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("expression compilation failed: %w", err)
	}

	r.mu.Lock()
	r.cache[source] = program
	r.mu.Unlock()

	return program, nil
}

func expressionDefinition() *node.Definition {
	return &node.Definition{
		ID:          "expression",
		DisplayName: "Expression",
		Description: "Evaluates an expression over the connected input ports",
		Inputs: map[string]dsl.IOSchema{
			"value": {Kind: dsl.KindAny, Description: "Free-form; any connected port is visible to the expression"},
		},
		Outputs: map[string]dsl.IOSchema{
			"result": {Kind: dsl.KindAny},
		},
		Params: map[string]dsl.ParamSchema{
			"expression": {
				Type:        dsl.ParamTypeString,
				Label:       "Expression",
				Description: "expr-lang program; input port names are variables",
				Required:    true,
			},
		},
		Display: node.Display{
			Icon:     "function-square",
			Color:    "#10b981",
			Category: "transform",
			Tags:     []string{"compute"},
		},
		Runner: newExpressionRunner(),
	}
}
