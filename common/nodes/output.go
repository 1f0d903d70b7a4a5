package nodes

import (
	"context"

	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/node"
)

// outputRunner is the identity node marking workflow outputs.
type outputRunner struct{}

func (r *outputRunner) Run(ctx context.Context, rc *node.RunContext) (map[string]any, error) {
	return map[string]any{"value": rc.Inputs["value"]}, nil
}

func outputDefinition() *node.Definition {
	return &node.Definition{
		ID:          "output",
		DisplayName: "Output",
		Description: "Marks a value as a workflow output",
		Inputs: map[string]dsl.IOSchema{
			"value": {Kind: dsl.KindAny},
		},
		Outputs: map[string]dsl.IOSchema{
			"value": {Kind: dsl.KindAny},
		},
		Display: node.Display{
			Icon:     "log-out",
			Color:    "#ef4444",
			Category: "io",
			Tags:     []string{"output"},
		},
		Runner: &outputRunner{},
	}
}
