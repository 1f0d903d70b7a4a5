package nodes

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/node"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^}\s]+)\s*\}\}`)

// templateRunner substitutes {{name}} placeholders from the variables
// input. Missing keys render empty.
type templateRunner struct{}

func (r *templateRunner) Run(ctx context.Context, rc *node.RunContext) (map[string]any, error) {
	tmpl := stringParam(rc.Params, "template")
	if tmpl == "" {
		return nil, fmt.Errorf("template parameter is required")
	}

	variables, _ := rc.Inputs["variables"].(map[string]any)

	result := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := strings.TrimSpace(strings.Trim(match, "{}"))
		value, ok := variables[name]
		if !ok {
			return ""
		}
		return stringify(value)
	})

	return map[string]any{"result": result}, nil
}

func templateDefinition() *node.Definition {
	return &node.Definition{
		ID:          "template",
		DisplayName: "Template",
		Description: "Renders a string template with {{placeholder}} substitution",
		Inputs: map[string]dsl.IOSchema{
			"variables": {Kind: dsl.KindObject, Description: "Values substituted into the template"},
		},
		Outputs: map[string]dsl.IOSchema{
			"result": {Kind: dsl.KindString},
		},
		Params: map[string]dsl.ParamSchema{
			"template": {
				Type:     dsl.ParamTypeString,
				Label:    "Template",
				Required: true,
			},
		},
		Display: node.Display{
			Icon:     "file-text",
			Color:    "#8b5cf6",
			Category: "transform",
			Tags:     []string{"text"},
		},
		Runner: &templateRunner{},
	}
}
