package nodes

import (
	"context"
	"fmt"

	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/node"
)

// switchRunner matches its input against a case list and declares the
// matched label as the taken handle.
type switchRunner struct{}

func (r *switchRunner) Run(ctx context.Context, rc *node.RunContext) (map[string]any, error) {
	cases, err := caseLabels(rc.Params["cases"])
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("switch requires a non-empty cases list")
	}

	value := rc.Inputs["value"]
	text := stringify(value)

	matched := ""
	hasDefault := false
	for _, c := range cases {
		if c == "default" {
			hasDefault = true
		}
		if matched == "" && c == text {
			matched = c
		}
	}
	if matched == "" {
		if hasDefault {
			matched = "default"
		} else {
			// No match and no default: the last case is the fallback.
			matched = cases[len(cases)-1]
		}
	}

	rc.Logf("Switch matched case %q", matched)

	return map[string]any{
		"matched": matched,
		"value":   value,
	}, nil
}

// TakenHandles routes by the matched case label. A missing or empty label
// takes everything.
func (r *switchRunner) TakenHandles(outputs map[string]any) ([]string, bool) {
	matched, ok := outputs["matched"].(string)
	if !ok || matched == "" {
		return nil, false
	}
	return []string{matched}, true
}

// caseLabels accepts the cases parameter as a string slice or a JSON array
// of strings.
func caseLabels(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("switch case labels must be strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("switch cases must be an array of strings, got %T", raw)
	}
}

func switchDefinition() *node.Definition {
	return &node.Definition{
		ID:          "switch",
		DisplayName: "Switch",
		Description: "Routes the flow to the case matching the input value",
		Inputs: map[string]dsl.IOSchema{
			"value": {Kind: dsl.KindAny, Description: "Value compared against the case labels"},
		},
		Outputs: map[string]dsl.IOSchema{
			"matched": {Kind: dsl.KindString},
			"value":   {Kind: dsl.KindAny},
		},
		Params: map[string]dsl.ParamSchema{
			"cases": {
				Type:        dsl.ParamTypeJSON,
				Label:       "Cases",
				Description: "Case labels; each label is also an output handle",
				Required:    true,
			},
		},
		Display: node.Display{
			Icon:     "git-merge",
			Color:    "#f59e0b",
			Category: "logic",
			Tags:     []string{"control-flow", "branch"},
		},
		Runner: &switchRunner{},
	}
}
