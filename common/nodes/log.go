package nodes

import (
	"context"
	"fmt"

	"github.com/myuon/flowit-sub001/common/dsl"
	"github.com/myuon/flowit-sub001/common/node"
)

// logRunner records its input in the run log and the persistent sink, then
// passes the value through unchanged.
type logRunner struct{}

func (r *logRunner) Run(ctx context.Context, rc *node.RunContext) (map[string]any, error) {
	value := rc.Inputs["value"]

	level := stringParam(rc.Params, "level")
	if level == "" {
		level = "info"
	}
	message := stringParam(rc.Params, "message")

	line := fmt.Sprintf("%s: %s", level, message)
	if message == "" {
		line = fmt.Sprintf("%s: %s", level, stringify(value))
	}
	rc.Log(line)

	if rc.WriteLog != nil {
		entry := map[string]any{
			"level":   level,
			"message": message,
			"value":   value,
		}
		if err := rc.WriteLog(entry); err != nil {
			return nil, fmt.Errorf("failed to persist log entry: %w", err)
		}
	}

	return map[string]any{"value": value}, nil
}

func logDefinition() *node.Definition {
	return &node.Definition{
		ID:          "log",
		DisplayName: "Log",
		Description: "Records the passing value in the execution log",
		Inputs: map[string]dsl.IOSchema{
			"value": {Kind: dsl.KindAny},
		},
		Outputs: map[string]dsl.IOSchema{
			"value": {Kind: dsl.KindAny},
		},
		Params: map[string]dsl.ParamSchema{
			"level": {
				Type:    dsl.ParamTypeSelect,
				Label:   "Level",
				Options: []string{"debug", "info", "warn", "error"},
				Default: "info",
			},
			"message": {
				Type:  dsl.ParamTypeString,
				Label: "Message",
			},
		},
		Display: node.Display{
			Icon:     "terminal",
			Color:    "#6b7280",
			Category: "debug",
			Tags:     []string{"observability"},
		},
		Runner: &logRunner{},
	}
}
