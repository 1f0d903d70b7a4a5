package resolver

import (
	"errors"
	"testing"

	"github.com/myuon/flowit-sub001/common/dsl"
)

func TestResolve_Static(t *testing.T) {
	got, err := Resolve(dsl.Static("gpt-4"), nil, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "gpt-4" {
		t.Errorf("Expected gpt-4, got %v", got)
	}
}

func TestResolve_Secret(t *testing.T) {
	secrets := map[string]string{"OPENAI_KEY": "sk-test"}

	got, err := Resolve(dsl.Secret("OPENAI_KEY"), nil, secrets)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "sk-test" {
		t.Errorf("Expected sk-test, got %v", got)
	}
}

func TestResolve_SecretMissing(t *testing.T) {
	_, err := Resolve(dsl.Secret("OPENAI_KEY"), nil, map[string]string{})

	var missing *SecretMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected SecretMissingError, got %v", err)
	}
	if missing.Ref != "OPENAI_KEY" {
		t.Errorf("Expected ref OPENAI_KEY, got %s", missing.Ref)
	}
}

func TestResolve_InputPath(t *testing.T) {
	inputs := map[string]any{
		"user": map[string]any{
			"name": "Alice",
			"address": map[string]any{
				"city": "Berlin",
			},
		},
		"count": float64(3),
	}

	tests := []struct {
		path string
		want any
	}{
		{"user.name", "Alice"},
		{"user.address.city", "Berlin"},
		{"count", float64(3)},
		{"user.missing", nil},
		{"missing.deeper.path", nil},
	}

	for _, tt := range tests {
		got, err := Resolve(dsl.Input(tt.path), inputs, nil)
		if err != nil {
			t.Fatalf("Resolve(%s) failed: %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestResolve_InputPathNullStep(t *testing.T) {
	inputs := map[string]any{"user": nil}

	got, err := Resolve(dsl.Input("user.name"), inputs, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for path through null, got %v", got)
	}
}

func TestResolveParams(t *testing.T) {
	n := &dsl.Node{
		ID:   "llm",
		Type: "llm",
		Params: map[string]dsl.ParamValue{
			"model":  dsl.Static("gpt-4"),
			"apiKey": dsl.Secret("OPENAI_KEY"),
			"user":   dsl.Input("user.name"),
		},
	}
	inputs := map[string]any{"user": map[string]any{"name": "Alice"}}
	secrets := map[string]string{"OPENAI_KEY": "sk-test"}

	params, err := ResolveParams(n, inputs, secrets)
	if err != nil {
		t.Fatalf("ResolveParams failed: %v", err)
	}
	if params["model"] != "gpt-4" || params["apiKey"] != "sk-test" || params["user"] != "Alice" {
		t.Errorf("Unexpected params: %v", params)
	}
}

func TestResolveParams_SecretMissingAborts(t *testing.T) {
	n := &dsl.Node{
		ID:   "llm",
		Type: "llm",
		Params: map[string]dsl.ParamValue{
			"apiKey": dsl.Secret("OPENAI_KEY"),
		},
	}

	_, err := ResolveParams(n, nil, map[string]string{})
	var missing *SecretMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected wrapped SecretMissingError, got %v", err)
	}
}

func TestAssembleInputs(t *testing.T) {
	outputs := map[string]map[string]any{
		"a": {"result": "from-a"},
		"b": {"result": "from-b"},
	}
	edges := []dsl.Edge{
		{Source: "a", SourceHandle: "result", Target: "c", TargetHandle: "value"},
		{Source: "skipped", SourceHandle: "result", Target: "c", TargetHandle: "other"},
	}

	inputs := AssembleInputs(edges, outputs)
	if inputs["value"] != "from-a" {
		t.Errorf("Expected value=from-a, got %v", inputs["value"])
	}
	if _, present := inputs["other"]; present {
		t.Error("Unexecuted source must contribute nothing")
	}
}

// Two edges into the same port: the later edge wins.
func TestAssembleInputs_LastWriteWins(t *testing.T) {
	outputs := map[string]map[string]any{
		"a": {"result": "first"},
		"b": {"result": "second"},
	}
	edges := []dsl.Edge{
		{Source: "a", SourceHandle: "result", Target: "c", TargetHandle: "value"},
		{Source: "b", SourceHandle: "result", Target: "c", TargetHandle: "value"},
	}

	inputs := AssembleInputs(edges, outputs)
	if inputs["value"] != "second" {
		t.Errorf("Expected last write to win, got %v", inputs["value"])
	}
}

func TestAssembleInputs_UndeclaredHandleIsNil(t *testing.T) {
	outputs := map[string]map[string]any{"a": {"result": true}}
	edges := []dsl.Edge{
		{Source: "a", SourceHandle: "nope", Target: "c", TargetHandle: "value"},
	}

	inputs := AssembleInputs(edges, outputs)
	if v, present := inputs["value"]; !present || v != nil {
		t.Errorf("Expected explicit nil for missing source handle, got %v (present=%v)", v, present)
	}
}
