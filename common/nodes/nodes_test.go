package nodes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/myuon/flowit-sub001/common/condition"
	"github.com/myuon/flowit-sub001/common/httpclient"
	"github.com/myuon/flowit-sub001/common/node"
	"github.com/myuon/flowit-sub001/common/security"
)

func runContext(inputs, params map[string]any) *node.RunContext {
	return &node.RunContext{
		NodeID:      "n1",
		ExecutionID: "exec-1",
		Inputs:      inputs,
		Params:      params,
		Log:         func(string) {},
	}
}

func TestRegisterAll(t *testing.T) {
	reg := node.NewRegistry(nil)
	RegisterAll(reg, Deps{})

	for _, id := range []string{"if-condition", "switch", "template", "expression", "log", "output"} {
		if !reg.Has(id) {
			t.Errorf("Expected %s to be registered", id)
		}
	}
	// No HTTP client, no http-request node.
	if reg.Has("http-request") {
		t.Error("http-request must not register without a client")
	}

	guard := security.NewGuard(true, nil)
	reg2 := node.NewRegistry(nil)
	RegisterAll(reg2, Deps{HTTP: httpclient.New(guard, nil)})
	if !reg2.Has("http-request") {
		t.Error("Expected http-request with a client")
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{float64(0), false},
		{float64(1), true},
		{"", false},
		{"x", true},
		{map[string]any{}, true},
		{[]any{}, true},
	}
	for _, tt := range tests {
		if got := truthy(tt.value); got != tt.want {
			t.Errorf("truthy(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestIfCondition_TruthyMode(t *testing.T) {
	r := &ifConditionRunner{evaluator: condition.NewEvaluator()}

	out, err := r.Run(context.Background(), runContext(
		map[string]any{"value": float64(0)}, nil))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out["result"] != false {
		t.Errorf("Expected value=0 to be falsy, got %v", out["result"])
	}
	if out["value"] != float64(0) {
		t.Errorf("Expected value passthrough, got %v", out["value"])
	}

	handles, selective := r.TakenHandles(out)
	if !selective || len(handles) != 1 || handles[0] != "false" {
		t.Errorf("Expected the false handle, got %v (selective=%v)", handles, selective)
	}
}

func TestIfCondition_ExpressionMode(t *testing.T) {
	r := &ifConditionRunner{evaluator: condition.NewEvaluator()}

	out, err := r.Run(context.Background(), runContext(
		map[string]any{"value": float64(42)},
		map[string]any{"mode": "expression", "expression": "value > 40"}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out["result"] != true {
		t.Errorf("Expected true, got %v", out["result"])
	}

	handles, selective := r.TakenHandles(out)
	if !selective || handles[0] != "true" {
		t.Errorf("Expected the true handle, got %v", handles)
	}
}

func TestIfCondition_ExpressionRequired(t *testing.T) {
	r := &ifConditionRunner{evaluator: condition.NewEvaluator()}

	_, err := r.Run(context.Background(), runContext(nil,
		map[string]any{"mode": "expression"}))
	if err == nil {
		t.Fatal("Expected error for missing expression")
	}
}

func TestSwitch_Matching(t *testing.T) {
	r := &switchRunner{}
	cases := []any{"small", "medium", "large"}

	out, err := r.Run(context.Background(), runContext(
		map[string]any{"value": "medium"},
		map[string]any{"cases": cases}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out["matched"] != "medium" {
		t.Errorf("Expected medium, got %v", out["matched"])
	}

	handles, selective := r.TakenHandles(out)
	if !selective || handles[0] != "medium" {
		t.Errorf("Expected the medium handle, got %v", handles)
	}
}

func TestSwitch_DefaultFallback(t *testing.T) {
	r := &switchRunner{}

	out, err := r.Run(context.Background(), runContext(
		map[string]any{"value": "xxl"},
		map[string]any{"cases": []any{"small", "default", "large"}}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out["matched"] != "default" {
		t.Errorf("Expected default, got %v", out["matched"])
	}
}

// Without a default, the last case catches everything unmatched.
func TestSwitch_LastCaseFallback(t *testing.T) {
	r := &switchRunner{}

	out, err := r.Run(context.Background(), runContext(
		map[string]any{"value": "xxl"},
		map[string]any{"cases": []any{"small", "large"}}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out["matched"] != "large" {
		t.Errorf("Expected last case fallback, got %v", out["matched"])
	}
}

func TestSwitch_NumberValue(t *testing.T) {
	r := &switchRunner{}

	out, err := r.Run(context.Background(), runContext(
		map[string]any{"value": float64(30)},
		map[string]any{"cases": []any{"30", "40"}}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out["matched"] != "30" {
		t.Errorf("Expected numeric match without trailing zeros, got %v", out["matched"])
	}
}

func TestSwitch_RequiresCases(t *testing.T) {
	r := &switchRunner{}

	if _, err := r.Run(context.Background(), runContext(nil, nil)); err == nil {
		t.Fatal("Expected error for missing cases")
	}
	if _, err := r.Run(context.Background(), runContext(nil,
		map[string]any{"cases": "oops"})); err == nil {
		t.Fatal("Expected error for non-array cases")
	}
}

func TestTemplate_Substitution(t *testing.T) {
	r := &templateRunner{}

	out, err := r.Run(context.Background(), runContext(
		map[string]any{"variables": map[string]any{"name": "Alice", "age": float64(30)}},
		map[string]any{"template": "Hello, {{name}}! You are {{age}} years old."}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out["result"] != "Hello, Alice! You are 30 years old." {
		t.Errorf("Unexpected result: %q", out["result"])
	}
}

func TestTemplate_MissingKeyRendersEmpty(t *testing.T) {
	r := &templateRunner{}

	out, err := r.Run(context.Background(), runContext(
		map[string]any{"variables": map[string]any{}},
		map[string]any{"template": "Hi {{who}}!"}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out["result"] != "Hi !" {
		t.Errorf("Expected empty substitution, got %q", out["result"])
	}
}

func TestTemplate_RequiresTemplate(t *testing.T) {
	r := &templateRunner{}
	if _, err := r.Run(context.Background(), runContext(nil, nil)); err == nil {
		t.Fatal("Expected error for missing template")
	}
}

func TestExpression_Evaluate(t *testing.T) {
	r := newExpressionRunner()

	out, err := r.Run(context.Background(), runContext(
		map[string]any{"a": float64(2), "b": float64(3)},
		map[string]any{"expression": "a * b"}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out["result"] != float64(6) {
		t.Errorf("Expected 6, got %v (%T)", out["result"], out["result"])
	}

	// Second run hits the program cache.
	if _, err := r.Run(context.Background(), runContext(
		map[string]any{"a": float64(4), "b": float64(5)},
		map[string]any{"expression": "a * b"})); err != nil {
		t.Fatalf("Cached run failed: %v", err)
	}
	if len(r.cache) != 1 {
		t.Errorf("Expected 1 cached program, got %d", len(r.cache))
	}
}

func TestExpression_CompileError(t *testing.T) {
	r := newExpressionRunner()
	_, err := r.Run(context.Background(), runContext(nil,
		map[string]any{"expression": "a +* b"}))
	if err == nil {
		t.Fatal("Expected compile error")
	}
}

func TestHTTPRequest_JSONRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Token") != "abc" {
			t.Errorf("Expected forwarded header, got %q", r.Header.Get("X-Token"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := httpclient.New(security.NewGuard(true, nil), nil)
	r := &httpRequestRunner{client: client}

	out, err := r.Run(context.Background(), runContext(nil, map[string]any{
		"url":     srv.URL,
		"method":  "POST",
		"headers": map[string]any{"X-Token": "abc"},
		"body":    map[string]any{"hello": "world"},
	}))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out["status"] != float64(http.StatusCreated) {
		t.Errorf("Expected 201, got %v", out["status"])
	}
	body, ok := out["body"].(map[string]any)
	if !ok || body["ok"] != true {
		t.Errorf("Expected parsed JSON body, got %v", out["body"])
	}
}

func TestHTTPRequest_GuardBlocks(t *testing.T) {
	client := httpclient.New(security.NewGuard(false, nil), nil)
	r := &httpRequestRunner{client: client}

	_, err := r.Run(context.Background(), runContext(nil, map[string]any{
		"url": "http://127.0.0.1/metadata",
	}))
	if err == nil || !strings.Contains(err.Error(), "blocked") {
		t.Fatalf("Expected guard to block, got %v", err)
	}
}

func TestLog_SinkAndPassthrough(t *testing.T) {
	r := &logRunner{}

	var lines []string
	var persisted []any
	rc := runContext(map[string]any{"value": "payload"},
		map[string]any{"level": "warn", "message": "heads up"})
	rc.Log = func(line string) { lines = append(lines, line) }
	rc.WriteLog = func(data any) error {
		persisted = append(persisted, data)
		return nil
	}

	out, err := r.Run(context.Background(), rc)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out["value"] != "payload" {
		t.Errorf("Expected passthrough, got %v", out["value"])
	}
	if len(lines) != 1 || lines[0] != "warn: heads up" {
		t.Errorf("Unexpected log lines: %v", lines)
	}
	if len(persisted) != 1 {
		t.Errorf("Expected one persisted entry, got %d", len(persisted))
	}
}

func TestOutput_Identity(t *testing.T) {
	r := &outputRunner{}

	out, err := r.Run(context.Background(), runContext(map[string]any{"value": 42}, nil))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out["value"] != 42 {
		t.Errorf("Expected identity, got %v", out["value"])
	}
}
