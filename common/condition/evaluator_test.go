package condition

import (
	"testing"
)

func TestEvaluate_ValueBinding(t *testing.T) {
	e := NewEvaluator()

	tests := []struct {
		expr  string
		value any
		want  bool
	}{
		{"value > 10", float64(15), true},
		{"value > 10", float64(5), false},
		{`value == "go"`, "go", true},
		{"value", true, true},
	}

	for _, tt := range tests {
		got, err := e.Evaluate(tt.expr, tt.value, nil)
		if err != nil {
			t.Fatalf("Evaluate(%q) failed: %v", tt.expr, err)
		}
		if got != tt.want {
			t.Errorf("Evaluate(%q, %v) = %v, want %v", tt.expr, tt.value, got, tt.want)
		}
	}
}

func TestEvaluate_InputsBinding(t *testing.T) {
	e := NewEvaluator()

	inputs := map[string]any{"count": float64(3), "name": "alice"}
	got, err := e.Evaluate(`inputs.count >= 3 && inputs.name == "alice"`, nil, inputs)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !got {
		t.Error("Expected true")
	}
}

func TestEvaluate_NonBooleanResult(t *testing.T) {
	e := NewEvaluator()

	if _, err := e.Evaluate(`"not a bool"`, nil, nil); err == nil {
		t.Fatal("Expected error for non-boolean expression")
	}
}

func TestEvaluate_CompileError(t *testing.T) {
	e := NewEvaluator()

	if _, err := e.Evaluate("value >", nil, nil); err == nil {
		t.Fatal("Expected compile error")
	}
	if e.CacheSize() != 0 {
		t.Errorf("Failed compilation must not be cached, size=%d", e.CacheSize())
	}
}

func TestEvaluate_EmptyExpression(t *testing.T) {
	e := NewEvaluator()

	if _, err := e.Evaluate("", nil, nil); err == nil {
		t.Fatal("Expected error for empty expression")
	}
}

func TestEvaluate_Caching(t *testing.T) {
	e := NewEvaluator()

	for i := 0; i < 3; i++ {
		if _, err := e.Evaluate("value > 0", float64(i), nil); err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
	}
	if e.CacheSize() != 1 {
		t.Errorf("Expected 1 cached program, got %d", e.CacheSize())
	}

	e.ClearCache()
	if e.CacheSize() != 0 {
		t.Errorf("Expected empty cache after clear, got %d", e.CacheSize())
	}
}
