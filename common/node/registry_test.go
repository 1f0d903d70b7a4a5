package node

import (
	"context"
	"testing"

	"github.com/myuon/flowit-sub001/common/dsl"
)

type nopLogger struct {
	warns int
}

func (l *nopLogger) Info(msg string, kv ...interface{})  {}
func (l *nopLogger) Error(msg string, kv ...interface{}) {}
func (l *nopLogger) Warn(msg string, kv ...interface{})  { l.warns++ }
func (l *nopLogger) Debug(msg string, kv ...interface{}) {}

func def(id, category string, tags ...string) *Definition {
	return &Definition{
		ID:          id,
		DisplayName: id,
		Display:     Display{Category: category, Tags: tags},
		Runner: RunnerFunc(func(ctx context.Context, rc *RunContext) (map[string]any, error) {
			return map[string]any{}, nil
		}),
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry(&nopLogger{})
	r.Register(def("template", "transform"))

	if !r.Has("template") {
		t.Fatal("Expected registry to have 'template'")
	}
	if got := r.Get("template"); got == nil || got.ID != "template" {
		t.Fatalf("Get returned %v", got)
	}
	if r.Get("missing") != nil {
		t.Error("Expected nil for unregistered type")
	}
}

func TestRegistry_ReRegisterWarns(t *testing.T) {
	log := &nopLogger{}
	r := NewRegistry(log)

	first := def("http-request", "io")
	second := def("http-request", "network")
	r.Register(first)
	r.Register(second)

	if log.warns != 1 {
		t.Errorf("Expected 1 warning on overwrite, got %d", log.warns)
	}
	if got := r.Get("http-request"); got.Display.Category != "network" {
		t.Errorf("Expected overwriting definition to win, got category %q", got.Display.Category)
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 definition after overwrite, got %d", r.Len())
	}
}

func TestRegistry_Filters(t *testing.T) {
	r := NewRegistry(&nopLogger{})
	r.Register(def("if-condition", "logic", "control-flow"))
	r.Register(def("switch", "logic", "control-flow"))
	r.Register(def("template", "transform", "text"))

	logic := r.GetByCategory("logic")
	if len(logic) != 2 || logic[0].ID != "if-condition" || logic[1].ID != "switch" {
		t.Fatalf("GetByCategory returned %v", ids(logic))
	}

	cf := r.GetByTag("control-flow")
	if len(cf) != 2 {
		t.Fatalf("GetByTag returned %v", ids(cf))
	}

	if got := r.GetByCategory("nope"); len(got) != 0 {
		t.Errorf("Expected no matches, got %v", ids(got))
	}
}

func TestRegistry_UnregisterAndClear(t *testing.T) {
	r := NewRegistry(&nopLogger{})
	r.Register(def("log", "debug"))
	r.Register(def("output", "io"))

	r.Unregister("log")
	if r.Has("log") {
		t.Error("Expected 'log' to be removed")
	}
	r.Unregister("log") // no-op

	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Expected empty registry after Clear, got %d", r.Len())
	}
}

func TestRegistry_Catalog(t *testing.T) {
	r := NewRegistry(&nopLogger{})
	d := def("template", "transform", "text")
	d.Description = "String templating"
	d.Display.Icon = "file-text"
	d.Display.Color = "#8b5cf6"
	d.Inputs = map[string]dsl.IOSchema{"variables": {Kind: dsl.KindObject}}
	d.Outputs = map[string]dsl.IOSchema{"result": {Kind: dsl.KindString}}
	r.Register(d)

	catalog := r.Catalog()
	if len(catalog) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(catalog))
	}
	e := catalog[0]
	if e.ID != "template" || e.Description != "String templating" ||
		e.Category != "transform" || e.Icon != "file-text" ||
		e.InputCount != 1 || e.OutputCount != 1 {
		t.Errorf("Unexpected catalog entry: %+v", e)
	}
}

func ids(defs []*Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.ID
	}
	return out
}
