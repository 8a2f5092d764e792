package taskflow

import (
	"context"
	"errors"
	"testing"
)

type mockTool struct {
	name string
	run  func(ctx context.Context, input map[string]any, scope map[string]any) (any, error)
}

func (m mockTool) Name() string        { return m.name }
func (m mockTool) Description() string { return "mock tool " + m.name }
func (m mockTool) Run(ctx context.Context, input map[string]any, scope map[string]any) (any, error) {
	return m.run(ctx, input, scope)
}

func echoTool(name string) mockTool {
	return mockTool{name: name, run: func(_ context.Context, input map[string]any, _ map[string]any) (any, error) {
		return input, nil
	}}
}

func failingTool(name string, err error) mockTool {
	return mockTool{name: name, run: func(context.Context, map[string]any, map[string]any) (any, error) {
		return nil, err
	}}
}

func TestToolRegistryRegisterAndGet(t *testing.T) {
	reg := NewToolRegistry()
	reg.Register(echoTool("greet"))

	tool, ok := reg.Get("greet")
	if !ok {
		t.Fatal("expected tool to be found")
	}
	out, err := tool.Run(context.Background(), map[string]any{"x": 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.(map[string]any)["x"] != 1 {
		t.Errorf("unexpected output: %v", out)
	}
}

func TestToolRegistryGetMissing(t *testing.T) {
	reg := NewToolRegistry()
	if _, ok := reg.Get("nonexistent"); ok {
		t.Error("expected missing tool lookup to fail")
	}
}

func TestToolRegistryRegisterIsIdempotent(t *testing.T) {
	reg := NewToolRegistry()
	reg.Register(echoTool("greet"))
	reg.Register(echoTool("greet"))

	if len(reg.List()) != 1 {
		t.Fatalf("expected registering the same name twice to overwrite, got %d entries", len(reg.List()))
	}
}

func TestToolRegistryList(t *testing.T) {
	reg := NewToolRegistry()
	reg.Register(echoTool("greet"))
	reg.Register(echoTool("calc"))

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	if list["greet"] != "mock tool greet" {
		t.Errorf("unexpected description: %q", list["greet"])
	}
}

func TestToolRunErrorPropagates(t *testing.T) {
	reg := NewToolRegistry()
	wantErr := errors.New("tool broken")
	reg.Register(failingTool("fail", wantErr))

	tool, ok := reg.Get("fail")
	if !ok {
		t.Fatal("expected tool to be registered")
	}
	_, err := tool.Run(context.Background(), nil, nil)
	if !errors.Is(err, wantErr) {
		t.Errorf("got error %v, want %v", err, wantErr)
	}
}
