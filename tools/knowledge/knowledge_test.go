package knowledge

import (
	"context"
	"testing"
)

func newTestTool(t *testing.T) *Tool {
	t.Helper()
	tool, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create tool: %v", err)
	}
	t.Cleanup(func() { tool.Close() })
	return tool
}

func TestToolRunFindsSeededEntry(t *testing.T) {
	tool := newTestTool(t)

	out, err := tool.Run(context.Background(), map[string]any{"query": "gdpr"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := out.(map[string]any)
	if m["found"] != true {
		t.Fatalf("expected found=true, got %#v", m)
	}
	if m["count"].(int) < 1 {
		t.Errorf("expected at least one result, got %v", m["count"])
	}
}

func TestToolRunNoMatch(t *testing.T) {
	tool := newTestTool(t)

	out, err := tool.Run(context.Background(), map[string]any{"query": "quantum cryptography zzz"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := out.(map[string]any)
	if m["found"] != false {
		t.Errorf("expected found=false, got %#v", m)
	}
	if m["count"].(int) != 0 {
		t.Errorf("expected zero results, got %v", m["count"])
	}
}

func TestToolRunMissingQuery(t *testing.T) {
	tool := newTestTool(t)

	_, err := tool.Run(context.Background(), map[string]any{}, nil)
	if err == nil {
		t.Fatal("expected error for missing query")
	}
}

func TestSeedAddsCustomEntries(t *testing.T) {
	tool := newTestTool(t)

	if err := tool.Seed([]Entry{{Topic: "widgets", Content: "widgets are small mechanical parts"}}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	out, err := tool.Run(context.Background(), map[string]any{"query": "widgets"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := out.(map[string]any)
	if m["count"].(int) < 1 {
		t.Errorf("expected seeded entry to be found, got %#v", m)
	}
}
