package pdfreport

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestToolRunWritesPDFFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.pdf")

	tool := New()
	out, err := tool.Run(context.Background(), map[string]any{
		"content":  "Hello, world.\nSecond line.",
		"filename": path,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, ok := out.(map[string]any)
	if !ok || m["status"] != "ok" {
		t.Fatalf("unexpected output: %#v", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.4")) {
		t.Errorf("expected PDF header, got %q", data[:min(20, len(data))])
	}
	if !bytes.Contains(data, []byte("%%EOF")) {
		t.Errorf("expected PDF trailer, got missing EOF marker")
	}
}

func TestToolRunMissingContent(t *testing.T) {
	tool := New()
	_, err := tool.Run(context.Background(), map[string]any{}, nil)
	if err == nil {
		t.Fatal("expected error for missing content")
	}
}

func TestToolRunDefaultFilename(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	os.Chdir(dir)

	tool := New()
	out, err := tool.Run(context.Background(), map[string]any{"content": "x"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := out.(map[string]any)
	if m["filename"] != defaultFilename {
		t.Errorf("expected default filename, got %v", m["filename"])
	}
}

func TestPaginateSplitsLongContentAcrossPages(t *testing.T) {
	content := strings.Repeat("line\n", 100)
	pages := paginate(content)
	if len(pages) < 2 {
		t.Fatalf("expected multiple pages for 100 lines, got %d", len(pages))
	}
}

func TestEscapePDFStringEscapesParensAndBackslash(t *testing.T) {
	got := escapePDFString(`a (b) c\d`)
	want := `a \(b\) c\\d`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
