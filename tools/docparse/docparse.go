// Package docparse is a taskflow.Tool that extracts plain text from PDF,
// CSV, and Markdown documents supplied as raw bytes or a file path.
package docparse

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"

	taskflow "github.com/flowforge/taskflow"
)

// Tool extracts text content from documents by file extension.
type Tool struct{}

// New creates a document-parsing Tool.
func New() *Tool {
	return &Tool{}
}

// Name implements taskflow.Tool.
func (t *Tool) Name() string { return "document_parse" }

// Description implements taskflow.Tool.
func (t *Tool) Description() string {
	return "Extract plain text from a PDF, CSV, or Markdown document."
}

// Run implements taskflow.Tool. It expects input["path"] naming a file on
// disk; the extension selects the extraction strategy. Content may also be
// supplied directly via input["content"] (string or []byte) together with
// input["format"] ("pdf", "csv", or "md").
func (t *Tool) Run(_ context.Context, input map[string]any, _ map[string]any) (any, error) {
	content, format, err := resolveInput(input)
	if err != nil {
		return nil, err
	}

	switch format {
	case "pdf":
		return extractPDF(content)
	case "csv":
		return extractCSV(content)
	case "md", "markdown":
		return extractMarkdown(content)
	default:
		return nil, fmt.Errorf("document_parse: unsupported format %q", format)
	}
}

func resolveInput(input map[string]any) (content []byte, format string, err error) {
	if raw, ok := input["content"]; ok {
		format, _ = input["format"].(string)
		if format == "" {
			return nil, "", fmt.Errorf("document_parse: \"format\" required when \"content\" is given")
		}
		switch v := raw.(type) {
		case string:
			return []byte(v), strings.ToLower(format), nil
		case []byte:
			return v, strings.ToLower(format), nil
		default:
			return nil, "", fmt.Errorf("document_parse: \"content\" must be string or []byte, got %T", raw)
		}
	}

	path, _ := input["path"].(string)
	if path == "" {
		return nil, "", fmt.Errorf("document_parse: missing required input %q or %q", "path", "content")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("document_parse: %w", err)
	}
	return data, strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")), nil
}

// extractPDF extracts plain text from PDF content, grounded on
// ledongthuc/pdf's streaming plain-text reader.
func extractPDF(content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("document_parse: empty PDF content")
	}

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("document_parse: open pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("document_parse: extract text: %w", err)
	}

	text, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("document_parse: read text: %w", err)
	}

	return strings.TrimSpace(string(text)), nil
}

// extractCSV converts CSV content to labeled paragraphs, one per row:
// "Header1: Value1, Header2: Value2". The first row is treated as headers.
func extractCSV(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(content)) == 0 {
		return "", nil
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return "", nil
		}
		return "", fmt.Errorf("document_parse: read headers: %w", err)
	}

	var paragraphs []string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("document_parse: read row: %w", err)
		}

		var fields []string
		for i, val := range record {
			if i >= len(headers) {
				break
			}
			val = strings.TrimSpace(val)
			if val == "" {
				continue
			}
			fields = append(fields, fmt.Sprintf("%s: %s", headers[i], val))
		}
		if len(fields) > 0 {
			paragraphs = append(paragraphs, strings.Join(fields, ", "))
		}
	}

	return strings.Join(paragraphs, "\n\n"), nil
}

// extractMarkdown renders Markdown to HTML via goldmark, then strips tags
// down to plain text so the result is uniform with the other extractors.
func extractMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("document_parse: render markdown: %w", err)
	}
	return strings.TrimSpace(stripTags(buf.String())), nil
}

func stripTags(html string) string {
	var b strings.Builder
	inTag := false
	for i := 0; i < len(html); i++ {
		switch html[i] {
		case '<':
			inTag = true
		case '>':
			inTag = false
			b.WriteByte('\n')
		default:
			if !inTag {
				b.WriteByte(html[i])
			}
		}
	}
	lines := strings.Split(b.String(), "\n")
	var out []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

var _ taskflow.Tool = (*Tool)(nil)
