// Package pdfreport is a taskflow.Tool that renders plain text content to
// a simple paginated PDF file using only the standard library.
//
// No PDF-generation library appears anywhere in the reference corpus this
// module was built from, so the PDF body (objects, cross-reference table,
// trailer) is hand-assembled here rather than imported. Layout intentionally
// mirrors the page size, margins, and line wrapping of the original
// ReportLab-based exporter this tool replaces.
package pdfreport

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	taskflow "github.com/flowforge/taskflow"
)

const (
	pageWidth  = 612 // US Letter, points
	pageHeight = 792
	margin     = 72
	lineHeight = 14
	wrapWidth  = 100
	fontSize   = 11

	defaultFilename = "outputs/report.pdf"
)

// Tool writes text content to a PDF file on disk.
type Tool struct{}

// New creates a PDF report Tool.
func New() *Tool {
	return &Tool{}
}

// Name implements taskflow.Tool.
func (t *Tool) Name() string { return "pdf_report" }

// Description implements taskflow.Tool.
func (t *Tool) Description() string { return "Export text content to a PDF file." }

// Run implements taskflow.Tool. input["content"] is required; input["filename"]
// defaults to "outputs/report.pdf". Returns a map with the written filename.
func (t *Tool) Run(_ context.Context, input map[string]any, _ map[string]any) (any, error) {
	content, _ := input["content"].(string)
	if content == "" {
		return nil, fmt.Errorf("pdf_report: \"content\" is required")
	}

	filename, _ := input["filename"].(string)
	if filename == "" {
		filename = defaultFilename
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, fmt.Errorf("pdf_report: create output dir: %w", err)
	}

	doc := render(content)
	if err := os.WriteFile(filename, doc, 0o644); err != nil {
		return nil, fmt.Errorf("pdf_report: write file: %w", err)
	}

	return map[string]any{"filename": filename, "status": "ok"}, nil
}

// render lays text onto letter-sized pages and returns a complete,
// minimal PDF document (no compression, built-in Helvetica font).
func render(content string) []byte {
	pages := paginate(content)

	var buf pdfBuilder
	buf.writeHeader()

	catalogID := buf.reserve()
	pagesID := buf.reserve()
	fontID := buf.reserve()

	pageIDs := make([]int, len(pages))
	contentIDs := make([]int, len(pages))
	for i := range pages {
		pageIDs[i] = buf.reserve()
		contentIDs[i] = buf.reserve()
	}

	buf.writeObject(catalogID, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesID))

	kids := make([]string, len(pageIDs))
	for i, id := range pageIDs {
		kids[i] = fmt.Sprintf("%d 0 R", id)
	}
	buf.writeObject(pagesID, fmt.Sprintf(
		"<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %d %d] >>",
		strings.Join(kids, " "), len(pageIDs), pageWidth, pageHeight))

	buf.writeObject(fontID, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, lines := range pages {
		stream := buildPageStream(lines)
		buf.writeObject(contentIDs[i], fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
		buf.writeObject(pageIDs[i], fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pagesID, fontID, contentIDs[i]))
	}

	buf.writeFooter(catalogID)
	return buf.Bytes()
}

// paginate wraps content into lines (splitting long lines at wrapWidth
// characters) and groups them into pages of lines-per-page determined by
// the page's usable height.
func paginate(content string) [][]string {
	linesPerPage := (pageHeight - 2*margin) / lineHeight

	var wrapped []string
	for _, line := range strings.Split(content, "\n") {
		if line == "" {
			wrapped = append(wrapped, "")
			continue
		}
		for i := 0; i < len(line); i += wrapWidth {
			end := i + wrapWidth
			if end > len(line) {
				end = len(line)
			}
			wrapped = append(wrapped, line[i:end])
		}
	}
	if len(wrapped) == 0 {
		wrapped = []string{""}
	}

	var pages [][]string
	for i := 0; i < len(wrapped); i += linesPerPage {
		end := i + linesPerPage
		if end > len(wrapped) {
			end = len(wrapped)
		}
		pages = append(pages, wrapped[i:end])
	}
	return pages
}

func buildPageStream(lines []string) string {
	var b strings.Builder
	b.WriteString("BT\n")
	fmt.Fprintf(&b, "/F1 %d Tf\n", fontSize)
	y := pageHeight - margin
	for _, line := range lines {
		fmt.Fprintf(&b, "1 0 0 1 %d %d Tm\n", margin, y)
		fmt.Fprintf(&b, "(%s) Tj\n", escapePDFString(line))
		y -= lineHeight
	}
	b.WriteString("ET")
	return b.String()
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// pdfBuilder assembles a PDF body, tracking object byte offsets for the
// cross-reference table.
type pdfBuilder struct {
	buf      bytes.Buffer
	offsets  []int64
	nextID   int
}

func (b *pdfBuilder) writeHeader() {
	b.buf.WriteString("%PDF-1.4\n")
	b.offsets = append(b.offsets, 0) // object 0 is the free-list head
	b.nextID = 1
}

// reserve allocates the next object ID without writing it yet.
func (b *pdfBuilder) reserve() int {
	id := b.nextID
	b.nextID++
	b.offsets = append(b.offsets, -1)
	return id
}

func (b *pdfBuilder) writeObject(id int, body string) {
	b.offsets[id] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", id, body)
}

func (b *pdfBuilder) writeFooter(catalogID int) {
	xrefStart := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", len(b.offsets))
	b.buf.WriteString("0000000000 65535 f \n")
	for i := 1; i < len(b.offsets); i++ {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", b.offsets[i])
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root %d 0 R >>\n", len(b.offsets), catalogID)
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF", xrefStart)
}

func (b *pdfBuilder) Bytes() []byte {
	return b.buf.Bytes()
}

var _ taskflow.Tool = (*Tool)(nil)
