// Package httpfetch is a sample taskflow.Tool that fetches a URL and
// extracts its readable text content, exercising the web-fetching
// collaborator named (but left unspecified) by the scheduler design.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	taskflow "github.com/flowforge/taskflow"
)

const maxContentLength = 8000

// Tool fetches URLs and extracts readable content via go-readability,
// falling back to a plain HTML strip when extraction fails.
type Tool struct {
	client *http.Client
}

// New creates a Tool with a 15-second request timeout.
func New() *Tool {
	return &Tool{client: &http.Client{Timeout: 15 * time.Second}}
}

// Name implements taskflow.Tool.
func (t *Tool) Name() string { return "http_fetch" }

// Description implements taskflow.Tool.
func (t *Tool) Description() string {
	return "Fetch a URL and extract its readable text content."
}

// Run implements taskflow.Tool. It expects input["url"] to be a string and
// returns the extracted text, truncated to maxContentLength characters.
func (t *Tool) Run(ctx context.Context, input map[string]any, _ map[string]any) (any, error) {
	rawURL, _ := input["url"].(string)
	if rawURL == "" {
		return nil, fmt.Errorf("http_fetch: missing required input %q", "url")
	}

	content, err := t.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if len(content) > maxContentLength {
		content = content[:maxContentLength] + "\n... (truncated)"
	}
	return content, nil
}

func (t *Tool) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; TaskflowBot/1.0)")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("http %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}

	html := string(body)

	parsedURL, _ := url.Parse(rawURL)
	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err == nil && article.TextContent != "" {
		return strings.TrimSpace(article.TextContent), nil
	}

	return stripHTML(html), nil
}

// stripHTML is a minimal tag/script/style stripper used when readability
// extraction fails to produce usable content. It does not attempt to
// preserve structure or decode entities beyond the common whitespace ones.
func stripHTML(html string) string {
	var b strings.Builder
	inTag := false
	skipUntil := "" // set while inside <script> or <style>

	for i := 0; i < len(html); i++ {
		c := html[i]

		if skipUntil != "" {
			if strings.HasPrefix(html[i:], skipUntil) {
				skipUntil = ""
				i += len(skipUntil) - 1
			}
			continue
		}

		switch {
		case c == '<':
			inTag = true
			lower := strings.ToLower(html[i:min(i+7, len(html))])
			switch {
			case strings.HasPrefix(lower, "<script"):
				skipUntil = "</script>"
			case strings.HasPrefix(lower, "<style"):
				skipUntil = "</style>"
			}
		case c == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteByte(c)
		}
	}

	fields := strings.Fields(b.String())
	return strings.Join(fields, " ")
}

var _ taskflow.Tool = (*Tool)(nil)
