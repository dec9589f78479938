package preview

import (
	"encoding/base64"
	"strings"
	"testing"
)

func decode(t *testing.T, url string) string {
	t.Helper()
	const prefix = "data:text/html;base64,"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("unexpected url prefix: %s", url[:min(len(url), 40)])
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return string(raw)
}

func TestDataURLPassesHTMLThrough(t *testing.T) {
	doc := "<html><body><h1>hi</h1></body></html>"
	if got := decode(t, dataURL(doc, "html")); got != doc {
		t.Errorf("html should load untouched, got %q", got)
	}
}

func TestDataURLEmbedsSVG(t *testing.T) {
	got := decode(t, dataURL("<svg></svg>", "svg"))
	if !strings.Contains(got, "<svg></svg>") {
		t.Errorf("svg not embedded: %q", got)
	}
	if !strings.Contains(got, "<!doctype html>") {
		t.Errorf("svg should sit inside an html shell: %q", got)
	}
}

func TestDataURLEscapesMarkdown(t *testing.T) {
	got := decode(t, dataURL("# title <script>alert(1)</script>", "markdown"))
	if strings.Contains(got, "<script>") {
		t.Errorf("markdown content must be escaped: %q", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Errorf("expected escaped markup in %q", got)
	}
}

func TestRenderRequiresBrowser(t *testing.T) {
	t.Skip("requires browser, skip in CI")

	s := NewSandbox()
	defer s.Close()
}
