// Package preview renders markup documents in a sandboxed headless
// browser. Execution requests for html, svg, and markdown never leave the
// client; everything else goes to the backend's execution tool instead.
package preview

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/joss/workbench/internal/logging"
)

// Result is what a render produced.
type Result struct {
	Title      string
	Text       string
	Screenshot []byte
}

// Sandbox owns one lazily launched headless browser. Pages are created per
// render and closed before Render returns; only the browser process is
// reused.
type Sandbox struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	log      *logging.Logger
}

// NewSandbox creates a sandbox without launching anything.
func NewSandbox() *Sandbox {
	return &Sandbox{log: logging.New("preview")}
}

func (s *Sandbox) connect() (*rod.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}

	path, _ := launcher.LookPath()
	l := launcher.New().Bin(path).Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch preview browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect preview browser: %w", err)
	}

	s.launcher = l
	s.browser = browser
	s.log.Info("sandbox_launched", nil)
	return browser, nil
}

// Render loads content into a fresh page and returns the page title, its
// visible text, and a screenshot. The document travels as a data URL, so
// nothing touches the network or the disk.
func (s *Sandbox) Render(ctx context.Context, content, lang string) (*Result, error) {
	browser, err := s.connect()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create preview page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.Navigate(dataURL(content, lang)); err != nil {
		return nil, fmt.Errorf("load preview: %w", err)
	}
	// Non-fatal; a busy page is still renderable.
	_ = page.WaitStable(time.Second)

	info, err := page.Info()
	if err != nil {
		return nil, err
	}

	var text string
	if body, err := page.Element("body"); err == nil {
		text, _ = body.Text()
	}

	shot, err := page.Screenshot(true, nil)
	if err != nil {
		s.log.Warn("screenshot_failed", nil, err)
	}

	return &Result{Title: info.Title, Text: text, Screenshot: shot}, nil
}

// Close shuts down the browser process, if one was launched.
func (s *Sandbox) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.log.Warn("sandbox_close_failed", nil, err)
		}
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
}

// dataURL wraps content in the right envelope for its language. HTML loads
// as-is; svg embeds into a minimal shell; markdown shows as styled
// preformatted text.
func dataURL(content, lang string) string {
	var doc string
	switch lang {
	case "html":
		doc = content
	case "svg":
		doc = shell("svg preview", content)
	default:
		doc = shell("markdown preview",
			"<pre style=\"font-family:monospace;white-space:pre-wrap\">"+
				html.EscapeString(content)+"</pre>")
	}
	return "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(doc))
}

func shell(title, body string) string {
	var b strings.Builder
	b.WriteString("<!doctype html><html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title></head><body>")
	b.WriteString(body)
	b.WriteString("</body></html>")
	return b.String()
}
