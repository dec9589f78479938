// Package backend is the HTTP client for the assistant backend: project
// storage, indexing, analysis streaming, and instruction execution.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/joss/workbench/internal/logging"
)

// HTTPClient interface for HTTP requests (enables testing)
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ HTTPClient = (*http.Client)(nil)

// Client talks to the assistant backend. Calls are tiered: quick calls carry
// a short timeout, task execution a long one, and the analysis stream none
// (it is aborted through its context instead).
type Client struct {
	baseURL string
	quick   HTTPClient
	task    HTTPClient
	stream  HTTPClient
	log     *logging.Logger
}

// New creates a client for the given base URL.
func New(baseURL string, quickTimeout, taskTimeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		quick:   &http.Client{Timeout: quickTimeout},
		task:    &http.Client{Timeout: taskTimeout},
		stream:  &http.Client{},
		log:     logging.New("backend"),
	}
}

// OpenProject fetches the tree snapshot and stats for a project root.
func (c *Client) OpenProject(ctx context.Context, path string) (*ProjectInfo, error) {
	var info ProjectInfo
	if err := c.postJSON(ctx, c.quick, "/projects/open", map[string]any{"path": path}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// BrowseDirectory lists subdirectories of a path for the project picker.
func (c *Client) BrowseDirectory(ctx context.Context, path string) (*BrowseResult, error) {
	var res BrowseResult
	q := url.Values{"path": {path}}
	if err := c.getJSON(ctx, c.quick, "/projects/browse?"+q.Encode(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ReadFile fetches a file's content. Binary files are reported, not decoded;
// refusing them is the caller's job.
func (c *Client) ReadFile(ctx context.Context, absolutePath string) (*FileContent, error) {
	var fc FileContent
	if err := c.postJSON(ctx, c.quick, "/files/read", map[string]any{"path": absolutePath}, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

// WriteFile persists content to an absolute path.
func (c *Client) WriteFile(ctx context.Context, absolutePath, content string, createParentDirs bool) (*WriteResult, error) {
	var wr WriteResult
	body := map[string]any{
		"path":             absolutePath,
		"content":          content,
		"createParentDirs": createParentDirs,
	}
	if err := c.postJSON(ctx, c.quick, "/files/write", body, &wr); err != nil {
		return nil, err
	}
	return &wr, nil
}

// DeleteFile removes a file.
func (c *Client) DeleteFile(ctx context.Context, absolutePath string) error {
	return c.postJSON(ctx, c.quick, "/files/delete", map[string]any{"path": absolutePath}, nil)
}

// RenameFile moves a file to a new absolute path.
func (c *Client) RenameFile(ctx context.Context, oldPath, newPath string) error {
	body := map[string]any{"oldPath": oldPath, "newPath": newPath}
	return c.postJSON(ctx, c.quick, "/files/rename", body, nil)
}

// IndexProject requests background indexing of a project. Best-effort; the
// caller treats failure as non-fatal.
func (c *Client) IndexProject(ctx context.Context, path string) (*IndexResult, error) {
	var res IndexResult
	if err := c.postJSON(ctx, c.task, "/index", map[string]any{"path": path}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RunAnalysis starts a project analysis and returns the raw progress stream.
// The stream has no timeout; cancel ctx to abort it, which also closes the
// underlying connection.
func (c *Client) RunAnalysis(ctx context.Context, path, kind, question string) (io.ReadCloser, error) {
	payload, err := json.Marshal(map[string]any{
		"path":     path,
		"kind":     kind,
		"question": question,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analysis/run", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, remoteError(resp)
	}
	return resp.Body, nil
}

// ExecuteInstruction turns a free-text instruction into code or an answer.
func (c *Client) ExecuteInstruction(ctx context.Context, text string, taskCtx map[string]any) (*TaskResult, error) {
	var res TaskResult
	body := map[string]any{"task": text, "context": taskCtx}
	if err := c.postJSON(ctx, c.task, "/tasks/execute", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ExecuteTool invokes a named backend tool and returns its opaque result.
func (c *Client) ExecuteTool(ctx context.Context, toolName string, input map[string]any) (json.RawMessage, error) {
	var res json.RawMessage
	body := map[string]any{"tool": toolName, "input": input}
	if err := c.postJSON(ctx, c.task, "/tools/execute", body, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListModels returns the reasoning backends the server can route to.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var models []ModelInfo
	if err := c.getJSON(ctx, c.quick, "/models", &models); err != nil {
		return nil, err
	}
	return models, nil
}

// SelectModel picks the reasoning backend for subsequent calls.
func (c *Client) SelectModel(ctx context.Context, modelID string) error {
	return c.postJSON(ctx, c.quick, "/models/select", map[string]any{"model": modelID}, nil)
}

func (c *Client) getJSON(ctx context.Context, hc HTTPClient, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	return c.do(hc, req, out)
}

func (c *Client) postJSON(ctx context.Context, hc HTTPClient, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return c.do(hc, req, out)
}

func (c *Client) do(hc HTTPClient, req *http.Request, out any) error {
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		cerr := classify(err)
		c.log.WithRequest(req.Header.Get("X-Request-ID")).
			Error("request_failed", map[string]any{"path": req.URL.Path}, cerr)
		return cerr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp)
	}

	c.log.WithRequest(req.Header.Get("X-Request-ID")).
		TimedEvent("request", start, map[string]any{"path": req.URL.Path, "status": resp.StatusCode})

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// remoteError extracts a structured detail from an error response body.
func remoteError(resp *http.Response) error {
	re := &RemoteError{Status: resp.StatusCode}
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&body); err == nil {
		if body.Detail != "" {
			re.Detail = body.Detail
		} else {
			re.Detail = body.Error
		}
	}
	return re
}
