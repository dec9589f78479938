package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoggerEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	log := New("backend").WithRoot("/tmp/proj").WithRequest("req-1")
	log.Info("file_saved", map[string]any{"path": "main.go"})

	var e Event
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if e.Component != "backend" {
		t.Errorf("Component = %q, want backend", e.Component)
	}
	if e.Root != "/tmp/proj" {
		t.Errorf("Root = %q, want /tmp/proj", e.Root)
	}
	if e.Request != "req-1" {
		t.Errorf("Request = %q, want req-1", e.Request)
	}
	if e.Level != LevelInfo {
		t.Errorf("Level = %q, want info", e.Level)
	}
	if e.Extra["path"] != "main.go" {
		t.Errorf("Extra[path] = %v, want main.go", e.Extra["path"])
	}
}

func TestLoggerErrorField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	New("tui").Error("save_failed", nil, os.ErrPermission)

	if !strings.Contains(buf.String(), "permission denied") {
		t.Errorf("error field missing: %s", buf.String())
	}
}

func TestTimedEvent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	New("workspace").TimedEvent("project_open", time.Now().Add(-50*time.Millisecond), nil)

	var e Event
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if e.Duration < 40 {
		t.Errorf("Duration = %d, want >= 40", e.Duration)
	}
}
