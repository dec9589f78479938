// Package config provides centralized configuration management.
package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Env holds all workbench environment variables.
type Env struct {
	// BackendURL is the base URL of the assistant backend (WORKBENCH_BACKEND_URL)
	BackendURL string

	// Model is the preferred reasoning model override (WORKBENCH_MODEL)
	Model string

	// QuickTimeout bounds status/config/file calls (WORKBENCH_QUICK_TIMEOUT)
	QuickTimeout time.Duration

	// TaskTimeout bounds generation/task execution calls (WORKBENCH_TASK_TIMEOUT)
	TaskTimeout time.Duration
}

var (
	env     *Env
	envOnce sync.Once
)

// Get returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Get() *Env {
	envOnce.Do(func() {
		env = &Env{
			BackendURL:   getEnvDefault("WORKBENCH_BACKEND_URL", "http://localhost:8000"),
			Model:        os.Getenv("WORKBENCH_MODEL"),
			QuickTimeout: getDurationDefault("WORKBENCH_QUICK_TIMEOUT", 10*time.Second),
			TaskTimeout:  getDurationDefault("WORKBENCH_TASK_TIMEOUT", 5*time.Minute),
		}
	})
	return env
}

// Reset resets the cached environment (for testing).
func Reset() {
	envOnce = sync.Once{}
	env = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// Paths holds standard workbench directory paths.
type Paths struct {
	// Home is the workbench home directory (~/.workbench)
	Home string

	// DB is the preferences database path (~/.workbench/workbench.db)
	DB string

	// LogFile is the structured log destination while the TUI owns the terminal
	LogFile string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		wbHome := filepath.Join(home, ".workbench")

		paths = &Paths{
			Home:    wbHome,
			DB:      filepath.Join(wbHome, "workbench.db"),
			LogFile: filepath.Join(wbHome, "workbench.log"),
		}
	})
	return paths
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
