package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnv(t *testing.T) {
	Reset()

	os.Setenv("WORKBENCH_BACKEND_URL", "http://backend:9000")
	os.Setenv("WORKBENCH_MODEL", "test-model")
	os.Setenv("WORKBENCH_QUICK_TIMEOUT", "3s")
	defer func() {
		os.Unsetenv("WORKBENCH_BACKEND_URL")
		os.Unsetenv("WORKBENCH_MODEL")
		os.Unsetenv("WORKBENCH_QUICK_TIMEOUT")
		Reset()
	}()

	env := Get()

	assert.Equal(t, "http://backend:9000", env.BackendURL)
	assert.Equal(t, "test-model", env.Model)
	assert.Equal(t, 3*time.Second, env.QuickTimeout)
}

func TestEnvDefaults(t *testing.T) {
	Reset()

	os.Unsetenv("WORKBENCH_BACKEND_URL")
	os.Unsetenv("WORKBENCH_QUICK_TIMEOUT")
	os.Unsetenv("WORKBENCH_TASK_TIMEOUT")
	defer Reset()

	env := Get()

	assert.Equal(t, "http://localhost:8000", env.BackendURL)
	assert.Equal(t, 10*time.Second, env.QuickTimeout)
	assert.Equal(t, 5*time.Minute, env.TaskTimeout)
}

func TestEnvSingleton(t *testing.T) {
	Reset()
	defer Reset()

	assert.Same(t, Get(), Get())
}

func TestGetDurationDefault(t *testing.T) {
	tests := []struct {
		name   string
		envVal string
		want   time.Duration
	}{
		{"valid", "30s", 30 * time.Second},
		{"garbage", "soon", time.Minute},
		{"negative", "-5s", time.Minute},
		{"unset", "", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVal != "" {
				os.Setenv("TEST_DURATION", tt.envVal)
				defer os.Unsetenv("TEST_DURATION")
			}
			got := getDurationDefault("TEST_DURATION", time.Minute)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPaths(t *testing.T) {
	paths := GetPaths()

	assert.Contains(t, paths.Home, ".workbench")
	assert.Equal(t, filepath.Join(paths.Home, "workbench.db"), paths.DB)
	assert.Equal(t, filepath.Join(paths.Home, "workbench.log"), paths.LogFile)
}
