package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Console", func(t *testing.T) {
		l, err := New(&Config{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.NotNil(t, l)
	})

	t.Run("JSON with file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "job.log")
		l, err := New(&Config{Level: "info", Format: "json"}, path)
		require.NoError(t, err)

		l.Info("hello")
		_ = l.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"message":"hello"`)
	})

	t.Run("Warn level filters info", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "job.log")
		l, err := New(&Config{Level: "warn", Format: "json"}, path)
		require.NoError(t, err)

		l.Info("dropped")
		l.Warn("kept")
		_ = l.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "dropped")
		assert.Contains(t, string(data), "kept")
	})
}

func TestPrepareDir(t *testing.T) {
	base := t.TempDir()

	dir, err := PrepareDir(base, 42)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "logs_42"), dir)

	stale := filepath.Join(dir, "stale.log")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err = PrepareDir(base, 42)
	require.NoError(t, err)
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestLogPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("d", "main_log_job_7.log"), JobLogPath("d", 7))
	assert.Equal(t, filepath.Join("d", "worker_3_job_7.log"), WorkerLogPath("d", 7, 3))
}
