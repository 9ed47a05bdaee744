package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a new zap logger based on the configuration.
// Extra output paths (log files) are written in addition to stdout.
func New(cfg *Config, outputs ...string) (*zap.Logger, error) {
	var config zap.Config

	if cfg.Level == "debug" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		if lvl, err := zapcore.ParseLevel(cfg.Level); err == nil {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	// Set format based on configuration
	if cfg.Format == "console" {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.DisableStacktrace = true
	} else {
		config.Encoding = "json"
	}

	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config.OutputPaths = append([]string{"stdout"}, outputs...)

	return config.Build()
}

// JobLogPath returns the path of the coordinator log file for a job.
func JobLogPath(dir string, jobID int) string {
	return filepath.Join(dir, fmt.Sprintf("main_log_job_%d.log", jobID))
}

// WorkerLogPath returns the path of the log file of a single worker rank.
func WorkerLogPath(dir string, jobID, rank int) string {
	return filepath.Join(dir, fmt.Sprintf("worker_%d_job_%d.log", rank, jobID))
}

// PrepareDir recreates the per-job log directory, dropping logs left behind by
// an earlier execution of the same job id.
func PrepareDir(dir string, jobID int) (string, error) {
	jobDir := filepath.Join(dir, fmt.Sprintf("logs_%d", jobID))
	if err := os.RemoveAll(jobDir); err != nil {
		return "", fmt.Errorf("failed to clear log directory %s: %w", jobDir, err)
	}
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory %s: %w", jobDir, err)
	}
	return jobDir, nil
}

// WithRank returns a logger tagged with the rank of the process that logs.
// Rank 0 is the coordinator.
func WithRank(l *zap.Logger, rank int) *zap.Logger {
	role := "worker"
	if rank == 0 {
		role = "coordinator"
	}
	return l.With(zap.Int("rank", rank), zap.String("role", role))
}
