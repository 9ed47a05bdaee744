package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"eps-prepro/core/config"
	"eps-prepro/core/logger"
	"eps-prepro/core/metrics"
	"eps-prepro/core/notify"
	"eps-prepro/core/server"
	"eps-prepro/feature/catalog"
	"eps-prepro/feature/dispatch"
	"eps-prepro/feature/tools"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	workersFlag    int
	logDirFlag     string
	statusAddrFlag string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <parameter-file>",
	Short: "Preprocess and merge the forecasts described by a parameter file",
	Long: `Scans the source directory, distributes the processing units across the
workers and merges every model run into one file per member and variable.
Merged files are published to the catalog, object storage and Kafka when
those targets are enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, params, err := loadJob(args[0])
		if err != nil {
			return err
		}
		applyRunFlags(cmd, cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runJob(ctx, cfg, params)
	},
}

func init() {
	runCmd.Flags().IntVar(&workersFlag, "workers", 0, "number of workers (overrides JOB_WORKERS)")
	runCmd.Flags().StringVar(&logDirFlag, "log-dir", "", "directory for job and worker logs (overrides LOG_DIR)")
	runCmd.Flags().StringVar(&statusAddrFlag, "status-addr", "", "listen address of the status server (overrides SERVER_ADDR)")
	RootCmd.AddCommand(runCmd)
}

// applyRunFlags lets explicitly set flags win over the environment.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("workers") {
		cfg.Job.Workers = workersFlag
	}
	if cmd.Flags().Changed("log-dir") {
		cfg.Log.Dir = logDirFlag
	}
	if cmd.Flags().Changed("status-addr") {
		cfg.Server.Addr = statusAddrFlag
	}
}

// jobLoggers builds the coordinator logger and the per-rank worker loggers.
// Without a log directory everything goes to stdout only.
func jobLoggers(cfg *config.Config, jobID int) (*zap.Logger, func(rank int) *zap.Logger, string, error) {
	if cfg.Log.Dir == "" {
		l, err := consoleLogger(cfg)
		if err != nil {
			return nil, nil, "", err
		}
		return l, nil, "", nil
	}

	jobDir, err := logger.PrepareDir(cfg.Log.Dir, jobID)
	if err != nil {
		return nil, nil, "", err
	}
	l, err := logger.New(&cfg.Log, logger.JobLogPath(jobDir, jobID))
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to initialize logger: %w", err)
	}

	workerLogger := func(rank int) *zap.Logger {
		wl, err := logger.New(&cfg.Log, logger.WorkerLogPath(jobDir, jobID, rank))
		if err != nil {
			l.Warn("Worker log file unavailable, logging to the job log", zap.Int("rank", rank), zap.Error(err))
			return logger.WithRank(l, rank)
		}
		return logger.WithRank(wl, rank)
	}
	return l, workerLogger, jobDir, nil
}

func runJob(ctx context.Context, cfg *config.Config, params *config.Parameters) error {
	l, workerLogger, jobDir, err := jobLoggers(cfg, params.JobID)
	if err != nil {
		return err
	}
	defer l.Sync()

	method, err := tools.ParseRemapMethod(cfg.Job.RemapMethod)
	if err != nil {
		return err
	}

	executionID := uuid.NewString()
	l = l.With(zap.Int("job_id", params.JobID), zap.String("execution_id", executionID))
	m := metrics.NewMetrics()

	adapter := newAdapter(cfg, l)

	store, err := openCatalog(cfg, true, l)
	if err != nil {
		return err
	}
	client, err := openStorage(ctx, cfg, l)
	if err != nil {
		return err
	}
	notifier := notify.New(cfg.Kafka)
	defer notifier.Close()

	opts := dispatch.Options{
		Params:       params,
		Workers:      cfg.Job.Workers,
		Adapter:      adapter,
		RemapMethod:  method,
		ExecutionID:  executionID,
		Metrics:      m,
		Logger:       l,
		WorkerLogger: workerLogger,
	}
	if store != nil || client != nil || cfg.Kafka.Enabled {
		opts.Publisher = catalog.NewPublisher(catalog.PublisherOptions{
			DestDir:     params.DestinationDir,
			JobID:       params.JobID,
			ExecutionID: executionID,
			Store:       store,
			Client:      client,
			Storage:     cfg.Storage,
			Notifier:    notifier,
			Metrics:     m,
			Logger:      l,
		})
	}

	job := dispatch.NewJob(opts)

	if cfg.Server.Enabled() {
		srv := server.New(cfg.Server, job.Coordinator(), m.Registry, l)
		srv.Start()
		defer func() {
			if err := srv.Shutdown(); err != nil {
				l.Warn("Failed to stop status server", zap.Error(err))
			}
		}()
	}

	l.Info("Starting job",
		zap.Int("workers", cfg.Job.Workers),
		zap.String("source", params.SourceDir),
		zap.String("destination", params.DestinationDir),
		zap.Stringer("granularity", params.Granularity),
		zap.String("remap_method", string(method)),
	)

	summary, err := job.Run(ctx)
	if err != nil {
		l.Error("Job failed", zap.Error(err))
		return err
	}

	if jobDir != "" {
		path, err := dispatch.WriteSummary(jobDir, summary)
		if err != nil {
			l.Warn("Failed to write summary", zap.Error(err))
		} else {
			l.Info("Summary written", zap.String("path", path))
		}
	}

	fields := []zap.Field{
		zap.Int("units", summary.Units),
		zap.Int("failures", summary.Failures),
		zap.Float64("duration_seconds", summary.DurationSeconds),
	}
	if summary.Failures > 0 {
		l.Warn("Job done with unit failures, see the worker reports", fields...)
	} else {
		l.Info("Job done", fields...)
	}
	return nil
}
