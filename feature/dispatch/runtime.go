package dispatch

import (
	"context"

	"eps-prepro/core/config"
	"eps-prepro/core/logger"
	"eps-prepro/core/metrics"
	"eps-prepro/feature/merge"
	"eps-prepro/feature/preprocess"
	"eps-prepro/feature/tools"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configures a Job.
type Options struct {
	Params      *config.Parameters
	Workers     int
	Adapter     tools.Adapter
	RemapMethod tools.RemapMethod
	// Publisher is optional.
	Publisher Publisher

	ExecutionID string
	Metrics     *metrics.Metrics
	Clock       clockwork.Clock
	Logger      *zap.Logger
	// WorkerLogger returns the logger of a worker rank. Defaults to Logger
	// tagged with the rank.
	WorkerLogger func(rank int) *zap.Logger
}

// Job is a coordinator and its workers wired to one transport.
type Job struct {
	coordinator *Coordinator
	workers     []*Worker
}

// NewJob wires the coordinator and Workers workers. Every worker gets its
// own preprocessor and merge engine.
func NewJob(opts Options) *Job {
	if opts.ExecutionID == "" {
		opts.ExecutionID = uuid.NewString()
	}
	if opts.RemapMethod == "" {
		opts.RemapMethod = tools.RemapConservative
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.WorkerLogger == nil {
		opts.WorkerLogger = func(rank int) *zap.Logger {
			return logger.WithRank(opts.Logger, rank)
		}
	}

	transport := NewTransport(max(opts.Workers, 0))
	job := &Job{
		coordinator: &Coordinator{
			params:      opts.Params,
			transport:   transport,
			executionID: opts.ExecutionID,
			clock:       opts.Clock,
			logger:      logger.WithRank(opts.Logger, 0),
		},
	}

	for rank := 1; rank <= transport.Workers(); rank++ {
		l := opts.WorkerLogger(rank)
		job.workers = append(job.workers, &Worker{
			rank:         rank,
			transport:    transport,
			params:       opts.Params,
			preprocessor: preprocess.New(opts.Adapter, opts.Params, l),
			engine:       merge.NewEngine(opts.Adapter, opts.Params, opts.RemapMethod, l),
			publisher:    opts.Publisher,
			metrics:      opts.Metrics,
			clock:        opts.Clock,
			logger:       l,
		})
	}
	return job
}

// Coordinator returns the rank 0 state machine, for status reporting.
func (j *Job) Coordinator() *Coordinator {
	return j.coordinator
}

// Run executes the job. The coordinator and every worker run in their own
// goroutine; when the coordinator fails the shared context is cancelled so
// waiting workers return, and the coordinator error is returned.
func (j *Job) Run(ctx context.Context) (*Summary, error) {
	g, gctx := errgroup.WithContext(ctx)

	var summary *Summary
	g.Go(func() error {
		s, err := j.coordinator.Run(gctx)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	for _, w := range j.workers {
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}
