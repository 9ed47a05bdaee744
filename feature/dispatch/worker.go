package dispatch

import (
	"context"
	"errors"
	"fmt"

	"eps-prepro/core/config"
	"eps-prepro/core/metrics"
	"eps-prepro/feature/inventory"
	"eps-prepro/feature/merge"
	"eps-prepro/feature/preprocess"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Publisher hands a merged result to the downstream targets.
type Publisher interface {
	Publish(ctx context.Context, unit string, res *merge.Result) error
}

// Worker processes the units of one assignment and reports back once.
type Worker struct {
	rank         int
	transport    *Transport
	params       *config.Parameters
	preprocessor *preprocess.Preprocessor
	engine       *merge.Engine
	publisher    Publisher
	metrics      *metrics.Metrics
	clock        clockwork.Clock
	logger       *zap.Logger
}

// Run waits for the assignment, processes it and sends the report. Unit
// failures end up in the report; only cancellation makes Run fail.
func (w *Worker) Run(ctx context.Context) error {
	msg, err := w.transport.Recv(ctx, w.rank)
	if err != nil {
		return fmt.Errorf("worker %d: %w", w.rank, err)
	}

	report := &Report{Rank: w.rank}
	units := SplitUnits(msg.Body)
	if len(units) == 0 {
		report.Idle = true
		w.logger.Info("No units assigned, worker is idle")
	} else {
		w.logger.Info("Received assignment", zap.Strings("units", units))
		w.metrics.WorkersBusy.Inc()
		for _, unit := range units {
			if err := ctx.Err(); err != nil {
				w.metrics.WorkersBusy.Dec()
				return fmt.Errorf("worker %d: %w", w.rank, err)
			}
			report.Units = append(report.Units, w.processUnit(ctx, unit))
		}
		w.metrics.WorkersBusy.Dec()
	}

	if err := w.transport.Reply(ctx, Message{From: w.rank, Body: report.String(), Report: report}); err != nil {
		return fmt.Errorf("worker %d: %w", w.rank, err)
	}
	return nil
}

// processUnit preprocesses a unit and merges every run of every variable.
func (w *Worker) processUnit(ctx context.Context, unit string) UnitReport {
	start := w.clock.Now()
	l := w.logger.With(zap.String("unit", unit))
	ur := UnitReport{Unit: unit}
	var failures *multierror.Error

	pre, err := w.preprocessor.Unit(ctx, unit)
	if pre != nil {
		ur.HourFiles = pre.HourFiles
	}
	if err != nil {
		failures = multierror.Append(failures, err)
	}

	unitDir := inventory.UnitDestination(w.params.DestinationDir, unit, w.params.Granularity)
	for _, v := range w.params.Variables {
		req := merge.Request{Unit: unit, UnitDir: unitDir, Variable: v}
		runs, err := merge.DiscoverRuns(req.VarDir())
		if err != nil {
			failures = multierror.Append(failures, &merge.UnitProcessingError{
				Unit: unit, Variable: v.Name, Op: merge.OpDiscover, Err: err,
			})
			continue
		}
		if len(runs) == 0 {
			l.Warn("No per-hour files for variable", zap.String("variable", v.Name))
			continue
		}
		for _, run := range runs {
			if ctx.Err() != nil {
				failures = multierror.Append(failures, ctx.Err())
				break
			}
			req.Run = run
			outputs, err := w.merge(ctx, req)
			if err != nil {
				failures = multierror.Append(failures, err)
				continue
			}
			ur.Merges++
			ur.Outputs += outputs
		}
	}

	if err := failures.ErrorOrNil(); err != nil {
		for _, e := range failures.Errors {
			ur.Failures = append(ur.Failures, e.Error())
		}
		l.Warn("Unit finished with failures", zap.Int("failures", len(ur.Failures)))
		w.metrics.UnitsProcessed.WithLabelValues("failed").Inc()
	} else {
		l.Info("Unit finished", zap.Int("merges", ur.Merges), zap.Int("outputs", ur.Outputs))
		w.metrics.UnitsProcessed.WithLabelValues("ok").Inc()
	}
	w.metrics.UnitDuration.Observe(w.clock.Since(start).Seconds())
	return ur
}

// merge builds and publishes one (run, member, variable). It returns the
// number of outputs written.
func (w *Worker) merge(ctx context.Context, req merge.Request) (int, error) {
	start := w.clock.Now()
	res, err := w.engine.Build(ctx, req)
	w.metrics.MergeDuration.Observe(w.clock.Since(start).Seconds())
	if err != nil {
		op := merge.OpDiscover
		var upe *merge.UnitProcessingError
		if errors.As(err, &upe) {
			op = upe.Op
		}
		w.metrics.MergeFailures.WithLabelValues(req.Variable.Name, op).Inc()
		return 0, err
	}

	w.metrics.Merges.WithLabelValues(req.Variable.Name, res.Regime.String()).Inc()
	w.metrics.Placeholders.WithLabelValues(req.Variable.Name).Add(float64(len(res.Placeholders)))

	if w.publisher != nil && len(res.Outputs) > 0 {
		if err := w.publisher.Publish(ctx, req.Unit, res); err != nil {
			w.metrics.MergeFailures.WithLabelValues(req.Variable.Name, merge.OpPublish).Inc()
			return len(res.Outputs), &merge.UnitProcessingError{
				Unit:     req.Unit,
				Variable: req.Variable.Name,
				Run:      req.Run.RunStart,
				Member:   req.Run.Member,
				Op:       merge.OpPublish,
				Err:      err,
			}
		}
	}
	return len(res.Outputs), nil
}
