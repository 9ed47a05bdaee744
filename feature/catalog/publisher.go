package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"eps-prepro/core/metrics"
	"eps-prepro/core/notify"
	"eps-prepro/core/storage"
	"eps-prepro/feature/merge"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Publish targets, used as metric labels.
const (
	TargetCatalog = "catalog"
	TargetStorage = "storage"
	TargetKafka   = "kafka"
)

// PublisherOptions configures a Publisher. Store and Client are optional;
// a nil value disables that target.
type PublisherOptions struct {
	DestDir     string
	JobID       int
	ExecutionID string

	Store    *Store
	Client   storage.Client
	Storage  storage.Config
	Notifier notify.Notifier

	Clock   clockwork.Clock
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Publisher records, uploads and announces merged outputs.
type Publisher struct {
	opts PublisherOptions
}

// NewPublisher creates a publisher.
func NewPublisher(opts PublisherOptions) *Publisher {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Publisher{opts: opts}
}

// RelPath is the destination relative path of a local output, with forward slashes.
func (p *Publisher) RelPath(path string) (string, error) {
	rel, err := filepath.Rel(p.opts.DestDir, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Publish handles every output of a merge result. Each output is uploaded
// first, then recorded; all events are sent in one batch at the end. The
// returned error aggregates every failure.
func (p *Publisher) Publish(ctx context.Context, unit string, res *merge.Result) error {
	var result *multierror.Error
	var events []notify.Event

	for _, out := range res.Outputs {
		row, err := p.publishOutput(ctx, unit, res, out)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		events = append(events, notify.Event{
			JobID:       p.opts.JobID,
			ExecutionID: p.opts.ExecutionID,
			Variable:    row.Variable,
			Kind:        row.Kind,
			RunStart:    row.RunStart,
			Member:      row.Member,
			Path:        row.RelPath,
			ObjectKey:   row.ObjectKey,
			SizeBytes:   row.SizeBytes,
			ProducedAt:  row.CreatedAt,
		})
	}

	if len(events) > 0 {
		err := p.opts.Notifier.Notify(ctx, events...)
		p.count(TargetKafka, err)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to notify %d outputs: %w", len(events), err))
		}
	}
	return result.ErrorOrNil()
}

func (p *Publisher) publishOutput(ctx context.Context, unit string, res *merge.Result, out merge.Output) (*ProcessedFile, error) {
	rel, err := p.RelPath(out.Path)
	if err != nil {
		return nil, fmt.Errorf("output %s is outside the destination: %w", out.Path, err)
	}
	stat, err := os.Stat(out.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", out.Path, err)
	}

	row := &ProcessedFile{
		ExecutionID: p.opts.ExecutionID,
		JobID:       p.opts.JobID,
		Unit:        unit,
		Variable:    res.Variable,
		Kind:        out.Kind,
		RunStart:    res.Run.RunStart,
		Member:      res.Run.Member,
		Regime:      res.Regime.String(),
		Placeholder: len(res.Placeholders),
		RelPath:     rel,
		SizeBytes:   stat.Size(),
		CreatedAt:   p.opts.Clock.Now().UTC(),
	}

	uploaded := false
	if p.opts.Client != nil {
		row.ObjectKey = storage.ObjectKey(p.opts.Storage.Prefix, rel)
		_, err := storage.UploadFile(ctx, p.opts.Client, p.opts.Storage.Bucket, row.ObjectKey, out.Path)
		p.count(TargetStorage, err)
		if err != nil {
			return nil, err
		}
		uploaded = true
	}

	if p.opts.Store != nil {
		err := p.opts.Store.Record(ctx, row)
		p.count(TargetCatalog, err)
		if err != nil {
			return nil, err
		}
	}

	if uploaded && p.opts.Storage.RemoveAfterUpload {
		if err := os.Remove(out.Path); err != nil {
			p.opts.Logger.Warn("Failed to remove uploaded output", zap.String("path", out.Path), zap.Error(err))
		}
	}

	p.opts.Logger.Debug("Published output",
		zap.String("path", rel),
		zap.String("object_key", row.ObjectKey),
		zap.Int64("size", row.SizeBytes))
	return row, nil
}

func (p *Publisher) count(target string, err error) {
	if p.opts.Metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	p.opts.Metrics.Publishes.WithLabelValues(target, outcome).Inc()
}
