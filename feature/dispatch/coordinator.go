package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"eps-prepro/core/config"
	"eps-prepro/feature/inventory"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// State is a coordinator state.
type State int

const (
	StateInit State = iota
	StateScan
	StateDistribute
	StateAwaitReports
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateScan:
		return "SCAN"
	case StateDistribute:
		return "DISTRIBUTE"
	case StateAwaitReports:
		return "AWAIT_REPORTS"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Status is a snapshot of the coordinator served on /status.
type Status struct {
	JobID           int       `json:"job_id"`
	ExecutionID     string    `json:"execution_id"`
	State           string    `json:"state"`
	Workers         int       `json:"workers"`
	Units           int       `json:"units"`
	ReportsReceived int       `json:"reports_received"`
	Failures        int       `json:"failures"`
	StartedAt       time.Time `json:"started_at"`
	ElapsedSeconds  float64   `json:"elapsed_seconds"`
	Error           string    `json:"error,omitempty"`
}

// Coordinator is rank 0: it validates the job, scans and distributes the
// units and collects one report per worker.
type Coordinator struct {
	params      *config.Parameters
	transport   *Transport
	executionID string
	clock       clockwork.Clock
	logger      *zap.Logger

	mu         sync.RWMutex
	state      State
	startedAt  time.Time
	inventory  *inventory.Inventory
	assignment *inventory.Assignment
	reports    []*Report
	err        error
}

// Status returns a copy of the current coordinator state.
func (c *Coordinator) Status() any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Status{
		JobID:           c.params.JobID,
		ExecutionID:     c.executionID,
		State:           c.state.String(),
		Workers:         c.transport.Workers(),
		ReportsReceived: len(c.reports),
		StartedAt:       c.startedAt,
	}
	if !c.startedAt.IsZero() {
		s.ElapsedSeconds = c.clock.Since(c.startedAt).Seconds()
	}
	if c.inventory != nil {
		s.Units = len(c.inventory.Units)
	}
	for _, r := range c.reports {
		s.Failures += r.Failures()
	}
	if c.err != nil {
		s.Error = c.err.Error()
	}
	return s
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Coordinator) enter(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.logger.Info("Coordinator state", zap.String("state", s.String()))
}

// Run drives the state machine to DONE or FAILED.
func (c *Coordinator) Run(ctx context.Context) (*Summary, error) {
	c.mu.Lock()
	c.startedAt = c.clock.Now()
	c.mu.Unlock()

	summary, err := c.run(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateFailed
		c.err = err
		c.mu.Unlock()
		c.logger.Error("Job failed", zap.Error(err))
		return nil, err
	}
	return summary, nil
}

func (c *Coordinator) run(ctx context.Context) (*Summary, error) {
	c.enter(StateInit)
	if err := c.checkPreconditions(); err != nil {
		return nil, err
	}

	c.enter(StateScan)
	inv, err := inventory.Scan(c.params.SourceDir, c.params.Granularity)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	c.logger.Info("Scanned source",
		zap.String("source", c.params.SourceDir),
		zap.Int("units", len(inv.Units)),
		zap.Int64("total_size", inv.TotalSize),
		zap.Int("total_files", inv.TotalFiles),
		zap.Int("total_dirs", inv.TotalDirs))
	if len(inv.Skipped) > 0 {
		c.logger.Warn("Source entries skipped, names contain the unit separator",
			zap.Strings("entries", inv.Skipped))
	}

	if _, err := inventory.BuildStructure(inv, c.params.DestinationDir); err != nil {
		return nil, &FatalPreconditionError{Check: CheckDestination, Path: c.params.DestinationDir, Err: err}
	}

	assignment, err := inventory.Distribute(inv, c.transport.Workers())
	if err != nil {
		return nil, err
	}
	if err := assignment.Validate(inv); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.inventory = inv
	c.assignment = assignment
	c.mu.Unlock()

	c.enter(StateDistribute)
	for rank := 1; rank <= c.transport.Workers(); rank++ {
		load, err := assignment.For(rank)
		if err != nil {
			return nil, err
		}
		c.logger.Info("Sending assignment",
			zap.Int("worker", rank),
			zap.Strings("units", load.Units),
			zap.Int64("size", load.Size))
		if err := c.transport.Send(ctx, rank, JoinUnits(load.Units)); err != nil {
			return nil, err
		}
	}

	c.enter(StateAwaitReports)
	for received := 0; received < c.transport.Workers(); received++ {
		msg, err := c.transport.Collect(ctx)
		if err != nil {
			return nil, err
		}
		c.record(msg)
	}

	c.enter(StateDone)
	return c.summary(), nil
}

// record logs a worker message and keeps its report.
func (c *Coordinator) record(msg Message) {
	report := msg.Report
	if report == nil {
		report = &Report{Rank: msg.From}
	}
	c.mu.Lock()
	c.reports = append(c.reports, report)
	c.mu.Unlock()

	switch {
	case report.Idle:
		c.logger.Info(msg.Body, zap.Int("worker", msg.From))
	case report.Failures() > 0:
		c.logger.Warn(msg.Body, zap.Int("worker", msg.From), zap.Int("failures", report.Failures()))
	default:
		c.logger.Info(msg.Body, zap.Int("worker", msg.From))
	}
}

// checkPreconditions verifies the inputs and recreates the destination.
func (c *Coordinator) checkPreconditions() error {
	checks := []struct {
		check string
		path  string
		dir   bool
	}{
		{CheckSourceDir, c.params.SourceDir, true},
		{CheckInputDir, c.params.InputDir, true},
		{CheckGridIn, c.params.GridDescriptionIn(), false},
		{CheckGridOut, c.params.GridDescriptionOut(), false},
	}
	for _, ch := range checks {
		info, err := os.Stat(ch.path)
		if err != nil {
			return &FatalPreconditionError{Check: ch.check, Path: ch.path, Err: err}
		}
		if info.IsDir() != ch.dir {
			kind := "a regular file"
			if ch.dir {
				kind = "a directory"
			}
			return &FatalPreconditionError{Check: ch.check, Path: ch.path, Err: errors.New("not " + kind)}
		}
	}

	for _, v := range c.params.Variables {
		if _, err := os.Stat(c.params.MissingTemplate(v.Name)); err != nil {
			c.logger.Warn("Missing-hour template not found, incomplete runs will fail; create it with the missing command",
				zap.String("variable", v.Name),
				zap.String("path", c.params.MissingTemplate(v.Name)))
		}
	}

	dest := c.params.DestinationDir
	for _, keep := range []string{c.params.SourceDir, c.params.InputDir} {
		inside, err := within(dest, keep)
		if err != nil {
			return &FatalPreconditionError{Check: CheckDestination, Path: dest, Err: err}
		}
		if inside {
			return &FatalPreconditionError{Check: CheckDestination, Path: dest, Err: fmt.Errorf("destination contains %s", keep)}
		}
	}
	if _, err := os.Stat(dest); err == nil {
		c.logger.Warn("Destination exists, removing and recreating", zap.String("path", dest))
		if err := os.RemoveAll(dest); err != nil {
			return &FatalPreconditionError{Check: CheckDestination, Path: dest, Err: err}
		}
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return &FatalPreconditionError{Check: CheckDestination, Path: dest, Err: err}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) (bool, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}
