package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"eps-prepro/core/config"
	"eps-prepro/core/metrics"
	"eps-prepro/feature/merge"
	"eps-prepro/feature/tools"
	"eps-prepro/feature/tools/toolstest"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var runStart = time.Date(2017, 1, 2, 3, 0, 0, 0, time.UTC)

// jobParams lays out input grids, a missing template and one source
// directory per unit holding GRIB files for the given hours of member 1.
func jobParams(t *testing.T, units map[string][]int) *config.Parameters {
	t.Helper()
	root := t.TempDir()
	p := &config.Parameters{
		JobID:          5,
		SourceDir:      filepath.Join(root, "src"),
		DestinationDir: filepath.Join(root, "dst"),
		InputDir:       filepath.Join(root, "input"),
		Granularity:    config.GranularityDirectory,
		MaxHour:        24,
		CompressLevel:  6,
		Variables: []config.VariableSpec{{
			Name: "tp", Remapped: true, RemappedDir: "remapped",
		}},
	}
	require.NoError(t, os.MkdirAll(filepath.Join(p.InputDir, "grid_des"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(p.InputDir, "missing"), 0o755))
	require.NoError(t, os.WriteFile(p.GridDescriptionIn(), []byte("gridtype = projection"), 0o644))
	require.NoError(t, os.WriteFile(p.GridDescriptionOut(), []byte("gridtype = lonlat"), 0o644))
	require.NoError(t, toolstest.WriteDataset(p.MissingTemplate("tp"), toolstest.Dataset{
		Variable: "tp", TimeUnits: "hours since 2000-01-01 00:00:00", Times: []int{0}, Values: []float64{-999.9},
	}))

	for unit, hours := range units {
		dir := filepath.Join(p.SourceDir, unit)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for _, h := range hours {
			name := filepath.Join(dir, fmt.Sprintf("cde%s.%02d.m01.grib2", runStart.Format("2006010215"), h))
			require.NoError(t, toolstest.WriteGrib(name, toolstest.Dataset{
				Format:    "grib2",
				Variable:  "tp",
				TimeUnits: tools.TimeUnits(runStart.Add(time.Duration(h) * time.Hour)),
				Times:     []int{0},
				Values:    []float64{float64(h)},
			}))
		}
	}
	return p
}

func hours(from, to int) []int {
	var out []int
	for h := from; h <= to; h++ {
		out = append(out, h)
	}
	return out
}

type countingPublisher struct {
	mu    sync.Mutex
	units []string
	err   error
}

func (p *countingPublisher) Publish(_ context.Context, unit string, _ *merge.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.units = append(p.units, unit)
	return p.err
}

func TestJob_EndToEnd(t *testing.T) {
	p := jobParams(t, map[string][]int{
		"2017010203": hours(0, 24),
		"2017010206": hours(0, 22),
	})
	m := metrics.NewMetricsForTesting()
	pub := &countingPublisher{}

	job := NewJob(Options{
		Params:      p,
		Workers:     3,
		Adapter:     toolstest.NewFake(),
		RemapMethod: tools.RemapConservative,
		Publisher:   pub,
		ExecutionID: "exec-1",
		Metrics:     m,
		Clock:       clockwork.NewFakeClock(),
		Logger:      zap.NewNop(),
	})

	summary, err := job.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, "DONE", summary.State)
	assert.Equal(t, StateDone, job.Coordinator().State())
	assert.Equal(t, 2, summary.Units)
	assert.Equal(t, 0, summary.Failures)
	require.Len(t, summary.Reports, 3)
	assert.True(t, summary.Reports[2].Idle, "the third worker has nothing to do")
	assert.Empty(t, summary.Assignment[3])

	run := merge.ModelRun{RunStart: runStart, Member: 1}
	for _, unit := range []string{"2017010203", "2017010206"} {
		varDir := filepath.Join(p.DestinationDir, unit, "tp")
		ds, err := toolstest.ReadDataset(filepath.Join(varDir, "remapped", merge.MergedFileName(run)))
		require.NoError(t, err, unit)
		assert.Len(t, ds.Times, 25)

		left, err := merge.HourFiles(varDir, run)
		require.NoError(t, err)
		assert.Empty(t, left, "per-hour files are removed after merging")
	}

	assert.ElementsMatch(t, []string{"2017010203", "2017010206"}, pub.units)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Merges.WithLabelValues("tp", "complete-24")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Merges.WithLabelValues("tp", "incomplete")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Placeholders.WithLabelValues("tp")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnitsProcessed.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.WorkersBusy))

	status := job.Coordinator().Status().(Status)
	assert.Equal(t, "DONE", status.State)
	assert.Equal(t, 3, status.ReportsReceived)
	assert.Equal(t, "exec-1", status.ExecutionID)
}

func TestJob_UnitFailuresAreReported(t *testing.T) {
	p := jobParams(t, map[string][]int{
		"good": hours(0, 24),
		"bad":  hours(0, 24),
	})
	fake := toolstest.NewFake()
	fake.Fail = func(op string, paths ...string) error {
		if op == tools.OpRegrid && strings.Contains(paths[0], string(filepath.Separator)+"bad"+string(filepath.Separator)) {
			return errors.New("remap weights missing")
		}
		return nil
	}
	m := metrics.NewMetricsForTesting()

	summary, err := NewJob(Options{
		Params:  p,
		Workers: 1,
		Adapter: fake,
		Metrics: m,
	}).Run(context.Background())
	require.NoError(t, err, "unit failures never fail the job")

	assert.Equal(t, 1, summary.Failures)
	require.Len(t, summary.Reports, 1)
	require.Len(t, summary.Reports[0].Units, 2)
	text := summary.Reports[0].String()
	assert.Contains(t, text, "unit bad failed")
	assert.Contains(t, text, "unit good ok")
	assert.Contains(t, text, "regrid")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MergeFailures.WithLabelValues("tp", tools.OpRegrid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnitsProcessed.WithLabelValues("failed")))
}

func TestJob_PublishFailureIsUnitFailure(t *testing.T) {
	p := jobParams(t, map[string][]int{"u1": hours(0, 21)})

	summary, err := NewJob(Options{
		Params:    p,
		Workers:   2,
		Adapter:   toolstest.NewFake(),
		Publisher: &countingPublisher{err: errors.New("bucket unavailable")},
	}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failures)
	assert.Contains(t, summary.Reports[0].String(), "publish")
}

func TestJob_PreconditionFailureTearsDown(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *config.Parameters)
		check  string
	}{
		{"source", func(p *config.Parameters) { p.SourceDir = filepath.Join(p.SourceDir, "absent") }, CheckSourceDir},
		{"input", func(p *config.Parameters) { require.NoError(t, os.RemoveAll(p.InputDir)) }, CheckInputDir},
		{"grid in", func(p *config.Parameters) { require.NoError(t, os.Remove(p.GridDescriptionIn())) }, CheckGridIn},
		{"grid out", func(p *config.Parameters) { require.NoError(t, os.Remove(p.GridDescriptionOut())) }, CheckGridOut},
		{"destination is source", func(p *config.Parameters) { p.DestinationDir = p.SourceDir }, CheckDestination},
		{"destination above source", func(p *config.Parameters) { p.DestinationDir = filepath.Dir(p.SourceDir) }, CheckDestination},
		{"destination above input", func(p *config.Parameters) { p.DestinationDir = filepath.Dir(p.InputDir) + "/" }, CheckDestination},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := jobParams(t, map[string][]int{"u1": hours(0, 24)})
			tt.mutate(p)

			job := NewJob(Options{Params: p, Workers: 4, Adapter: toolstest.NewFake()})
			done := make(chan error, 1)
			go func() {
				_, err := job.Run(context.Background())
				done <- err
			}()

			select {
			case err := <-done:
				var fatal *FatalPreconditionError
				require.True(t, errors.As(err, &fatal), "got %v", err)
				assert.Equal(t, tt.check, fatal.Check)
			case <-time.After(10 * time.Second):
				t.Fatal("workers did not tear down")
			}
			assert.Equal(t, StateFailed, job.Coordinator().State())
			assert.NotEmpty(t, job.Coordinator().Status().(Status).Error)
		})
	}
}

func TestJob_DestinationGuardKeepsSource(t *testing.T) {
	p := jobParams(t, map[string][]int{"u1": hours(0, 24)})
	p.DestinationDir = filepath.Dir(p.SourceDir)

	_, err := NewJob(Options{Params: p, Workers: 1, Adapter: toolstest.NewFake()}).Run(context.Background())
	var fatal *FatalPreconditionError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, CheckDestination, fatal.Check)
	assert.DirExists(t, filepath.Join(p.SourceDir, "u1"))
	assert.FileExists(t, p.GridDescriptionIn())
}

func TestWithin(t *testing.T) {
	tests := []struct {
		dir, path string
		want      bool
	}{
		{"/data", "/data", true},
		{"/data", "/data/src", true},
		{"/data/", "/data/src/u1", true},
		{"/data/dst", "/data/src", false},
		{"/data/src/out", "/data/src", false},
		{"/data", "/data..old/src", false},
	}
	for _, tt := range tests {
		got, err := within(tt.dir, tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s in %s", tt.path, tt.dir)
	}
}

func TestJob_RecreatesDestination(t *testing.T) {
	p := jobParams(t, map[string][]int{"u1": hours(0, 24)})
	stale := filepath.Join(p.DestinationDir, "stale", "old.nc")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, nil, 0o644))

	_, err := NewJob(Options{Params: p, Workers: 1, Adapter: toolstest.NewFake()}).Run(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestJob_NoWorkers(t *testing.T) {
	p := jobParams(t, map[string][]int{"u1": hours(0, 24)})
	_, err := NewJob(Options{Params: p, Workers: 0, Adapter: toolstest.NewFake()}).Run(context.Background())
	require.Error(t, err)
}

func TestWriteSummary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	path, err := WriteSummary(dir, &Summary{JobID: 12, State: "DONE"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "summary_job_12.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state": "DONE"`)
}
