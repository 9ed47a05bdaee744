package preprocess

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"eps-prepro/core/config"
	"eps-prepro/feature/inventory"
	"eps-prepro/feature/merge"
	"eps-prepro/feature/tools"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// FileError records a source file that could not be preprocessed.
type FileError struct {
	Unit string
	File string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("unit %s: file %s: %s: %v", e.Unit, filepath.Base(e.File), e.Op, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Report summarizes the preprocessing of one unit.
type Report struct {
	Unit      string
	Files     int
	Skipped   int
	Failed    int
	HourFiles int
	// Variables lists the configured variables that received per-hour files.
	Variables []string
}

// Preprocessor turns the raw GRIB files of a unit into per-hour NetCDF files
// in <destination>/<unit>/<variable>/.
type Preprocessor struct {
	adapter tools.Adapter
	params  *config.Parameters
	logger  *zap.Logger
}

// New creates a preprocessor.
func New(adapter tools.Adapter, params *config.Parameters, logger *zap.Logger) *Preprocessor {
	return &Preprocessor{adapter: adapter, params: params, logger: logger}
}

// InputFiles lists the source files of a unit: the cde* files of a directory
// unit, sorted, or the file itself for a file unit.
func (p *Preprocessor) InputFiles(unitID string) ([]string, error) {
	src := inventory.UnitSource(p.params.SourceDir, unitID)
	if p.params.Granularity == config.GranularityFile {
		return []string{src}, nil
	}
	files, err := filepath.Glob(filepath.Join(src, "cde*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Unit preprocesses every input file of the unit. A failing file is recorded
// and the remaining files are still processed; the returned error aggregates
// all *FileError values.
func (p *Preprocessor) Unit(ctx context.Context, unitID string) (*Report, error) {
	destDir := inventory.UnitDestination(p.params.DestinationDir, unitID, p.params.Granularity)
	splitDir := filepath.Join(destDir, "split")
	l := p.logger.With(zap.String("unit", unitID))

	if err := os.RemoveAll(splitDir); err != nil {
		return nil, fmt.Errorf("failed to reset %s: %w", splitDir, err)
	}
	if err := os.MkdirAll(splitDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", splitDir, err)
	}
	defer func() {
		if err := os.RemoveAll(splitDir); err != nil {
			l.Warn("Failed to remove split directory", zap.Error(err))
		}
	}()

	inputs, err := p.InputFiles(unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inputs of unit %s: %w", unitID, err)
	}
	l.Info("Preprocessing unit", zap.Int("files", len(inputs)), zap.Strings("variables", p.params.VariableNames()))

	report := &Report{Unit: unitID}
	touched := make(map[string]struct{})
	var result *multierror.Error

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		hour, err := ForecastHour(in)
		if err != nil {
			report.Skipped++
			l.Warn("Skipping file without forecast hour", zap.String("file", in))
			continue
		}
		if hour > p.params.MaxHour {
			report.Skipped++
			l.Debug("Skipping file beyond max hour", zap.String("file", in), zap.Int("hour", hour))
			continue
		}

		report.Files++
		written, err := p.file(ctx, unitID, in, hour, destDir, splitDir, touched)
		report.HourFiles += written
		if err != nil {
			report.Failed++
			l.Warn("Preprocessing file failed", zap.Error(err))
			result = multierror.Append(result, err)
		}
	}

	for name := range touched {
		report.Variables = append(report.Variables, name)
	}
	sort.Strings(report.Variables)
	return report, result.ErrorOrNil()
}

// file splits one input file and writes its per-hour files. It returns the
// number of per-hour files written.
func (p *Preprocessor) file(ctx context.Context, unitID, in string, hour int, destDir, splitDir string, touched map[string]struct{}) (int, error) {
	fail := func(op string, err error) error {
		return &FileError{Unit: unitID, File: in, Op: op, Err: err}
	}

	member, err := Member(in)
	if err != nil {
		return 0, fail("parse_name", err)
	}

	varSplitDir := filepath.Join(splitDir, stem(in))
	defer os.RemoveAll(varSplitDir)

	varFiles, err := p.adapter.SplitByVariable(ctx, in, filepath.Join(splitDir, "split_filter.txt"), varSplitDir)
	if err != nil {
		return 0, fail(tools.OpSplitByVariable, err)
	}

	written := 0
	for _, varFile := range varFiles {
		name := VariableOf(varFile)
		if _, ok := p.params.Variable(name); !ok {
			continue
		}

		ncFile := filepath.Join(splitDir, "preproc-"+stem(in)+"."+name+".nc")
		if err := p.adapter.ConvertFormat(ctx, varFile, ncFile, p.params.CompressLevel); err != nil {
			return written, fail(tools.OpConvertFormat, err)
		}

		stepDir := filepath.Join(splitDir, "steps-"+stem(in)+"."+name)
		if err := os.MkdirAll(stepDir, 0o755); err != nil {
			return written, fail(tools.OpSplitByTimeStep, err)
		}
		steps, err := p.adapter.SplitByTimeStep(ctx, ncFile, stepDir)
		if err != nil {
			os.RemoveAll(stepDir)
			return written, fail(tools.OpSplitByTimeStep, err)
		}

		outDir := filepath.Join(destDir, name)
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return written, fail(tools.OpEditMetadata, err)
		}
		n, err := p.relabel(ctx, steps, hour, member, outDir)
		written += n
		os.RemoveAll(stepDir)
		os.Remove(ncFile)
		if err != nil {
			return written, fail(tools.OpEditMetadata, err)
		}
		touched[name] = struct{}{}
	}
	return written, nil
}

// relabel writes each time step as time:<run>.<hh>.m<MM>.nc with the time
// axis expressed in hours since the run start.
func (p *Preprocessor) relabel(ctx context.Context, steps []string, hour, member int, outDir string) (int, error) {
	written := 0
	for _, step := range steps {
		ts, err := p.adapter.Timestamp(ctx, step)
		if err != nil {
			return written, err
		}
		runStart := ts.Add(-time.Duration(hour) * time.Hour)
		if runStart.Hour()%3 != 0 || runStart.Minute() != 0 {
			p.logger.Warn("Run start is not on the 3 hour grid",
				zap.String("file", step), zap.Time("run_start", runStart))
		}
		run := merge.ModelRun{RunStart: runStart, Member: member}
		out := filepath.Join(outDir, merge.HourFileName(run, hour))
		if err := p.adapter.EditMetadata(ctx, step, out, tools.SetTime(hour, runStart)); err != nil {
			return written, err
		}
		written++
		_ = os.Remove(step)
	}
	return written, nil
}
