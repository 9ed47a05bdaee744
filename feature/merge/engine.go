package merge

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"eps-prepro/core/config"
	"eps-prepro/feature/tools"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
)

// Output kinds.
const (
	KindRemapped = "remapped"
	KindNative   = "native"
)

// Request selects one merge: a variable of a unit for one model run.
type Request struct {
	// Unit is the unit ID, used in errors and logs.
	Unit string
	// UnitDir is the destination directory of the unit; per-hour files live
	// in UnitDir/<variable>.
	UnitDir  string
	Variable config.VariableSpec
	Run      ModelRun
}

// VarDir is the directory holding the per-hour files of the variable.
func (r Request) VarDir() string {
	return filepath.Join(r.UnitDir, r.Variable.Name)
}

// Output is a merged file written by the engine.
type Output struct {
	Kind string
	Path string
}

// Result describes a successful merge.
type Result struct {
	Run          ModelRun
	Variable     string
	Regime       Regime
	MaxHour      int
	Hours        []int
	Placeholders []int
	Outputs      []Output
}

// Engine reconstructs one hourly time series per (run, member, variable).
type Engine struct {
	adapter tools.Adapter
	params  *config.Parameters
	method  tools.RemapMethod
	logger  *zap.Logger
}

// NewEngine creates an engine using adapter for all numeric work.
func NewEngine(adapter tools.Adapter, params *config.Parameters, method tools.RemapMethod, logger *zap.Logger) *Engine {
	return &Engine{adapter: adapter, params: params, method: method, logger: logger}
}

// Build merges the per-hour files of req.Run into the configured outputs.
// The scratch directory and the run's per-hour files are removed afterwards,
// whether the merge succeeded or not. Failures are *UnitProcessingError.
func (e *Engine) Build(ctx context.Context, req Request) (res *Result, err error) {
	varDir := req.VarDir()
	scratch := ScratchDir(varDir, req.Run)
	l := e.logger.With(
		zap.String("unit", req.Unit),
		zap.String("variable", req.Variable.Name),
		zap.String("run", req.Run.String()),
	)

	defer func() {
		if cerr := Cleanup(varDir, scratch, req.Run); cerr != nil {
			l.Warn("Cleanup failed", zap.Error(cerr))
			if err == nil {
				res, err = nil, e.fail(req, OpCleanup, cerr)
			}
		}
	}()

	if err := os.RemoveAll(scratch); err != nil {
		return nil, e.fail(req, OpCopy, err)
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, e.fail(req, OpCopy, err)
	}

	hours, err := e.collect(varDir, scratch, req.Run)
	if err != nil {
		return nil, e.fail(req, OpCopy, err)
	}
	if hours.Cardinality() == 0 {
		return nil, e.fail(req, OpDiscover, fmt.Errorf("no per-hour files in %s", varDir))
	}

	regime, max := Classify(hours)
	res = &Result{
		Run:      req.Run,
		Variable: req.Variable.OutputName(),
		Regime:   regime,
		MaxHour:  max,
		Hours:    SortedHours(hours),
	}
	if expected := ExpectedMaxHour(req.Run.RunStart); expected != max {
		l.Warn("Unexpected series length for archive period",
			zap.Int("max_hour", max), zap.Int("expected", expected), zap.String("regime", regime.String()))
	}

	var input []string
	if regime.Complete() {
		input, err = CompleteInput(ctx, e.adapter, scratch, max, req.Variable.Deaccumulate)
	} else {
		l.Info("Substituting missing hours",
			zap.String("available", describeHours(hours)), zap.Int("max_hour", max))
		var sub *Substitution
		sub, err = SubstituteMissing(ctx, e.adapter, scratch, hours, max, req.Variable.Deaccumulate,
			e.params.MissingTemplate(req.Variable.Name), req.Run.RunStart)
		if sub != nil {
			input = sub.Files
			res.Placeholders = sub.Placeholders
		}
	}
	if err != nil {
		return nil, e.fail(req, OpBuildInput, err)
	}

	step := filepath.Join(scratch, "step_1.nc")
	if err := e.adapter.MergeTime(ctx, input, step); err != nil {
		return nil, e.fail(req, tools.OpMergeTime, err)
	}

	step, err = e.editMetadata(ctx, req.Variable, scratch, step)
	if err != nil {
		return nil, e.fail(req, tools.OpEditMetadata, err)
	}

	if req.Variable.Remapped {
		out, err := e.outputPath(varDir, req.Variable.RemappedDir, req.Run)
		if err != nil {
			return nil, e.fail(req, tools.OpRegrid, err)
		}
		if err := e.adapter.Regrid(ctx, step, e.params.GridDescriptionIn(), out, e.params.GridDescriptionOut(), e.method); err != nil {
			return nil, e.fail(req, tools.OpRegrid, err)
		}
		res.Outputs = append(res.Outputs, Output{Kind: KindRemapped, Path: out})
	}

	if req.Variable.Native {
		out, err := e.outputPath(varDir, req.Variable.NativeDir, req.Run)
		if err != nil {
			return nil, e.fail(req, tools.OpToNativeLayout, err)
		}
		if err := e.adapter.ToNativeLayout(ctx, step, out); err != nil {
			return nil, e.fail(req, tools.OpToNativeLayout, err)
		}
		res.Outputs = append(res.Outputs, Output{Kind: KindNative, Path: out})
	}

	l.Debug("Merged run",
		zap.String("regime", regime.String()),
		zap.Ints("placeholders", res.Placeholders),
		zap.Int("outputs", len(res.Outputs)))
	return res, nil
}

// collect copies every per-hour file of run into scratch as <hh>.nc.
func (e *Engine) collect(varDir, scratch string, run ModelRun) (mapset.Set[int], error) {
	files, err := HourFiles(varDir, run)
	if err != nil {
		return nil, err
	}
	hours := mapset.NewSetWithSize[int](len(files))
	ordered := make([]int, 0, len(files))
	for h := range files {
		ordered = append(ordered, h)
	}
	sort.Ints(ordered)
	for _, h := range ordered {
		if err := copyFile(files[h], filepath.Join(scratch, ScratchFileName(h))); err != nil {
			return nil, err
		}
		hours.Add(h)
	}
	return hours, nil
}

// editMetadata applies the optional rename (step_2) and the optional units
// and long name change (step_3). It returns the last written step.
func (e *Engine) editMetadata(ctx context.Context, v config.VariableSpec, scratch, step string) (string, error) {
	name := v.InputName()
	if v.Rename {
		next := filepath.Join(scratch, "step_2.nc")
		if err := e.adapter.EditMetadata(ctx, step, next, tools.Rename(name, v.NewName)); err != nil {
			return "", err
		}
		step, name = next, v.NewName
	}

	var edits []tools.Edit
	if v.ChangeUnits {
		edits = append(edits, tools.SetUnits(name, v.Units))
	}
	if v.ChangeLongName {
		edits = append(edits, tools.SetLongName(name, v.LongName))
	}
	if len(edits) > 0 {
		next := filepath.Join(scratch, "step_3.nc")
		if err := e.adapter.EditMetadata(ctx, step, next, edits...); err != nil {
			return "", err
		}
		step = next
	}
	return step, nil
}

func (e *Engine) outputPath(varDir, sub string, run ModelRun) (string, error) {
	dir := filepath.Join(varDir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, MergedFileName(run)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
