package toolstest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"eps-prepro/feature/tools"
)

// Dataset is the on-disk content of a fake NetCDF file: one variable with
// one value per time step. Times are hours relative to TimeUnits.
type Dataset struct {
	Format    string    `json:"format"`
	Variable  string    `json:"variable"`
	Units     string    `json:"units,omitempty"`
	LongName  string    `json:"long_name,omitempty"`
	TimeUnits string    `json:"time_units"`
	Times     []int     `json:"times"`
	Values    []float64 `json:"values"`
	Grid      string    `json:"grid,omitempty"`
	Layout    string    `json:"layout,omitempty"`
}

// Grib is the on-disk content of a fake GRIB file holding several fields.
type Grib struct {
	Fields []Dataset `json:"fields"`
}

// Fake implements tools.Adapter on JSON files. It is safe for concurrent use.
type Fake struct {
	// Fail, when set, is consulted before every operation; a non-nil result
	// is returned as the tool failure.
	Fail func(op string, paths ...string) error

	mu    sync.Mutex
	calls map[string]int
}

var _ tools.Adapter = (*Fake)(nil)

// NewFake returns a fake adapter.
func NewFake() *Fake {
	return &Fake{calls: make(map[string]int)}
}

// Calls returns how often op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) enter(op string, paths ...string) error {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
	if f.Fail != nil {
		if err := f.Fail(op, paths...); err != nil {
			return &tools.Error{Op: op, Reason: "injected failure", Err: err}
		}
	}
	return nil
}

func fail(op string, err error) error {
	return &tools.Error{Op: op, Reason: "fake tool failed", Err: err}
}

func (f *Fake) ConvertFormat(_ context.Context, in, out string, level int) error {
	if err := f.enter(tools.OpConvertFormat, in, out); err != nil {
		return err
	}
	if level < 1 || level > 9 {
		return fail(tools.OpConvertFormat, fmt.Errorf("invalid compression level %d", level))
	}
	g, err := ReadGrib(in)
	if err != nil {
		return fail(tools.OpConvertFormat, err)
	}
	if len(g.Fields) == 0 {
		return fail(tools.OpConvertFormat, fmt.Errorf("%s holds no fields", in))
	}
	ds := g.Fields[0]
	for _, field := range g.Fields[1:] {
		ds.Times = append(ds.Times, field.Times...)
		ds.Values = append(ds.Values, field.Values...)
	}
	ds.Format = "nc4"
	return fail2(tools.OpConvertFormat, WriteDataset(out, ds))
}

func (f *Fake) Regrid(_ context.Context, in, inGrid, out, outGrid string, method tools.RemapMethod) error {
	if err := f.enter(tools.OpRegrid, in, out); err != nil {
		return err
	}
	if _, err := method.CDOOperator(); err != nil {
		return fail(tools.OpRegrid, err)
	}
	ds, err := ReadDataset(in)
	if err != nil {
		return fail(tools.OpRegrid, err)
	}
	ds.Grid = filepath.Base(outGrid)
	ds.Format = "nc"
	if !strings.HasSuffix(out, ".nc") {
		out += ".nc"
	}
	return fail2(tools.OpRegrid, WriteDataset(out, ds))
}

// MergeTime concatenates the inputs and orders the steps by time like cdo mergetime.
func (f *Fake) MergeTime(_ context.Context, files []string, out string) error {
	if err := f.enter(tools.OpMergeTime, append(append([]string{}, files...), out)...); err != nil {
		return err
	}
	if len(files) == 0 {
		return fail(tools.OpMergeTime, fmt.Errorf("no input files"))
	}
	var merged Dataset
	type step struct {
		t int
		v float64
	}
	var steps []step
	for i, file := range files {
		ds, err := ReadDataset(file)
		if err != nil {
			return fail(tools.OpMergeTime, err)
		}
		if i == 0 {
			merged = ds
		} else if ds.TimeUnits != merged.TimeUnits {
			return fail(tools.OpMergeTime, fmt.Errorf("%s has time units %q, expected %q", file, ds.TimeUnits, merged.TimeUnits))
		}
		for j := range ds.Times {
			steps = append(steps, step{t: ds.Times[j], v: ds.Values[j]})
		}
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].t < steps[j].t })
	merged.Times = make([]int, len(steps))
	merged.Values = make([]float64, len(steps))
	for i, s := range steps {
		merged.Times[i] = s.t
		merged.Values[i] = s.v
	}
	return fail2(tools.OpMergeTime, WriteDataset(out, merged))
}

func (f *Fake) Subtract(_ context.Context, a, b, out string) error {
	if err := f.enter(tools.OpSubtract, a, b, out); err != nil {
		return err
	}
	da, err := ReadDataset(a)
	if err != nil {
		return fail(tools.OpSubtract, err)
	}
	db, err := ReadDataset(b)
	if err != nil {
		return fail(tools.OpSubtract, err)
	}
	if len(da.Values) != len(db.Values) {
		return fail(tools.OpSubtract, fmt.Errorf("different number of time steps"))
	}
	for i := range da.Values {
		da.Values[i] -= db.Values[i]
	}
	return fail2(tools.OpSubtract, WriteDataset(out, da))
}

func (f *Fake) EditMetadata(_ context.Context, in, out string, edits ...tools.Edit) error {
	if err := f.enter(tools.OpEditMetadata, in, out); err != nil {
		return err
	}
	if len(edits) == 0 {
		return fail(tools.OpEditMetadata, fmt.Errorf("no edits given"))
	}
	ds, err := ReadDataset(in)
	if err != nil {
		return fail(tools.OpEditMetadata, err)
	}
	for _, e := range edits {
		switch e.Kind {
		case tools.EditRename:
			if ds.Variable == e.Variable {
				ds.Variable = e.Value
			}
		case tools.EditUnits:
			ds.Units = e.Value
		case tools.EditLongName:
			ds.LongName = e.Value
		case tools.EditTime:
			for i := range ds.Times {
				ds.Times[i] = e.Hour
			}
			ds.TimeUnits = tools.TimeUnits(e.Reference)
		}
	}
	return fail2(tools.OpEditMetadata, WriteDataset(out, ds))
}

// SplitByVariable writes one <variable>.grib2 per distinct field variable.
func (f *Fake) SplitByVariable(_ context.Context, file, filter, dir string) ([]string, error) {
	if err := f.enter(tools.OpSplitByVariable, file, dir); err != nil {
		return nil, err
	}
	g, err := ReadGrib(file)
	if err != nil {
		return nil, fail(tools.OpSplitByVariable, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fail(tools.OpSplitByVariable, err)
	}
	if err := os.WriteFile(filter, []byte("write \""+dir+"/[shortName].grib[editionNumber]\";"), 0o644); err != nil {
		return nil, fail(tools.OpSplitByVariable, err)
	}
	byVar := make(map[string]*Grib)
	for _, field := range g.Fields {
		if byVar[field.Variable] == nil {
			byVar[field.Variable] = &Grib{}
		}
		byVar[field.Variable].Fields = append(byVar[field.Variable].Fields, field)
	}
	var files []string
	for name, sub := range byVar {
		path := filepath.Join(dir, name+".grib2")
		if err := writeJSON(path, sub); err != nil {
			return nil, fail(tools.OpSplitByVariable, err)
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func (f *Fake) SplitByTimeStep(_ context.Context, file, dir string) ([]string, error) {
	if err := f.enter(tools.OpSplitByTimeStep, file, dir); err != nil {
		return nil, err
	}
	ds, err := ReadDataset(file)
	if err != nil {
		return nil, fail(tools.OpSplitByTimeStep, err)
	}
	var files []string
	for i := range ds.Times {
		step := ds
		step.Times = []int{ds.Times[i]}
		step.Values = []float64{ds.Values[i]}
		path := filepath.Join(dir, fmt.Sprintf("output%06d.nc", i+1))
		if err := WriteDataset(path, step); err != nil {
			return nil, fail(tools.OpSplitByTimeStep, err)
		}
		files = append(files, path)
	}
	return files, nil
}

func (f *Fake) ToNativeLayout(_ context.Context, in, out string) error {
	if err := f.enter(tools.OpToNativeLayout, in, out); err != nil {
		return err
	}
	ds, err := ReadDataset(in)
	if err != nil {
		return fail(tools.OpToNativeLayout, err)
	}
	ds.Layout = "time,rlon,rlat"
	return fail2(tools.OpToNativeLayout, WriteDataset(out, ds))
}

func (f *Fake) Timestamp(_ context.Context, file string) (time.Time, error) {
	if err := f.enter(tools.OpTimestamp, file); err != nil {
		return time.Time{}, err
	}
	ds, err := ReadDataset(file)
	if err != nil {
		return time.Time{}, fail(tools.OpTimestamp, err)
	}
	if len(ds.Times) == 0 {
		return time.Time{}, fail(tools.OpTimestamp, fmt.Errorf("no time step in %s", file))
	}
	ref, err := ParseTimeUnits(ds.TimeUnits)
	if err != nil {
		return time.Time{}, fail(tools.OpTimestamp, err)
	}
	return ref.Add(time.Duration(ds.Times[0]) * time.Hour), nil
}

// MakeMissing replaces every value with value, keeping the time axis.
func (f *Fake) MakeMissing(_ context.Context, in, out, variable string, value float64) error {
	if err := f.enter(tools.OpMakeMissing, in, out); err != nil {
		return err
	}
	ds, err := ReadDataset(in)
	if err != nil {
		return fail(tools.OpMakeMissing, err)
	}
	if ds.Variable != variable {
		return fail(tools.OpMakeMissing, fmt.Errorf("%s holds %s, not %s", in, ds.Variable, variable))
	}
	for i := range ds.Values {
		ds.Values[i] = value
	}
	return fail2(tools.OpMakeMissing, WriteDataset(out, ds))
}

// ParseTimeUnits reads "hours since YYYY-MM-DD HH:MM:SS".
func ParseTimeUnits(units string) (time.Time, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(units), "hours since ")
	if !ok {
		return time.Time{}, fmt.Errorf("unsupported time units %q", units)
	}
	return time.Parse("2006-01-02 15:04:05", strings.TrimSpace(rest))
}

func fail2(op string, err error) error {
	if err != nil {
		return fail(op, err)
	}
	return nil
}

// ReadDataset loads a fake NetCDF file.
func ReadDataset(path string) (Dataset, error) {
	var ds Dataset
	data, err := os.ReadFile(path)
	if err != nil {
		return ds, err
	}
	if err := json.Unmarshal(data, &ds); err != nil {
		return ds, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// WriteDataset stores a fake NetCDF file.
func WriteDataset(path string, ds Dataset) error {
	return writeJSON(path, ds)
}

// ReadGrib loads a fake GRIB file.
func ReadGrib(path string) (Grib, error) {
	var g Grib
	data, err := os.ReadFile(path)
	if err != nil {
		return g, err
	}
	if err := json.Unmarshal(data, &g); err != nil {
		return g, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// WriteGrib stores a fake GRIB file with the given fields.
func WriteGrib(path string, fields ...Dataset) error {
	return writeJSON(path, Grib{Fields: fields})
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
