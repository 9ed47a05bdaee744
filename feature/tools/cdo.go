package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Executables names the external programs used by CDO.
type Executables struct {
	CDO        string
	NCAP2      string
	NCPDQ      string
	GribFilter string
}

// CDO implements Adapter with the Climate Data Operators, NCO and ecCodes.
type CDO struct {
	exe    Executables
	runner Runner
}

// NewCDO creates an adapter running exe through runner.
func NewCDO(exe Executables, runner Runner) *CDO {
	if exe.CDO == "" {
		exe.CDO = "cdo"
	}
	if exe.NCAP2 == "" {
		exe.NCAP2 = "ncap2"
	}
	if exe.NCPDQ == "" {
		exe.NCPDQ = "ncpdq"
	}
	if exe.GribFilter == "" {
		exe.GribFilter = "grib_filter"
	}
	return &CDO{exe: exe, runner: runner}
}

func (c *CDO) ConvertFormat(ctx context.Context, in, out string, level int) error {
	if level < 1 || level > 9 {
		return newError(OpConvertFormat, fmt.Sprintf("invalid compression level %d, must be within 1 and 9", level), nil)
	}
	if _, err := os.Stat(in); err != nil {
		return newError(OpConvertFormat, "input file not found", err)
	}
	if _, err := os.Stat(out); err == nil {
		return newError(OpConvertFormat, fmt.Sprintf("output %s already exists", out), nil)
	}
	_, err := c.runner.Run(ctx, c.exe.CDO, "-O", "--reduce_dim", "-s", "-f", "nc4", "-z", fmt.Sprintf("zip_%d", level), "copy", in, out)
	if err != nil {
		return newError(OpConvertFormat, "conversion to netCDF failed for "+in, err)
	}
	return nil
}

// Regrid treats -999.9 as missing value before remapping.
func (c *CDO) Regrid(ctx context.Context, in, inGrid, out, outGrid string, method RemapMethod) error {
	op, err := method.CDOOperator()
	if err != nil {
		return newError(OpRegrid, "unsupported method", err)
	}
	if !strings.HasSuffix(out, ".nc") {
		out += ".nc"
	}
	_, err = c.runner.Run(ctx, c.exe.CDO, "-L", "-O", "--reduce_dim", "-s", "-f", "nc",
		op+","+outGrid, "-setgrid,"+inGrid, "-setctomiss,-999.9", in, out)
	if err != nil {
		return newError(OpRegrid, fmt.Sprintf("remapping %s onto %s failed", in, outGrid), err)
	}
	return nil
}

func (c *CDO) MergeTime(ctx context.Context, files []string, out string) error {
	if len(files) == 0 {
		return newError(OpMergeTime, "no input files", nil)
	}
	args := append([]string{"-O", "-s", "mergetime"}, files...)
	args = append(args, out)
	if _, err := c.runner.Run(ctx, c.exe.CDO, args...); err != nil {
		return newError(OpMergeTime, "merging time steps failed", err)
	}
	return nil
}

func (c *CDO) Subtract(ctx context.Context, a, b, out string) error {
	if _, err := c.runner.Run(ctx, c.exe.CDO, "-O", "-s", "sub", a, b, out); err != nil {
		return newError(OpSubtract, fmt.Sprintf("subtracting %s from %s failed", filepath.Base(b), filepath.Base(a)), err)
	}
	return nil
}

// EditMetadata renames with cdo chname and sets attributes and time with ncap2.
// When both kinds are requested the rename runs first into an intermediate file.
func (c *CDO) EditMetadata(ctx context.Context, in, out string, edits ...Edit) error {
	if len(edits) == 0 {
		return newError(OpEditMetadata, "no edits given", nil)
	}

	var renames []string
	var scripts []string
	for _, e := range edits {
		if e.Kind == EditRename {
			renames = append(renames, e.Variable, e.Value)
			continue
		}
		for _, s := range e.ncap2Script() {
			scripts = append(scripts, "-s", s)
		}
	}

	src := in
	if len(renames) > 0 {
		target := out
		if len(scripts) > 0 {
			target = out + ".chname"
			defer os.Remove(target)
		}
		if _, err := c.runner.Run(ctx, c.exe.CDO, "-O", "-s", "chname,"+strings.Join(renames, ","), src, target); err != nil {
			return newError(OpEditMetadata, "renaming variables failed", err)
		}
		src = target
	}

	if len(scripts) > 0 {
		args := append([]string{"-O"}, scripts...)
		args = append(args, src, out)
		if _, err := c.runner.Run(ctx, c.exe.NCAP2, args...); err != nil {
			return newError(OpEditMetadata, "changing attributes failed", err)
		}
	}
	return nil
}

// SplitByVariable writes a grib_filter rules file naming outputs after the
// short name and edition number, then runs the filter.
func (c *CDO) SplitByVariable(ctx context.Context, file, filter, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newError(OpSplitByVariable, "cannot create split directory", err)
	}
	rules := fmt.Sprintf(`write "%s/[shortName].grib[editionNumber]";`, dir)
	if err := os.WriteFile(filter, []byte(rules), 0o644); err != nil {
		return nil, newError(OpSplitByVariable, "cannot write filter file", err)
	}
	if _, err := c.runner.Run(ctx, c.exe.GribFilter, filter, file); err != nil {
		return nil, newError(OpSplitByVariable, "splitting into variables failed for "+file, err)
	}
	files, err := listFiles(dir, func(name string) bool {
		return strings.Contains(name, ".grib") && name != filepath.Base(filter)
	})
	if err != nil {
		return nil, newError(OpSplitByVariable, "cannot list split directory", err)
	}
	return files, nil
}

func (c *CDO) SplitByTimeStep(ctx context.Context, file, dir string) ([]string, error) {
	if _, err := c.runner.Run(ctx, c.exe.CDO, "-s", "splitsel,1", file, filepath.Join(dir, "output")); err != nil {
		return nil, newError(OpSplitByTimeStep, "splitting time steps failed for "+file, err)
	}
	files, err := listFiles(dir, func(name string) bool { return strings.HasPrefix(name, "output") })
	if err != nil {
		return nil, newError(OpSplitByTimeStep, "cannot list split directory", err)
	}
	return files, nil
}

func (c *CDO) ToNativeLayout(ctx context.Context, in, out string) error {
	if _, err := c.runner.Run(ctx, c.exe.CDO, "-O", "--reduce_dim", "-s", "invertlat", in, out); err != nil {
		return newError(OpToNativeLayout, "inverting latitude axis failed for "+in, err)
	}
	if _, err := c.runner.Run(ctx, c.exe.NCPDQ, "-O", "--rdr=time,rlon,rlat", out, out); err != nil {
		return newError(OpToNativeLayout, "reordering dimensions failed for "+out, err)
	}
	return nil
}

// MakeMissing overwrites every cell of variable with value using ncap2.
func (c *CDO) MakeMissing(ctx context.Context, in, out, variable string, value float64) error {
	if variable == "" {
		return newError(OpMakeMissing, "no variable given", nil)
	}
	miss := strconv.FormatFloat(value, 'g', -1, 64)
	script := fmt.Sprintf("where(%[1]s>0) %[1]s=%[2]s; elsewhere %[1]s=%[2]s;", variable, miss)
	if _, err := c.runner.Run(ctx, c.exe.NCAP2, "-O", "-s", script, in, out); err != nil {
		return newError(OpMakeMissing, "filling "+variable+" with "+miss+" failed for "+in, err)
	}
	return nil
}

// Timestamp parses the first line of "cdo showtimestamp".
func (c *CDO) Timestamp(ctx context.Context, file string) (time.Time, error) {
	out, err := c.runner.Run(ctx, c.exe.CDO, "-s", "showtimestamp", file)
	if err != nil {
		return time.Time{}, newError(OpTimestamp, "reading timestamp failed for "+file, err)
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return time.Time{}, newError(OpTimestamp, "no time step in "+file, nil)
	}
	ts, err := time.Parse("2006-01-02T15:04:05", fields[0])
	if err != nil {
		return time.Time{}, newError(OpTimestamp, "unexpected timestamp format", err)
	}
	return ts, nil
}

// listFiles returns the sorted paths of the regular files in dir accepted by keep.
func listFiles(dir string, keep func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !keep(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
