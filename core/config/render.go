package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
)

// MonthRoots are the directories a monthly job is laid out under.
type MonthRoots struct {
	Source      string
	Destination string
	Input       string
}

// MonthlyPrecipitation describes the usual monthly job: hourly precipitation
// deaccumulated, renamed to PR1h and remapped to the regular grid. Source and
// destination are <root>/<YYYY>/<MM>.
func MonthlyPrecipitation(year, month int, roots MonthRoots) (*Parameters, error) {
	if year < 1000 || year > 9999 {
		return nil, fmt.Errorf("year must have four digits, got %d", year)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month must be within 1 and 12, got %d", month)
	}
	yyyy, mm := strconv.Itoa(year), fmt.Sprintf("%02d", month)
	p := &Parameters{
		JobID:          year*100 + month,
		SourceDir:      filepath.Join(roots.Source, yyyy, mm),
		DestinationDir: filepath.Join(roots.Destination, yyyy, mm),
		InputDir:       filepath.Clean(roots.Input),
		Granularity:    GranularityDirectory,
		MaxHour:        defaultMaxHour,
		CompressLevel:  defaultCompressLevel,
		Variables: []VariableSpec{{
			Name:           "tp",
			Deaccumulate:   true,
			Rename:         true,
			OldName:        "tp",
			NewName:        "PR1h",
			ChangeUnits:    true,
			Units:          "kg m**-2 h**-1",
			ChangeLongName: true,
			LongName:       "Hourly Precipitation",
			Remapped:       true,
			RemappedDir:    "remapped",
		}},
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// WriteTo renders p as a parameter file that LoadParameters reads back.
func (p *Parameters) WriteTo(w io.Writer) (int64, error) {
	props := properties.NewProperties()
	props.DisableExpansion = true

	set := func(key, value string) { props.MustSet(key, value) }
	column := func(get func(VariableSpec) string) string {
		vals := make([]string, len(p.Variables))
		for i, v := range p.Variables {
			vals[i] = get(v)
		}
		return strings.Join(vals, ",")
	}
	flag := func(get func(VariableSpec) bool) string {
		return column(func(v VariableSpec) string { return strconv.FormatBool(get(v)) })
	}

	set("Job_ID", strconv.Itoa(p.JobID))
	props.SetComments("Job_ID", []string{
		"============ input parameters =================== #",
		"0: deactivate / 1: active",
		"Load_Level = 0: sub-directory level / 1: file level",
	})
	set("Source_Directory", p.SourceDir)
	set("Destination_Directory", p.DestinationDir)
	set("Input_Directory", p.InputDir)
	set("Load_Level", strconv.Itoa(int(p.Granularity)))
	set("MAX_HOUR", strconv.Itoa(p.MaxHour))
	set("COMPRESS_LEVEL", strconv.Itoa(p.CompressLevel))
	set("variables", column(func(v VariableSpec) string { return v.Name }))
	set("DEACUMMULATE_VARS", flag(func(v VariableSpec) bool { return v.Deaccumulate }))
	set("RENAME_VARS", flag(func(v VariableSpec) bool { return v.Rename }))
	set("VAR_OLD_NAMES", column(func(v VariableSpec) string { return v.OldName }))
	set("VAR_NEW_NAMES", column(func(v VariableSpec) string { return v.NewName }))
	set("CHANGE_UNITS", flag(func(v VariableSpec) bool { return v.ChangeUnits }))
	set("UNITS", column(func(v VariableSpec) string { return v.Units }))
	set("CHANGE_LONG_NAMES", flag(func(v VariableSpec) bool { return v.ChangeLongName }))
	set("LONG_NAMES", column(func(v VariableSpec) string { return v.LongName }))
	set("REMAPPED_VARS", flag(func(v VariableSpec) bool { return v.Remapped }))
	set("REMAPPED_DIRS", column(func(v VariableSpec) string { return v.RemappedDir }))
	set("NATIVE_VARS", flag(func(v VariableSpec) bool { return v.Native }))
	set("NATIVE_DIRS", column(func(v VariableSpec) string { return v.NativeDir }))

	n, err := props.WriteComment(w, "# ", properties.UTF8)
	return int64(n), err
}
