package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"eps-prepro/core/utils"

	"github.com/magiconair/properties"
	"github.com/spf13/viper"
)

// Granularity selects what a processing unit is.
type Granularity int

const (
	// GranularityDirectory makes every subdirectory of the source a unit (Load_Level = 0).
	GranularityDirectory Granularity = 0
	// GranularityFile makes every file of the source a unit (Load_Level = 1).
	GranularityFile Granularity = 1
)

func (g Granularity) String() string {
	switch g {
	case GranularityDirectory:
		return "directory"
	case GranularityFile:
		return "file"
	default:
		return "unknown"
	}
}

const (
	defaultMaxHour       = 24
	defaultCompressLevel = 6
)

// VariableSpec holds the per-variable settings taken from the index aligned
// parameter lists.
type VariableSpec struct {
	Name           string
	Deaccumulate   bool
	Rename         bool
	OldName        string
	NewName        string
	ChangeUnits    bool
	Units          string
	ChangeLongName bool
	LongName       string
	Remapped       bool
	RemappedDir    string
	Native         bool
	NativeDir      string
}

// OutputName returns the variable name as it appears in the merged file.
func (v VariableSpec) OutputName() string {
	if v.Rename && v.NewName != "" {
		return v.NewName
	}
	return v.InputName()
}

// InputName returns the variable name inside the per-hour files.
func (v VariableSpec) InputName() string {
	if v.OldName != "" {
		return v.OldName
	}
	return v.Name
}

// Parameters is the immutable job description read from the parameter file.
// It is built once at startup and passed to every component.
type Parameters struct {
	JobID          int
	SourceDir      string
	DestinationDir string
	InputDir       string
	Granularity    Granularity
	MaxHour        int
	CompressLevel  int
	Variables      []VariableSpec
}

// GridDescriptionIn is the CDO grid description of the native model grid.
func (p *Parameters) GridDescriptionIn() string {
	return filepath.Join(p.InputDir, "grid_des", "cde_grid")
}

// GridDescriptionOut is the CDO grid description of the regular target grid
// (unrotated, decreasing latitude).
func (p *Parameters) GridDescriptionOut() string {
	return filepath.Join(p.InputDir, "grid_des", "cde_grid_unrot_invlat")
}

// MissingTemplate is the placeholder file used for absent forecast hours of a variable.
func (p *Parameters) MissingTemplate(variable string) string {
	return filepath.Join(p.InputDir, "missing", variable+".missing")
}

// Variable returns the spec of the named variable.
func (p *Parameters) Variable(name string) (VariableSpec, bool) {
	for _, v := range p.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return VariableSpec{}, false
}

// VariableNames lists the configured variable names in parameter order.
func (p *Parameters) VariableNames() []string {
	names := make([]string, len(p.Variables))
	for i, v := range p.Variables {
		names[i] = v.Name
	}
	return names
}

// LoadParameters reads a KEY = VALUE parameter file. The format is a subset of
// java properties; values are taken literally, ${...} is not expanded.
func LoadParameters(path string) (*Parameters, error) {
	loader := properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file %s: %w", path, err)
	}

	values := make(map[string]any, props.Len())
	for _, key := range props.Keys() {
		val, _ := props.Get(key)
		values[key] = strings.TrimSpace(val)
	}

	v := viper.New()
	v.SetDefault("max_hour", defaultMaxHour)
	v.SetDefault("compress_level", defaultCompressLevel)
	v.SetDefault("load_level", int(GranularityDirectory))
	if err := v.MergeConfigMap(values); err != nil {
		return nil, fmt.Errorf("failed to read parameter file %s: %w", path, err)
	}

	return parametersFrom(v)
}

// parametersFrom builds Parameters from an already populated viper instance.
// Keys are case insensitive in viper, so Job_ID and JOB_ID are the same key.
func parametersFrom(v *viper.Viper) (*Parameters, error) {
	for _, key := range []string{"job_id", "source_directory", "destination_directory", "input_directory", "variables"} {
		if !v.IsSet(key) || strings.TrimSpace(v.GetString(key)) == "" {
			return nil, fmt.Errorf("parameter %s is required", strings.ToUpper(key))
		}
	}

	p := &Parameters{
		JobID:          utils.ToInt(v.GetString("job_id")),
		SourceDir:      filepath.Clean(utils.Unquote(v.GetString("source_directory"))),
		DestinationDir: filepath.Clean(utils.Unquote(v.GetString("destination_directory"))),
		InputDir:       filepath.Clean(utils.Unquote(v.GetString("input_directory"))),
		Granularity:    Granularity(utils.ToInt(v.GetString("load_level"))),
		MaxHour:        utils.ToInt(v.GetString("max_hour")),
		CompressLevel:  utils.ToInt(v.GetString("compress_level")),
	}

	list := func(key string) []string { return utils.SplitList(v.GetString(key)) }

	names := list("variables")
	deacc := list("deacummulate_vars")
	rename := list("rename_vars")
	oldNames := list("var_old_names")
	newNames := list("var_new_names")
	changeUnits := list("change_units")
	units := list("units")
	changeLong := list("change_long_names")
	longNames := list("long_names")
	remapped := list("remapped_vars")
	remappedDirs := list("remapped_dirs")
	native := list("native_vars")
	nativeDirs := list("native_dirs")

	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("variables entry %d is empty", i)
		}
		p.Variables = append(p.Variables, VariableSpec{
			Name:           name,
			Deaccumulate:   utils.ToBool(utils.At(deacc, i)),
			Rename:         utils.ToBool(utils.At(rename, i)),
			OldName:        utils.At(oldNames, i),
			NewName:        utils.At(newNames, i),
			ChangeUnits:    utils.ToBool(utils.At(changeUnits, i)),
			Units:          utils.At(units, i),
			ChangeLongName: utils.ToBool(utils.At(changeLong, i)),
			LongName:       utils.At(longNames, i),
			Remapped:       utils.ToBool(utils.At(remapped, i)),
			RemappedDir:    utils.At(remappedDirs, i),
			Native:         utils.ToBool(utils.At(native, i)),
			NativeDir:      utils.At(nativeDirs, i),
		})
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the parameter values for consistency.
func (p *Parameters) Validate() error {
	if p.Granularity != GranularityDirectory && p.Granularity != GranularityFile {
		return fmt.Errorf("LOAD_LEVEL must be 0 or 1, got %d", int(p.Granularity))
	}
	if p.MaxHour < 0 || p.MaxHour > 24 {
		return fmt.Errorf("MAX_HOUR must be within 0 and 24, got %d", p.MaxHour)
	}
	if p.CompressLevel < 1 || p.CompressLevel > 9 {
		return fmt.Errorf("COMPRESS_LEVEL must be within 1 and 9, got %d", p.CompressLevel)
	}
	if len(p.Variables) == 0 {
		return fmt.Errorf("VARIABLES must name at least one variable")
	}
	seen := make(map[string]struct{}, len(p.Variables))
	for _, v := range p.Variables {
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("variable %s is listed twice", v.Name)
		}
		seen[v.Name] = struct{}{}

		if v.Rename && v.NewName == "" {
			return fmt.Errorf("variable %s: RENAME_VARS is set but VAR_NEW_NAMES is empty", v.Name)
		}
		if v.ChangeUnits && v.Units == "" {
			return fmt.Errorf("variable %s: CHANGE_UNITS is set but UNITS is empty", v.Name)
		}
		if v.ChangeLongName && v.LongName == "" {
			return fmt.Errorf("variable %s: CHANGE_LONG_NAMES is set but LONG_NAMES is empty", v.Name)
		}
		if v.Remapped && v.RemappedDir == "" {
			return fmt.Errorf("variable %s: REMAPPED_VARS is set but REMAPPED_DIRS is empty", v.Name)
		}
		if v.Native && v.NativeDir == "" {
			return fmt.Errorf("variable %s: NATIVE_VARS is set but NATIVE_DIRS is empty", v.Name)
		}
	}
	return nil
}
