package merge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"eps-prepro/core/config"
	"eps-prepro/feature/tools"
	"eps-prepro/feature/tools/toolstest"

	"github.com/stretchr/testify/require"
)

var testRun = ModelRun{RunStart: time.Date(2017, 1, 2, 3, 0, 0, 0, time.UTC), Member: 7}

// cumulative returns the accumulated value at hour h: 0, 1, 3, 6, 10, ...
func cumulative(h int) float64 {
	return float64(h * (h + 1) / 2)
}

// writeHours creates per-hour files of run in varDir for the given hours.
func writeHours(t *testing.T, varDir string, run ModelRun, hours ...int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(varDir, 0o755))
	for _, h := range hours {
		require.NoError(t, toolstest.WriteDataset(filepath.Join(varDir, HourFileName(run, h)), toolstest.Dataset{
			Format:    "nc4",
			Variable:  "tp",
			TimeUnits: tools.TimeUnits(run.RunStart),
			Times:     []int{h},
			Values:    []float64{cumulative(h)},
		}))
	}
}

// writeScratch creates <hh>.nc files in dir for the given hours.
func writeScratch(t *testing.T, dir string, hours ...int) {
	t.Helper()
	for _, h := range hours {
		require.NoError(t, toolstest.WriteDataset(filepath.Join(dir, ScratchFileName(h)), toolstest.Dataset{
			Variable:  "tp",
			TimeUnits: tools.TimeUnits(testRun.RunStart),
			Times:     []int{h},
			Values:    []float64{cumulative(h)},
		}))
	}
}

func span(from, to int) []int {
	var out []int
	for h := from; h <= to; h++ {
		out = append(out, h)
	}
	return out
}

// testParams lays out an input directory with grids and a missing template.
func testParams(t *testing.T, vars ...config.VariableSpec) *config.Parameters {
	t.Helper()
	root := t.TempDir()
	p := &config.Parameters{
		JobID:          1,
		SourceDir:      filepath.Join(root, "src"),
		DestinationDir: filepath.Join(root, "dst"),
		InputDir:       filepath.Join(root, "input"),
		MaxHour:        24,
		CompressLevel:  6,
		Variables:      vars,
	}
	require.NoError(t, os.MkdirAll(filepath.Join(p.InputDir, "grid_des"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(p.InputDir, "missing"), 0o755))
	require.NoError(t, os.WriteFile(p.GridDescriptionIn(), []byte("gridtype = projection"), 0o644))
	require.NoError(t, os.WriteFile(p.GridDescriptionOut(), []byte("gridtype = lonlat"), 0o644))
	for _, v := range vars {
		require.NoError(t, toolstest.WriteDataset(p.MissingTemplate(v.Name), toolstest.Dataset{
			Variable:  v.InputName(),
			TimeUnits: "hours since 2000-01-01 00:00:00",
			Times:     []int{0},
			Values:    []float64{-999.9},
		}))
	}
	return p
}
