package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyPrecipitation(t *testing.T) {
	p, err := MonthlyPrecipitation(2017, 3, MonthRoots{
		Source:      "/p/scratch/cosmo-eps/",
		Destination: "/p/scratch/cosmo-eps_process/remaped_precp",
		Input:       "/p/project/rasdaman/input/",
	})
	require.NoError(t, err)
	assert.Equal(t, 201703, p.JobID)
	assert.Equal(t, "/p/scratch/cosmo-eps/2017/03", p.SourceDir)
	assert.Equal(t, "/p/scratch/cosmo-eps_process/remaped_precp/2017/03", p.DestinationDir)
	assert.Equal(t, "/p/project/rasdaman/input", p.InputDir)
	require.Len(t, p.Variables, 1)
	assert.Equal(t, "PR1h", p.Variables[0].OutputName())

	_, err = MonthlyPrecipitation(2017, 13, MonthRoots{})
	assert.ErrorContains(t, err, "month")
	_, err = MonthlyPrecipitation(17, 1, MonthRoots{})
	assert.ErrorContains(t, err, "four digits")
}

func TestParameters_WriteToLoadsBack(t *testing.T) {
	want := &Parameters{
		JobID:          201702,
		SourceDir:      "/data/src/2017/02",
		DestinationDir: "/data/dst/2017/02",
		InputDir:       "/data/input",
		Granularity:    GranularityFile,
		MaxHour:        12,
		CompressLevel:  4,
		Variables: []VariableSpec{
			{Name: "tp", Deaccumulate: true, Rename: true, OldName: "tp", NewName: "PR1h",
				ChangeUnits: true, Units: "kg m**-2 h**-1", ChangeLongName: true, LongName: "Hourly Precipitation",
				Remapped: true, RemappedDir: "remapped"},
			{Name: "t_2m", ChangeLongName: true, LongName: "2m temperature: instant",
				Native: true, NativeDir: "native"},
		},
	}

	var buf bytes.Buffer
	n, err := want.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	text := buf.String()
	assert.Contains(t, text, "# 0: deactivate / 1: active\n")
	assert.Contains(t, text, "Job_ID = 201702\n")
	assert.Contains(t, text, "variables = tp,t_2m\n")
	assert.Contains(t, text, "NATIVE_VARS = false,true\n")

	path := filepath.Join(t.TempDir(), "parameters_201702.dat")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	got, err := LoadParameters(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
