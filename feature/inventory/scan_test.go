package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"eps-prepro/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestScan_Directories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "02", "cde2017010200.00.m01.grib2"), 100)
	writeFile(t, filepath.Join(root, "02", "cde2017010200.01.m01.grib2"), 50)
	writeFile(t, filepath.Join(root, "01", "cde2017010100.00.m01.grib2"), 30)
	writeFile(t, filepath.Join(root, "01", "nested", "extra.grib2"), 20)
	writeFile(t, filepath.Join(root, "01", ".partial"), 999)
	writeFile(t, filepath.Join(root, ".snapshot", "old.grib2"), 999)
	writeFile(t, filepath.Join(root, "README"), 7)

	inv, err := Scan(root, config.GranularityDirectory)
	require.NoError(t, err)

	assert.Equal(t, []Unit{
		{ID: "01", Size: 50, Files: 2},
		{ID: "02", Size: 150, Files: 2},
	}, inv.Units)
	assert.Equal(t, int64(200), inv.TotalSize)
	assert.Equal(t, 4, inv.TotalFiles)
	assert.Equal(t, 3, inv.TotalDirs)
	assert.Equal(t, []string{"01", "02"}, inv.IDs())
}

func TestScan_Files(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.grib2"), 10)
	writeFile(t, filepath.Join(root, "a.grib2"), 20)
	writeFile(t, filepath.Join(root, "sub", "c.grib2"), 30)
	writeFile(t, filepath.Join(root, ".hidden"), 40)

	inv, err := Scan(root, config.GranularityFile)
	require.NoError(t, err)

	assert.Equal(t, []Unit{
		{ID: "a.grib2", Size: 20, Files: 1},
		{ID: "b.grib2", Size: 10, Files: 1},
	}, inv.Units)
	assert.Equal(t, int64(30), inv.TotalSize)

	u, ok := inv.Unit("b.grib2")
	assert.True(t, ok)
	assert.Equal(t, int64(10), u.Size)
}

func TestScan_SkipsUnencodableNames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "2017010200", "cde2017010200.00.m01.grib2"), 10)
	writeFile(t, filepath.Join(root, "a;b", "cde2017010200.00.m01.grib2"), 20)
	writeFile(t, filepath.Join(root, IdleMarker, "cde2017010200.00.m01.grib2"), 30)

	inv, err := Scan(root, config.GranularityDirectory)
	require.NoError(t, err)
	assert.Equal(t, []string{"2017010200"}, inv.IDs())
	assert.ElementsMatch(t, []string{"a;b", IdleMarker}, inv.Skipped)
	assert.Equal(t, int64(10), inv.TotalSize)

	assignment, err := Distribute(inv, 2)
	require.NoError(t, err)
	require.NoError(t, assignment.Validate(inv))
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("2017010200"))
	assert.True(t, ValidID("cde2017010200.00.m01.grib2"))
	assert.False(t, ValidID("a;b"))
	assert.False(t, ValidID(IdleMarker))
	assert.False(t, ValidID(""))
}

func TestScan_Errors(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"), config.GranularityDirectory)
	assert.ErrorContains(t, err, "failed to read source directory")

	_, err = Scan(t.TempDir(), config.Granularity(7))
	assert.NoError(t, err, "empty root has nothing to classify")

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x"), 1)
	_, err = Scan(root, config.Granularity(7))
	assert.ErrorContains(t, err, "unsupported granularity")
}

func TestBuildStructure(t *testing.T) {
	dest := t.TempDir()

	t.Run("Directory units", func(t *testing.T) {
		inv := &Inventory{Granularity: config.GranularityDirectory, Units: []Unit{{ID: "01"}, {ID: "02"}}}
		dirs, err := BuildStructure(inv, dest)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dest, "01"), filepath.Join(dest, "02")}, dirs)
		assert.DirExists(t, filepath.Join(dest, "02"))
	})

	t.Run("File units", func(t *testing.T) {
		inv := &Inventory{Granularity: config.GranularityFile, Units: []Unit{{ID: "cde2017010200.03.m01.grib2"}}}
		dirs, err := BuildStructure(inv, dest)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dest, "cde2017010200.03.m01")}, dirs)
	})
}
