package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"eps-prepro/core/database"
	"eps-prepro/feature/merge"

	"github.com/stretchr/testify/require"
)

var testRun = merge.ModelRun{RunStart: time.Date(2017, 1, 2, 3, 0, 0, 0, time.UTC), Member: 7}

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	s := NewStore(db)
	require.NoError(t, s.Migrate())
	return s
}

// writeOutput creates a merged output below destDir and returns its path.
func writeOutput(t *testing.T, destDir, unit, variable, dir string, run merge.ModelRun, content string) string {
	t.Helper()
	path := filepath.Join(destDir, unit, variable, dir, merge.MergedFileName(run))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
