package merge

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

// Cleanup removes the scratch directory and the source per-hour files of run
// in varDir. Running it again, or on a partially cleaned directory, is a no-op.
func Cleanup(varDir, scratch string, run ModelRun) error {
	var result *multierror.Error

	if err := os.RemoveAll(scratch); err != nil {
		result = multierror.Append(result, err)
	}

	files, err := HourFiles(varDir, run)
	if err != nil {
		result = multierror.Append(result, err)
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// ScratchDir is the per (run, member) working directory inside varDir.
func ScratchDir(varDir string, run ModelRun) string {
	return filepath.Join(varDir, "tempdir_"+run.String())
}
