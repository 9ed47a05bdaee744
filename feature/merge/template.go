package merge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"eps-prepro/core/config"
	"eps-prepro/feature/tools"
)

// WriteMissingTemplate derives the missing-hour template of variable from one
// of its per-hour files. Every cell of the copy is set to value. The template
// keeps the input variable name since edits are applied after substitution.
func WriteMissingTemplate(ctx context.Context, adapter tools.Adapter, params *config.Parameters, dataFile, variable string, value float64) (string, error) {
	spec, ok := params.Variable(variable)
	if !ok {
		return "", fmt.Errorf("variable %s is not configured", variable)
	}
	if _, err := os.Stat(dataFile); err != nil {
		return "", fmt.Errorf("data file: %w", err)
	}
	dest := params.MissingTemplate(spec.Name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}
	if err := adapter.MakeMissing(ctx, dataFile, dest, spec.InputName(), value); err != nil {
		return "", err
	}
	return dest, nil
}
