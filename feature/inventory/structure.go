package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eps-prepro/core/config"
)

// UnitSource is the source path of a unit.
func UnitSource(sourceDir, unitID string) string {
	return filepath.Join(sourceDir, unitID)
}

// UnitDestination is the destination directory of a unit. File units get a
// directory named after the file without its extension, so outputs of
// different files never share a variable directory.
func UnitDestination(destDir, unitID string, granularity config.Granularity) string {
	if granularity == config.GranularityFile {
		unitID = strings.TrimSuffix(unitID, filepath.Ext(unitID))
	}
	return filepath.Join(destDir, unitID)
}

// BuildStructure mirrors the unit layout in the destination directory.
// It returns the directories it created.
func BuildStructure(inv *Inventory, destDir string) ([]string, error) {
	dirs := make([]string, 0, len(inv.Units))
	for _, u := range inv.Units {
		dir := UnitDestination(destDir, u.ID, inv.Granularity)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}
