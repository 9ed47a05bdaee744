package inventory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"eps-prepro/core/config"
)

// Unit IDs travel ";" joined in assignment messages, and an empty assignment
// is sent as IdleMarker. Entries that would not survive that encoding are
// never units.
const (
	UnitSeparator = ";"
	IdleMarker    = "<idle>"
)

// Unit is the indivisible piece of work handed to a worker: one source
// subdirectory or one source file, depending on the granularity.
type Unit struct {
	// ID is the entry name relative to the source root.
	ID string `json:"id"`
	// Size is the recursive size in bytes.
	Size int64 `json:"size"`
	// Files is the number of regular files in the unit.
	Files int `json:"files"`
}

// Inventory lists the units found below a source root.
type Inventory struct {
	Root        string             `json:"root"`
	Granularity config.Granularity `json:"granularity"`
	Units       []Unit             `json:"units"`
	TotalSize   int64              `json:"total_size"`
	TotalFiles  int                `json:"total_files"`
	TotalDirs   int                `json:"total_dirs"`
	// Skipped lists entries whose names cannot be used as unit IDs.
	Skipped []string `json:"skipped,omitempty"`
}

// Unit returns the unit with the given ID.
func (inv *Inventory) Unit(id string) (Unit, bool) {
	for _, u := range inv.Units {
		if u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}

// IDs lists the unit IDs in inventory order.
func (inv *Inventory) IDs() []string {
	ids := make([]string, len(inv.Units))
	for i, u := range inv.Units {
		ids[i] = u.ID
	}
	return ids
}

// Scan enumerates the processing units below root. It only reads the file
// system. Hidden entries are skipped and units are sorted by ID.
func Scan(root string, granularity config.Granularity) (*Inventory, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory %s: %w", root, err)
	}

	inv := &Inventory{Root: root, Granularity: granularity}
	for _, e := range entries {
		if isHidden(e.Name()) {
			continue
		}
		if !ValidID(e.Name()) {
			inv.Skipped = append(inv.Skipped, e.Name())
			continue
		}
		path := filepath.Join(root, e.Name())

		switch granularity {
		case config.GranularityDirectory:
			if !e.IsDir() {
				continue
			}
			size, files, dirs, err := walkSize(path)
			if err != nil {
				return nil, err
			}
			inv.Units = append(inv.Units, Unit{ID: e.Name(), Size: size, Files: files})
			inv.TotalSize += size
			inv.TotalFiles += files
			inv.TotalDirs += dirs
		case config.GranularityFile:
			if !e.Type().IsRegular() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", path, err)
			}
			inv.Units = append(inv.Units, Unit{ID: e.Name(), Size: info.Size(), Files: 1})
			inv.TotalSize += info.Size()
			inv.TotalFiles++
		default:
			return nil, fmt.Errorf("unsupported granularity %d", int(granularity))
		}
	}

	sort.Slice(inv.Units, func(i, j int) bool { return inv.Units[i].ID < inv.Units[j].ID })
	return inv, nil
}

// walkSize sums regular file sizes below dir, skipping hidden entries.
// The returned directory count includes dir itself.
func walkSize(dir string) (size int64, files, dirs int, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			dirs++
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		files++
		return nil
	})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return size, files, dirs, nil
}

// ValidID reports whether name can be carried in an assignment message.
func ValidID(name string) bool {
	return name != "" && name != IdleMarker && !strings.Contains(name, UnitSeparator)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
