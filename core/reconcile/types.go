package reconcile

// Source names used in results and reasons.
const (
	SourceLocal   = "local"
	SourceCatalog = "catalog"
	SourceStorage = "storage"
)

// Entry is one output as seen by a single source.
type Entry struct {
	// Key is the output path relative to the destination directory, with
	// forward slashes.
	Key string
	// Size is the size in bytes, or -1 when the source does not know it.
	Size int64
}

// Index maps output keys to entries.
type Index map[string]Entry

// Result represents the reconciliation output for a single output file.
type Result struct {
	Key string `json:"key"`

	LocalPresent   bool `json:"local_present"`
	CatalogPresent bool `json:"catalog_present"`
	StoragePresent bool `json:"storage_present"`

	// Mismatch describes size differences between sources,
	// e.g. "size: local=10 storage=12".
	Mismatch []string `json:"mismatch"`
}

// Missing lists the checked sources the output is absent from.
func (r Result) Missing(checked Checked) []string {
	var missing []string
	if checked.Local && !r.LocalPresent {
		missing = append(missing, SourceLocal)
	}
	if checked.Catalog && !r.CatalogPresent {
		missing = append(missing, SourceCatalog)
	}
	if checked.Storage && !r.StoragePresent {
		missing = append(missing, SourceStorage)
	}
	return missing
}

// Checked records which sources took part in a reconciliation.
type Checked struct {
	Local   bool `json:"local"`
	Catalog bool `json:"catalog"`
	Storage bool `json:"storage"`
}

// Count returns the number of checked sources.
func (c Checked) Count() int {
	n := 0
	for _, b := range []bool{c.Local, c.Catalog, c.Storage} {
		if b {
			n++
		}
	}
	return n
}

// ActionType represents the type of repair action.
type ActionType string

const (
	// ActionDeleteCatalog removes a catalog row whose local output is gone.
	ActionDeleteCatalog ActionType = "delete_catalog"
	// ActionDeleteStorage removes an object whose local output is gone.
	ActionDeleteStorage ActionType = "delete_storage"
	// ActionRecord adds the missing catalog row of a local output.
	ActionRecord ActionType = "record_catalog"
	// ActionUpload uploads a local output missing from storage.
	ActionUpload ActionType = "upload_storage"
)

// Action represents a planned repair operation.
type Action struct {
	Type   ActionType `json:"type"`
	Key    string     `json:"key"`
	Reason string     `json:"reason"`
}

// Plan contains reconciliation results and planned actions.
type Plan struct {
	Checked Checked  `json:"checked"`
	Results []Result `json:"results"`
	Actions []Action `json:"actions"`
	Summary Summary  `json:"summary"`
}

// Summary provides aggregate counts.
type Summary struct {
	TotalItems     int `json:"total_items"`
	MissingLocal   int `json:"missing_local"`
	MissingCatalog int `json:"missing_catalog"`
	MissingStorage int `json:"missing_storage"`
	Mismatches     int `json:"mismatches"`
	PurgeActions   int `json:"purge_actions"`
	RepairActions  int `json:"repair_actions"`
}

// Consistent reports whether every checked source agrees.
func (s Summary) Consistent() bool {
	return s.MissingLocal == 0 && s.MissingCatalog == 0 && s.MissingStorage == 0 && s.Mismatches == 0
}

// Options controls which actions are planned and whether they run.
type Options struct {
	// DryRun prevents execution of any action if true.
	DryRun bool

	// DoPurge removes catalog rows and objects without a local output.
	DoPurge bool

	// DoRepair records and uploads local outputs missing elsewhere.
	DoRepair bool

	// Confirmed indicates the user has confirmed the actions.
	// If false, actions will not execute regardless of DryRun.
	Confirmed bool
}
