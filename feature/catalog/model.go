package catalog

import "time"

// ProcessedFile is one published merged output.
type ProcessedFile struct {
	ID          uint      `gorm:"column:id;primaryKey"`
	ExecutionID string    `gorm:"column:execution_id;size:36;index"`
	JobID       int       `gorm:"column:job_id;index"`
	Unit        string    `gorm:"column:unit;size:255"`
	Variable    string    `gorm:"column:variable;size:64"`
	Kind        string    `gorm:"column:kind;size:16"`
	RunStart    time.Time `gorm:"column:run_start"`
	Member      int       `gorm:"column:member"`
	Regime      string    `gorm:"column:regime;size:16"`
	Placeholder int       `gorm:"column:placeholders"`
	RelPath     string    `gorm:"column:rel_path;size:512;uniqueIndex"`
	ObjectKey   string    `gorm:"column:object_key;size:512"`
	SizeBytes   int64     `gorm:"column:size_bytes"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

// TableName overrides the table name.
func (ProcessedFile) TableName() string {
	return "processed_files"
}

// Columns lists the columns the catalog code reads and writes.
func Columns() []string {
	return []string{
		"id", "execution_id", "job_id", "unit", "variable", "kind", "run_start",
		"member", "regime", "placeholders", "rel_path", "object_key", "size_bytes", "created_at",
	}
}
