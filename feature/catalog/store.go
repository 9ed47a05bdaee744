package catalog

import (
	"context"
	"errors"
	"fmt"

	"eps-prepro/core/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSchema is returned when the catalog table lacks expected columns.
var ErrSchema = errors.New("catalog schema mismatch")

// Store reads and writes ProcessedFile rows.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the catalog table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&ProcessedFile{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", ProcessedFile{}.TableName(), err)
	}
	return nil
}

// CheckSchema verifies the catalog table has every column the catalog uses.
func (s *Store) CheckSchema() error {
	missing, err := database.MissingColumns(s.db, ProcessedFile{}.TableName(), Columns())
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s lacks %v", ErrSchema, ProcessedFile{}.TableName(), missing)
	}
	return nil
}

// Record inserts the row, replacing an existing row for the same path.
func (s *Store) Record(ctx context.Context, row *ProcessedFile) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "rel_path"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", row.RelPath, err)
	}
	return nil
}

// List returns every row ordered by path.
func (s *Store) List(ctx context.Context) ([]ProcessedFile, error) {
	var rows []ProcessedFile
	if err := s.db.WithContext(ctx).Order("rel_path").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", ProcessedFile{}.TableName(), err)
	}
	return rows, nil
}

// ListExecution returns the rows written by one job execution.
func (s *Store) ListExecution(ctx context.Context, executionID string) ([]ProcessedFile, error) {
	var rows []ProcessedFile
	err := s.db.WithContext(ctx).Where("execution_id = ?", executionID).Order("rel_path").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list execution %s: %w", executionID, err)
	}
	return rows, nil
}

// Get returns the row of a path, or nil when there is none.
func (s *Store) Get(ctx context.Context, relPath string) (*ProcessedFile, error) {
	var row ProcessedFile
	err := s.db.WithContext(ctx).Where("rel_path = ?", relPath).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", relPath, err)
	}
	return &row, nil
}

// Delete removes the row of a path.
func (s *Store) Delete(ctx context.Context, relPath string) error {
	err := s.db.WithContext(ctx).Where("rel_path = ?", relPath).Delete(&ProcessedFile{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", relPath, err)
	}
	return nil
}
