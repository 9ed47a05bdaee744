package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestStore_RecordAndList(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, &ProcessedFile{RelPath: "b/tp/remapped/x.nc", Variable: "tp", SizeBytes: 10}))
	require.NoError(t, s.Record(ctx, &ProcessedFile{RelPath: "a/tp/remapped/x.nc", Variable: "tp", SizeBytes: 20, ExecutionID: "e1"}))

	rows, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a/tp/remapped/x.nc", rows[0].RelPath)
	assert.Equal(t, "b/tp/remapped/x.nc", rows[1].RelPath)

	rows, err = s.ListExecution(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(20), rows[0].SizeBytes)
}

func TestStore_RecordReplacesSamePath(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, &ProcessedFile{RelPath: "u/tp/r/x.nc", SizeBytes: 1, Regime: "incomplete"}))
	require.NoError(t, s.Record(ctx, &ProcessedFile{RelPath: "u/tp/r/x.nc", SizeBytes: 2, Regime: "complete-24"}))

	rows, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].SizeBytes)
	assert.Equal(t, "complete-24", rows[0].Regime)
}

func TestStore_GetAndDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Record(ctx, &ProcessedFile{RelPath: "u/tp/r/x.nc"}))

	row, err := s.Get(ctx, "u/tp/r/x.nc")
	require.NoError(t, err)
	require.NotNil(t, row)

	require.NoError(t, s.Delete(ctx, "u/tp/r/x.nc"))
	row, err = s.Get(ctx, "u/tp/r/x.nc")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestStore_CheckSchema(t *testing.T) {
	s := newStore(t)
	assert.NoError(t, s.CheckSchema())

	require.NoError(t, s.db.Exec("DROP TABLE processed_files").Error)
	err := s.CheckSchema()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestStore_RecordMySQLError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `processed_files`").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err = NewStore(db).Record(context.Background(), &ProcessedFile{RelPath: "u/tp/r/x.nc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record u/tp/r/x.nc")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListMySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "rel_path", "size_bytes"}).
		AddRow(1, "u/tp/r/x.nc", 42)
	mock.ExpectQuery("SELECT \\* FROM `processed_files` ORDER BY rel_path").WillReturnRows(rows)

	list, err := NewStore(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(42), list[0].SizeBytes)
	assert.NoError(t, mock.ExpectationsWereMet())
}
