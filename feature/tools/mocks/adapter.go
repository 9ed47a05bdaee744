package mocks

import (
	"context"
	"time"

	"eps-prepro/feature/tools"

	"github.com/stretchr/testify/mock"
)

// Adapter is a mock implementation of tools.Adapter
type Adapter struct {
	mock.Mock
}

func (m *Adapter) ConvertFormat(ctx context.Context, in, out string, level int) error {
	args := m.Called(ctx, in, out, level)
	return args.Error(0)
}

func (m *Adapter) Regrid(ctx context.Context, in, inGrid, out, outGrid string, method tools.RemapMethod) error {
	args := m.Called(ctx, in, inGrid, out, outGrid, method)
	return args.Error(0)
}

func (m *Adapter) MergeTime(ctx context.Context, files []string, out string) error {
	args := m.Called(ctx, files, out)
	return args.Error(0)
}

func (m *Adapter) Subtract(ctx context.Context, a, b, out string) error {
	args := m.Called(ctx, a, b, out)
	return args.Error(0)
}

func (m *Adapter) EditMetadata(ctx context.Context, in, out string, edits ...tools.Edit) error {
	args := m.Called(ctx, in, out, edits)
	return args.Error(0)
}

func (m *Adapter) SplitByVariable(ctx context.Context, file, filter, dir string) ([]string, error) {
	args := m.Called(ctx, file, filter, dir)
	files, _ := args.Get(0).([]string)
	return files, args.Error(1)
}

func (m *Adapter) SplitByTimeStep(ctx context.Context, file, dir string) ([]string, error) {
	args := m.Called(ctx, file, dir)
	files, _ := args.Get(0).([]string)
	return files, args.Error(1)
}

func (m *Adapter) ToNativeLayout(ctx context.Context, in, out string) error {
	args := m.Called(ctx, in, out)
	return args.Error(0)
}

func (m *Adapter) MakeMissing(ctx context.Context, in, out, variable string, value float64) error {
	args := m.Called(ctx, in, out, variable, value)
	return args.Error(0)
}

func (m *Adapter) Timestamp(ctx context.Context, file string) (time.Time, error) {
	args := m.Called(ctx, file)
	ts, _ := args.Get(0).(time.Time)
	return ts, args.Error(1)
}
