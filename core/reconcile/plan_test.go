package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMutator struct {
	mock.Mock
}

func (m *mockMutator) DeleteCatalog(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockMutator) DeleteStorage(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockMutator) Record(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockMutator) Upload(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func mixedSources() Sources {
	return Sources{
		Local:   source(SourceLocal, Entry{"ok", 1}, Entry{"unpublished", 2}, Entry{"resized", 5}),
		Catalog: source(SourceCatalog, Entry{"ok", 1}, Entry{"orphan", 3}, Entry{"resized", 4}),
		Storage: source(SourceStorage, Entry{"ok", 1}, Entry{"orphan", 3}, Entry{"resized", 5}),
	}
}

func countTypes(actions []Action) map[ActionType]int {
	counts := make(map[ActionType]int)
	for _, a := range actions {
		counts[a.Type]++
	}
	return counts
}

func TestReconcileWithPlan_Summary(t *testing.T) {
	plan, err := ReconcileWithPlan(context.Background(), mixedSources(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 4, plan.Summary.TotalItems)
	assert.Equal(t, 1, plan.Summary.MissingLocal)
	assert.Equal(t, 1, plan.Summary.MissingCatalog)
	assert.Equal(t, 1, plan.Summary.MissingStorage)
	assert.Equal(t, 1, plan.Summary.Mismatches)
	assert.Empty(t, plan.Actions)
	assert.False(t, plan.Summary.Consistent())
	assert.Equal(t, Checked{Local: true, Catalog: true, Storage: true}, plan.Checked)
}

func TestReconcileWithPlan_PurgeActions(t *testing.T) {
	plan, err := ReconcileWithPlan(context.Background(), mixedSources(), Options{DoPurge: true})
	require.NoError(t, err)

	assert.Equal(t, 2, plan.Summary.PurgeActions)
	counts := countTypes(plan.Actions)
	assert.Equal(t, 1, counts[ActionDeleteCatalog])
	assert.Equal(t, 1, counts[ActionDeleteStorage])
	for _, a := range plan.Actions {
		assert.Equal(t, "orphan", a.Key)
		assert.Equal(t, "missing in: [local]", a.Reason)
	}
}

func TestReconcileWithPlan_RepairActions(t *testing.T) {
	plan, err := ReconcileWithPlan(context.Background(), mixedSources(), Options{DoRepair: true})
	require.NoError(t, err)

	assert.Equal(t, []Action{
		{Type: ActionRecord, Key: "resized", Reason: "mismatch: size: local=5 catalog=4"},
		{Type: ActionUpload, Key: "unpublished", Reason: "missing in: [catalog storage]"},
		{Type: ActionRecord, Key: "unpublished", Reason: "missing in: [catalog storage]"},
	}, plan.Actions)
	assert.Equal(t, 3, plan.Summary.RepairActions)
}

func TestApplyPlan_RequiresConfirmation(t *testing.T) {
	plan := &Plan{Actions: []Action{{Type: ActionDeleteCatalog, Key: "x"}}}
	m := new(mockMutator)

	executed, err := ApplyPlan(context.Background(), m, plan, Options{Confirmed: false})
	require.NoError(t, err)
	assert.Zero(t, executed)

	executed, err = ApplyPlan(context.Background(), m, plan, Options{Confirmed: true, DryRun: true})
	require.NoError(t, err)
	assert.Zero(t, executed)

	m.AssertNotCalled(t, "DeleteCatalog", mock.Anything, mock.Anything)
}

func TestApplyPlan_Executes(t *testing.T) {
	plan := &Plan{Actions: []Action{
		{Type: ActionDeleteCatalog, Key: "a"},
		{Type: ActionDeleteStorage, Key: "a"},
		{Type: ActionUpload, Key: "b"},
		{Type: ActionRecord, Key: "b"},
	}}
	m := new(mockMutator)
	m.On("DeleteCatalog", mock.Anything, "a").Return(nil)
	m.On("DeleteStorage", mock.Anything, "a").Return(nil)
	m.On("Upload", mock.Anything, "b").Return(nil)
	m.On("Record", mock.Anything, "b").Return(nil)

	executed, err := ApplyPlan(context.Background(), m, plan, Options{Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, 4, executed)
	m.AssertExpectations(t)
}

func TestApplyPlan_StopsOnError(t *testing.T) {
	plan := &Plan{Actions: []Action{
		{Type: ActionUpload, Key: "a"},
		{Type: ActionRecord, Key: "a"},
	}}
	m := new(mockMutator)
	m.On("Upload", mock.Anything, "a").Return(errors.New("denied"))

	executed, err := ApplyPlan(context.Background(), m, plan, Options{Confirmed: true})
	require.Error(t, err)
	assert.Zero(t, executed)
	assert.Contains(t, err.Error(), "failed to upload_storage a: denied")
	m.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestReconcileAndApply(t *testing.T) {
	m := new(mockMutator)
	m.On("DeleteCatalog", mock.Anything, "orphan").Return(nil)
	m.On("DeleteStorage", mock.Anything, "orphan").Return(nil)

	plan, executed, err := ReconcileAndApply(context.Background(), mixedSources(), m, Options{DoPurge: true, Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, 2, executed)
	assert.Len(t, plan.Results, 4)
	m.AssertExpectations(t)
}
