package inventory

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inventoryOf(sizes ...int64) *Inventory {
	inv := &Inventory{}
	for i, s := range sizes {
		inv.Units = append(inv.Units, Unit{ID: fmt.Sprintf("u%02d", i), Size: s, Files: 1})
		inv.TotalSize += s
	}
	return inv
}

func TestDistribute_Balanced(t *testing.T) {
	inv := inventoryOf(50, 50, 10, 10, 10, 10, 10)

	a, err := Distribute(inv, 3)
	require.NoError(t, err)

	assert.Equal(t, []int64{50, 50, 50}, a.Totals())
	assert.Equal(t, []string{"u00"}, a.Loads[0].Units)
	assert.Equal(t, []string{"u01"}, a.Loads[1].Units)
	assert.Equal(t, []string{"u02", "u03", "u04", "u05", "u06"}, a.Loads[2].Units)
	require.NoError(t, a.Validate(inv))
}

func TestDistribute_IdleWorkers(t *testing.T) {
	inv := inventoryOf(5, 7)

	a, err := Distribute(inv, 4)
	require.NoError(t, err)
	require.Equal(t, 4, a.Workers())

	want := []Load{
		{Rank: 1, Units: []string{"u01"}, Size: 7},
		{Rank: 2, Units: []string{"u00"}, Size: 5},
		{Rank: 3, Units: []string{}},
		{Rank: 4, Units: []string{}},
	}
	if diff := cmp.Diff(want, a.Loads); diff != "" {
		t.Errorf("loads mismatch (-want +got):\n%s", diff)
	}
	l, err := a.For(4)
	require.NoError(t, err)
	assert.True(t, l.Idle())

	_, err = a.For(5)
	assert.Error(t, err)
}

func TestDistribute_TiesByID(t *testing.T) {
	inv := &Inventory{Units: []Unit{{ID: "b", Size: 10}, {ID: "a", Size: 10}, {ID: "c", Size: 10}}}

	a, err := Distribute(inv, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, a.Loads[0].Units)
	assert.Equal(t, []string{"b"}, a.Loads[1].Units)
}

func TestDistribute_NoWorkers(t *testing.T) {
	_, err := Distribute(inventoryOf(1), 0)
	assert.ErrorIs(t, err, ErrNoWorkers)
}

func TestDistribute_EmptyInventory(t *testing.T) {
	a, err := Distribute(&Inventory{}, 3)
	require.NoError(t, err)
	for _, l := range a.Loads {
		assert.True(t, l.Idle())
	}
	assert.NoError(t, a.Validate(&Inventory{}))
}

// Every unit lands on exactly one rank, and the spread between the heaviest
// and the lightest rank is bounded by the largest unit.
func TestDistribute_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := rng.Intn(40)
		sizes := make([]int64, n)
		var largest int64
		for i := range sizes {
			sizes[i] = rng.Int63n(1000)
			if sizes[i] > largest {
				largest = sizes[i]
			}
		}
		workers := 1 + rng.Intn(8)
		inv := inventoryOf(sizes...)

		a, err := Distribute(inv, workers)
		require.NoError(t, err)
		require.NoError(t, a.Validate(inv), "round %d", round)

		var assigned []string
		for _, l := range a.Loads {
			assigned = append(assigned, l.Units...)
		}
		sort.Strings(assigned)
		assert.Equal(t, inv.IDs(), append([]string{}, assigned...), "round %d", round)

		totals := a.Totals()
		sort.Slice(totals, func(i, j int) bool { return totals[i] < totals[j] })
		assert.LessOrEqual(t, totals[len(totals)-1]-totals[0], largest, "round %d", round)
	}
}

func TestAssignment_Validate(t *testing.T) {
	inv := inventoryOf(10, 20)

	tests := []struct {
		name    string
		loads   []Load
		wantErr string
	}{
		{"missing unit", []Load{{Rank: 1, Units: []string{"u00"}, Size: 10}}, `unit "u01" is not assigned`},
		{"duplicate unit", []Load{{Rank: 1, Units: []string{"u00", "u01"}, Size: 30}, {Rank: 2, Units: []string{"u00"}, Size: 10}}, "assigned to ranks 1 and 2"},
		{"unknown unit", []Load{{Rank: 1, Units: []string{"zz"}}}, "unknown unit"},
		{"wrong total", []Load{{Rank: 1, Units: []string{"u00", "u01"}, Size: 5}}, "total is 5"},
		{"wrong rank", []Load{{Rank: 2, Units: []string{"u00", "u01"}, Size: 30}}, "carries rank 2"},
		{"separator in unit", []Load{{Rank: 1, Units: []string{"u00;u01"}, Size: 30}}, "cannot be encoded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Assignment{Loads: tt.loads}).Validate(inv)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
