package inventory

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNoWorkers is returned when the pool has no worker besides the coordinator.
var ErrNoWorkers = errors.New("at least one worker is required")

// Load is the work assigned to one worker rank.
type Load struct {
	Rank  int      `json:"rank"`
	Units []string `json:"units"`
	Size  int64    `json:"size"`
}

// Idle reports whether the rank received no unit.
func (l Load) Idle() bool {
	return len(l.Units) == 0
}

// Assignment maps worker ranks 1..W to their units.
type Assignment struct {
	// Loads holds one entry per worker, Loads[i].Rank == i+1.
	Loads []Load `json:"loads"`
}

// Workers returns W.
func (a *Assignment) Workers() int {
	return len(a.Loads)
}

// For returns the load of a worker rank.
func (a *Assignment) For(rank int) (Load, error) {
	if rank < 1 || rank > len(a.Loads) {
		return Load{}, fmt.Errorf("rank %d outside 1..%d", rank, len(a.Loads))
	}
	return a.Loads[rank-1], nil
}

// Totals returns the cumulative size per rank in rank order.
func (a *Assignment) Totals() []int64 {
	totals := make([]int64, len(a.Loads))
	for i, l := range a.Loads {
		totals[i] = l.Size
	}
	return totals
}

// Distribute balances the units over workers greedily: units are taken by
// size descending (ties by ID) and each goes to the rank with the smallest
// cumulative size (ties by lowest rank).
func Distribute(inv *Inventory, workers int) (*Assignment, error) {
	if workers < 1 {
		return nil, ErrNoWorkers
	}

	units := make([]Unit, len(inv.Units))
	copy(units, inv.Units)
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Size != units[j].Size {
			return units[i].Size > units[j].Size
		}
		return units[i].ID < units[j].ID
	})

	a := &Assignment{Loads: make([]Load, workers)}
	for i := range a.Loads {
		a.Loads[i] = Load{Rank: i + 1, Units: []string{}}
	}

	for _, u := range units {
		target := 0
		for i := 1; i < workers; i++ {
			if a.Loads[i].Size < a.Loads[target].Size {
				target = i
			}
		}
		a.Loads[target].Units = append(a.Loads[target].Units, u.ID)
		a.Loads[target].Size += u.Size
	}
	return a, nil
}

// Validate checks that the assignment partitions the inventory exactly:
// every unit is assigned to one rank, and nothing else is assigned.
func (a *Assignment) Validate(inv *Inventory) error {
	owner := make(map[string]int, len(inv.Units))
	for i, l := range a.Loads {
		if l.Rank != i+1 {
			return fmt.Errorf("load %d carries rank %d", i, l.Rank)
		}
		var size int64
		for _, id := range l.Units {
			if !ValidID(id) {
				return fmt.Errorf("rank %d holds unit %q that cannot be encoded", l.Rank, id)
			}
			u, ok := inv.Unit(id)
			if !ok {
				return fmt.Errorf("rank %d holds unknown unit %q", l.Rank, id)
			}
			if prev, dup := owner[id]; dup {
				return fmt.Errorf("unit %q assigned to ranks %d and %d", id, prev, l.Rank)
			}
			owner[id] = l.Rank
			size += u.Size
		}
		if size != l.Size {
			return fmt.Errorf("rank %d total is %d, units sum to %d", l.Rank, l.Size, size)
		}
	}
	for _, u := range inv.Units {
		if _, ok := owner[u.ID]; !ok {
			return fmt.Errorf("unit %q is not assigned", u.ID)
		}
	}
	return nil
}
