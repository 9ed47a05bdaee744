package merge

import (
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Regime classifies the set of available forecast hours of a run.
type Regime int

const (
	RegimeIncomplete Regime = iota
	RegimeComplete21
	RegimeComplete24
)

func (r Regime) String() string {
	switch r {
	case RegimeComplete24:
		return "complete-24"
	case RegimeComplete21:
		return "complete-21"
	default:
		return "incomplete"
	}
}

// Complete reports whether no hour needs a placeholder.
func (r Regime) Complete() bool {
	return r != RegimeIncomplete
}

// ArchiveCutover is the day from which the archive keeps 25 forecast hours
// (0..24). Earlier runs only have hours 0..21. Classification never depends
// on it; it only tells whether a short run is expected.
var ArchiveCutover = time.Date(2013, 3, 5, 0, 0, 0, 0, time.UTC)

// ExpectedMaxHour is the last forecast hour the archive should hold for a run.
func ExpectedMaxHour(runStart time.Time) int {
	if runStart.Before(ArchiveCutover) {
		return 21
	}
	return 24
}

// HourRange returns the set {0..max}.
func HourRange(max int) mapset.Set[int] {
	s := mapset.NewSetWithSize[int](max + 1)
	for h := 0; h <= max; h++ {
		s.Add(h)
	}
	return s
}

// Classify picks the regime and the last hour of the merged series.
// Exactly {0..24} is complete-24, exactly {0..21} is complete-21. Anything
// else is incomplete, ending at 24 when the highest available hour is
// within 21..24 and at 21 otherwise.
func Classify(hours mapset.Set[int]) (Regime, int) {
	if hours.Equal(HourRange(24)) {
		return RegimeComplete24, 24
	}
	if hours.Equal(HourRange(21)) {
		return RegimeComplete21, 21
	}
	if top, ok := maxHour(hours); ok && top >= 21 && top <= 24 {
		return RegimeIncomplete, 24
	}
	return RegimeIncomplete, 21
}

// BreakHour is the largest b such that every hour 0..b is available,
// or -1 when hour 0 is missing.
func BreakHour(hours mapset.Set[int]) int {
	b := -1
	for hours.Contains(b + 1) {
		b++
	}
	return b
}

// Missing lists the hours of 0..max that are not available, descending.
func Missing(hours mapset.Set[int], max int) []int {
	var missing []int
	for h := max; h >= 0; h-- {
		if !hours.Contains(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// SortedHours returns the set as an ascending slice.
func SortedHours(hours mapset.Set[int]) []int {
	out := hours.ToSlice()
	sort.Ints(out)
	return out
}

func maxHour(hours mapset.Set[int]) (int, bool) {
	if hours.Cardinality() == 0 {
		return 0, false
	}
	top := -1
	hours.Each(func(h int) bool {
		if h > top {
			top = h
		}
		return false
	})
	return top, true
}
