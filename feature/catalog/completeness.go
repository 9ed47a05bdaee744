package catalog

import (
	"path"
	"sort"
	"time"
)

// RunCount is the number of member outputs found for one model run of one
// output directory.
type RunCount struct {
	Dir      string
	RunStart time.Time
	Members  int
}

// IncompleteRuns groups output keys by output directory and run start and
// returns the runs that do not have exactly members outputs. Keys that are
// not merged outputs are ignored.
func IncompleteRuns(keys []string, members int) []RunCount {
	type group struct {
		dir string
		run time.Time
	}
	counts := make(map[group]int)
	for _, key := range keys {
		info, err := ParseOutputKey(key)
		if err != nil {
			continue
		}
		counts[group{dir: path.Dir(key), run: info.Run.RunStart}]++
	}

	var out []RunCount
	for g, n := range counts {
		if n != members {
			out = append(out, RunCount{Dir: g.dir, RunStart: g.run, Members: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dir != out[j].Dir {
			return out[i].Dir < out[j].Dir
		}
		return out[i].RunStart.Before(out[j].RunStart)
	})
	return out
}
