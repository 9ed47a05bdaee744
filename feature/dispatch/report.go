package dispatch

import (
	"fmt"
	"strings"
)

// UnitReport is the outcome of one unit on a worker.
type UnitReport struct {
	Unit      string   `json:"unit"`
	HourFiles int      `json:"hour_files"`
	Merges    int      `json:"merges"`
	Outputs   int      `json:"outputs"`
	Failures  []string `json:"failures,omitempty"`
}

// Failed reports whether anything in the unit failed.
func (u UnitReport) Failed() bool {
	return len(u.Failures) > 0
}

// Report is the consolidated outcome of one worker.
type Report struct {
	Rank  int          `json:"rank"`
	Idle  bool         `json:"idle"`
	Units []UnitReport `json:"units,omitempty"`
}

// Failures counts the failures over all units.
func (r *Report) Failures() int {
	n := 0
	for _, u := range r.Units {
		n += len(u.Failures)
	}
	return n
}

// String renders the report text sent to the coordinator.
func (r *Report) String() string {
	if r.Idle {
		return fmt.Sprintf("Processor : %d is idle", r.Rank)
	}
	var b strings.Builder
	for i, u := range r.Units {
		if i > 0 {
			b.WriteString("\n")
		}
		status := "ok"
		if u.Failed() {
			status = "failed"
		}
		fmt.Fprintf(&b, "Processor %d: unit %s %s: %d hour files, %d merges, %d outputs",
			r.Rank, u.Unit, status, u.HourFiles, u.Merges, u.Outputs)
		for _, f := range u.Failures {
			fmt.Fprintf(&b, "\n  %s", f)
		}
	}
	return b.String()
}
