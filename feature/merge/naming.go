package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RunLayout formats a run start inside file names (YYYYMMDD-HH).
const RunLayout = "20060102-15"

// ModelRun identifies one forecast: a run start and an ensemble member.
type ModelRun struct {
	RunStart time.Time
	Member   int
}

func (r ModelRun) String() string {
	return fmt.Sprintf("%s.m%02d", r.RunStart.Format(RunLayout), r.Member)
}

// HourFileName is the per-hour file of a run: time:<YYYYMMDD-HH>.<hh>.m<MM>.nc
func HourFileName(run ModelRun, hour int) string {
	return fmt.Sprintf("time:%s.%02d.m%02d.nc", run.RunStart.Format(RunLayout), hour, run.Member)
}

// MergedFileName is the merged output of a run: processed:<YYYYMMDD-HH>.m<MM>.nc
func MergedFileName(run ModelRun) string {
	return fmt.Sprintf("processed:%s.m%02d.nc", run.RunStart.Format(RunLayout), run.Member)
}

// ScratchFileName is the name of an hour inside the scratch directory.
func ScratchFileName(hour int) string {
	return fmt.Sprintf("%02d.nc", hour)
}

// DeaccFileName is the deaccumulated version of an hour in the scratch directory.
func DeaccFileName(hour int) string {
	return fmt.Sprintf("%02d.deacc.nc", hour)
}

// ParseHourFile extracts the run and forecast hour from a per-hour file name.
func ParseHourFile(name string) (ModelRun, int, bool) {
	rest, ok := strings.CutPrefix(filepath.Base(name), "time:")
	if !ok {
		return ModelRun{}, 0, false
	}
	rest, ok = strings.CutSuffix(rest, ".nc")
	if !ok {
		return ModelRun{}, 0, false
	}
	parts := strings.Split(rest, ".")
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "m") {
		return ModelRun{}, 0, false
	}
	start, err := time.Parse(RunLayout, parts[0])
	if err != nil {
		return ModelRun{}, 0, false
	}
	hour, err := strconv.Atoi(parts[1])
	if err != nil || hour < 0 {
		return ModelRun{}, 0, false
	}
	member, err := strconv.Atoi(parts[2][1:])
	if err != nil || member < 0 {
		return ModelRun{}, 0, false
	}
	return ModelRun{RunStart: start, Member: member}, hour, true
}

// ParseMergedFile extracts the run from a merged output file name.
func ParseMergedFile(name string) (ModelRun, bool) {
	rest, ok := strings.CutPrefix(filepath.Base(name), "processed:")
	if !ok {
		return ModelRun{}, false
	}
	rest, ok = strings.CutSuffix(rest, ".nc")
	if !ok {
		return ModelRun{}, false
	}
	runPart, memberPart, ok := strings.Cut(rest, ".m")
	if !ok {
		return ModelRun{}, false
	}
	start, err := time.Parse(RunLayout, runPart)
	if err != nil {
		return ModelRun{}, false
	}
	member, err := strconv.Atoi(memberPart)
	if err != nil || member < 0 {
		return ModelRun{}, false
	}
	return ModelRun{RunStart: start, Member: member}, true
}

// DiscoverRuns lists the model runs that have per-hour files in varDir,
// ordered by run start then member. A missing directory has no runs.
func DiscoverRuns(varDir string) ([]ModelRun, error) {
	entries, err := os.ReadDir(varDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", varDir, err)
	}
	seen := make(map[ModelRun]struct{})
	var runs []ModelRun
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		run, _, ok := ParseHourFile(e.Name())
		if !ok {
			continue
		}
		if _, dup := seen[run]; dup {
			continue
		}
		seen[run] = struct{}{}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].RunStart.Equal(runs[j].RunStart) {
			return runs[i].RunStart.Before(runs[j].RunStart)
		}
		return runs[i].Member < runs[j].Member
	})
	return runs, nil
}

// HourFiles maps forecast hour to per-hour file path for one run in varDir.
func HourFiles(varDir string, run ModelRun) (map[int]string, error) {
	pattern := filepath.Join(varDir, fmt.Sprintf("time:%s.*.m%02d.nc", run.RunStart.Format(RunLayout), run.Member))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	files := make(map[int]string, len(matches))
	for _, m := range matches {
		r, hour, ok := ParseHourFile(m)
		if !ok || r.Member != run.Member || !r.RunStart.Equal(run.RunStart) {
			continue
		}
		files[hour] = m
	}
	return files, nil
}
