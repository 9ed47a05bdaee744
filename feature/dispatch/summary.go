package dispatch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Summary is written to <log_dir>/summary_job_<id>.json when a job is done.
type Summary struct {
	JobID           int              `json:"job_id"`
	ExecutionID     string           `json:"execution_id"`
	State           string           `json:"state"`
	Granularity     string           `json:"granularity"`
	Workers         int              `json:"workers"`
	Units           int              `json:"units"`
	TotalSize       int64            `json:"total_size"`
	Assignment      map[int][]string `json:"assignment"`
	Loads           map[int]int64    `json:"loads"`
	Reports         []*Report        `json:"reports"`
	Failures        int              `json:"failures"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	DurationSeconds float64          `json:"duration_seconds"`
}

func (c *Coordinator) summary() *Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.clock.Now()
	s := &Summary{
		JobID:           c.params.JobID,
		ExecutionID:     c.executionID,
		State:           c.state.String(),
		Granularity:     c.params.Granularity.String(),
		Workers:         c.transport.Workers(),
		Units:           len(c.inventory.Units),
		TotalSize:       c.inventory.TotalSize,
		Assignment:      make(map[int][]string),
		Loads:           make(map[int]int64),
		StartedAt:       c.startedAt,
		FinishedAt:      now,
		DurationSeconds: now.Sub(c.startedAt).Seconds(),
	}
	for _, load := range c.assignment.Loads {
		s.Assignment[load.Rank] = load.Units
		s.Loads[load.Rank] = load.Size
	}
	s.Reports = append(s.Reports, c.reports...)
	sort.Slice(s.Reports, func(i, j int) bool { return s.Reports[i].Rank < s.Reports[j].Rank })
	for _, r := range s.Reports {
		s.Failures += r.Failures()
	}
	return s
}

// SummaryPath is the summary file of a job.
func SummaryPath(dir string, jobID int) string {
	return filepath.Join(dir, fmt.Sprintf("summary_job_%d.json", jobID))
}

// WriteSummary stores the summary as indented JSON and returns its path.
func WriteSummary(dir string, s *Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}
	path := SummaryPath(dir, s.JobID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
