package merge

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"eps-prepro/feature/tools"

	mapset "github.com/deckarep/golang-set/v2"
)

// Deaccumulate turns the cumulative hours top..0 in dir into per-hour values.
// Hours are visited in descending order; each hour h > 0 becomes
// <hh>.deacc.nc = <hh>.nc - <hh-1>.nc and hour 0 keeps 00.nc. The returned
// files are in the same descending order.
func Deaccumulate(ctx context.Context, adapter tools.Adapter, dir string, top int) ([]string, error) {
	if top < 0 {
		return nil, nil
	}
	hours := make([]int, 0, top+1)
	for h := top; h >= 0; h-- {
		hours = append(hours, h)
	}

	files := make([]string, 0, len(hours))
	for i := 0; i < len(hours)-1; i++ {
		current, previous := hours[i], hours[i+1]
		out := filepath.Join(dir, DeaccFileName(current))
		err := adapter.Subtract(ctx,
			filepath.Join(dir, ScratchFileName(current)),
			filepath.Join(dir, ScratchFileName(previous)),
			out)
		if err != nil {
			return nil, err
		}
		files = append(files, out)
	}
	return append(files, filepath.Join(dir, ScratchFileName(0))), nil
}

// Substitution is the merge input of an incomplete run.
type Substitution struct {
	// Files is the ordered merge input.
	Files []string
	// Placeholders lists the hours filled from the missing template, descending.
	Placeholders []int
	// BreakHour is the last hour of the contiguous run of real data from 0.
	BreakHour int
}

// SubstituteMissing builds the merge input for hours 0..max of an incomplete
// run whose available hours are copied to dir as <hh>.nc.
//
// With deaccumulation the real data can only be used up to the break hour:
// hours b..0 are deaccumulated and every hour after b becomes a placeholder,
// even if a file for it exists. Without deaccumulation real files are kept
// and only absent hours get a placeholder.
func SubstituteMissing(ctx context.Context, adapter tools.Adapter, dir string, hours mapset.Set[int], max int,
	deaccumulate bool, template string, runStart time.Time) (*Substitution, error) {

	sub := &Substitution{BreakHour: BreakHour(hours)}

	placeholder := func(h int) (string, error) {
		out := filepath.Join(dir, ScratchFileName(h))
		if err := adapter.EditMetadata(ctx, template, out, tools.SetTime(h, runStart)); err != nil {
			return "", err
		}
		sub.Placeholders = append(sub.Placeholders, h)
		return out, nil
	}

	if deaccumulate {
		b := sub.BreakHour
		if b > max {
			b = max
			sub.BreakHour = max
		}
		files, err := Deaccumulate(ctx, adapter, dir, b)
		if err != nil {
			return nil, err
		}
		sub.Files = files
		for h := max; h > b; h-- {
			out, err := placeholder(h)
			if err != nil {
				return nil, err
			}
			sub.Files = append(sub.Files, out)
		}
		return sub, nil
	}

	for h := max; h >= 0; h-- {
		if hours.Contains(h) {
			sub.Files = append(sub.Files, filepath.Join(dir, ScratchFileName(h)))
			continue
		}
		out, err := placeholder(h)
		if err != nil {
			return nil, err
		}
		sub.Files = append(sub.Files, out)
	}
	return sub, nil
}

// CompleteInput is the merge input of a complete run, descending from max.
func CompleteInput(ctx context.Context, adapter tools.Adapter, dir string, max int, deaccumulate bool) ([]string, error) {
	if deaccumulate {
		return Deaccumulate(ctx, adapter, dir, max)
	}
	files := make([]string, 0, max+1)
	for h := max; h >= 0; h-- {
		files = append(files, filepath.Join(dir, ScratchFileName(h)))
	}
	return files, nil
}

func describeHours(hours mapset.Set[int]) string {
	return fmt.Sprint(SortedHours(hours))
}
