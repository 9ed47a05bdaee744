package reconcile

import (
	"context"
	"fmt"
	"strings"
)

// ReconcileWithPlan performs reconciliation and returns a plan with results and actions.
// It does NOT execute actions; use ApplyPlan for that.
func ReconcileWithPlan(ctx context.Context, sources Sources, opts Options) (*Plan, error) {
	results, err := ReconcileAll(ctx, sources)
	if err != nil {
		return nil, err
	}

	checked := sources.Checked()
	summary, actions := buildPlanFromResults(results, checked, opts)
	return &Plan{
		Checked: checked,
		Results: results,
		Actions: actions,
		Summary: summary,
	}, nil
}

// ApplyPlan executes the actions in a plan.
// Returns the number of actions executed and the first error encountered.
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
func ApplyPlan(ctx context.Context, mutator Mutator, plan *Plan, opts Options) (executed int, err error) {
	if !opts.Confirmed || opts.DryRun {
		return 0, nil
	}

	for _, action := range plan.Actions {
		if err := ctx.Err(); err != nil {
			return executed, err
		}
		switch action.Type {
		case ActionDeleteCatalog:
			err = mutator.DeleteCatalog(ctx, action.Key)
		case ActionDeleteStorage:
			err = mutator.DeleteStorage(ctx, action.Key)
		case ActionRecord:
			err = mutator.Record(ctx, action.Key)
		case ActionUpload:
			err = mutator.Upload(ctx, action.Key)
		default:
			err = fmt.Errorf("unknown action type %q", action.Type)
		}
		if err != nil {
			return executed, fmt.Errorf("failed to %s %s: %w", action.Type, action.Key, err)
		}
		executed++
	}
	return executed, nil
}

// ReconcileAndApply plans and optionally applies actions.
func ReconcileAndApply(ctx context.Context, sources Sources, mutator Mutator, opts Options) (*Plan, int, error) {
	plan, err := ReconcileWithPlan(ctx, sources, opts)
	if err != nil {
		return nil, 0, err
	}
	executed, err := ApplyPlan(ctx, mutator, plan, opts)
	return plan, executed, err
}

// buildPlanFromResults generates a summary and action plan from results.
// The local destination is the reference: purging removes what has no local
// output, repairing copies local outputs to the sources missing them.
func buildPlanFromResults(results []Result, checked Checked, opts Options) (Summary, []Action) {
	var summary Summary
	var actions []Action

	summary.TotalItems = len(results)

	for _, result := range results {
		if checked.Local && !result.LocalPresent {
			summary.MissingLocal++
		}
		if checked.Catalog && !result.CatalogPresent {
			summary.MissingCatalog++
		}
		if checked.Storage && !result.StoragePresent {
			summary.MissingStorage++
		}
		if len(result.Mismatch) > 0 {
			summary.Mismatches++
		}

		reason := missingReason(result, checked)

		if opts.DoPurge && checked.Local && !result.LocalPresent {
			if result.CatalogPresent {
				actions = append(actions, Action{Type: ActionDeleteCatalog, Key: result.Key, Reason: reason})
				summary.PurgeActions++
			}
			if result.StoragePresent {
				actions = append(actions, Action{Type: ActionDeleteStorage, Key: result.Key, Reason: reason})
				summary.PurgeActions++
			}
			continue
		}

		if opts.DoRepair && result.LocalPresent {
			// Upload first so the recorded row can carry the object key.
			if checked.Storage && (!result.StoragePresent || hasMismatch(result, SourceStorage)) {
				actions = append(actions, Action{Type: ActionUpload, Key: result.Key, Reason: reason})
				summary.RepairActions++
			}
			if checked.Catalog && (!result.CatalogPresent || hasMismatch(result, SourceCatalog)) {
				actions = append(actions, Action{Type: ActionRecord, Key: result.Key, Reason: reason})
				summary.RepairActions++
			}
		}
	}

	return summary, actions
}

func hasMismatch(result Result, source string) bool {
	for _, m := range result.Mismatch {
		if strings.Contains(m, "local=") && strings.Contains(m, source+"=") {
			return true
		}
	}
	return false
}

// missingReason builds a reason string for a planned action.
func missingReason(result Result, checked Checked) string {
	missing := result.Missing(checked)
	if len(missing) == 0 {
		if len(result.Mismatch) > 0 {
			return "mismatch: " + strings.Join(result.Mismatch, ", ")
		}
		return "complete"
	}
	return fmt.Sprintf("missing in: %v", missing)
}
