// Package reconcile compares three views of the merged outputs of a job: the
// files in the destination tree, the rows of the output catalog and the
// objects in storage.
//
// Every source is loaded once, concurrently, into an in-memory index keyed
// by the destination relative path. The union of keys yields one Result per
// output with a presence flag per source and any size mismatch.
//
// # Plans
//
// ReconcileWithPlan turns the results into a Plan. With DoPurge, catalog rows
// and objects whose local output is gone are deleted. With DoRepair, local
// outputs are uploaded and recorded where they are missing. ApplyPlan only
// runs the actions when Confirmed is set and DryRun is not.
//
//	sources := reconcile.Sources{Local: local, Catalog: cat, Storage: store}
//	plan, err := reconcile.ReconcileWithPlan(ctx, sources, opts)
//	executed, err := reconcile.ApplyPlan(ctx, mutator, plan, opts)
//
// A nil source is skipped, so verification works with storage or the
// catalog disabled.
package reconcile
