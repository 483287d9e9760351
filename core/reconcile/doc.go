// Package reconcile computes and applies three-way diffs between an incoming
// entity list and a stored set.
//
// Diff is pure: it partitions the incoming list into inserts, updates and
// unchanged entities, and the stored set into removals or carried entities. Adapters supply the key and the equality check.
//
//	plan := reconcile.Diff(stored, incoming, adapter, reconcile.Options[string]{Mode: reconcile.Full})
//	for _, item := range plan.Changed() {
//	    // recompute derived values
//	}
//	executed, err := reconcile.ApplyPlan(ctx, plan, mutator)
//
// # Modes
//
// Full: every stored key absent from the incoming list is removed, so the
// stored set ends up exactly equal to the incoming one. Keys in
// Options.Retain are carried instead, unless a touched variant group
// supersedes them.
//
// Partial: absent keys are carried over. Keys listed in a variant group are
// the exception: once any member of the group is present in the incoming
// list, the other stored members are removed.
//
// Mutators that also implement BatchRemover get all removals in one call.
package reconcile
