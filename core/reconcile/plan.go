package reconcile

import (
	"cmp"
	"slices"
)

// Diff partitions incoming against the stored set in a single pass.
// It performs no I/O; stored is typically loaded with one query per account.
func Diff[K cmp.Ordered, V any](stored map[K]V, incoming []V, adapter Adapter[K, V], opts Options[K]) *Plan[K, V] {
	plan := &Plan[K, V]{}

	index := make(map[K]int, len(incoming))
	for _, item := range incoming {
		key := adapter.Key(item)
		if i, dup := index[key]; dup {
			plan.Incoming[i] = item
			continue
		}
		index[key] = len(plan.Incoming)
		plan.Incoming = append(plan.Incoming, item)
	}

	for _, item := range plan.Incoming {
		key := adapter.Key(item)
		old, exists := stored[key]
		switch {
		case !exists:
			plan.ToInsert = append(plan.ToInsert, item)
			plan.Actions = append(plan.Actions, Action[K, V]{Type: ActionInsert, Key: key, Reason: "new", Item: item})
		case !adapter.Equal(old, item):
			plan.ToUpdate = append(plan.ToUpdate, item)
			plan.Actions = append(plan.Actions, Action[K, V]{Type: ActionUpdate, Key: key, Reason: "changed", Item: item})
		default:
			plan.Unchanged = append(plan.Unchanged, item)
		}
	}

	touched := touchedVariants(index, opts.VariantGroups)

	absent := make([]K, 0)
	for key := range stored {
		if _, ok := index[key]; !ok {
			absent = append(absent, key)
		}
	}
	slices.Sort(absent)

	for _, key := range absent {
		_, superseded := touched[key]
		_, retained := opts.Retain[key]
		if !superseded && (opts.Mode == Partial || retained) {
			plan.Carried = append(plan.Carried, stored[key])
			continue
		}
		reason := "absent from incoming set"
		if superseded {
			reason = "superseded variant"
		}
		plan.ToRemove = append(plan.ToRemove, key)
		plan.Actions = append(plan.Actions, Action[K, V]{Type: ActionRemove, Key: key, Reason: reason})
	}

	plan.Summary = Summary{
		Incoming:  len(plan.Incoming),
		Existing:  len(stored),
		Inserts:   len(plan.ToInsert),
		Updates:   len(plan.ToUpdate),
		Unchanged: len(plan.Unchanged),
		Removals:  len(plan.ToRemove),
		CarriedOn: len(plan.Carried),
	}

	return plan
}

// touchedVariants returns every member of a variant group that has at least
// one member present in the incoming index.
func touchedVariants[K cmp.Ordered](index map[K]int, groups [][]K) map[K]struct{} {
	out := make(map[K]struct{})
	for _, group := range groups {
		hit := false
		for _, key := range group {
			if _, ok := index[key]; ok {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		for _, key := range group {
			out[key] = struct{}{}
		}
	}
	return out
}
