package reconcile

import (
	"cmp"
	"context"
	"fmt"
)

// Mutator applies planned actions to a store.
type Mutator[K cmp.Ordered, V any] interface {
	Insert(ctx context.Context, item V) error
	Update(ctx context.Context, item V) error
	Remove(ctx context.Context, key K) error
}

// BatchRemover is implemented by mutators that can delete many keys at once.
type BatchRemover[K cmp.Ordered] interface {
	RemoveBatch(ctx context.Context, keys []K) error
}

// ApplyPlan executes the actions in a plan. Removals run first so a store
// with secondary uniqueness never sees both old and new rows.
// Returns the number of actions executed.
func ApplyPlan[K cmp.Ordered, V any](ctx context.Context, plan *Plan[K, V], m Mutator[K, V]) (executed int, err error) {
	if len(plan.ToRemove) > 0 {
		if batch, ok := m.(BatchRemover[K]); ok {
			if err := batch.RemoveBatch(ctx, plan.ToRemove); err != nil {
				return executed, fmt.Errorf("failed to batch remove keys: %w", err)
			}
			executed += len(plan.ToRemove)
		} else {
			for _, key := range plan.ToRemove {
				if err := m.Remove(ctx, key); err != nil {
					return executed, fmt.Errorf("failed to remove key %v: %w", key, err)
				}
				executed++
			}
		}
	}

	for _, action := range plan.Actions {
		switch action.Type {
		case ActionInsert:
			if err := m.Insert(ctx, action.Item); err != nil {
				return executed, fmt.Errorf("failed to insert key %v: %w", action.Key, err)
			}
		case ActionUpdate:
			if err := m.Update(ctx, action.Item); err != nil {
				return executed, fmt.Errorf("failed to update key %v: %w", action.Key, err)
			}
		default:
			continue
		}
		executed++
	}

	return executed, nil
}
