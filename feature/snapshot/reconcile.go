package snapshot

import (
	"roleboard/core/reconcile"
)

// blobAdapter keys blobs by role id and compares them structurally.
type blobAdapter struct{}

func (blobAdapter) Key(b Blob) string { return b.RoleID() }

func (blobAdapter) Equal(stored, incoming Blob) bool { return stored.Equal(incoming) }

// PlanRefresh diffs freshly fetched blobs against the account's stored blobs.
// A refresh of every character uses Full mode: stored characters still on the
// account's roster are carried, so a failed fetch or a showcase-only view
// removes nothing. A targeted refresh uses Partial mode so untouched
// characters survive. In both modes a fetched variant evicts its siblings.
func PlanRefresh(stored map[string]Blob, incoming []Blob, sel Selection, variantGroups [][]string, roster []string) *reconcile.Plan[string, Blob] {
	opts := reconcile.Options[string]{
		Mode:          reconcile.Full,
		VariantGroups: variantGroups,
	}
	if !sel.All() {
		opts.Mode = reconcile.Partial
	} else if len(roster) > 0 {
		opts.Retain = make(map[string]struct{}, len(roster))
		for _, id := range roster {
			opts.Retain[id] = struct{}{}
		}
	}
	return reconcile.Diff(stored, incoming, blobAdapter{}, opts)
}
