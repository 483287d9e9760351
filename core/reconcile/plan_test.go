package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type entry struct {
	ID   string
	Body string
}

type entryAdapter struct{}

func (entryAdapter) Key(e entry) string    { return e.ID }
func (entryAdapter) Equal(a, b entry) bool { return a.Body == b.Body }

func storedSet(entries ...entry) map[string]entry {
	out := make(map[string]entry, len(entries))
	for _, e := range entries {
		out[e.ID] = e
	}
	return out
}

func keys(entries []entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestDiff_FullMode(t *testing.T) {
	stored := storedSet(
		entry{"1", "a"},
		entry{"2", "b"},
		entry{"3", "c"},
	)
	incoming := []entry{
		{"2", "b"},
		{"3", "changed"},
		{"4", "d"},
	}

	plan := Diff(stored, incoming, entryAdapter{}, Options[string]{Mode: Full})

	assert.Equal(t, []string{"4"}, keys(plan.ToInsert))
	assert.Equal(t, []string{"3"}, keys(plan.ToUpdate))
	assert.Equal(t, []string{"2"}, keys(plan.Unchanged))
	assert.Equal(t, []string{"1"}, plan.ToRemove)
	assert.Empty(t, plan.Carried)

	assert.Equal(t, []string{"2", "3", "4"}, keys(plan.Final()))
	assert.ElementsMatch(t, []string{"3", "4"}, keys(plan.Changed()))

	assert.Equal(t, Summary{Incoming: 3, Existing: 3, Inserts: 1, Updates: 1, Unchanged: 1, Removals: 1}, plan.Summary)
	assert.False(t, plan.Empty())
}

func TestDiff_FinalEqualsIncomingSet(t *testing.T) {
	tests := []struct {
		name     string
		stored   map[string]entry
		incoming []entry
	}{
		{"Empty Store", storedSet(), []entry{{"1", "a"}, {"2", "b"}}},
		{"Empty Incoming", storedSet(entry{"1", "a"}), nil},
		{"Disjoint", storedSet(entry{"1", "a"}), []entry{{"2", "b"}}},
		{"Identical", storedSet(entry{"1", "a"}), []entry{{"1", "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Diff(tt.stored, tt.incoming, entryAdapter{}, Options[string]{})
			assert.ElementsMatch(t, keys(tt.incoming), keys(plan.Final()))
		})
	}
}

func TestDiff_DuplicateIncomingKeepsLast(t *testing.T) {
	plan := Diff(storedSet(), []entry{{"1", "a"}, {"2", "b"}, {"1", "z"}}, entryAdapter{}, Options[string]{})

	assert.Equal(t, []entry{{"1", "z"}, {"2", "b"}}, plan.Incoming)
	assert.Len(t, plan.ToInsert, 2)
}

func TestDiff_IdempotentAfterApply(t *testing.T) {
	incoming := []entry{{"1", "a"}, {"2", "b"}}
	plan := Diff(storedSet(entry{"3", "c"}), incoming, entryAdapter{}, Options[string]{})

	second := Diff(storedSet(plan.Final()...), incoming, entryAdapter{}, Options[string]{})
	assert.True(t, second.Empty())
	assert.Len(t, second.Unchanged, 2)
}

func TestDiff_PartialModeCarriesAbsent(t *testing.T) {
	stored := storedSet(
		entry{"1", "a"},
		entry{"2", "b"},
	)
	plan := Diff(stored, []entry{{"2", "new"}}, entryAdapter{}, Options[string]{Mode: Partial})

	assert.Empty(t, plan.ToRemove)
	assert.Equal(t, []string{"1"}, keys(plan.Carried))
	assert.ElementsMatch(t, []string{"1", "2"}, keys(plan.Final()))
	assert.Equal(t, 1, plan.Summary.CarriedOn)
}

func TestDiff_PartialModeVariantGroups(t *testing.T) {
	groups := [][]string{{"1501", "1502", "1604", "1605"}}
	stored := storedSet(
		entry{"1501", "spectro"},
		entry{"1604", "havoc"},
		entry{"1203", "other"},
	)

	tests := []struct {
		name        string
		incoming    []entry
		wantRemove  []string
		wantCarried []string
	}{
		{
			name:        "Variant Seen",
			incoming:    []entry{{"1502", "aero"}},
			wantRemove:  []string{"1501", "1604"},
			wantCarried: []string{"1203"},
		},
		{
			name:        "Variant Not Seen",
			incoming:    []entry{{"1203", "other"}},
			wantRemove:  []string{},
			wantCarried: []string{"1501", "1604"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Diff(stored, tt.incoming, entryAdapter{}, Options[string]{Mode: Partial, VariantGroups: groups})
			assert.ElementsMatch(t, tt.wantRemove, plan.ToRemove)
			assert.ElementsMatch(t, tt.wantCarried, keys(plan.Carried))
		})
	}
}

func TestDiff_FullModeRetain(t *testing.T) {
	groups := [][]string{{"1501", "1604"}}
	stored := storedSet(
		entry{"1", "a"},
		entry{"2", "b"},
		entry{"3", "c"},
		entry{"1501", "spectro"},
	)
	retain := map[string]struct{}{"2": {}, "1501": {}, "9": {}}

	plan := Diff(stored, []entry{{"3", "c"}, {"1604", "havoc"}}, entryAdapter{}, Options[string]{
		Mode:          Full,
		VariantGroups: groups,
		Retain:        retain,
	})

	assert.Equal(t, []string{"1", "1501"}, plan.ToRemove)
	assert.Equal(t, []string{"2"}, keys(plan.Carried))
	assert.Equal(t, []string{"3", "1604", "2"}, keys(plan.Final()))

	reasons := make(map[string]string)
	for _, a := range plan.Actions {
		if a.Type == ActionRemove {
			reasons[a.Key] = a.Reason
		}
	}
	assert.Equal(t, map[string]string{"1": "absent from incoming set", "1501": "superseded variant"}, reasons)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "full", Full.String())
	assert.Equal(t, "partial", Partial.String())
}
