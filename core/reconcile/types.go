package reconcile

import "cmp"

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionInsert adds an entity that has no stored counterpart.
	ActionInsert ActionType = "insert"
	// ActionUpdate rewrites a stored entity whose content changed.
	ActionUpdate ActionType = "update"
	// ActionRemove deletes a stored entity absent from the incoming set.
	ActionRemove ActionType = "remove"
)

// Mode controls how stored entities missing from the incoming set are treated.
type Mode int

const (
	// Full makes the stored set equal the incoming set plus any retained keys.
	Full Mode = iota
	// Partial keeps stored entities the incoming set does not mention,
	// except members of a variant group the incoming set touches.
	Partial
)

func (m Mode) String() string {
	if m == Partial {
		return "partial"
	}
	return "full"
}

// Adapter supplies the model-specific parts of a diff.
type Adapter[K cmp.Ordered, V any] interface {
	// Key extracts the identity of an entity.
	Key(item V) K
	// Equal reports whether a stored and an incoming entity carry the same content.
	Equal(stored, incoming V) bool
}

// Options controls a reconciliation.
type Options[K cmp.Ordered] struct {
	Mode Mode
	// VariantGroups lists keys that are mutually exclusive forms of the same
	// entity. In Partial mode, seeing one member in the incoming set removes
	// the stored siblings.
	VariantGroups [][]K
	// Retain lists keys a Full reconciliation carries when they are absent
	// from the incoming set, unless a touched variant group supersedes them.
	Retain map[K]struct{}
}

// Action represents a planned mutation operation.
type Action[K cmp.Ordered, V any] struct {
	Type   ActionType `json:"type"`
	Key    K          `json:"key"`
	Reason string     `json:"reason"`
	// Item is the incoming entity for insert and update actions.
	Item V `json:"-"`
}

// Summary provides aggregate counts for a plan.
type Summary struct {
	Incoming  int `json:"incoming"`
	Existing  int `json:"existing"`
	Inserts   int `json:"inserts"`
	Updates   int `json:"updates"`
	Unchanged int `json:"unchanged"`
	Removals  int `json:"removals"`
	CarriedOn int `json:"carried_on"`
}

// Plan is the three-way partition of an incoming set against a stored set.
type Plan[K cmp.Ordered, V any] struct {
	// Incoming holds the incoming entities deduplicated by key, in first-seen
	// order. A later duplicate replaces the earlier value.
	Incoming []V
	// ToInsert holds incoming entities with no stored counterpart.
	ToInsert []V
	// ToUpdate holds incoming entities whose stored counterpart differs.
	ToUpdate []V
	// Unchanged holds incoming entities equal to their stored counterpart.
	Unchanged []V
	// Carried holds stored entities kept as-is: every untouched absent key in
	// Partial mode, retained absent keys in Full mode.
	Carried []V
	// ToRemove holds stored keys that must be deleted, sorted.
	ToRemove []K

	Actions []Action[K, V]
	Summary Summary
}

// Final returns the entity list that should be stored once the plan is applied,
// in incoming order followed by carried entities.
func (p *Plan[K, V]) Final() []V {
	out := make([]V, 0, len(p.Incoming)+len(p.Carried))
	out = append(out, p.Incoming...)
	out = append(out, p.Carried...)
	return out
}

// Changed returns the entities that need fresh derived values (inserts and updates).
func (p *Plan[K, V]) Changed() []V {
	out := make([]V, 0, len(p.ToInsert)+len(p.ToUpdate))
	out = append(out, p.ToInsert...)
	out = append(out, p.ToUpdate...)
	return out
}

// Empty reports whether applying the plan would change nothing.
func (p *Plan[K, V]) Empty() bool {
	return len(p.ToInsert) == 0 && len(p.ToUpdate) == 0 && len(p.ToRemove) == 0
}
