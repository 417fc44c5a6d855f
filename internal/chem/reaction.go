package chem

// Reaction is an immutable, multi-owned handle to a reaction template with
// a fixed number k ≥ 1 of reactant slots, each slot a sub-structure
// pattern owned by the backend. Reaction carries the reaction_index
// annotation stamped by ReactionList during preprocessing.
type Reaction struct {
	// Payload is the backend-owned reaction template (initialized matchers
	// included).
	Payload any

	// ReactantPatterns holds one sub-structure pattern Molecule per slot,
	// in slot order. len(ReactantPatterns) == NumReactantSlots().
	ReactantPatterns []Molecule

	index    int
	hasIndex bool
}

// NewReaction wraps a backend reaction template and its per-slot reactant
// patterns into a Reaction handle.
func NewReaction(payload any, reactantPatterns []Molecule) Reaction {
	return Reaction{Payload: payload, ReactantPatterns: reactantPatterns}
}

// NumReactantSlots returns k, the number of reactant slots this reaction
// expects.
func (r Reaction) NumReactantSlots() int {
	return len(r.ReactantPatterns)
}

// ReactantPattern returns the sub-structure pattern for slot s.
func (r Reaction) ReactantPattern(s int) Molecule {
	return r.ReactantPatterns[s]
}

// Index returns the reaction_index stamped by ReactionList, and whether it
// has been stamped yet.
func (r Reaction) Index() (int, bool) {
	return r.index, r.hasIndex
}

// WithIndex returns a copy of r stamped with reaction_index = idx.
func (r Reaction) WithIndex(idx int) Reaction {
	out := r
	out.index = idx
	out.hasIndex = true
	return out
}
