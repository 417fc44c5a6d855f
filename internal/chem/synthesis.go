package chem

import (
	"context"
	"fmt"

	"github.com/prexsyn/engine/pkg/errors"
)

// DefaultMaxProducts is the default cap on reaction product enumeration
// per Synthesis.PushReaction call.
const DefaultMaxProducts = 8

// Synthesis pairs a PostfixNotation with the stack of MolSet frames the
// evaluator holds after replaying that program from empty. The
// zero value is the empty Synthesis.
type Synthesis struct {
	postfix PostfixNotation
	stack   []MolSet
}

// NewSynthesis returns an empty Synthesis.
func NewSynthesis() *Synthesis {
	return &Synthesis{}
}

// PostfixNotation returns the program evaluated so far.
func (s *Synthesis) PostfixNotation() PostfixNotation {
	return s.postfix
}

// Stack returns the current stack of MolSet frames. Callers must not mutate
// the returned frames.
func (s *Synthesis) Stack() []MolSet {
	return s.stack
}

// StackSize returns the number of frames currently on the stack.
func (s *Synthesis) StackSize() int {
	return len(s.stack)
}

// IsEmpty reports whether s has neither tokens nor stack frames.
func (s *Synthesis) IsEmpty() bool {
	return s.postfix.Len() == 0 && len(s.stack) == 0
}

// CountReactions returns the number of reaction tokens pushed so far.
func (s *Synthesis) CountReactions() int {
	return s.postfix.CountReactions()
}

// CountBuildingBlocks returns the number of molecule tokens pushed so far.
func (s *Synthesis) CountBuildingBlocks() int {
	return s.postfix.CountBuildingBlocks()
}

// Top returns the index-th frame from the top of the stack (0 = current
// top). index must be < StackSize().
func (s *Synthesis) Top(index int) MolSet {
	return s.stack[len(s.stack)-1-index]
}

// TopSet is a convenience for Top(0), the current product set.
func (s *Synthesis) TopSet() MolSet {
	return s.Top(0)
}

// Clone returns a deep snapshot of s: mutating the clone, or continuing to
// mutate the receiver, never affects the other. SynthesisGenerator.Next
// returns such a snapshot on every call.
func (s *Synthesis) Clone() *Synthesis {
	stack := make([]MolSet, len(s.stack))
	for i, frame := range s.stack {
		stack[i] = frame.Clone()
	}
	return &Synthesis{postfix: s.postfix.clone(), stack: stack}
}

// PushMolecule appends a building-block molecule token and pushes a
// singleton frame holding a defensive copy of m. The copy guards against
// backends whose reaction application mutates the input's property dict
// despite a const-looking contract.
func (s *Synthesis) PushMolecule(m Molecule) {
	s.postfix.AppendMolecule(m)
	s.stack = append(s.stack, MolSet{m.Clone()})
}

// PushSynthesis concatenates other's postfix notation onto s and appends a
// copy of each of other's stack frames. Valid because other is itself a
// valid, already-evaluated program.
func (s *Synthesis) PushSynthesis(other *Synthesis) {
	s.postfix.Extend(other.postfix)
	for _, frame := range other.stack {
		s.stack = append(s.stack, frame.Clone())
	}
}

// PushReaction implements the evaluator step:
//
//  1. Fail if the stack holds fewer than k = r.NumReactantSlots() frames.
//  2. Take the top k frames as the reactant sets.
//  3. For every combination across the Cartesian product of the reactant
//     sets, and every permutation of that combination across the k slots,
//     apply the reaction and sanitize product[0] ("the main product") of
//     each returned group, deduplicating into an accumulator, stopping
//     early once it holds maxProducts distinct products.
//  4. Fail if the accumulator is empty.
//  5. On success, atomically append the reaction token, pop the k frames,
//     and push the accumulator as the new top frame.
//
// PushReaction never partially mutates s: on failure neither the postfix
// notation nor the stack changes.
func (s *Synthesis) PushReaction(ctx context.Context, backend Backend, r Reaction, maxProducts int) error {
	k := r.NumReactantSlots()
	if len(s.stack) < k {
		return errors.New(errors.CodePushReactionError,
			fmt.Sprintf("not enough reactants for reaction: expected %d, got %d", k, len(s.stack)))
	}

	reactantSets := s.stack[len(s.stack)-k:]
	var mainProducts MolSet

	err := forEachCombination(reactantSets, func(combo []Molecule) (stop bool, err error) {
		for _, perm := range permutations(combo) {
			groups, err := backend.ApplyReaction(ctx, r, perm)
			if err != nil {
				return false, errors.Wrap(err, errors.CodePushReactionError, "reaction application failed")
			}
			for _, group := range groups {
				if len(group) == 0 {
					continue
				}
				product, ok, err := backend.Sanitize(ctx, group[0])
				if err != nil {
					return false, errors.Wrap(err, errors.CodePushReactionError, "product sanitization failed")
				}
				if !ok {
					continue
				}
				if !mainProducts.Contains(product) {
					mainProducts = append(mainProducts, product)
					if len(mainProducts) >= maxProducts {
						return true, nil
					}
				}
			}
		}
		return false, nil
	})
	if err != nil {
		return err
	}

	if len(mainProducts) == 0 {
		return errors.New(errors.CodePushReactionError, "no sanitized products generated from the reaction")
	}

	s.postfix.AppendReaction(r)
	s.stack = s.stack[:len(s.stack)-k]
	s.stack = append(s.stack, mainProducts)
	return nil
}

// forEachCombination iterates the Cartesian product of sets (one element
// per set, in order) calling visit on each combination. visit may request
// early termination by returning stop=true (used to implement the
// max_products early-exit of PushReaction).
func forEachCombination(sets []MolSet, visit func(combo []Molecule) (stop bool, err error)) error {
	k := len(sets)
	indices := make([]int, k)
	combo := make([]Molecule, k)
	for {
		for i, set := range sets {
			if len(set) == 0 {
				return nil
			}
			combo[i] = set[indices[i]]
		}
		stop, err := visit(combo)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}

		pos := k - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(sets[pos]) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			return nil
		}
	}
}

// permutations returns every ordering of combo. A C++ evaluator can sort
// the combination to a canonical order before iterating
// std::next_permutation so that a multiset with repeated elements is not
// visited more than once per distinct ordering; reactant slots are few
// (k(R) is rarely above 3-4) and main-product deduplication on the way in
// already absorbs the cost of visiting an ordering more than once, so this
// generates every ordering directly rather than reproducing that dedup.
func permutations(combo []Molecule) [][]Molecule {
	n := len(combo)
	if n == 0 {
		return [][]Molecule{{}}
	}
	result := make([][]Molecule, 0, factorial(n))
	working := make([]Molecule, n)
	copy(working, combo)
	var permute func(k int)
	permute = func(k int) {
		if k == n {
			out := make([]Molecule, n)
			copy(out, working)
			result = append(result, out)
			return
		}
		for i := k; i < n; i++ {
			working[k], working[i] = working[i], working[k]
			permute(k + 1)
			working[k], working[i] = working[i], working[k]
		}
	}
	permute(0)
	return result
}

func factorial(n int) int {
	f := 1
	for i := 2; i <= n; i++ {
		f *= i
	}
	return f
}
