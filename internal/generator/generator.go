// Package generator implements the bounded random-walk synthesis
// generator: an endless stream of complete, single-product Synthesis
// snapshots sampled from a ChemicalSpace.
package generator

import (
	"context"
	"math/rand"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/chemspace"
	"github.com/prexsyn/engine/pkg/errors"
)

// Option bounds how large a single synthesis program is allowed to grow
// before the generator resets to a fresh building block.
type Option struct {
	NumReactionsCutoff    int
	NumProductAtomsCutoff int
}

// DefaultOption returns the num_reactions_cutoff=5,
// num_product_atoms_cutoff=50 defaults.
func DefaultOption() Option {
	return Option{NumReactionsCutoff: 5, NumProductAtomsCutoff: 50}
}

// Generator random-walks a ChemicalSpace, resetting to a fresh building
// block whenever a step dead-ends (no available reactions, no available
// building blocks for a chosen reactant slot, or the chosen reaction
// yields no sanitizable product) or a cutoff in Option is reached.
type Generator struct {
	space     *chemspace.ChemicalSpace
	backend   chem.Backend
	option    Option
	rng       *rand.Rand
	synthesis *chem.Synthesis
}

// New constructs a Generator over space seeded with seed, so two
// generators built with the same seed, space, and backend produce
// identical sequences given a deterministic backend.
func New(space *chemspace.ChemicalSpace, backend chem.Backend, option Option, seed uint64) *Generator {
	return &Generator{
		space:     space,
		backend:   backend,
		option:    option,
		rng:       rand.New(rand.NewSource(int64(seed))),
		synthesis: chem.NewSynthesis(),
	}
}

// Next advances the random walk by one step and returns a snapshot of the
// resulting Synthesis. The returned Synthesis always has exactly one
// frame on its stack; an error here means the underlying ChemicalSpace
// itself cannot produce a building block at all (i.e. it is empty), not a
// transient dead-end, since dead-ends are absorbed by an internal reset.
func (g *Generator) Next(ctx context.Context) (*chem.Synthesis, error) {
	if g.synthesis.StackSize() == 0 {
		if err := g.initSynthesis(ctx); err != nil {
			return nil, err
		}
	} else if err := g.step(ctx); err != nil {
		if !isDeadEnd(err) {
			return nil, err
		}
		g.resetSynthesis()
		if err := g.initSynthesis(ctx); err != nil {
			return nil, err
		}
	}

	out := g.synthesis.Clone()
	if g.needsReinit() {
		g.resetSynthesis()
	}
	if out.StackSize() != 1 {
		return nil, errors.New(errors.CodeInternal, "generator produced a synthesis without exactly one top-level frame")
	}
	return out, nil
}

func (g *Generator) resetSynthesis() {
	g.synthesis = chem.NewSynthesis()
}

func (g *Generator) initSynthesis(ctx context.Context) error {
	if g.synthesis.StackSize() != 0 {
		return errors.New(errors.CodeInternal, "initSynthesis called on a non-empty synthesis")
	}
	bb, err := g.space.RandomBuildingBlock(g.rng)
	if err != nil {
		return err
	}
	bb.PushInto(g.synthesis)
	return nil
}

// step attempts one reaction application against the current top frame:
// pick a random molecule from it, a random available (reaction, slot) it
// satisfies, a random building block for every other slot, then push the
// reaction. A failure partway through (an unavailable building block for
// a later slot, or a reaction with no sanitizable product) leaves
// whatever was already pushed this call on the stack; the caller resets
// the whole synthesis on any dead-end rather than trying to undo
// individual pushes.
func (g *Generator) step(ctx context.Context) error {
	top := g.synthesis.TopSet()
	if len(top) == 0 {
		return errors.New(errors.CodeNoAvailableReactions, "synthesis top frame is empty")
	}
	mol := top[g.rng.Intn(len(top))]

	available, err := g.space.AvailableReactions(ctx, g.backend, mol)
	if err != nil {
		return err
	}
	if len(available) == 0 {
		return errors.New(errors.CodeNoAvailableReactions, "no available reactions for the current product")
	}
	chosen := available[g.rng.Intn(len(available))]

	reaction, err := g.space.Reactions().Get(chosen.Reaction)
	if err != nil {
		return err
	}
	for slot := 0; slot < reaction.NumReactantSlots(); slot++ {
		if slot == chosen.Slot {
			continue
		}
		bb, err := g.space.RandomBuildingBlockForSlot(g.rng, chosen.Reaction, slot)
		if err != nil {
			return err
		}
		bb.PushInto(g.synthesis)
	}
	return g.synthesis.PushReaction(ctx, g.backend, reaction, chem.DefaultMaxProducts)
}

// needsReinit checks the two configured cutoffs; the atom-count cutoff is
// measured only on the current top frame, never the whole stack.
func (g *Generator) needsReinit() bool {
	if g.synthesis.CountReactions() >= g.option.NumReactionsCutoff {
		return true
	}
	maxAtoms := 0
	for _, mol := range g.synthesis.TopSet() {
		if n := g.backend.NumHeavyAtoms(mol); n > maxAtoms {
			maxAtoms = n
		}
	}
	return maxAtoms >= g.option.NumProductAtomsCutoff
}

func isDeadEnd(err error) bool {
	return errors.IsCode(err, errors.CodePushReactionError) ||
		errors.IsCode(err, errors.CodeNoAvailableBuildingBlocks) ||
		errors.IsCode(err, errors.CodeNoAvailableReactions)
}
