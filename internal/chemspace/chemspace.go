// Package chemspace implements the ChemicalSpace bundle: primary and
// secondary building blocks, the reaction catalogue, and the two reactant
// indices that let the generator sample reactions and reactants without a
// full substructure scan on every step.
package chemspace

import (
	"context"
	"math/rand"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/chemindex"
	"github.com/prexsyn/engine/internal/container"
	"github.com/prexsyn/engine/pkg/errors"
)

// BuildingBlock is a sampled building block: either a primary molecule or a
// secondary building block (a pre-built single-reaction Synthesis). Exactly
// one of Molecule/Synthesis is meaningful, selected by IsSecondary.
type BuildingBlock struct {
	IsSecondary bool
	Molecule    chem.Molecule
	Synthesis   *chem.Synthesis
}

// PushInto pushes b onto s the way its kind requires: a plain molecule push
// for a primary building block, or a full synthesis splice (PushSynthesis)
// for a secondary one.
func (b BuildingBlock) PushInto(s *chem.Synthesis) {
	if b.IsSecondary {
		s.PushSynthesis(b.Synthesis)
	} else {
		s.PushMolecule(b.Molecule)
	}
}

// ReactionSlot names a reaction and one of its reactant slots.
type ReactionSlot struct {
	Reaction int
	Slot     int
}

// ChemicalSpace is the immutable, read-only bundle a generator samples
// from. Construct it with Builder.
type ChemicalSpace struct {
	primary        *container.BuildingBlockList
	secondary      []*chem.Synthesis
	reactions      *container.ReactionList
	primaryIndex   *chemindex.ReactantIndex
	secondaryIndex *chemindex.ReactantIndex
}

// PrimaryBuildingBlocks returns the primary building block list.
func (cs *ChemicalSpace) PrimaryBuildingBlocks() *container.BuildingBlockList {
	return cs.primary
}

// SecondaryBuildingBlocks returns the secondary building blocks, in the
// order they were built. Callers must not mutate the returned slice.
func (cs *ChemicalSpace) SecondaryBuildingBlocks() []*chem.Synthesis {
	return cs.secondary
}

// Reactions returns the reaction catalogue.
func (cs *ChemicalSpace) Reactions() *container.ReactionList {
	return cs.reactions
}

// RandomBuildingBlock samples uniformly across the union of primary and
// secondary building blocks.
func (cs *ChemicalSpace) RandomBuildingBlock(rng *rand.Rand) (BuildingBlock, error) {
	total := cs.primary.Len() + len(cs.secondary)
	if total == 0 {
		return BuildingBlock{}, errors.New(errors.CodeNoAvailableBuildingBlocks, "chemical space has no building blocks")
	}
	n := rng.Intn(total)
	if n < cs.primary.Len() {
		m, err := cs.primary.Get(n)
		if err != nil {
			return BuildingBlock{}, err
		}
		return BuildingBlock{Molecule: m}, nil
	}
	return BuildingBlock{IsSecondary: true, Synthesis: cs.secondary[n-cs.primary.Len()]}, nil
}

// RandomBuildingBlockForSlot samples uniformly across the union of primary
// and secondary building blocks known (via the reactant indices) to match
// the given reaction's slot. It returns CodeNoAvailableBuildingBlocks when
// both indices are empty for that slot, matching the original
// implementation's no_available_building_blocks condition.
func (cs *ChemicalSpace) RandomBuildingBlockForSlot(rng *rand.Rand, reactionIndex, slot int) (BuildingBlock, error) {
	primaryIndices, err := cs.primaryIndex.MolecularIndices(reactionIndex, slot)
	if err != nil {
		return BuildingBlock{}, err
	}
	secondaryIndices, err := cs.secondaryIndex.MolecularIndices(reactionIndex, slot)
	if err != nil {
		return BuildingBlock{}, err
	}

	total := len(primaryIndices) + len(secondaryIndices)
	if total == 0 {
		return BuildingBlock{}, errors.New(errors.CodeNoAvailableBuildingBlocks,
			"no available building blocks for the given reaction and reactant index")
	}
	n := rng.Intn(total)
	if n < len(primaryIndices) {
		m, err := cs.primary.Get(primaryIndices[n])
		if err != nil {
			return BuildingBlock{}, err
		}
		return BuildingBlock{Molecule: m}, nil
	}
	return BuildingBlock{IsSecondary: true, Synthesis: cs.secondary[secondaryIndices[n-len(primaryIndices)]]}, nil
}

// AvailableReactions returns every (reaction, slot) pair whose reactant
// pattern mol satisfies, in reaction-then-slot order. A molecule matching
// more than one slot of the same reaction (e.g. a symmetric reaction)
// yields one entry per matching slot.
func (cs *ChemicalSpace) AvailableReactions(ctx context.Context, backend chem.Backend, mol chem.Molecule) ([]ReactionSlot, error) {
	var result []ReactionSlot
	for i, r := range cs.reactions.All() {
		for s := 0; s < r.NumReactantSlots(); s++ {
			ok, err := backend.SubstructureMatch(ctx, mol, r.ReactantPattern(s))
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeReactionError, "substructure match failed")
			}
			if ok {
				result = append(result, ReactionSlot{Reaction: i, Slot: s})
			}
		}
	}
	return result, nil
}
