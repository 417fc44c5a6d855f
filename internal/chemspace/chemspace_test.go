package chemspace_test

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/chemspace"
	"github.com/prexsyn/engine/internal/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// suffixBackend is a fake chem.Backend whose reaction SMARTS encodes its
// own reactant-slot patterns as a comma-separated suffix list, and whose
// SubstructureMatch checks whether the molecule payload has the pattern
// payload as a prefix. ApplyReaction concatenates reactant payloads.
type suffixBackend struct{}

func (suffixBackend) ParseSMILES(ctx context.Context, smiles string) (chem.Molecule, error) {
	return chem.NewMolecule(smiles), nil
}

func (suffixBackend) ParseReactionSMARTS(ctx context.Context, smarts string) (chem.Reaction, error) {
	parts := strings.Split(smarts, ",")
	patterns := make([]chem.Molecule, len(parts))
	for i, p := range parts {
		patterns[i] = chem.NewMolecule(p)
	}
	return chem.NewReaction(smarts, patterns), nil
}

func (suffixBackend) Sanitize(ctx context.Context, m chem.Molecule) (chem.Molecule, bool, error) {
	return m, true, nil
}

func (suffixBackend) SubstructureMatch(ctx context.Context, m, pattern chem.Molecule) (bool, error) {
	return strings.HasPrefix(fmt.Sprint(m.Payload), fmt.Sprint(pattern.Payload)), nil
}

func (suffixBackend) ApplyReaction(ctx context.Context, r chem.Reaction, reactants []chem.Molecule) ([][]chem.Molecule, error) {
	combined := ""
	for _, reactant := range reactants {
		combined += fmt.Sprint(reactant.Payload)
	}
	return [][]chem.Molecule{{chem.NewMolecule(combined)}}, nil
}

func (suffixBackend) NumHeavyAtoms(m chem.Molecule) int { return len(fmt.Sprint(m.Payload)) }

func (suffixBackend) Fingerprint(ctx context.Context, m chem.Molecule, kind string, bits int) ([]byte, error) {
	return nil, nil
}

func (suffixBackend) PharmacophoreFeatures(ctx context.Context, m chem.Molecule, kind string) ([]float64, error) {
	return nil, nil
}

type stringPickler struct{}

func (stringPickler) PickleMolecule(ctx context.Context, m chem.Molecule) ([]byte, error) {
	orig, _ := m.Annotation(chem.AnnotationOriginalIndex)
	bb, hasBB := m.Annotation(chem.AnnotationBuildingBlockIndex)
	bbField := "-"
	if hasBB {
		bbField = fmt.Sprint(bb)
	}
	return []byte(fmt.Sprintf("%v|%d|%s", m.Payload, orig, bbField)), nil
}

func (stringPickler) UnpickleMolecule(ctx context.Context, data []byte) (chem.Molecule, error) {
	parts := strings.SplitN(string(data), "|", 3)
	m := chem.NewMolecule(parts[0]).WithAnnotation(chem.AnnotationOriginalIndex, atoiOrZero(parts[1]))
	if parts[2] != "-" {
		m = m.WithAnnotation(chem.AnnotationBuildingBlockIndex, atoiOrZero(parts[2]))
	}
	return m, nil
}

func (stringPickler) PickleReaction(ctx context.Context, r chem.Reaction) ([]byte, error) {
	idx, _ := r.Index()
	return []byte(fmt.Sprintf("%v|%d", r.Payload, idx)), nil
}

func (stringPickler) UnpickleReaction(ctx context.Context, data []byte) (chem.Reaction, error) {
	parts := strings.SplitN(string(data), "|", 2)
	rxn, err := suffixBackend{}.ParseReactionSMARTS(context.Background(), parts[0])
	if err != nil {
		return chem.Reaction{}, err
	}
	return rxn.WithIndex(atoiOrZero(parts[1])), nil
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// buildSpace runs the full builder pipeline over a small fixed set of
// primary building blocks ("a", "b", "x") and two single-slot reactions
// keyed "a" and "x" (matching payloads with that prefix).
func buildSpace(t *testing.T, rawPayloads []string, reactionSMARTS string) *chemspace.ChemicalSpace {
	t.Helper()
	ctx := context.Background()
	backend := suffixBackend{}

	raw := make([]chem.Molecule, len(rawPayloads))
	for i, p := range rawPayloads {
		raw[i] = chem.NewMolecule(p)
	}
	list, err := container.NewBuildingBlockList(ctx, nil, raw, container.BuildingBlockPreprocessingOption{}, nil)
	require.NoError(t, err)

	var cacheBuf bytes.Buffer
	require.NoError(t, list.Save(ctx, &cacheBuf, stringPickler{}))

	b := chemspace.NewBuilder(backend, nil)
	b, err = b.BuildingBlocksFromCache(ctx, &cacheBuf, stringPickler{})
	require.NoError(t, err)

	b, err = b.ReactionsFromTXT(ctx, strings.NewReader(reactionSMARTS))
	require.NoError(t, err)

	b, err = b.SecondaryBuildingBlocksFromSingleReaction(ctx, 2)
	require.NoError(t, err)

	b, err = b.BuildPrimaryIndex(ctx, 2)
	require.NoError(t, err)
	b, err = b.BuildSecondaryIndex(ctx, 2)
	require.NoError(t, err)

	cs, err := b.Build()
	require.NoError(t, err)
	return cs
}

func TestChemicalSpace_RandomBuildingBlock_EmptySpace(t *testing.T) {
	cs := buildSpace(t, nil, "")
	_, err := cs.RandomBuildingBlock(rand.New(rand.NewSource(1)))
	require.Error(t, err)
}

func TestChemicalSpace_RandomBuildingBlock_SamplesAcrossUnion(t *testing.T) {
	cs := buildSpace(t, []string{"a", "b", "x"}, "a\nx\n")
	rng := rand.New(rand.NewSource(42))

	total := cs.PrimaryBuildingBlocks().Len() + len(cs.SecondaryBuildingBlocks())
	require.Greater(t, total, 0)

	seen := map[bool]bool{}
	for i := 0; i < 200; i++ {
		bb, err := cs.RandomBuildingBlock(rng)
		require.NoError(t, err)
		seen[bb.IsSecondary] = true
	}
	assert.True(t, seen[false], "must sample at least one primary building block over 200 draws")
}

func TestChemicalSpace_AvailableReactions_MatchesPrefix(t *testing.T) {
	cs := buildSpace(t, []string{"a", "b", "x"}, "a\nx\n")
	slots, err := cs.AvailableReactions(context.Background(), suffixBackend{}, chem.NewMolecule("ax"))
	require.NoError(t, err)
	assert.NotEmpty(t, slots)
}

func TestChemicalSpace_RandomBuildingBlockForSlot_NoMatch(t *testing.T) {
	cs := buildSpace(t, []string{"a", "b"}, "x\n")
	rng := rand.New(rand.NewSource(3))
	_, err := cs.RandomBuildingBlockForSlot(rng, 0, 0)
	require.Error(t, err, "no building block has prefix 'x'")
}

func TestChemicalSpace_SaveLoad_RoundTrip(t *testing.T) {
	cs := buildSpace(t, []string{"a", "b", "x"}, "a\nx\n")
	ctx := context.Background()
	pickler := stringPickler{}

	var primary, secondary, reactions, primaryIdx, secondaryIdx bytes.Buffer
	err := cs.Save(ctx, chemspace.CacheWriters{
		PrimaryBuildingBlocks:   &primary,
		SecondaryBuildingBlocks: &secondary,
		Reactions:               &reactions,
		PrimaryIndex:            &primaryIdx,
		SecondaryIndex:          &secondaryIdx,
	}, pickler)
	require.NoError(t, err)

	loadedBuilder := chemspace.NewBuilder(suffixBackend{}, nil)
	_, err = loadedBuilder.AllFromCache(ctx, chemspace.CacheFiles{
		PrimaryBuildingBlocks:   &primary,
		SecondaryBuildingBlocks: &secondary,
		Reactions:               &reactions,
		PrimaryIndex:            &primaryIdx,
		SecondaryIndex:          &secondaryIdx,
	}, pickler)
	require.NoError(t, err)

	loaded, err := loadedBuilder.Build()
	require.NoError(t, err)

	assert.Equal(t, cs.PrimaryBuildingBlocks().Len(), loaded.PrimaryBuildingBlocks().Len())
	assert.Equal(t, len(cs.SecondaryBuildingBlocks()), len(loaded.SecondaryBuildingBlocks()))
	assert.Equal(t, cs.Reactions().Len(), loaded.Reactions().Len())
}
