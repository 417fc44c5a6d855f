package featurizer_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/featurizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// concatBackend mirrors chem_test's fixture: ApplyReaction concatenates
// reactant payloads, everything else is a pass-through.
type concatBackend struct{}

func (concatBackend) ParseSMILES(ctx context.Context, smiles string) (chem.Molecule, error) {
	return chem.NewMolecule(smiles), nil
}
func (concatBackend) ParseReactionSMARTS(ctx context.Context, smarts string) (chem.Reaction, error) {
	return chem.Reaction{}, nil
}
func (concatBackend) Sanitize(ctx context.Context, m chem.Molecule) (chem.Molecule, bool, error) {
	return m, true, nil
}
func (concatBackend) SubstructureMatch(ctx context.Context, m, pattern chem.Molecule) (bool, error) {
	return true, nil
}
func (concatBackend) ApplyReaction(ctx context.Context, r chem.Reaction, reactants []chem.Molecule) ([][]chem.Molecule, error) {
	combined := ""
	for _, reactant := range reactants {
		combined += fmt.Sprint(reactant.Payload)
	}
	return [][]chem.Molecule{{chem.NewMolecule(combined)}}, nil
}
func (concatBackend) NumHeavyAtoms(m chem.Molecule) int { return len(fmt.Sprint(m.Payload)) }
func (concatBackend) Fingerprint(ctx context.Context, m chem.Molecule, kind string, bits int) ([]byte, error) {
	return nil, nil
}
func (concatBackend) PharmacophoreFeatures(ctx context.Context, m chem.Molecule, kind string) ([]float64, error) {
	return nil, nil
}

// buildSynthesis pushes two building blocks (stamped building_block_index 4
// and 7) then a single reaction (stamped reaction_index 2): postfix is
// BB(4), BB(7), RXN(2).
func buildSynthesis(t *testing.T) *chem.Synthesis {
	t.Helper()
	ctx := context.Background()
	backend := concatBackend{}
	rxn := chem.NewReaction("rxn", []chem.Molecule{chem.NewMolecule("*"), chem.NewMolecule("*")}).WithIndex(2)

	s := chem.NewSynthesis()
	s.PushMolecule(chem.NewMolecule("a").WithAnnotation(chem.AnnotationBuildingBlockIndex, 4))
	s.PushMolecule(chem.NewMolecule("b").WithAnnotation(chem.AnnotationBuildingBlockIndex, 7))
	require.NoError(t, s.PushReaction(ctx, backend, rxn, chem.DefaultMaxProducts))
	return s
}

func TestTokenSequenceFeaturizer_PadsShortSequence(t *testing.T) {
	f := featurizer.NewTokenSequenceFeaturizer(featurizer.TokenSequenceOption{
		MaxLength: 10,
		TokenDef:  featurizer.DefaultTokenDef(),
	}, 1)

	b := newRecordingBuilder()
	require.NoError(t, f.Apply(context.Background(), buildSynthesis(t), b))

	def := featurizer.DefaultTokenDef()
	wantTypes := []int64{def.START, def.BB, def.BB, def.RXN, def.END, def.PAD, def.PAD, def.PAD, def.PAD, def.PAD}
	wantBB := []int64{0, 4, 7, 0, 0, 0, 0, 0, 0, 0}
	wantRxn := []int64{0, 0, 0, 2, 0, 0, 0, 0, 0, 0}

	assert.Equal(t, wantTypes, b.vectorsInt64["synthesis.token_types"])
	assert.Equal(t, wantBB, b.vectorsInt64["synthesis.bb_indices"])
	assert.Equal(t, wantRxn, b.vectorsInt64["synthesis.rxn_indices"])
}

func TestTokenSequenceFeaturizer_TruncatesToConfiguredWindow(t *testing.T) {
	f := featurizer.NewTokenSequenceFeaturizer(featurizer.TokenSequenceOption{
		MaxLength: 3,
		TokenDef:  featurizer.DefaultTokenDef(),
	}, 7)

	b := newRecordingBuilder()
	require.NoError(t, f.Apply(context.Background(), buildSynthesis(t), b))

	assert.Len(t, b.vectorsInt64["synthesis.token_types"], 3)
	assert.Len(t, b.vectorsInt64["synthesis.bb_indices"], 3)
	assert.Len(t, b.vectorsInt64["synthesis.rxn_indices"], 3)
}

func TestTokenSequenceFeaturizer_MissingAnnotationFails(t *testing.T) {
	f := featurizer.NewTokenSequenceFeaturizer(featurizer.DefaultTokenSequenceOption(), 1)

	s := chem.NewSynthesis()
	s.PushMolecule(chem.NewMolecule("a")) // no building_block_index stamped

	b := newRecordingBuilder()
	err := f.Apply(context.Background(), s, b)
	assert.Error(t, err)
}
