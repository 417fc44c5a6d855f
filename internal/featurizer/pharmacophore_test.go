package featurizer_test

import (
	"context"
	"testing"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/featurizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPharmacophoreBackend struct {
	concatBackend
	features []float64
	err      error
}

func (b fixedPharmacophoreBackend) PharmacophoreFeatures(ctx context.Context, m chem.Molecule, kind string) ([]float64, error) {
	return b.features, b.err
}

func TestProductPharmacophoreFeaturizer_PadsPastAvailableFeatures(t *testing.T) {
	backend := fixedPharmacophoreBackend{features: []float64{1.5, 2.5}}
	f := featurizer.NewProductPharmacophoreFeaturizer(featurizer.PharmacophoreOption{
		Name: "pcore", Kind: "base", MaxFeatures: 5,
	}, backend, 1)

	s := chem.NewSynthesis()
	s.PushMolecule(chem.NewMolecule("a"))

	b := newRecordingBuilder()
	require.NoError(t, f.Apply(context.Background(), s, b))

	assert.Equal(t, []float32{1.5, 2.5, 0, 0, 0}, b.vectorsFloat32["pcore.node_features"])
	assert.Equal(t, []bool{true, true, false, false, false}, b.vectorsBool["pcore.node_exists"])
}

func TestProductPharmacophoreFeaturizer_TruncatesExcessFeatures(t *testing.T) {
	backend := fixedPharmacophoreBackend{features: []float64{1, 2, 3, 4, 5}}
	f := featurizer.NewProductPharmacophoreFeaturizer(featurizer.PharmacophoreOption{
		Name: "pcore", MaxFeatures: 3,
	}, backend, 1)

	s := chem.NewSynthesis()
	s.PushMolecule(chem.NewMolecule("a"))

	b := newRecordingBuilder()
	require.NoError(t, f.Apply(context.Background(), s, b))
	assert.Len(t, b.vectorsFloat32["pcore.node_features"], 3)
	assert.Equal(t, []bool{true, true, true}, b.vectorsBool["pcore.node_exists"])
}
