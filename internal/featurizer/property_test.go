package featurizer_test

import (
	"context"
	"testing"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/featurizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constantDescriptorSource returns the configured name's length as its
// value, so values are independently checkable against which names were
// sampled.
type constantDescriptorSource struct{}

func (constantDescriptorSource) Descriptor(ctx context.Context, m chem.Molecule, name string) (float64, error) {
	return float64(len(name)), nil
}

func TestProductPropertyFeaturizer_SamplesDistinctPropertiesEachCall(t *testing.T) {
	props := []string{"amw", "tpsa", "NumHBD", "NumHBA", "kappa1"}
	f, err := featurizer.NewProductPropertyFeaturizer(featurizer.PropertyOption{
		Name: "props", Properties: props, NumEvaluated: 3,
	}, constantDescriptorSource{}, 42)
	require.NoError(t, err)

	s := chem.NewSynthesis()
	s.PushMolecule(chem.NewMolecule("a"))
	b := newRecordingBuilder()
	require.NoError(t, f.Apply(context.Background(), s, b))

	types := b.vectorsInt64["props.types"]
	values := b.vectorsFloat32["props.values"]
	require.Len(t, types, 3)
	require.Len(t, values, 3)

	seen := map[int64]bool{}
	for i, typeID := range types {
		assert.False(t, seen[typeID], "property sampled twice in one call")
		seen[typeID] = true
		name := props[typeID-1]
		assert.Equal(t, float32(len(name)), values[i])
	}
}

func TestNewProductPropertyFeaturizer_RejectsTooManyEvaluated(t *testing.T) {
	_, err := featurizer.NewProductPropertyFeaturizer(featurizer.PropertyOption{
		Properties: []string{"amw"}, NumEvaluated: 2,
	}, constantDescriptorSource{}, 1)
	assert.Error(t, err)
}
