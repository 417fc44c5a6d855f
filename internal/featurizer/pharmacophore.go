package featurizer

import (
	"context"
	"math/rand"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/pkg/errors"
)

// PharmacophoreOption configures ProductPharmacophoreFeaturizer.
type PharmacophoreOption struct {
	Name string
	Kind string
	// MaxFeatures is the fixed number of pharmacophore feature slots every
	// call writes, padding with zero/false past however many the backend
	// actually returned. Flattened to a feature vector since the core
	// Backend exposes PharmacophoreFeatures as a plain []float64 rather
	// than a graph.
	MaxFeatures int
}

// ProductPharmacophoreFeaturizer writes a fixed-length pharmacophore
// feature vector for a uniformly chosen top-frame product, plus a parallel
// exists mask distinguishing real features from padding.
type ProductPharmacophoreFeaturizer struct {
	option  PharmacophoreOption
	backend chem.Backend
	rng     *rand.Rand
}

func NewProductPharmacophoreFeaturizer(option PharmacophoreOption, backend chem.Backend, seed uint64) *ProductPharmacophoreFeaturizer {
	return &ProductPharmacophoreFeaturizer{option: option, backend: backend, rng: rand.New(rand.NewSource(int64(seed)))}
}

func (f *ProductPharmacophoreFeaturizer) Apply(ctx context.Context, syn *chem.Synthesis, b Builder) error {
	top := syn.TopSet()
	if len(top) == 0 {
		return errors.New(errors.CodeInternal, "cannot featurize a synthesis with an empty top frame")
	}
	product := top[f.rng.Intn(len(top))]

	raw, err := f.backend.PharmacophoreFeatures(ctx, product, f.option.Kind)
	if err != nil {
		return errors.Wrap(err, errors.CodeMoleculeError, "compute product pharmacophore features")
	}

	n := f.option.MaxFeatures
	values := make([]float32, n)
	exists := make([]bool, n)
	for i := 0; i < n && i < len(raw); i++ {
		values[i] = float32(raw[i])
		exists[i] = true
	}

	if err := b.AddVectorFloat32(f.option.Name+".node_features", values); err != nil {
		return err
	}
	return b.AddVectorBool(f.option.Name+".node_exists", exists)
}
