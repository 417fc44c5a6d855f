package featurizer

import (
	"context"
	"math/rand"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/pkg/errors"
)

// DescriptorSource is the optional backend capability computing a single
// named scalar molecular descriptor. A Backend not offering
// chemistry-toolkit descriptors simply does not implement this;
// ProductPropertyFeaturizer is then unused rather than forced to fail at
// runtime.
type DescriptorSource interface {
	Descriptor(ctx context.Context, m chem.Molecule, name string) (float64, error)
}

// PropertyOption configures ProductPropertyFeaturizer.
type PropertyOption struct {
	Name string
	// Properties is the supported descriptor catalogue; each call samples
	// NumEvaluated of them without replacement. Index+1 within this slice
	// is the stable type id a consumer maps back to a descriptor name.
	Properties []string
	// NumEvaluated is the fixed number of (type, value) pairs every call
	// writes.
	NumEvaluated int
}

// ProductPropertyFeaturizer writes NumEvaluated randomly sampled
// (descriptor type id, descriptor value) pairs for a uniformly chosen
// top-frame product.
type ProductPropertyFeaturizer struct {
	option PropertyOption
	source DescriptorSource
	rng    *rand.Rand
}

// NewProductPropertyFeaturizer constructs a featurizer. option.NumEvaluated
// must be <= len(option.Properties).
func NewProductPropertyFeaturizer(option PropertyOption, source DescriptorSource, seed uint64) (*ProductPropertyFeaturizer, error) {
	if option.NumEvaluated > len(option.Properties) {
		return nil, errors.New(errors.CodeInvalidParam, "num_evaluated cannot exceed the number of configured properties")
	}
	return &ProductPropertyFeaturizer{option: option, source: source, rng: rand.New(rand.NewSource(int64(seed)))}, nil
}

func (f *ProductPropertyFeaturizer) Apply(ctx context.Context, syn *chem.Synthesis, b Builder) error {
	top := syn.TopSet()
	if len(top) == 0 {
		return errors.New(errors.CodeInternal, "cannot featurize a synthesis with an empty top frame")
	}
	product := top[f.rng.Intn(len(top))]

	sampled := sampleIndicesWithoutReplacement(f.rng, len(f.option.Properties), f.option.NumEvaluated)

	types := make([]int64, f.option.NumEvaluated)
	values := make([]float32, f.option.NumEvaluated)
	for i, idx := range sampled {
		name := f.option.Properties[idx]
		value, err := f.source.Descriptor(ctx, product, name)
		if err != nil {
			return errors.Wrap(err, errors.CodeMoleculeError, "compute product descriptor "+name)
		}
		types[i] = int64(idx + 1)
		values[i] = float32(value)
	}

	if err := b.AddVectorInt64(f.option.Name+".types", types); err != nil {
		return err
	}
	return b.AddVectorFloat32(f.option.Name+".values", values)
}

// sampleIndicesWithoutReplacement returns k distinct indices in [0, n) via
// a partial Fisher-Yates shuffle.
func sampleIndicesWithoutReplacement(rng *rand.Rand, n, k int) []int {
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
