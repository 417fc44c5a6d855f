package featurizer

import (
	"context"
	"math/rand"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/pkg/errors"
)

// FingerprintOption configures ProductFingerprintFeaturizer.
type FingerprintOption struct {
	// Name prefixes the single written column: Name+".fingerprint".
	Name string
	// Kind selects the backend's fingerprint algorithm (e.g. "morgan",
	// "ecfp4"); passed through to chem.Backend.Fingerprint unexamined.
	Kind string
	// Bits is the fixed folded fingerprint length every call writes.
	Bits int
}

// ProductFingerprintFeaturizer writes a folded bit fingerprint of a
// uniformly chosen top-frame product as a fixed-length bool vector.
// Backend.Fingerprint returns the packed bits as bytes; this unpacks
// them low-to-high (bit 0 of each byte first) into one bool per bit so the column is directly usable
// as a {0,1} feature vector.
type ProductFingerprintFeaturizer struct {
	option  FingerprintOption
	backend chem.Backend
	rng     *rand.Rand
}

// NewProductFingerprintFeaturizer constructs a featurizer computing
// fingerprints through backend.
func NewProductFingerprintFeaturizer(option FingerprintOption, backend chem.Backend, seed uint64) *ProductFingerprintFeaturizer {
	return &ProductFingerprintFeaturizer{option: option, backend: backend, rng: rand.New(rand.NewSource(int64(seed)))}
}

func (f *ProductFingerprintFeaturizer) Apply(ctx context.Context, syn *chem.Synthesis, b Builder) error {
	top := syn.TopSet()
	if len(top) == 0 {
		return errors.New(errors.CodeInternal, "cannot featurize a synthesis with an empty top frame")
	}
	product := top[f.rng.Intn(len(top))]

	packed, err := f.backend.Fingerprint(ctx, product, f.option.Kind, f.option.Bits)
	if err != nil {
		return errors.Wrap(err, errors.CodeMoleculeError, "compute product fingerprint")
	}
	bits := unpackBits(packed, f.option.Bits)
	return b.AddVectorBool(f.option.Name+".fingerprint", bits)
}

// unpackBits reads the low-to-high bit order within each byte, up to n
// bits total, zero-padding if packed is short of n bits.
func unpackBits(packed []byte, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		byteIdx := i / 8
		if byteIdx >= len(packed) {
			break
		}
		out[i] = packed[byteIdx]&(1<<uint(i%8)) != 0
	}
	return out
}
