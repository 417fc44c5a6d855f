package featurizer

import (
	"context"
	"math/rand"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/pkg/errors"
)

// ScaffoldSource is the optional backend capability computing a Murcko
// scaffold. ok is false when the molecule has no ring system and
// therefore no scaffold.
type ScaffoldSource interface {
	MurckoScaffold(ctx context.Context, m chem.Molecule) (scaffold chem.Molecule, ok bool, err error)
}

// ScaffoldOption configures MurckoScaffoldFeaturizer; Kind and Bits are
// forwarded to Backend.Fingerprint exactly as FingerprintOption's.
type ScaffoldOption struct {
	Name string
	Kind string
	Bits int
}

// MurckoScaffoldFeaturizer writes the fingerprint of a uniformly chosen
// top-frame product's Murcko scaffold. Falling back to the product
// itself when it has no scaffold keeps the written column's shape
// identical to ProductFingerprintFeaturizer's.
type MurckoScaffoldFeaturizer struct {
	option   ScaffoldOption
	backend  chem.Backend
	scaffold ScaffoldSource
	rng      *rand.Rand
}

func NewMurckoScaffoldFeaturizer(option ScaffoldOption, backend chem.Backend, scaffold ScaffoldSource, seed uint64) *MurckoScaffoldFeaturizer {
	return &MurckoScaffoldFeaturizer{option: option, backend: backend, scaffold: scaffold, rng: rand.New(rand.NewSource(int64(seed)))}
}

func (f *MurckoScaffoldFeaturizer) Apply(ctx context.Context, syn *chem.Synthesis, b Builder) error {
	top := syn.TopSet()
	if len(top) == 0 {
		return errors.New(errors.CodeInternal, "cannot featurize a synthesis with an empty top frame")
	}
	product := top[f.rng.Intn(len(top))]

	target := product
	if scaffold, ok, err := f.scaffold.MurckoScaffold(ctx, product); err != nil {
		return errors.Wrap(err, errors.CodeMoleculeError, "compute Murcko scaffold")
	} else if ok {
		target = scaffold
	}

	packed, err := f.backend.Fingerprint(ctx, target, f.option.Kind, f.option.Bits)
	if err != nil {
		return errors.Wrap(err, errors.CodeMoleculeError, "compute scaffold fingerprint")
	}
	return b.AddVectorBool(f.option.Name+".fingerprint", unpackBits(packed, f.option.Bits))
}
