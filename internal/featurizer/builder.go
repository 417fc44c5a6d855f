package featurizer

import (
	"context"

	"github.com/prexsyn/engine/internal/chem"
)

// Builder is the write side of one buffer transaction: a scratch
// collector for named scalar/vector/matrix values, one call per
// supported DType and shape. A name written twice within the same
// transaction is a logic error; implementations report it rather than
// silently overwriting.
type Builder interface {
	AddScalarInt64(name string, value int64) error
	AddScalarFloat32(name string, value float32) error
	AddScalarBool(name string, value bool) error

	AddVectorInt64(name string, values []int64) error
	AddVectorFloat32(name string, values []float32) error
	AddVectorBool(name string, values []bool) error

	AddMatrixInt64(name string, values [][]int64) error
	AddMatrixFloat32(name string, values [][]float32) error
	AddMatrixBool(name string, values [][]bool) error
}

// Featurizer reads a completed Synthesis and writes one or more named
// values into b. A Featurizer may use its own private RNG; it must never
// mutate syn.
type Featurizer interface {
	Apply(ctx context.Context, syn *chem.Synthesis, b Builder) error
}

// Set is an ordered group of featurizers: applying it in turn invokes
// every member featurizer against the same builder, so a single write
// transaction accumulates every configured featurizer's output. Set
// itself implements Featurizer, so a Set can be nested inside another
// Set if ever useful.
type Set struct {
	featurizers []Featurizer
}

// NewSet returns a Set applying featurizers in the given order.
func NewSet(featurizers ...Featurizer) *Set {
	return &Set{featurizers: featurizers}
}

// Add appends featurizer to the end of the set and returns the receiver
// for fluent chaining.
func (s *Set) Add(f Featurizer) *Set {
	s.featurizers = append(s.featurizers, f)
	return s
}

// Apply invokes every member featurizer, in order, against b. It stops and
// returns the first error, leaving the caller (the pipeline worker, which
// passes a buffer.WriteTransaction as b) to drop the whole transaction
// uncommitted.
func (s *Set) Apply(ctx context.Context, syn *chem.Synthesis, b Builder) error {
	for _, f := range s.featurizers {
		if err := f.Apply(ctx, syn, b); err != nil {
			return err
		}
	}
	return nil
}
