// Package pipeline implements the worker-pool data pipeline: W producer
// goroutines, each random-walking an independent Generator and featurizing
// the result into a shared DataBuffer, plus a Get/Read surface for a
// single consumer.
package pipeline

import (
	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/chemspace"
	"github.com/prexsyn/engine/internal/featurizer"
	"github.com/prexsyn/engine/internal/generator"
	"github.com/prexsyn/engine/pkg/errors"
)

// Config bundles everything a Pipeline needs to spawn its worker pool
// a number of worker threads, a ChemicalSpace, a generator option, a
// featurizer set, and a base seed.
type Config struct {
	NumWorkers      int
	Capacity        int
	Space           *chemspace.ChemicalSpace
	Backend         chem.Backend
	GeneratorOption generator.Option
	Featurizers     featurizer.Featurizer
	BaseSeed        uint64
}

func (c Config) validate() error {
	if c.NumWorkers < 1 {
		return errors.New(errors.CodeInvalidParam, "pipeline requires at least one worker")
	}
	if c.Capacity < 1 {
		return errors.New(errors.CodeInvalidParam, "pipeline requires a positive buffer capacity")
	}
	if c.Space == nil {
		return errors.New(errors.CodeInvalidParam, "pipeline requires a chemical space")
	}
	if c.Backend == nil {
		return errors.New(errors.CodeInvalidParam, "pipeline requires a chemistry backend")
	}
	if c.Featurizers == nil {
		return errors.New(errors.CodeInvalidParam, "pipeline requires a featurizer set")
	}
	return nil
}
