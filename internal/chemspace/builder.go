package chemspace

import (
	"context"
	"io"
	"sync"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/chemindex"
	"github.com/prexsyn/engine/internal/container"
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/logging"
	"github.com/prexsyn/engine/pkg/errors"
)

// SDFSource is the optional backend capability for reading raw building
// blocks out of an SDF file. SMILES/SDF parsing is not a core concern;
// a Backend that offers it implements this to let
// Builder.BuildingBlocksFromSDF drive it.
type SDFSource interface {
	MoleculesFromSDF(ctx context.Context, r io.Reader) ([]chem.Molecule, error)
}

// Builder assembles a ChemicalSpace step by step through a fluent
// construction sequence: building blocks, then reactions, then secondary
// building blocks, then both reactant indices, then Build.
type Builder struct {
	backend chem.Backend
	logger  logging.Logger

	primary        *container.BuildingBlockList
	secondary      []*chem.Synthesis
	reactions      *container.ReactionList
	primaryIndex   *chemindex.ReactantIndex
	secondaryIndex *chemindex.ReactantIndex
}

// NewBuilder starts a ChemicalSpace build driven by backend. logger may be
// nil.
func NewBuilder(backend chem.Backend, logger logging.Logger) *Builder {
	return &Builder{backend: backend, logger: logger}
}

// BuildingBlocksFromSDF loads primary building blocks by reading raw
// molecules from source and running them through the preprocessing
// pipeline of container.NewBuildingBlockList.
func (b *Builder) BuildingBlocksFromSDF(ctx context.Context, source SDFSource, r io.Reader, pre container.Preprocessor, option container.BuildingBlockPreprocessingOption) (*Builder, error) {
	raw, err := source.MoleculesFromSDF(ctx, r)
	if err != nil {
		return b, errors.Wrap(err, errors.CodeMoleculeError, "read building blocks from SDF")
	}
	list, err := container.NewBuildingBlockList(ctx, pre, raw, option, b.logger)
	if err != nil {
		return b, err
	}
	b.primary = list
	return b, nil
}

// BuildingBlocksFromCache loads primary building blocks from a previously
// saved cache stream.
func (b *Builder) BuildingBlocksFromCache(ctx context.Context, r io.Reader, pickler chem.Pickler) (*Builder, error) {
	list, err := container.LoadBuildingBlockList(ctx, r, pickler)
	if err != nil {
		return b, err
	}
	b.primary = list
	return b, nil
}

// ReactionsFromTXT loads the reaction catalogue by parsing one reaction
// SMARTS per line of r.
func (b *Builder) ReactionsFromTXT(ctx context.Context, r io.Reader) (*Builder, error) {
	list, err := container.NewReactionListFromSMARTS(ctx, b.backend, r)
	if err != nil {
		return b, err
	}
	b.reactions = list
	return b, nil
}

// ReactionsFromCache loads the reaction catalogue from a previously saved
// cache stream.
func (b *Builder) ReactionsFromCache(ctx context.Context, r io.Reader, pickler chem.Pickler) (*Builder, error) {
	list, err := container.LoadReactionList(ctx, r, pickler)
	if err != nil {
		return b, err
	}
	b.reactions = list
	return b, nil
}

// NoSecondaryBuildingBlocks sets an empty secondary building block list,
// for chemical spaces that don't want the single-reaction expansion.
func (b *Builder) NoSecondaryBuildingBlocks() *Builder {
	b.secondary = nil
	return b
}

// SecondaryBuildingBlocksFromSingleReaction generates one secondary
// building block per (primary building block, single-reactant-slot
// reaction) pair that sanitizes successfully; only reactions with exactly
// one reactant slot qualify (mirroring a `getNumReactantTemplates() != 1`
// guard). Work is fanned out across
// workers goroutines, one per primary building block, and merged back in
// building-block order so the result is reproducible regardless of
// goroutine scheduling.
func (b *Builder) SecondaryBuildingBlocksFromSingleReaction(ctx context.Context, workers int) (*Builder, error) {
	if b.reactions == nil || b.primary == nil {
		return b, errors.New(errors.CodeInvalidParam, "reactions and primary building blocks must be set before deriving secondary building blocks")
	}
	if workers < 1 {
		workers = 1
	}
	if b.logger != nil {
		b.logger.Info("generating secondary building blocks from single reactions")
	}

	blocks := b.primary.All()
	perBlock := make([][]*chem.Synthesis, len(blocks))

	jobs := make(chan int)
	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for i := range jobs {
			var generated []*chem.Synthesis
			for _, r := range b.reactions.All() {
				if r.NumReactantSlots() != 1 {
					continue
				}
				s := chem.NewSynthesis()
				s.PushMolecule(blocks[i])
				if err := s.PushReaction(ctx, b.backend, r, chem.DefaultMaxProducts); err != nil {
					continue
				}
				generated = append(generated, s)
			}
			perBlock[i] = generated
		}
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go worker()
	}
	go func() {
		defer close(jobs)
		for i := range blocks {
			jobs <- i
		}
	}()
	wg.Wait()

	var secondary []*chem.Synthesis
	for _, generated := range perBlock {
		secondary = append(secondary, generated...)
	}
	b.secondary = secondary

	if b.logger != nil {
		b.logger.Info("generated secondary building blocks", logging.Int("count", len(secondary)))
	}
	return b, nil
}

// SecondaryBuildingBlocksFromCache loads secondary building blocks from a
// previously saved cache stream.
func (b *Builder) SecondaryBuildingBlocksFromCache(ctx context.Context, r io.Reader, pickler chem.Pickler) (*Builder, error) {
	_, secondary, err := loadSynthesisVector(ctx, r, pickler)
	if err != nil {
		return b, err
	}
	b.secondary = secondary
	return b, nil
}

// BuildPrimaryIndex builds the reactant index over primary building
// blocks.
func (b *Builder) BuildPrimaryIndex(ctx context.Context, workers int) (*Builder, error) {
	if b.primary == nil || b.reactions == nil {
		return b, errors.New(errors.CodeInvalidParam, "primary building blocks and reactions must be set before indexing")
	}
	blocks := b.primary.All()
	match := wrapMatchByReaction(b.reactions, b.backend, func(itemIndex int) chem.Molecule { return blocks[itemIndex] })
	idx, err := chemindex.Build(ctx, len(blocks), chemindex.ReactionViewsFromList(b.reactions), match, workers)
	if err != nil {
		return b, err
	}
	b.primaryIndex = idx
	return b, nil
}

// BuildSecondaryIndex builds the reactant index over secondary building
// blocks: a secondary synthesis matches a reaction slot when any molecule
// in its top frame matches that slot.
func (b *Builder) BuildSecondaryIndex(ctx context.Context, workers int) (*Builder, error) {
	if b.reactions == nil {
		return b, errors.New(errors.CodeInvalidParam, "reactions must be set before indexing")
	}
	secondary := b.secondary
	itemTopSet := func(itemIndex int) []chem.Molecule {
		return secondary[itemIndex].TopSet()
	}
	match := wrapMatchAnyInTopSet(b.reactions, b.backend, itemTopSet)
	idx, err := chemindex.Build(ctx, len(secondary), chemindex.ReactionViewsFromList(b.reactions), match, workers)
	if err != nil {
		return b, err
	}
	b.secondaryIndex = idx
	return b, nil
}

// wrapMatchByReaction adapts a per-item molecule lookup and a reaction
// catalogue into a chemindex.MatchFunc.
func wrapMatchByReaction(reactions *container.ReactionList, backend chem.Backend, item func(itemIndex int) chem.Molecule) chemindex.MatchFunc {
	return func(ctx context.Context, reactionIndex, slot, itemIndex int) (bool, error) {
		rxn := reactions.All()[reactionIndex]
		return backend.SubstructureMatch(ctx, item(itemIndex), rxn.ReactantPattern(slot))
	}
}

// wrapMatchAnyInTopSet adapts a per-item top-frame lookup and a reaction
// catalogue into a chemindex.MatchFunc: an item matches a (reaction, slot)
// if any molecule in its top frame matches, mirroring
// get_suitable_reactant_indices looping over every product of a
// synthesis's top frame and breaking on first match.
func wrapMatchAnyInTopSet(reactions *container.ReactionList, backend chem.Backend, itemTopSet func(itemIndex int) []chem.Molecule) chemindex.MatchFunc {
	return func(ctx context.Context, reactionIndex, slot, itemIndex int) (bool, error) {
		rxn := reactions.All()[reactionIndex]
		pattern := rxn.ReactantPattern(slot)
		for _, m := range itemTopSet(itemIndex) {
			ok, err := backend.SubstructureMatch(ctx, m, pattern)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// AllFromCache loads every field of the builder from a previously saved
// ChemicalSpace cache directory layout.
func (b *Builder) AllFromCache(ctx context.Context, files CacheFiles, pickler chem.Pickler) (*Builder, error) {
	if _, err := b.BuildingBlocksFromCache(ctx, files.PrimaryBuildingBlocks, pickler); err != nil {
		return b, err
	}
	_, secondary, err := loadSynthesisVector(ctx, files.SecondaryBuildingBlocks, pickler)
	if err != nil {
		return b, err
	}
	b.secondary = secondary
	if _, err := b.ReactionsFromCache(ctx, files.Reactions, pickler); err != nil {
		return b, err
	}
	primaryIdx, err := chemindex.Load(files.PrimaryIndex)
	if err != nil {
		return b, err
	}
	b.primaryIndex = primaryIdx
	secondaryIdx, err := chemindex.Load(files.SecondaryIndex)
	if err != nil {
		return b, err
	}
	b.secondaryIndex = secondaryIdx
	return b, nil
}

// CacheFiles names the five open streams of a ChemicalSpace cache
// directory layout.
type CacheFiles struct {
	PrimaryBuildingBlocks   io.Reader
	SecondaryBuildingBlocks io.Reader
	Reactions               io.Reader
	PrimaryIndex            io.Reader
	SecondaryIndex          io.Reader
}

// Build assembles the final ChemicalSpace, requiring every field to have
// been set by a prior builder step.
func (b *Builder) Build() (*ChemicalSpace, error) {
	if b.primary == nil {
		return nil, errors.New(errors.CodeInvalidParam, "primary building blocks not set")
	}
	if b.reactions == nil {
		return nil, errors.New(errors.CodeInvalidParam, "reactions not set")
	}
	if b.primaryIndex == nil {
		return nil, errors.New(errors.CodeInvalidParam, "primary index not set")
	}
	if b.secondaryIndex == nil {
		return nil, errors.New(errors.CodeInvalidParam, "secondary index not set")
	}
	return &ChemicalSpace{
		primary:        b.primary,
		secondary:      b.secondary,
		reactions:      b.reactions,
		primaryIndex:   b.primaryIndex,
		secondaryIndex: b.secondaryIndex,
	}, nil
}
