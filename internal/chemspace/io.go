package chemspace

import (
	"context"
	"io"

	"github.com/prexsyn/engine/internal/binpickle"
	"github.com/prexsyn/engine/internal/chem"
)

// saveSynthesisVector persists a slice of Synthesis values (the secondary
// building block vector) as a count followed by one chem.SaveSynthesis
// stream per entry.
func saveSynthesisVector(ctx context.Context, w io.Writer, vec []*chem.Synthesis, pickler chem.Pickler) error {
	if err := binpickle.WriteUint64(w, uint64(len(vec))); err != nil {
		return err
	}
	for _, s := range vec {
		if err := chem.SaveSynthesis(ctx, w, s, pickler); err != nil {
			return err
		}
	}
	return nil
}

// loadSynthesisVector reconstructs the vector saveSynthesisVector wrote.
func loadSynthesisVector(ctx context.Context, r io.Reader, pickler chem.Pickler) (int, []*chem.Synthesis, error) {
	count, err := binpickle.ReadUint64(r)
	if err != nil {
		return 0, nil, err
	}
	vec := make([]*chem.Synthesis, 0, count)
	for i := uint64(0); i < count; i++ {
		s, err := chem.LoadSynthesis(ctx, r, pickler)
		if err != nil {
			return 0, nil, err
		}
		vec = append(vec, s)
	}
	return int(count), vec, nil
}

// Save persists cs across the five io.Writers of the cache directory
// layout, in the fixed order: primary building blocks, secondary
// building blocks, reactions, primary index, secondary index.
func (cs *ChemicalSpace) Save(ctx context.Context, files CacheWriters, pickler chem.Pickler) error {
	if err := cs.primary.Save(ctx, files.PrimaryBuildingBlocks, pickler); err != nil {
		return err
	}
	if err := saveSynthesisVector(ctx, files.SecondaryBuildingBlocks, cs.secondary, pickler); err != nil {
		return err
	}
	if err := cs.reactions.Save(ctx, files.Reactions, pickler); err != nil {
		return err
	}
	if err := cs.primaryIndex.Save(files.PrimaryIndex); err != nil {
		return err
	}
	if err := cs.secondaryIndex.Save(files.SecondaryIndex); err != nil {
		return err
	}
	return nil
}

// CacheWriters names the five open streams of a ChemicalSpace cache
// directory layout, the write-side counterpart of CacheFiles.
type CacheWriters struct {
	PrimaryBuildingBlocks   io.Writer
	SecondaryBuildingBlocks io.Writer
	Reactions               io.Writer
	PrimaryIndex            io.Writer
	SecondaryIndex          io.Writer
}
