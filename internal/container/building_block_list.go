// Package container implements the index-stable, binary-persistable
// collections BuildingBlockList and ReactionList.
// Both are built once by a skip-on-failure preprocessing pipeline and are
// read-only afterwards, safe to share across goroutines without locking.
package container

import (
	"context"
	"io"

	"github.com/prexsyn/engine/internal/binpickle"
	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/logging"
	"github.com/prexsyn/engine/pkg/errors"
)

// BuildingBlockPreprocessingOption controls the per-molecule preprocessing
// pipeline applied once at BuildingBlockList construction.
type BuildingBlockPreprocessingOption struct {
	LargestFragmentOnly bool
	RemoveHydrogens     bool
}

const (
	flagLargestFragmentOnly byte = 1 << 0
	flagRemoveHydrogens     byte = 1 << 1
)

// Preprocessor is the optional backend capability BuildingBlockList needs
// when an option requests largest-fragment or hydrogen-removal
// preprocessing. It is intentionally not part of chem.Backend (C1): most
// callers never preprocess, and substructure decomposition is squarely a
// cheminformatics-toolkit concern.
type Preprocessor interface {
	LargestFragment(ctx context.Context, m chem.Molecule) (chem.Molecule, error)
	RemoveHydrogens(ctx context.Context, m chem.Molecule) (chem.Molecule, error)
}

// BuildingBlockList is the ordered, dense-indexed sequence of Molecules:
// get(i).building_block_index == i for every surviving i.
type BuildingBlockList struct {
	blocks []chem.Molecule
	option BuildingBlockPreprocessingOption
}

// NewBuildingBlockList runs the preprocessing pipeline over raw in encounter
// order, skipping any molecule for which an enabled step fails, and stamps
// original_index/building_block_index on each surviving molecule.
func NewBuildingBlockList(ctx context.Context, pre Preprocessor, raw []chem.Molecule, option BuildingBlockPreprocessingOption, logger logging.Logger) (*BuildingBlockList, error) {
	if (option.LargestFragmentOnly || option.RemoveHydrogens) && pre == nil {
		return nil, errors.New(errors.CodeMoleculeError, "preprocessing requested but no Preprocessor was supplied")
	}

	list := &BuildingBlockList{option: option}
	for originalIndex, m := range raw {
		cur := m.WithAnnotation(chem.AnnotationOriginalIndex, originalIndex)
		ok := true
		if option.LargestFragmentOnly {
			out, err := pre.LargestFragment(ctx, cur)
			if err != nil {
				ok = false
			} else {
				cur = out
			}
		}
		if ok && option.RemoveHydrogens {
			out, err := pre.RemoveHydrogens(ctx, cur)
			if err != nil {
				ok = false
			} else {
				cur = out
			}
		}
		if !ok {
			if logger != nil {
				logger.Debug("skipping building block that failed preprocessing", logging.Int("original_index", originalIndex))
			}
			continue
		}
		cur = cur.WithAnnotation(chem.AnnotationBuildingBlockIndex, len(list.blocks))
		list.blocks = append(list.blocks, cur)
	}
	return list, nil
}

// Len returns the number of surviving building blocks.
func (l *BuildingBlockList) Len() int {
	return len(l.blocks)
}

// Get returns the molecule at the given building_block_index.
func (l *BuildingBlockList) Get(index int) (chem.Molecule, error) {
	if index < 0 || index >= len(l.blocks) {
		return chem.Molecule{}, errors.New(errors.CodeIndexOutOfRange, "building block index out of range")
	}
	return l.blocks[index], nil
}

// All returns every building block, in building_block_index order. Callers
// must not mutate the returned slice.
func (l *BuildingBlockList) All() []chem.Molecule {
	return l.blocks
}

// Option returns the preprocessing option this list was built with.
func (l *BuildingBlockList) Option() BuildingBlockPreprocessingOption {
	return l.option
}

// Save persists the list: a one-byte option header, a
// uint64 count, then one backend pickle per molecule.
func (l *BuildingBlockList) Save(ctx context.Context, w io.Writer, pickler chem.Pickler) error {
	var optByte byte
	if l.option.LargestFragmentOnly {
		optByte |= flagLargestFragmentOnly
	}
	if l.option.RemoveHydrogens {
		optByte |= flagRemoveHydrogens
	}
	if err := binpickle.WriteByte(w, optByte); err != nil {
		return err
	}
	if err := binpickle.WriteUint64(w, uint64(len(l.blocks))); err != nil {
		return err
	}
	for _, m := range l.blocks {
		blob, err := pickler.PickleMolecule(ctx, m)
		if err != nil {
			return errors.Wrap(err, errors.CodeIOError, "pickle building block")
		}
		if err := binpickle.WriteBlob(w, blob); err != nil {
			return err
		}
	}
	return nil
}

// LoadBuildingBlockList reconstructs a list from the stream Save wrote. The
// building_block_index/original_index invariant is preserved because each
// molecule's pickle already carries its annotation dict; Load reconstructs
// indices exactly from the pickle.
func LoadBuildingBlockList(ctx context.Context, r io.Reader, pickler chem.Pickler) (*BuildingBlockList, error) {
	optByte, err := binpickle.ReadByte(r)
	if err != nil {
		return nil, err
	}
	option := BuildingBlockPreprocessingOption{
		LargestFragmentOnly: optByte&flagLargestFragmentOnly != 0,
		RemoveHydrogens:     optByte&flagRemoveHydrogens != 0,
	}
	count, err := binpickle.ReadUint64(r)
	if err != nil {
		return nil, err
	}
	blocks := make([]chem.Molecule, 0, count)
	for i := uint64(0); i < count; i++ {
		blob, err := binpickle.ReadBlob(r)
		if err != nil {
			return nil, err
		}
		m, err := pickler.UnpickleMolecule(ctx, blob)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIOError, "unpickle building block")
		}
		blocks = append(blocks, m)
	}
	return &BuildingBlockList{blocks: blocks, option: option}, nil
}
