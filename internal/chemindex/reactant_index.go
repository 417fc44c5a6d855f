// Package chemindex implements the inverted reactant index: for every
// (reaction, slot) pair, the sorted list of item indices whose molecule
// matches that slot's reactant pattern.
package chemindex

import (
	"context"
	"io"
	"sync"

	"github.com/prexsyn/engine/internal/binpickle"
	"github.com/prexsyn/engine/internal/container"
	"github.com/prexsyn/engine/pkg/errors"
)

// MatchFunc reports whether the item at itemIndex satisfies the slot-th
// reactant slot of the reaction at reactionIndex. It is injected rather
// than hard-coded to chem.Backend.SubstructureMatch so the same index
// builder serves both building blocks and secondary building blocks (whole
// Synthesis products), matching the two get_suitable_reactant_indices
// overloads this index serves.
type MatchFunc func(ctx context.Context, reactionIndex, slot, itemIndex int) (bool, error)

// ReactionView is the minimal slice of a reaction Build needs: its slot
// count. Kept narrow so callers can pass container.ReactionList entries
// without chemindex importing chem directly for this purpose.
type ReactionView interface {
	NumReactantSlots() int
}

// ReactantIndex is the read-only jagged structure index[r][s] = sorted
// item indices. The zero value is not usable; construct via
// Build or Load.
type ReactantIndex struct {
	data [][][]int
}

// Build computes the index over numItems items for every reaction in
// reactions, evaluating match concurrently across (reaction, slot) pairs
// using up to workers goroutines. Each pair's scan is itself a sequential
// walk over item indices 0..numItems-1, so the result is deterministic and
// reproducible for a deterministic match function regardless of goroutine
// scheduling, given a deterministic match function.
func Build(ctx context.Context, numItems int, reactions []ReactionView, match MatchFunc, workers int) (*ReactantIndex, error) {
	if workers < 1 {
		workers = 1
	}

	data := make([][][]int, len(reactions))
	for r, rxn := range reactions {
		data[r] = make([][]int, rxn.NumReactantSlots())
	}

	type job struct {
		reaction int
		slot     int
	}
	jobs := make(chan job)
	errs := make(chan error, workers)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for j := range jobs {
			matched := make([]int, 0)
			for itemIndex := 0; itemIndex < numItems; itemIndex++ {
				ok, err := match(ctx, j.reaction, j.slot, itemIndex)
				if err != nil {
					select {
					case errs <- errors.Wrap(err, errors.CodeReactionError, "reactant match failed"):
					default:
					}
					return
				}
				if ok {
					matched = append(matched, itemIndex)
				}
			}
			data[j.reaction][j.slot] = matched
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}

	go func() {
		defer close(jobs)
		for r, rxn := range reactions {
			for s := 0; s < rxn.NumReactantSlots(); s++ {
				select {
				case jobs <- job{reaction: r, slot: s}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &ReactantIndex{data: data}, nil
}

// NumReactions returns the number of reactions this index covers.
func (idx *ReactantIndex) NumReactions() int {
	return len(idx.data)
}

// NumReactantSlots returns the slot count of reaction r.
func (idx *ReactantIndex) NumReactantSlots(r int) (int, error) {
	if r < 0 || r >= len(idx.data) {
		return 0, errors.New(errors.CodeIndexOutOfRange, "reaction index out of range")
	}
	return len(idx.data[r]), nil
}

// MolecularIndices returns the sorted item indices matching reaction r's
// slot s. Callers must not mutate the returned slice.
func (idx *ReactantIndex) MolecularIndices(r, s int) ([]int, error) {
	if r < 0 || r >= len(idx.data) {
		return nil, errors.New(errors.CodeIndexOutOfRange, "reaction index out of range")
	}
	if s < 0 || s >= len(idx.data[r]) {
		return nil, errors.New(errors.CodeIndexOutOfRange, "reactant slot out of range")
	}
	return idx.data[r][s], nil
}

// Save persists the index: reaction count, then per
// reaction a slot count followed by each slot's item-index list.
func (idx *ReactantIndex) Save(w io.Writer) error {
	if err := binpickle.WriteUint64(w, uint64(len(idx.data))); err != nil {
		return err
	}
	for _, slots := range idx.data {
		if err := binpickle.WriteUint64(w, uint64(len(slots))); err != nil {
			return err
		}
		for _, items := range slots {
			if err := binpickle.WriteUint64(w, uint64(len(items))); err != nil {
				return err
			}
			for _, item := range items {
				if err := binpickle.WriteUint64(w, uint64(item)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Load reconstructs a ReactantIndex from the stream Save wrote.
func Load(r io.Reader) (*ReactantIndex, error) {
	numReactions, err := binpickle.ReadUint64(r)
	if err != nil {
		return nil, err
	}
	data := make([][][]int, numReactions)
	for i := range data {
		numSlots, err := binpickle.ReadUint64(r)
		if err != nil {
			return nil, err
		}
		slots := make([][]int, numSlots)
		for s := range slots {
			numItems, err := binpickle.ReadUint64(r)
			if err != nil {
				return nil, err
			}
			items := make([]int, numItems)
			for k := range items {
				v, err := binpickle.ReadUint64(r)
				if err != nil {
					return nil, err
				}
				items[k] = int(v)
			}
			slots[s] = items
		}
		data[i] = slots
	}
	return &ReactantIndex{data: data}, nil
}

// ReactionViewsFromList adapts a container.ReactionList into the
// ReactionView slice Build expects.
func ReactionViewsFromList(list *container.ReactionList) []ReactionView {
	reactions := list.All()
	views := make([]ReactionView, len(reactions))
	for i, r := range reactions {
		views[i] = slotCounter(r.NumReactantSlots())
	}
	return views
}

type slotCounter int

func (s slotCounter) NumReactantSlots() int { return int(s) }
