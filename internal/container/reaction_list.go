package container

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/prexsyn/engine/internal/binpickle"
	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/pkg/errors"
)

// ReactionList is the ordered, dense-indexed sequence of Reactions:
// get(i).reaction_index == i for every entry, k(r) >= 1 for every entry.
type ReactionList struct {
	reactions []chem.Reaction
}

// NewReactionList stamps reaction_index over raw in encounter order,
// skipping any reaction with zero reactant slots: a reaction with no
// reactant slots cannot be used and is dropped rather than failing the
// whole construction.
func NewReactionList(raw []chem.Reaction) (*ReactionList, error) {
	reactions := make([]chem.Reaction, 0, len(raw))
	for _, r := range raw {
		if r.NumReactantSlots() == 0 {
			continue
		}
		reactions = append(reactions, r.WithIndex(len(reactions)))
	}
	return &ReactionList{reactions: reactions}, nil
}

// NewReactionListFromSMARTS parses one reaction SMARTS per non-blank,
// non-comment line of r, in order.
func NewReactionListFromSMARTS(ctx context.Context, backend chem.Backend, r io.Reader) (*ReactionList, error) {
	var raw []chem.Reaction
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rxn, err := backend.ParseReactionSMARTS(ctx, line)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeReactionError, "parse reaction SMARTS")
		}
		raw = append(raw, rxn)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeIOError, "read reaction SMARTS")
	}
	return NewReactionList(raw)
}

// Len returns the number of reactions.
func (l *ReactionList) Len() int {
	return len(l.reactions)
}

// Get returns the reaction at the given reaction_index.
func (l *ReactionList) Get(index int) (chem.Reaction, error) {
	if index < 0 || index >= len(l.reactions) {
		return chem.Reaction{}, errors.New(errors.CodeIndexOutOfRange, "reaction index out of range")
	}
	return l.reactions[index], nil
}

// All returns every reaction, in reaction_index order. Callers must not
// mutate the returned slice.
func (l *ReactionList) All() []chem.Reaction {
	return l.reactions
}

// Save persists the list: a uint64 count, then one backend
// pickle per reaction.
func (l *ReactionList) Save(ctx context.Context, w io.Writer, pickler chem.Pickler) error {
	if err := binpickle.WriteUint64(w, uint64(len(l.reactions))); err != nil {
		return err
	}
	for _, r := range l.reactions {
		blob, err := pickler.PickleReaction(ctx, r)
		if err != nil {
			return errors.Wrap(err, errors.CodeIOError, "pickle reaction")
		}
		if err := binpickle.WriteBlob(w, blob); err != nil {
			return err
		}
	}
	return nil
}

// LoadReactionList reconstructs a list from the stream Save wrote.
func LoadReactionList(ctx context.Context, r io.Reader, pickler chem.Pickler) (*ReactionList, error) {
	count, err := binpickle.ReadUint64(r)
	if err != nil {
		return nil, err
	}
	reactions := make([]chem.Reaction, 0, count)
	for i := uint64(0); i < count; i++ {
		blob, err := binpickle.ReadBlob(r)
		if err != nil {
			return nil, err
		}
		rxn, err := pickler.UnpickleReaction(ctx, blob)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIOError, "unpickle reaction")
		}
		reactions = append(reactions, rxn)
	}
	return &ReactionList{reactions: reactions}, nil
}
