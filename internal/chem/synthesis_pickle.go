package chem

import (
	"context"
	"io"

	"github.com/prexsyn/engine/internal/binpickle"
	"github.com/prexsyn/engine/pkg/errors"
)

const (
	synthesisTokenMolecule byte = 0
	synthesisTokenReaction byte = 1
)

// SaveSynthesis persists s as its postfix notation (one tagged token per
// entry) followed by its stack (one MolSet per frame). A full
// replay of PushReaction is not used for reconstruction because reaction
// application may be backend-nondeterministic across runs; the stack
// frames actually produced are saved directly instead.
func SaveSynthesis(ctx context.Context, w io.Writer, s *Synthesis, pickler Pickler) error {
	if err := binpickle.WriteUint64(w, uint64(s.postfix.Len())); err != nil {
		return err
	}
	for i := 0; i < s.postfix.Len(); i++ {
		token := s.postfix.At(i)
		switch token.Kind {
		case TokenMolecule:
			if err := binpickle.WriteByte(w, synthesisTokenMolecule); err != nil {
				return err
			}
			blob, err := pickler.PickleMolecule(ctx, token.Molecule)
			if err != nil {
				return errors.Wrap(err, errors.CodeIOError, "pickle synthesis token molecule")
			}
			if err := binpickle.WriteBlob(w, blob); err != nil {
				return err
			}
		case TokenReaction:
			if err := binpickle.WriteByte(w, synthesisTokenReaction); err != nil {
				return err
			}
			blob, err := pickler.PickleReaction(ctx, token.Reaction)
			if err != nil {
				return errors.Wrap(err, errors.CodeIOError, "pickle synthesis token reaction")
			}
			if err := binpickle.WriteBlob(w, blob); err != nil {
				return err
			}
		}
	}

	if err := binpickle.WriteUint64(w, uint64(len(s.stack))); err != nil {
		return err
	}
	for _, frame := range s.stack {
		if err := binpickle.WriteUint64(w, uint64(len(frame))); err != nil {
			return err
		}
		for _, m := range frame {
			blob, err := pickler.PickleMolecule(ctx, m)
			if err != nil {
				return errors.Wrap(err, errors.CodeIOError, "pickle synthesis stack molecule")
			}
			if err := binpickle.WriteBlob(w, blob); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadSynthesis reconstructs a Synthesis from the stream SaveSynthesis
// wrote.
func LoadSynthesis(ctx context.Context, r io.Reader, pickler Pickler) (*Synthesis, error) {
	numTokens, err := binpickle.ReadUint64(r)
	if err != nil {
		return nil, err
	}
	var postfix PostfixNotation
	for i := uint64(0); i < numTokens; i++ {
		kind, err := binpickle.ReadByte(r)
		if err != nil {
			return nil, err
		}
		blob, err := binpickle.ReadBlob(r)
		if err != nil {
			return nil, err
		}
		switch kind {
		case synthesisTokenMolecule:
			m, err := pickler.UnpickleMolecule(ctx, blob)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeIOError, "unpickle synthesis token molecule")
			}
			postfix.AppendMolecule(m)
		case synthesisTokenReaction:
			rxn, err := pickler.UnpickleReaction(ctx, blob)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeIOError, "unpickle synthesis token reaction")
			}
			postfix.AppendReaction(rxn)
		default:
			return nil, errors.New(errors.CodeIOError, "unknown synthesis token kind")
		}
	}

	numFrames, err := binpickle.ReadUint64(r)
	if err != nil {
		return nil, err
	}
	stack := make([]MolSet, 0, numFrames)
	for i := uint64(0); i < numFrames; i++ {
		numMolecules, err := binpickle.ReadUint64(r)
		if err != nil {
			return nil, err
		}
		frame := make(MolSet, 0, numMolecules)
		for j := uint64(0); j < numMolecules; j++ {
			blob, err := binpickle.ReadBlob(r)
			if err != nil {
				return nil, err
			}
			m, err := pickler.UnpickleMolecule(ctx, blob)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeIOError, "unpickle synthesis stack molecule")
			}
			frame = append(frame, m)
		}
		stack = append(stack, frame)
	}

	return &Synthesis{postfix: postfix, stack: stack}, nil
}
