package featurizer

import (
	"context"
	"math/rand"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/pkg/errors"
)

// TokenDef assigns the five reserved token ids of a postfix-notation
// sequence. PAD fills unused trailing positions, START/END bracket the
// real program, BB marks a building-block token (paired with its
// building_block_index) and RXN marks a reaction token (paired with its
// reaction_index).
type TokenDef struct {
	PAD   int64
	END   int64
	START int64
	BB    int64
	RXN   int64
}

// DefaultTokenDef returns the standard 0..4 token id assignment.
func DefaultTokenDef() TokenDef {
	return TokenDef{PAD: 0, END: 1, START: 2, BB: 3, RXN: 4}
}

// TokenSequenceOption configures TokenSequenceFeaturizer.
type TokenSequenceOption struct {
	// MaxLength is the fixed output sequence length every call pads or
	// truncates to, keeping the written columns shape-stable.
	MaxLength int
	TokenDef  TokenDef
}

// DefaultTokenSequenceOption returns max_length=16 with DefaultTokenDef.
func DefaultTokenSequenceOption() TokenSequenceOption {
	return TokenSequenceOption{MaxLength: 16, TokenDef: DefaultTokenDef()}
}

// TokenSequenceFeaturizer writes a synthesis's postfix notation as three
// parallel fixed-length columns: synthesis.token_types, synthesis.bb_indices,
// synthesis.rxn_indices. A building-block token's bb_indices entry is its
// building_block_index and
// its rxn_indices entry is 0; a reaction token is the reverse. A sequence
// longer than MaxLength is truncated to a uniformly chosen contiguous
// window rather than always keeping the prefix, so training sees every
// part of longer programs across calls.
type TokenSequenceFeaturizer struct {
	option TokenSequenceOption
	rng    *rand.Rand
}

// NewTokenSequenceFeaturizer constructs a featurizer seeded independently
// of any other component's RNG.
func NewTokenSequenceFeaturizer(option TokenSequenceOption, seed uint64) *TokenSequenceFeaturizer {
	return &TokenSequenceFeaturizer{option: option, rng: rand.New(rand.NewSource(int64(seed)))}
}

type synthesisToken struct {
	tokenType int64
	bbIndex   int64
	rxnIndex  int64
}

func (f *TokenSequenceFeaturizer) Apply(ctx context.Context, syn *chem.Synthesis, b Builder) error {
	def := f.option.TokenDef
	tokens := make([]synthesisToken, 0, f.option.MaxLength)
	tokens = append(tokens, synthesisToken{tokenType: def.START})

	pfn := syn.PostfixNotation()
	for i := 0; i < pfn.Len(); i++ {
		item := pfn.At(i)
		switch item.Kind {
		case chem.TokenMolecule:
			bbIndex, ok := item.Molecule.Annotation(chem.AnnotationBuildingBlockIndex)
			if !ok {
				return errors.New(errors.CodeInternal, "synthesis molecule token missing building_block_index annotation")
			}
			tokens = append(tokens, synthesisToken{tokenType: def.BB, bbIndex: int64(bbIndex)})
		case chem.TokenReaction:
			rxnIndex, ok := item.Reaction.Index()
			if !ok {
				return errors.New(errors.CodeInternal, "synthesis reaction token missing reaction_index annotation")
			}
			tokens = append(tokens, synthesisToken{tokenType: def.RXN, rxnIndex: int64(rxnIndex)})
		}
	}
	tokens = append(tokens, synthesisToken{tokenType: def.END})

	tokens = fitToLength(tokens, f.option.MaxLength, def, f.rng)

	tokenTypes := make([]int64, len(tokens))
	bbIndices := make([]int64, len(tokens))
	rxnIndices := make([]int64, len(tokens))
	for i, t := range tokens {
		tokenTypes[i] = t.tokenType
		bbIndices[i] = t.bbIndex
		rxnIndices[i] = t.rxnIndex
	}

	if err := b.AddVectorInt64("synthesis.token_types", tokenTypes); err != nil {
		return err
	}
	if err := b.AddVectorInt64("synthesis.bb_indices", bbIndices); err != nil {
		return err
	}
	return b.AddVectorInt64("synthesis.rxn_indices", rxnIndices)
}

// fitToLength pads tokens with PAD up to maxLength, or truncates to a
// uniformly random contiguous window of length maxLength when longer.
func fitToLength(tokens []synthesisToken, maxLength int, def TokenDef, rng *rand.Rand) []synthesisToken {
	if len(tokens) > maxLength {
		offset := rng.Intn(len(tokens) - maxLength + 1)
		return tokens[offset : offset+maxLength]
	}
	out := make([]synthesisToken, maxLength)
	copy(out, tokens)
	for i := len(tokens); i < maxLength; i++ {
		out[i] = synthesisToken{tokenType: def.PAD}
	}
	return out
}
