package featurizer

import "fmt"

// Detokenizer renders a TokenSequenceFeaturizer column triple back into a
// human-readable trace, for the `prexsyn generate` CLI's batch-inspection
// mode. It does not need the underlying building blocks or reactions; it
// only names token kinds and the indices stamped into them, which is
// enough to spot-check a batch without re-running the generator.
type Detokenizer struct {
	def TokenDef
}

// NewDetokenizer builds a Detokenizer matching the TokenDef a
// TokenSequenceFeaturizer was configured with.
func NewDetokenizer(def TokenDef) *Detokenizer {
	return &Detokenizer{def: def}
}

// Describe returns one line per token position. tokenTypes, bbIndices, and
// rxnIndices must be the same length (as written by
// TokenSequenceFeaturizer.Apply).
func (d *Detokenizer) Describe(tokenTypes, bbIndices, rxnIndices []int64) []string {
	out := make([]string, len(tokenTypes))
	for i, t := range tokenTypes {
		switch t {
		case d.def.PAD:
			out[i] = "PAD"
		case d.def.START:
			out[i] = "START"
		case d.def.END:
			out[i] = "END"
		case d.def.BB:
			out[i] = fmt.Sprintf("BB[%d]", bbIndices[i])
		case d.def.RXN:
			out[i] = fmt.Sprintf("RXN[%d]", rxnIndices[i])
		default:
			out[i] = fmt.Sprintf("UNKNOWN(%d)", t)
		}
	}
	return out
}
