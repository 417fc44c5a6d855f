package featurizer_test

import (
	"testing"

	"github.com/prexsyn/engine/internal/featurizer"
	"github.com/stretchr/testify/assert"
)

func TestDetokenizer_Describe(t *testing.T) {
	def := featurizer.DefaultTokenDef()
	d := featurizer.NewDetokenizer(def)

	tokenTypes := []int64{def.START, def.BB, def.BB, def.RXN, def.END, def.PAD}
	bbIndices := []int64{0, 4, 7, 0, 0, 0}
	rxnIndices := []int64{0, 0, 0, 2, 0, 0}

	got := d.Describe(tokenTypes, bbIndices, rxnIndices)
	assert.Equal(t, []string{"START", "BB[4]", "BB[7]", "RXN[2]", "END", "PAD"}, got)
}
