package buffer

import "github.com/prexsyn/engine/internal/featurizer"

// column is one named series of the ring: capacity slots of a fixed shape
// and dtype, allocated on first write and never reshaped afterward: once
// registered with (shape, dtype), these never change. data holds exactly
// one of []int64, []float32, or []bool, sized capacity*numel.
type column struct {
	dtype featurizer.DType
	shape []int
	numel int
	data  any
}

// numelOf returns the product of shape, 1 for a scalar (empty shape).
func numelOf(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func newColumn(capacity int, dtype featurizer.DType, shape []int) *column {
	numel := numelOf(shape)
	var data any
	switch dtype {
	case featurizer.Int64:
		data = make([]int64, capacity*numel)
	case featurizer.Float32:
		data = make([]float32, capacity*numel)
	case featurizer.Bool:
		data = make([]bool, capacity*numel)
	}
	return &column{dtype: dtype, shape: shape, numel: numel, data: data}
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// writeSlot copies value (length numel, already flattened) into slot index
// of the column's backing storage.
func (c *column) writeSlot(index int, value any) {
	switch c.dtype {
	case featurizer.Int64:
		copy(c.data.([]int64)[index*c.numel:(index+1)*c.numel], value.([]int64))
	case featurizer.Float32:
		copy(c.data.([]float32)[index*c.numel:(index+1)*c.numel], value.([]float32))
	case featurizer.Bool:
		copy(c.data.([]bool)[index*c.numel:(index+1)*c.numel], value.([]bool))
	}
}

// readSpan returns the sub-slice covering slots [start, start+length) as
// a typed slice matching c.dtype (one of []int64, []float32, []bool).
func (c *column) readSpan(start, length int) any {
	lo, hi := start*c.numel, (start+length)*c.numel
	switch c.dtype {
	case featurizer.Int64:
		return c.data.([]int64)[lo:hi]
	case featurizer.Float32:
		return c.data.([]float32)[lo:hi]
	case featurizer.Bool:
		return c.data.([]bool)[lo:hi]
	default:
		return nil
	}
}
