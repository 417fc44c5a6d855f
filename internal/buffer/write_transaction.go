package buffer

import (
	"context"

	"github.com/prexsyn/engine/internal/featurizer"
	"github.com/prexsyn/engine/pkg/errors"
)

// WriteTransaction is a producer's scratch collector for one synthesis's
// featurized values, implementing featurizer.Builder so a
// featurizer.Set can write directly into it. Values are held uncommitted
// until Commit copies them into the ring; an abandoned transaction (the
// caller never calls Commit, e.g. because a featurizer returned an error)
// releases no semaphore permits and leaves the buffer untouched.
type WriteTransaction struct {
	buffer *DataBuffer

	names     []string
	shapes    map[string][]int
	dtypes    map[string]featurizer.DType
	values    map[string]any
	committed bool
}

var _ featurizer.Builder = (*WriteTransaction)(nil)

// BeginWrite starts a new WriteTransaction against b.
func (b *DataBuffer) BeginWrite() *WriteTransaction {
	return &WriteTransaction{
		buffer: b,
		shapes: make(map[string][]int),
		dtypes: make(map[string]featurizer.DType),
		values: make(map[string]any),
	}
}

func (t *WriteTransaction) claim(name string, dtype featurizer.DType, shape []int, value any) error {
	if _, exists := t.shapes[name]; exists {
		return errors.New(errors.CodeInvalidParam, "duplicate write to column "+name+" within one transaction")
	}
	t.names = append(t.names, name)
	t.shapes[name] = shape
	t.dtypes[name] = dtype
	t.values[name] = value
	return nil
}

func (t *WriteTransaction) AddScalarInt64(name string, value int64) error {
	return t.claim(name, featurizer.Int64, nil, []int64{value})
}

func (t *WriteTransaction) AddScalarFloat32(name string, value float32) error {
	return t.claim(name, featurizer.Float32, nil, []float32{value})
}

func (t *WriteTransaction) AddScalarBool(name string, value bool) error {
	return t.claim(name, featurizer.Bool, nil, []bool{value})
}

func (t *WriteTransaction) AddVectorInt64(name string, values []int64) error {
	return t.claim(name, featurizer.Int64, []int{len(values)}, append([]int64(nil), values...))
}

func (t *WriteTransaction) AddVectorFloat32(name string, values []float32) error {
	return t.claim(name, featurizer.Float32, []int{len(values)}, append([]float32(nil), values...))
}

func (t *WriteTransaction) AddVectorBool(name string, values []bool) error {
	return t.claim(name, featurizer.Bool, []int{len(values)}, append([]bool(nil), values...))
}

func (t *WriteTransaction) AddMatrixInt64(name string, values [][]int64) error {
	flat, shape, err := flattenInt64(values)
	if err != nil {
		return err
	}
	return t.claim(name, featurizer.Int64, shape, flat)
}

func (t *WriteTransaction) AddMatrixFloat32(name string, values [][]float32) error {
	flat, shape, err := flattenFloat32(values)
	if err != nil {
		return err
	}
	return t.claim(name, featurizer.Float32, shape, flat)
}

func (t *WriteTransaction) AddMatrixBool(name string, values [][]bool) error {
	flat, shape, err := flattenBool(values)
	if err != nil {
		return err
	}
	return t.claim(name, featurizer.Bool, shape, flat)
}

func flattenInt64(rows [][]int64) ([]int64, []int, error) {
	if len(rows) == 0 {
		return nil, nil, errors.New(errors.CodeInvalidParam, "matrix value must have at least one row")
	}
	cols := len(rows[0])
	out := make([]int64, 0, len(rows)*cols)
	for _, row := range rows {
		if len(row) != cols {
			return nil, nil, errors.New(errors.CodeInvalidParam, "matrix rows must all share the same width")
		}
		out = append(out, row...)
	}
	return out, []int{len(rows), cols}, nil
}

func flattenFloat32(rows [][]float32) ([]float32, []int, error) {
	if len(rows) == 0 {
		return nil, nil, errors.New(errors.CodeInvalidParam, "matrix value must have at least one row")
	}
	cols := len(rows[0])
	out := make([]float32, 0, len(rows)*cols)
	for _, row := range rows {
		if len(row) != cols {
			return nil, nil, errors.New(errors.CodeInvalidParam, "matrix rows must all share the same width")
		}
		out = append(out, row...)
	}
	return out, []int{len(rows), cols}, nil
}

func flattenBool(rows [][]bool) ([]bool, []int, error) {
	if len(rows) == 0 {
		return nil, nil, errors.New(errors.CodeInvalidParam, "matrix value must have at least one row")
	}
	cols := len(rows[0])
	out := make([]bool, 0, len(rows)*cols)
	for _, row := range rows {
		if len(row) != cols {
			return nil, nil, errors.New(errors.CodeInvalidParam, "matrix rows must all share the same width")
		}
		out = append(out, row...)
	}
	return out, []int{len(rows), cols}, nil
}

// Commit copies every named value written so far into the ring at the
// current write cursor, registering any column not yet seen, and advances
// the cursor. It blocks on
// empty_sem until a slot is free, honoring ctx cancellation. Commit must
// be called at most once per transaction.
//
// A column re-registered with a different shape or dtype than it first
// saw is a featurizer invariant violation, not a recoverable drop: the
// acquired empty_sem permit is returned unused and the error propagates
// to the caller, which should stop rather than retry.
func (t *WriteTransaction) Commit(ctx context.Context) error {
	if t.committed {
		return errors.New(errors.CodeInternal, "transaction already committed")
	}
	t.committed = true

	if err := acquireSem(ctx, t.buffer.emptySem); err != nil {
		return err
	}

	b := t.buffer
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, name := range t.names {
		col, ok := b.columns[name]
		if !ok {
			col = newColumn(b.capacity, t.dtypes[name], t.shapes[name])
			b.columns[name] = col
			b.columnOrder = append(b.columnOrder, name)
		} else if col.dtype != t.dtypes[name] || !sameShape(col.shape, t.shapes[name]) {
			b.emptySem <- struct{}{}
			return errors.New(errors.CodeInternal, "column "+name+" written with a different shape or dtype than it was registered with")
		}
		col.writeSlot(b.writeCursor, t.values[name])
	}
	b.writeCursor = (b.writeCursor + 1) % b.capacity

	b.fullSem <- struct{}{}
	return nil
}
