package buffer

import (
	"context"

	"github.com/prexsyn/engine/internal/featurizer"
	"github.com/prexsyn/engine/pkg/errors"
)

// ReadEntry is one column's view into a batch read: Span1 (and Span2,
// non-nil only when the batch straddles the
// wrap-around boundary) are typed slices — one of []int64, []float32, or
// []bool matching DType — aliasing the ring's storage directly, valid
// only until the owning ReadTransaction is closed.
type ReadEntry struct {
	Name  string
	Shape []int
	DType featurizer.DType
	Span1 any
	Span2 any
}

// ReadTransaction is a batch read of n contiguous slots. BeginRead blocks
// until n slots are committed, then
// holds the buffer's mutex until Close is called: the caller must read
// Entries() and copy out whatever it needs before closing.
type ReadTransaction struct {
	buffer *DataBuffer
	n      int
	closed bool
}

// BeginRead blocks (honoring ctx) until n committed slots are available,
// then locks the buffer for reading. 1 <= n <= buffer.Capacity().
// The caller must call Close exactly once when done.
func (b *DataBuffer) BeginRead(ctx context.Context, n int) (*ReadTransaction, error) {
	if n < 1 || n > b.capacity {
		return nil, errors.New(errors.CodeInvalidParam, "read batch size must be between 1 and the buffer's capacity")
	}
	for i := 0; i < n; i++ {
		if err := acquireSem(ctx, b.fullSem); err != nil {
			// Release whatever permits we already reacquired so a
			// canceled read doesn't leak full_sem capacity.
			for ; i > 0; i-- {
				b.fullSem <- struct{}{}
			}
			return nil, err
		}
	}
	b.mu.Lock()
	return &ReadTransaction{buffer: b, n: n}, nil
}

// Entries returns one ReadEntry per registered column, reading the n
// slots starting at the buffer's current read cursor. Must be called
// before Close.
func (t *ReadTransaction) Entries() []ReadEntry {
	b := t.buffer
	start := b.readCursor
	end := start + t.n

	entries := make([]ReadEntry, 0, len(b.columnOrder))
	for _, name := range b.columnOrder {
		col := b.columns[name]
		entry := ReadEntry{Name: name, Shape: col.shape, DType: col.dtype}
		if end <= b.capacity {
			entry.Span1 = col.readSpan(start, t.n)
		} else {
			firstLen := b.capacity - start
			entry.Span1 = col.readSpan(start, firstLen)
			entry.Span2 = col.readSpan(0, t.n-firstLen)
		}
		entries = append(entries, entry)
	}
	return entries
}

// Close advances the read cursor by n slots, releases the mutex, and
// returns n permits to empty_sem, unblocking producers waiting to write.
// Close must be called exactly once, typically via defer immediately
// after a successful BeginRead.
func (t *ReadTransaction) Close() {
	if t.closed {
		return
	}
	t.closed = true
	b := t.buffer
	b.readCursor = (b.readCursor + t.n) % b.capacity
	b.mu.Unlock()
	for i := 0; i < t.n; i++ {
		b.emptySem <- struct{}{}
	}
}
