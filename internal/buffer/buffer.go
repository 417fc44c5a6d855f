// Package buffer implements a fixed-capacity columnar ring: a
// multi-producer/single-consumer DataBuffer with semaphore backpressure,
// serving as the featurizer.Builder write side and exposing batched,
// possibly wrap-around reads to the single consumer.
package buffer

import (
	"context"
	"sync"

	"github.com/prexsyn/engine/pkg/errors"
)

// DataBuffer is a fixed-capacity ring of named, shape-stable columns.
// empty_sem and full_sem (here buffered channels used as counting
// semaphores) plus mutex enforce the ring's invariants:
// empty_sem + full_sem == capacity at all times between transactions, and
// write_cursor - read_cursor (mod capacity) == full_sem's value.
type DataBuffer struct {
	capacity int

	emptySem chan struct{}
	fullSem  chan struct{}

	mu          sync.Mutex
	columns     map[string]*column
	columnOrder []string
	writeCursor int
	readCursor  int
}

// New constructs an empty DataBuffer of the given capacity. capacity must
// be positive.
func New(capacity int) (*DataBuffer, error) {
	if capacity <= 0 {
		return nil, errors.New(errors.CodeInvalidParam, "buffer capacity must be positive")
	}
	empty := make(chan struct{}, capacity)
	for i := 0; i < capacity; i++ {
		empty <- struct{}{}
	}
	return &DataBuffer{
		capacity: capacity,
		emptySem: empty,
		fullSem:  make(chan struct{}, capacity),
		columns:  make(map[string]*column),
	}, nil
}

// Capacity returns the ring's fixed slot count.
func (b *DataBuffer) Capacity() int {
	return b.capacity
}

// Occupancy returns the number of committed-but-unread slots. Safe to call
// concurrently; the returned value may be stale the instant it's read.
func (b *DataBuffer) Occupancy() int {
	return len(b.fullSem)
}

// acquireSem blocks on ch until a permit is available or ctx is done.
func acquireSem(ctx context.Context, ch chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clear drains every committed slot back to empty and drops all column
// registrations, used by pipeline.Pipeline.Stop to unblock a producer
// waiting on empty_sem and to discard any entries a
// straggling producer commits afterward.
func (b *DataBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		select {
		case <-b.fullSem:
			b.emptySem <- struct{}{}
		default:
			b.readCursor = 0
			b.writeCursor = 0
			b.columns = make(map[string]*column)
			b.columnOrder = nil
			return
		}
	}
}
