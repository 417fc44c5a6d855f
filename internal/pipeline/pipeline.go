package pipeline

import (
	"context"
	"sync"

	"github.com/prexsyn/engine/internal/buffer"
	"github.com/prexsyn/engine/internal/generator"
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/logging"
	"github.com/prexsyn/engine/pkg/errors"
)

// Pipeline owns a DataBuffer and a pool of worker goroutines, each
// random-walking an independent Generator and writing its featurized
// output into the buffer. A Pipeline is used once: New,
// Start, any number of Read calls, Stop.
type Pipeline struct {
	config Config
	logger logging.Logger
	buf    *buffer.DataBuffer

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped sync.Once
}

// New validates config and allocates the backing DataBuffer. logger may
// be nil. Start must be called before Read.
func New(config Config, logger logging.Logger) (*Pipeline, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	buf, err := buffer.New(config.Capacity)
	if err != nil {
		return nil, err
	}
	return &Pipeline{config: config, logger: logger, buf: buf}, nil
}

// Start spawns config.NumWorkers goroutines, worker i owning a
// generator.Generator seeded base_seed+i. Start may be called at most
// once.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New(errors.CodeConflict, "pipeline already started")
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.started = true

	for i := 0; i < p.config.NumWorkers; i++ {
		gen := generator.New(p.config.Space, p.config.Backend, p.config.GeneratorOption, p.config.BaseSeed+uint64(i))
		p.wg.Add(1)
		go func(id int, gen *generator.Generator) {
			defer p.wg.Done()
			p.runWorker(ctx, id, gen)
		}(i, gen)
	}
	return nil
}

// runWorker implements the worker loop: draw a synthesis,
// featurize it into a fresh write transaction, commit. A featurizer error
// drops the transaction uncommitted and the worker moves on to the next
// synthesis; a generator error means the underlying chemical space itself
// cannot produce a building block, which no retry will fix, so the worker
// stops. A commit error carrying CodeInternal is a column
// shape/dtype invariant violation rather than a transient drop, so the
// worker stops instead of continuing to the next synthesis.
func (p *Pipeline) runWorker(ctx context.Context, id int, gen *generator.Generator) {
	log := p.logger
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		syn, err := gen.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if log != nil {
				log.Error("generator failed, stopping worker",
					logging.Int("worker", id), logging.Err(err))
			}
			return
		}

		txn := p.buf.BeginWrite()
		if err := p.config.Featurizers.Apply(ctx, syn, txn); err != nil {
			if log != nil {
				log.Debug("featurizer error, dropping synthesis",
					logging.Int("worker", id), logging.Err(err))
			}
			continue
		}

		if err := txn.Commit(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.IsCode(err, errors.CodeInternal) {
				if log != nil {
					log.Error("commit failed on invariant violation, stopping worker",
						logging.Int("worker", id), logging.Err(err))
				}
				return
			}
			if log != nil {
				log.Error("commit failed, dropping synthesis",
					logging.Int("worker", id), logging.Err(err))
			}
			continue
		}
	}
}

// Read blocks until n items are committed, then invokes callback exactly
// once with their per-column read entries while the buffer's mutex is
// held. callback must copy any slice
// it wishes to retain; the entries it receives alias the ring's storage
// and are invalid once Read returns.
func (p *Pipeline) Read(ctx context.Context, n int, callback func([]buffer.ReadEntry)) error {
	rt, err := p.buf.BeginRead(ctx, n)
	if err != nil {
		return err
	}
	defer rt.Close()
	callback(rt.Entries())
	return nil
}

// Occupancy reports the number of committed-but-unread slots.
func (p *Pipeline) Occupancy() int {
	return p.buf.Occupancy()
}

// Stop requests that every worker stop, drains the buffer twice (once to
// unblock any worker currently waiting on a free slot, once more after
// join to drop whatever those unblocked commits just wrote), and waits
// for every worker goroutine to exit. Idempotent.
func (p *Pipeline) Stop() {
	p.stopped.Do(func() {
		p.mu.Lock()
		started := p.started
		cancel := p.cancel
		p.mu.Unlock()
		if !started {
			return
		}

		cancel()
		p.buf.Clear()
		p.wg.Wait()
		p.buf.Clear()
	})
}
