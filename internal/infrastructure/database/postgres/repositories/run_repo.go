package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prexsyn/engine/internal/infrastructure/monitoring/logging"
	"github.com/prexsyn/engine/pkg/errors"
)

// RunRecord is one row of the run ledger: a single DataPipeline Start/Stop
// cycle. It is the system of record for "what ran, with what parameters,
// and how it ended" — synthesis output itself is never persisted here.
type RunRecord struct {
	RunID            uuid.UUID
	NumWorkers       int
	BaseSeed         int64
	StartedAt        time.Time
	StoppedAt        *time.Time
	BatchesCommitted int64
	TerminalReason   string // "running" | "stopped" | "crashed"
}

// RunRepository records the lifecycle of DataPipeline runs in Postgres.
type RunRepository interface {
	// StartRun inserts a new ledger row for a pipeline about to start and
	// returns its generated run ID.
	StartRun(ctx context.Context, numWorkers int, baseSeed int64) (uuid.UUID, error)

	// RecordBatch increments the ledger row's committed-batch counter. It is
	// called once per drained buffer batch, not once per synthesis.
	RecordBatch(ctx context.Context, runID uuid.UUID) error

	// StopRun closes out a ledger row with a terminal reason, either
	// "stopped" (graceful Stop()) or "crashed" (worker panic/fatal error).
	StopRun(ctx context.Context, runID uuid.UUID, reason string) error

	// FindByID fetches a single run's ledger row.
	FindByID(ctx context.Context, runID uuid.UUID) (*RunRecord, error)

	// ListRecent returns the most recently started runs, newest first.
	ListRecent(ctx context.Context, limit int) ([]*RunRecord, error)
}

type postgresRunRepo struct {
	pool     *pgxpool.Pool
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresRunRepo constructs a RunRepository backed by the given
// connection pool (see postgres.NewConnectionPool).
func NewPostgresRunRepo(pool *pgxpool.Pool, log logging.Logger) RunRepository {
	return &postgresRunRepo{
		pool:     pool,
		log:      log,
		executor: pool,
	}
}

func (r *postgresRunRepo) StartRun(ctx context.Context, numWorkers int, baseSeed int64) (uuid.UUID, error) {
	runID := uuid.New()
	const query = `
		INSERT INTO runs (run_id, num_workers, base_seed, started_at, batches_committed, terminal_reason)
		VALUES ($1, $2, $3, NOW(), 0, 'running')
	`
	if _, err := r.executor.Exec(ctx, query, runID, numWorkers, baseSeed); err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to start run")
	}
	r.log.Info("run started", logging.String("run_id", runID.String()), logging.Int("num_workers", numWorkers))
	return runID, nil
}

func (r *postgresRunRepo) RecordBatch(ctx context.Context, runID uuid.UUID) error {
	const query = `UPDATE runs SET batches_committed = batches_committed + 1 WHERE run_id = $1 AND stopped_at IS NULL`
	tag, err := r.executor.Exec(ctx, query, runID)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to record batch")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("run ledger entry").WithDetail("run_id=" + runID.String())
	}
	return nil
}

func (r *postgresRunRepo) StopRun(ctx context.Context, runID uuid.UUID, reason string) error {
	if reason != "stopped" && reason != "crashed" {
		return errors.New(errors.CodeInvalidParam, "terminal reason must be 'stopped' or 'crashed'")
	}
	const query = `UPDATE runs SET stopped_at = NOW(), terminal_reason = $2 WHERE run_id = $1 AND stopped_at IS NULL`
	tag, err := r.executor.Exec(ctx, query, runID, reason)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to stop run")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("run ledger entry").WithDetail("run_id=" + runID.String())
	}
	r.log.Info("run stopped", logging.String("run_id", runID.String()), logging.String("reason", reason))
	return nil
}

func (r *postgresRunRepo) FindByID(ctx context.Context, runID uuid.UUID) (*RunRecord, error) {
	const query = `
		SELECT run_id, num_workers, base_seed, started_at, stopped_at, batches_committed, terminal_reason
		FROM runs WHERE run_id = $1
	`
	row := r.executor.QueryRow(ctx, query, runID)
	rec, err := scanRun(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("run ledger entry").WithDetail("run_id=" + runID.String())
		}
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to find run")
	}
	return rec, nil
}

func (r *postgresRunRepo) ListRecent(ctx context.Context, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT run_id, num_workers, base_seed, started_at, stopped_at, batches_committed, terminal_reason
		FROM runs ORDER BY started_at DESC LIMIT $1
	`
	rows, err := r.executor.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to list runs")
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to scan run")
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

func scanRun(row scanner) (*RunRecord, error) {
	var rec RunRecord
	err := row.Scan(
		&rec.RunID, &rec.NumWorkers, &rec.BaseSeed,
		&rec.StartedAt, &rec.StoppedAt, &rec.BatchesCommitted, &rec.TerminalReason,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
