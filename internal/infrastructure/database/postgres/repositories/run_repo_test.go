//go:build integration

package repositories_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prexsyn/engine/internal/infrastructure/database/postgres/repositories"
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/logging"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("INTEGRATION_TEST_DB_URL")
	if dbURL == "" {
		t.Skip("INTEGRATION_TEST_DB_URL not set; skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func applyRunSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	ddl := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id            UUID PRIMARY KEY,
		num_workers       INT NOT NULL,
		base_seed         BIGINT NOT NULL,
		started_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		stopped_at        TIMESTAMPTZ,
		batches_committed BIGINT NOT NULL DEFAULT 0,
		terminal_reason   TEXT NOT NULL DEFAULT 'running'
	);
	`
	_, err := pool.Exec(ctx, ddl)
	require.NoError(t, err)
}

func TestRunRepository_StartRecordStop(t *testing.T) {
	pool := startPostgres(t)
	applyRunSchema(t, pool)
	repo := repositories.NewPostgresRunRepo(pool, logging.NewNopLogger())
	ctx := context.Background()

	runID, err := repo.StartRun(ctx, 4, 1234)
	require.NoError(t, err)

	require.NoError(t, repo.RecordBatch(ctx, runID))
	require.NoError(t, repo.RecordBatch(ctx, runID))

	rec, err := repo.FindByID(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, 4, rec.NumWorkers)
	assert.Equal(t, int64(1234), rec.BaseSeed)
	assert.Equal(t, int64(2), rec.BatchesCommitted)
	assert.Equal(t, "running", rec.TerminalReason)
	assert.Nil(t, rec.StoppedAt)

	require.NoError(t, repo.StopRun(ctx, runID, "stopped"))

	rec, err = repo.FindByID(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, "stopped", rec.TerminalReason)
	assert.NotNil(t, rec.StoppedAt)
}

func TestRunRepository_StopRun_RejectsInvalidReason(t *testing.T) {
	pool := startPostgres(t)
	applyRunSchema(t, pool)
	repo := repositories.NewPostgresRunRepo(pool, logging.NewNopLogger())
	ctx := context.Background()

	runID, err := repo.StartRun(ctx, 1, 1)
	require.NoError(t, err)

	err = repo.StopRun(ctx, runID, "unknown")
	require.Error(t, err)
}

func TestRunRepository_ListRecent(t *testing.T) {
	pool := startPostgres(t)
	applyRunSchema(t, pool)
	repo := repositories.NewPostgresRunRepo(pool, logging.NewNopLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.StartRun(ctx, 2, int64(i))
		require.NoError(t, err)
	}

	runs, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunRepository_FindByID_NotFound(t *testing.T) {
	pool := startPostgres(t)
	applyRunSchema(t, pool)
	repo := repositories.NewPostgresRunRepo(pool, logging.NewNopLogger())
	ctx := context.Background()

	_, err := repo.FindByID(ctx, [16]byte{})
	require.Error(t, err)
}
