// Package jobs runs analysis tasks on a river queue backed by postgres.
package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"

	"github.com/speakwell/analysis-pipeline/internal/store"
)

type Config struct {
	MaxWorkers  int
	MaxAttempts int
	JobTimeout  time.Duration
	// RescueAfter is the visibility timeout: a running job that has not finished by then is
	// made available to another worker.
	RescueAfter time.Duration
}

// Client works the queue over pgx and inserts jobs over database/sql, which lets an insert join
// the store's gorm transaction.
type Client struct {
	*river.Client[pgx.Tx]
	inserter *river.Client[*sql.Tx]
}

func NewClient(pool *pgxpool.Pool, db *sql.DB, runner Runner, cfg Config) (*Client, error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewAnalysisWorker(runner, cfg.JobTimeout))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			DefaultQueue: {MaxWorkers: cfg.MaxWorkers},
		},
		Workers:              workers,
		MaxAttempts:          cfg.MaxAttempts,
		JobTimeout:           cfg.JobTimeout,
		RescueStuckJobsAfter: cfg.RescueAfter,

		FetchCooldown:     50 * time.Millisecond,
		FetchPollInterval: 200 * time.Millisecond,

		CancelledJobRetentionPeriod: 24 * time.Hour,
		CompletedJobRetentionPeriod: 24 * time.Hour,
		DiscardedJobRetentionPeriod: 7 * 24 * time.Hour,
	})
	if err != nil {
		return nil, err
	}

	// Insert-only: no queues or workers. Attempts are stamped on the row at insert time.
	inserter, err := river.NewClient(riverdatabasesql.New(db), &river.Config{
		MaxAttempts: cfg.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	return &Client{Client: riverClient, inserter: inserter}, nil
}

// Enqueue inserts the job for a pending task, inside the store transaction carried by ctx when
// there is one. A duplicate insert for the same task is skipped.
func (c *Client) Enqueue(ctx context.Context, taskID, recordingID uint) error {
	args := AnalysisArgs{TaskID: taskID, RecordingID: recordingID}

	var (
		result *rivertype.JobInsertResult
		err    error
	)
	if tx := store.SQLTx(ctx); tx != nil {
		result, err = c.inserter.InsertTx(ctx, tx, args, nil)
	} else {
		result, err = c.Insert(ctx, args, nil)
	}
	if err != nil {
		return err
	}

	zap.S().Named("jobs").Debugw("analysis job inserted", "job_id", result.Job.ID, "task_id", taskID, "duplicate", result.UniqueSkippedAsDuplicate)
	return nil
}

// NewPool opens the pgx pool shared by the queue client and the river migrator.
// LISTEN/NOTIFY holds one connection, so the pool keeps a few warm.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}
