package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/database"
)

// walFramesWarning is the WAL size in frames above which a checkpoint is forced
const walFramesWarning = 1000

// CheckDatabaseJob verifies integrity of the ledger database and keeps its
// WAL file from growing unbounded
type CheckDatabaseJob struct {
	log zerolog.Logger
	db  *database.DB
}

// NewCheckDatabaseJob creates a new CheckDatabaseJob
func NewCheckDatabaseJob(db *database.DB) *CheckDatabaseJob {
	return &CheckDatabaseJob{
		log: zerolog.Nop(),
		db:  db,
	}
}

// SetLogger sets the logger for the job
func (j *CheckDatabaseJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *CheckDatabaseJob) Name() string {
	return "check_database"
}

// Run executes the check database job
func (j *CheckDatabaseJob) Run() error {
	if j.db == nil {
		j.log.Warn().Msg("Database not initialized, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		// corruption cannot be recovered automatically
		j.log.Error().Err(err).Str("database", j.db.Name()).Msg("Database integrity check failed")
		return fmt.Errorf("database %s is corrupted: %w", j.db.Name(), err)
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	err := j.db.Conn().QueryRowContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
	if err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("Failed to check WAL checkpoint")
		return nil
	}

	if frames > walFramesWarning {
		j.log.Warn().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, truncating")
		if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
			return err
		}
	} else {
		j.log.Debug().
			Str("database", j.db.Name()).
			Int("wal_frames", frames).
			Msg("WAL checkpoint status OK")
	}

	j.log.Info().Str("database", j.db.Name()).Msg("Database check completed")
	return nil
}
