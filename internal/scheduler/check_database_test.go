package scheduler

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	testutil "github.com/aristath/rebalancer/internal/testing"
)

func TestCheckDatabaseJob_Name(t *testing.T) {
	assert.Equal(t, "check_database", NewCheckDatabaseJob(nil).Name())
}

func TestCheckDatabaseJob_Run_NoDatabase(t *testing.T) {
	job := NewCheckDatabaseJob(nil)
	job.SetLogger(zerolog.New(nil).Level(zerolog.Disabled))

	assert.NoError(t, job.Run())
}

func TestCheckDatabaseJob_Run(t *testing.T) {
	db, cleanup := testutil.NewTestDB(t)
	defer cleanup()

	job := NewCheckDatabaseJob(db)
	assert.NoError(t, job.Run())
}
