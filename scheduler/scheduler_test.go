// scheduler_test.go - Tests for the durable auto-start scheduler
// Run with: go test ./...

package scheduler

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"go-voting-backend/database"
	"go-voting-backend/models"
)

// setupTestDB removes any existing test DB and creates a fresh one
func setupTestDB(t *testing.T) *gorm.DB {
	_ = os.Remove("scheduler_test.db")
	if err := database.Connect("scheduler_test.db"); err != nil {
		t.Fatalf("test DB setup failed: %v", err)
	}
	return database.DB
}

func newTestScheduler(t *testing.T) (*Scheduler, *gorm.DB) {
	db := setupTestDB(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := New(db, log)
	t.Cleanup(s.Stop)
	return s, db
}

func TestScheduleReplacesPreviousJob(t *testing.T) {
	s, db := newTestScheduler(t)
	s.OnFire(func(string) {})

	first := time.Now().Add(time.Hour).Unix()
	jobID, err := s.Schedule(first)
	assert.NoError(t, err)
	assert.Equal(t, JobID(first), jobID)

	second := first + 600
	jobID, err = s.Schedule(second)
	assert.NoError(t, err)
	assert.Equal(t, JobID(second), jobID)

	// Exactly one persisted job, keyed by the latest timestamp
	var count int64
	db.Model(&models.ScheduledJob{}).Count(&count)
	assert.Equal(t, int64(1), count)

	job, err := s.Pending()
	assert.NoError(t, err)
	assert.Equal(t, second, job.FireAt)
}

func TestPastDueJobFiresImmediately(t *testing.T) {
	s, db := newTestScheduler(t)

	fired := make(chan string, 1)
	s.OnFire(func(jobID string) { fired <- jobID })

	past := time.Now().Add(-time.Minute).Unix()
	jobID, err := s.Schedule(past)
	assert.NoError(t, err)

	select {
	case got := <-fired:
		assert.Equal(t, jobID, got)
	case <-time.After(2 * time.Second):
		t.Fatal("past-due job did not fire")
	}

	// The fired job row is consumed
	assert.Eventually(t, func() bool {
		var count int64
		db.Model(&models.ScheduledJob{}).Count(&count)
		return count == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCancelRemovesJob(t *testing.T) {
	s, _ := newTestScheduler(t)
	s.OnFire(func(string) { t.Error("cancelled job fired") })

	jobID, err := s.Schedule(time.Now().Add(time.Hour).Unix())
	assert.NoError(t, err)
	assert.NoError(t, s.Cancel(jobID))

	job, err := s.Pending()
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestCancelUnknownJobIsNoop(t *testing.T) {
	s, _ := newTestScheduler(t)

	jobID, err := s.Schedule(time.Now().Add(time.Hour).Unix())
	assert.NoError(t, err)

	assert.NoError(t, s.Cancel("auto_start_voting_0"))

	// The real job survives
	job, err := s.Pending()
	assert.NoError(t, err)
	assert.Equal(t, jobID, job.JobID)
}

func TestRestoreReArmsPersistedJob(t *testing.T) {
	s, db := newTestScheduler(t)

	// Simulate a job persisted by a previous process
	past := time.Now().Add(-time.Minute).Unix()
	assert.NoError(t, db.Create(&models.ScheduledJob{JobID: JobID(past), FireAt: past}).Error)

	restarted := New(db, s.log)
	t.Cleanup(restarted.Stop)
	fired := make(chan string, 1)
	restarted.OnFire(func(jobID string) { fired <- jobID })

	assert.NoError(t, restarted.Restore())

	select {
	case got := <-fired:
		assert.Equal(t, JobID(past), got)
	case <-time.After(2 * time.Second):
		t.Fatal("restored past-due job did not fire")
	}
}

func TestRestoreWithNoJobIsNoop(t *testing.T) {
	s, _ := newTestScheduler(t)
	assert.NoError(t, s.Restore())
}

func TestRescheduleSameTimestampAfterFire(t *testing.T) {
	s, db := newTestScheduler(t)

	fired := make(chan string, 2)
	s.OnFire(func(jobID string) { fired <- jobID })

	past := time.Now().Add(-time.Minute).Unix()
	_, err := s.Schedule(past)
	assert.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("first firing did not happen")
	}

	// Re-scheduling the consumed timestamp persists a fresh row that only
	// its own firing may consume
	jobID, err := s.Schedule(past)
	assert.NoError(t, err)

	select {
	case got := <-fired:
		assert.Equal(t, jobID, got)
	case <-time.After(2 * time.Second):
		t.Fatal("rescheduled job did not fire")
	}

	assert.Eventually(t, func() bool {
		var count int64
		db.Model(&models.ScheduledJob{}).Count(&count)
		return count == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRescheduleBeforeFiringSupersedes(t *testing.T) {
	s, _ := newTestScheduler(t)

	fired := make(chan string, 2)
	s.OnFire(func(jobID string) { fired <- jobID })

	// Replace a near-due job with a far-future one; only the replacement
	// may ever fire.
	_, err := s.Schedule(time.Now().Add(2 * time.Second).Unix())
	assert.NoError(t, err)
	_, err = s.Schedule(time.Now().Add(time.Hour).Unix())
	assert.NoError(t, err)

	select {
	case got := <-fired:
		t.Fatalf("superseded job fired: %s", got)
	case <-time.After(3 * time.Second):
	}
}
