// scheduler.go - Durable deadline scheduler for auto-starting voting
//
// Holds at most one pending auto-start job, keyed by the configured start
// timestamp. The job row is persisted so a scheduled start survives a
// process restart; the in-process timer is re-armed from the row at startup.

package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go-voting-backend/models"
)

// FireFunc is invoked when the pending job's deadline arrives. It runs on
// its own goroutine with no scheduler lock held.
type FireFunc func(jobID string)

// Scheduler owns the single pending auto-start job. Thread-safe.
type Scheduler struct {
	db  *gorm.DB
	log *logrus.Logger

	mu    sync.Mutex
	timer *time.Timer
	jobID string
	fire  FireFunc
}

// New returns a scheduler over the given job store. Call OnFire before
// Restore or Schedule so a due job has somewhere to go.
func New(db *gorm.DB, log *logrus.Logger) *Scheduler {
	return &Scheduler{db: db, log: log}
}

// OnFire installs the callback invoked when the deadline arrives.
func (s *Scheduler) OnFire(fn FireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fire = fn
}

// JobID derives the job identifier for a start timestamp.
func JobID(fireAt int64) string {
	return fmt.Sprintf("auto_start_voting_%d", fireAt)
}

// Schedule replaces any pending job with one keyed by fireAt and arms the
// timer. Rescheduling is idempotent: the previous job, whatever its
// timestamp, is cancelled first so at most one pending job ever exists.
func (s *Scheduler) Schedule(fireAt int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobID := JobID(fireAt)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ScheduledJob{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.ScheduledJob{JobID: jobID, FireAt: fireAt}).Error
	})
	if err != nil {
		return "", fmt.Errorf("persisting auto-start job: %w", err)
	}

	s.arm(jobID, fireAt)
	s.log.WithFields(logrus.Fields{"job_id": jobID, "fire_at": fireAt}).
		Info("auto-start job scheduled")
	return jobID, nil
}

// Cancel removes the pending job if its id matches. Unknown ids are a no-op.
func (s *Scheduler) Cancel(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Where("job_id = ?", jobID).Delete(&models.ScheduledJob{}).Error; err != nil {
		return fmt.Errorf("removing auto-start job %s: %w", jobID, err)
	}
	if s.jobID == jobID {
		s.stopTimerLocked()
	}
	s.log.WithField("job_id", jobID).Info("auto-start job cancelled")
	return nil
}

// Pending returns the persisted job, or nil when none is scheduled.
func (s *Scheduler) Pending() (*models.ScheduledJob, error) {
	var job models.ScheduledJob
	err := s.db.First(&job).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Restore re-arms the timer from the persisted job after a restart. A job
// already past due fires immediately.
func (s *Scheduler) Restore() error {
	job, err := s.Pending()
	if err != nil {
		return fmt.Errorf("restoring auto-start job: %w", err)
	}
	if job == nil {
		return nil
	}
	s.mu.Lock()
	s.arm(job.JobID, job.FireAt)
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"job_id": job.JobID, "fire_at": job.FireAt}).
		Info("auto-start job restored from store")
	return nil
}

// Stop halts the in-process timer without touching the persisted job.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// arm points the single timer at the job. Caller holds s.mu.
func (s *Scheduler) arm(jobID string, fireAt int64) {
	s.stopTimerLocked()
	s.jobID = jobID

	delay := time.Until(time.Unix(fireAt, 0))
	if delay < 0 {
		delay = 0
	}
	s.timer = time.AfterFunc(delay, func() { s.fired(jobID) })
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.jobID = ""
}

// fired runs on the timer goroutine: consume the job row under the lock,
// then invoke the callback outside it. The row delete stays inside the
// locked section so it is atomic with the jobID check; a concurrent
// Schedule for the same timestamp cannot have its fresh row eaten by a
// stale firing. The callback re-validates the ledger phase, so a stale
// firing is a logged no-op there, not an error here.
func (s *Scheduler) fired(jobID string) {
	s.mu.Lock()
	if s.jobID != jobID {
		// Rescheduled or cancelled between firing and locking.
		s.mu.Unlock()
		return
	}
	s.jobID = ""
	s.timer = nil
	fn := s.fire
	if err := s.db.Where("job_id = ?", jobID).Delete(&models.ScheduledJob{}).Error; err != nil {
		s.log.WithError(err).WithField("job_id", jobID).Error("failed to consume fired job row")
	}
	s.mu.Unlock()

	if fn == nil {
		s.log.WithField("job_id", jobID).Error("auto-start job fired with no handler installed")
		return
	}
	s.log.WithField("job_id", jobID).Info("auto-start job firing")
	fn(jobID)
}
