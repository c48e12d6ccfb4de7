// voting.go - Voting period lifecycle
//
// The phase machine is ledger-owned: Pending -> Active -> Concluded,
// strictly forward. The mirror never persists a separately-mutable
// started/ended flag; everything user-visible derives from one phase read
// at response time.

package coordinator

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"go-voting-backend/ledger"
	"go-voting-backend/models"
)

// PeriodResult reports a confirmed setVotingPeriod plus the scheduling
// outcome. SchedulingError is set when the chain write succeeded but the
// auto-start job could not be (re)scheduled; the action still succeeds.
type PeriodResult struct {
	TxResult
	JobID           string `json:"auto_start_job_id,omitempty"`
	ScheduledAt     int64  `json:"auto_start_scheduled_at,omitempty"`
	SchedulingError string `json:"scheduling_error,omitempty"`
}

// SetVotingPeriod writes the period to the contract and (re)schedules the
// auto-start job keyed by the start timestamp. Rescheduling is idempotent:
// the previous pending job, if any, is replaced so exactly one remains.
func (c *Coordinator) SetVotingPeriod(ctx context.Context, admin *models.User, start, end int64) (*PeriodResult, *Error) {
	log := c.actionLog("set_voting_period", admin.UserID).
		WithFields(logrus.Fields{"start": start, "end": end})

	if start >= end {
		return nil, validationErr("start time must be before end time")
	}

	txHash, err := c.ledger.SetVotingPeriod(ctx, start, end)
	if err != nil {
		log.WithError(err).Error("set voting period submission failed")
		return nil, submitErr(err)
	}
	log = log.WithField("tx", txHash.Hex())

	rcpt, perr := c.await(ctx, txHash)
	if perr != nil {
		log.WithField("kind", perr.Kind).Warn("set voting period did not confirm")
		return nil, perr
	}

	result := &PeriodResult{TxResult: TxResult{TxHash: txHash.Hex(), BlockNumber: rcpt.BlockNumber}}

	if c.sched != nil {
		jobID, serr := c.sched.Schedule(start)
		if serr != nil {
			// The chain write is done; a scheduling failure is reported as a
			// warning on the successful result rather than unwinding it.
			log.WithError(serr).Error("voting period set but auto-start scheduling failed")
			result.SchedulingError = serr.Error()
			return result, nil
		}
		result.JobID = jobID
		result.ScheduledAt = start
	}

	log.WithField("job_id", result.JobID).Info("voting period set and auto-start scheduled")
	return result, nil
}

// StartVoting transitions the contract to Active on an admin's request.
func (c *Coordinator) StartVoting(ctx context.Context, admin *models.User) (*TxResult, *Error) {
	return c.phaseTransition(ctx, "start_voting", admin.UserID, c.ledger.StartVoting)
}

// EndVoting transitions the contract to Concluded.
func (c *Coordinator) EndVoting(ctx context.Context, admin *models.User) (*TxResult, *Error) {
	return c.phaseTransition(ctx, "end_voting", admin.UserID, c.ledger.EndVoting)
}

// ExtendDeadline moves the contract's end timestamp forward.
func (c *Coordinator) ExtendDeadline(ctx context.Context, admin *models.User, newEnd int64) (*TxResult, *Error) {
	log := c.actionLog("extend_deadline", admin.UserID).WithField("new_end", newEnd)

	txHash, err := c.ledger.ExtendVotingDeadline(ctx, newEnd)
	if err != nil {
		log.WithError(err).Error("extend deadline submission failed")
		return nil, submitErr(err)
	}
	log = log.WithField("tx", txHash.Hex())

	rcpt, perr := c.await(ctx, txHash)
	if perr != nil {
		log.WithField("kind", perr.Kind).Warn("extend deadline did not confirm")
		return nil, perr
	}

	log.Info("voting deadline extended")
	return &TxResult{TxHash: txHash.Hex(), BlockNumber: rcpt.BlockNumber}, nil
}

// AutoStartVoting is the scheduler's entry point. It re-validates the phase
// before transacting: a firing that finds the contract already non-Pending
// (expected race with a manual start) logs and exits without error.
func (c *Coordinator) AutoStartVoting(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.receiptTimeout+30*time.Second)
	defer cancel()

	log := c.actionLog("auto_start_voting", "scheduler").WithField("job_id", jobID)

	status, err := c.ledger.VotingStatus(ctx)
	if err != nil {
		log.WithError(err).Error("auto-start could not read voting status")
		return
	}
	if status.Phase != ledger.PhasePending {
		log.WithField("phase", status.Phase.String()).
			Warn("auto-start skipped; voting already past Pending")
		return
	}

	txHash, err := c.ledger.StartVoting(ctx)
	if err != nil {
		log.WithError(err).Error("auto-start submission failed")
		return
	}
	log = log.WithField("tx", txHash.Hex())

	rcpt, perr := c.await(ctx, txHash)
	if perr != nil {
		// A revert here usually means a manual start won the race.
		log.WithField("kind", perr.Kind).Warn("auto-start transaction did not confirm")
		return
	}
	log.WithField("block", rcpt.BlockNumber).Info("voting auto-started")
}

func (c *Coordinator) phaseTransition(ctx context.Context, action, actor string, submit func(context.Context) (common.Hash, error)) (*TxResult, *Error) {
	log := c.actionLog(action, actor)

	txHash, err := submit(ctx)
	if err != nil {
		log.WithError(err).Error("submission failed")
		return nil, submitErr(err)
	}
	log = log.WithField("tx", txHash.Hex())

	rcpt, perr := c.await(ctx, txHash)
	if perr != nil {
		log.WithField("kind", perr.Kind).Warn("transition did not confirm")
		return nil, perr
	}

	log.Info("phase transition confirmed")
	return &TxResult{TxHash: txHash.Hex(), BlockNumber: rcpt.BlockNumber}, nil
}

// StatusView is the public shape of one phase read. IsStarted and IsEnded
// are derived from the same read, never stored.
type StatusView struct {
	Phase     string `json:"phase"`
	PhaseCode uint8  `json:"phase_code"`
	IsStarted bool   `json:"isStarted"`
	IsEnded   bool   `json:"isEnded"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
	ChainTime int64  `json:"current_block_timestamp"`
}

// Status reads the phase gate once and derives the view.
func (c *Coordinator) Status(ctx context.Context) (*StatusView, *Error) {
	status, err := c.ledger.VotingStatus(ctx)
	if err != nil {
		return nil, ledgerReadErr(err)
	}
	return &StatusView{
		Phase:     status.Phase.String(),
		PhaseCode: uint8(status.Phase),
		IsStarted: status.Phase != ledger.PhasePending,
		IsEnded:   status.Phase == ledger.PhaseConcluded,
		StartTime: status.StartTime,
		EndTime:   status.EndTime,
		ChainTime: status.ChainTime,
	}, nil
}
