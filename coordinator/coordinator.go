// coordinator.go - The dual-state action coordinator
//
// Every state-changing action follows the same two-phase template: local
// preconditions, phase gate, submit to the ledger, await finality, then
// apply the matching mutation to the local mirror. The ledger is the source
// of truth; mirror rows for Voter and Vote are written only after a
// confirmed ledger outcome.

package coordinator

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go-voting-backend/ledger"
	"go-voting-backend/scheduler"
)

// Ledger is the contract surface the coordinator drives. The production
// implementation is *ledger.Client; tests substitute a fake.
type Ledger interface {
	VotingStatus(ctx context.Context) (ledger.Status, error)
	CandidatesCount(ctx context.Context) (uint64, error)
	Candidate(ctx context.Context, index uint64) (string, uint64, error)
	AddCandidate(ctx context.Context, name string) (common.Hash, error)
	RegisterVoter(ctx context.Context, voter common.Address) (common.Hash, error)
	SetVotingPeriod(ctx context.Context, start, end int64) (common.Hash, error)
	StartVoting(ctx context.Context) (common.Hash, error)
	EndVoting(ctx context.Context) (common.Hash, error)
	ExtendVotingDeadline(ctx context.Context, newEnd int64) (common.Hash, error)
	Vote(ctx context.Context, from common.Address, candidateIndex uint64) (common.Hash, error)
	RevokeVote(ctx context.Context, from common.Address) (common.Hash, error)
	AwaitReceipt(ctx context.Context, txHash common.Hash, timeout time.Duration) (*ledger.Receipt, error)
	TxAccount() common.Address
	Accounts() []common.Address
}

// Coordinator orchestrates submit -> await -> apply for each privileged
// action. One instance per process; safe for concurrent use. The local
// transaction in the apply step is opened only after the ledger outcome is
// known and never spans the network wait.
type Coordinator struct {
	db             *gorm.DB
	ledger         Ledger
	sched          *scheduler.Scheduler
	log            *logrus.Logger
	receiptTimeout time.Duration
}

// New wires the coordinator. sched may be nil when no deadline scheduling is
// needed (some tests).
func New(db *gorm.DB, l Ledger, sched *scheduler.Scheduler, log *logrus.Logger, receiptTimeout time.Duration) *Coordinator {
	if receiptTimeout <= 0 {
		receiptTimeout = 120 * time.Second
	}
	return &Coordinator{db: db, ledger: l, sched: sched, log: log, receiptTimeout: receiptTimeout}
}

// Ledger exposes the underlying ledger surface (account list for handlers).
func (c *Coordinator) Ledger() Ledger {
	return c.ledger
}

// TxResult is the ledger half of a successful action result.
type TxResult struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
}

// requirePhase re-reads the phase gate and fails with WrongPhase unless the
// contract is in want. Never cached: this runs immediately before the
// phase-sensitive transact.
func (c *Coordinator) requirePhase(ctx context.Context, want ledger.Phase) (ledger.Status, *Error) {
	status, err := c.ledger.VotingStatus(ctx)
	if err != nil {
		return ledger.Status{}, ledgerReadErr(err)
	}
	if status.Phase != want {
		return status, &Error{
			Kind: KindWrongPhase,
			Message: "voting phase is currently '" + status.Phase.String() +
				"'; this action requires '" + want.String() + "'",
		}
	}
	return status, nil
}

// await wraps the receipt wait and interprets the outcome: timeout becomes
// Indeterminate (outcome unknown, hash surfaced), a revert becomes Rejected
// with the classified reason. Only a Success receipt comes back clean.
func (c *Coordinator) await(ctx context.Context, txHash common.Hash) (*ledger.Receipt, *Error) {
	rcpt, err := c.ledger.AwaitReceipt(ctx, txHash, c.receiptTimeout)
	if err != nil {
		return nil, awaitErr(err, txHash.Hex())
	}
	if !rcpt.Succeeded() {
		return nil, rejectedErr(rcpt)
	}
	return rcpt, nil
}

// actionLog builds the identifier-rich log entry every ledger-touching
// action uses, so failures can be reconciled from the log alone.
func (c *Coordinator) actionLog(action, actor string) *logrus.Entry {
	return c.log.WithFields(logrus.Fields{"action": action, "actor": actor})
}
