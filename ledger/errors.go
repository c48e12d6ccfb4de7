// errors.go - Ledger boundary errors and revert reason classification

package ledger

import (
	"errors"
	"strings"
)

var (
	// ErrUnreachable means the ledger node could not be reached at all.
	ErrUnreachable = errors.New("ledger unreachable")
	// ErrTimeout means the receipt wait elapsed. The transaction's true
	// outcome is UNKNOWN; callers must not assume failure.
	ErrTimeout = errors.New("timed out waiting for transaction receipt")
	// ErrInsufficientFunds means the node rejected the transaction before
	// submission because the sender cannot pay for gas.
	ErrInsufficientFunds = errors.New("insufficient funds for transaction")
	// ErrSigner means the node does not manage (or refused to sign for)
	// the sending account.
	ErrSigner = errors.New("sender account not managed by node")
)

// Reason is a recognized contract revert reason, classified once at the
// ledger boundary so callers never re-parse raw revert strings.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonAlreadyVoted
	ReasonVotingNotActive
	ReasonNotRegistered
	ReasonAlreadyRegistered
	ReasonNoVoteToRevoke
)

func (r Reason) String() string {
	switch r {
	case ReasonAlreadyVoted:
		return "already voted"
	case ReasonVotingNotActive:
		return "voting not active"
	case ReasonNotRegistered:
		return "voter not registered"
	case ReasonAlreadyRegistered:
		return "voter already registered"
	case ReasonNoVoteToRevoke:
		return "no vote to revoke"
	default:
		return "unknown"
	}
}

// ClassifyReason maps a raw revert message to a recognized Reason. The
// substrings match the Voting contract's require messages.
func ClassifyReason(raw string) Reason {
	switch {
	case strings.Contains(raw, "Already voted"):
		return ReasonAlreadyVoted
	case strings.Contains(raw, "Voting is not active"):
		return ReasonVotingNotActive
	case strings.Contains(raw, "already registered"):
		return ReasonAlreadyRegistered
	case strings.Contains(raw, "not registered"), strings.Contains(raw, "Not a registered voter"):
		return ReasonNotRegistered
	case strings.Contains(raw, "No vote to revoke"):
		return ReasonNoVoteToRevoke
	default:
		return ReasonUnknown
	}
}

// classifySubmitError distinguishes pre-submission failures reported by the
// node from plain connectivity problems.
func classifySubmitError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return ErrInsufficientFunds
	case strings.Contains(msg, "unknown account"),
		strings.Contains(msg, "sender account not recognized"),
		strings.Contains(msg, "could not unlock signer account"),
		strings.Contains(msg, "authentication needed"):
		return ErrSigner
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "i/o timeout"),
		strings.Contains(msg, "EOF"):
		return ErrUnreachable
	default:
		return nil
	}
}
