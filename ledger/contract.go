// contract.go - Typed surface over the Voting contract operations

package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Gas limits mirror the original deployment's per-call settings; other
// transactions let the node estimate.
const (
	voteGasLimit   = 500000
	revokeGasLimit = 300000
)

// Phase is the contract-owned voting phase. Strictly forward:
// Pending -> Active -> Concluded.
type Phase uint8

const (
	PhasePending Phase = iota
	PhaseActive
	PhaseConcluded
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "Pending"
	case PhaseActive:
		return "Active"
	case PhaseConcluded:
		return "Concluded"
	default:
		return "Unknown"
	}
}

// Status is one consistent read of the contract's voting state. It is never
// cached: the phase can change between reads, so callers re-read immediately
// before any phase-sensitive transact.
type Status struct {
	Phase     Phase `json:"phase_code"`
	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`
	ChainTime int64 `json:"chain_time"`
}

// VotingStatus reads phase and period timestamps from the contract.
func (c *Client) VotingStatus(ctx context.Context) (Status, error) {
	out, err := c.call(ctx, "getVotingStatus")
	if err != nil {
		return Status{}, err
	}
	if len(out) != 4 {
		return Status{}, fmt.Errorf("getVotingStatus returned %d values, want 4", len(out))
	}
	phase, err := asUint8(out[0])
	if err != nil {
		return Status{}, fmt.Errorf("getVotingStatus phase: %w", err)
	}
	start, err := asInt64(out[1])
	if err != nil {
		return Status{}, fmt.Errorf("getVotingStatus startTime: %w", err)
	}
	end, err := asInt64(out[2])
	if err != nil {
		return Status{}, fmt.Errorf("getVotingStatus endTime: %w", err)
	}
	chainTime, err := asInt64(out[3])
	if err != nil {
		return Status{}, fmt.Errorf("getVotingStatus currentTime: %w", err)
	}
	return Status{Phase: Phase(phase), StartTime: start, EndTime: end, ChainTime: chainTime}, nil
}

// CandidatesCount reads the number of candidates registered on the contract.
func (c *Client) CandidatesCount(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, "getCandidatesCount")
	if err != nil {
		return 0, err
	}
	n, err := asInt64(out[0])
	if err != nil {
		return 0, fmt.Errorf("getCandidatesCount: %w", err)
	}
	return uint64(n), nil
}

// Candidate reads one candidate's on-chain name and vote count by index.
func (c *Client) Candidate(ctx context.Context, index uint64) (string, uint64, error) {
	out, err := c.call(ctx, "getCandidate", new(big.Int).SetUint64(index))
	if err != nil {
		return "", 0, err
	}
	if len(out) != 2 {
		return "", 0, fmt.Errorf("getCandidate returned %d values, want 2", len(out))
	}
	name, ok := out[0].(string)
	if !ok {
		return "", 0, fmt.Errorf("getCandidate name has type %T", out[0])
	}
	count, err := asInt64(out[1])
	if err != nil {
		return "", 0, fmt.Errorf("getCandidate voteCount: %w", err)
	}
	return name, uint64(count), nil
}

// AddCandidate registers a candidate name on the contract.
func (c *Client) AddCandidate(ctx context.Context, name string) (common.Hash, error) {
	return c.transact(ctx, c.txAccount, 0, "addCandidate", name)
}

// RegisterVoter registers a voter address on the contract. Sent from the
// designated admin account, as on-chain registration is an admin action.
func (c *Client) RegisterVoter(ctx context.Context, voter common.Address) (common.Hash, error) {
	return c.transact(ctx, c.txAccount, 0, "registerVoter", voter)
}

// SetVotingPeriod writes the start and end timestamps to the contract.
func (c *Client) SetVotingPeriod(ctx context.Context, start, end int64) (common.Hash, error) {
	return c.transact(ctx, c.txAccount, 0, "setVotingPeriod", big.NewInt(start), big.NewInt(end))
}

// StartVoting transitions the contract from Pending to Active.
func (c *Client) StartVoting(ctx context.Context) (common.Hash, error) {
	return c.transact(ctx, c.txAccount, 0, "startVoting")
}

// EndVoting transitions the contract from Active to Concluded.
func (c *Client) EndVoting(ctx context.Context) (common.Hash, error) {
	return c.transact(ctx, c.txAccount, 0, "endVoting")
}

// ExtendVotingDeadline moves the contract's end timestamp.
func (c *Client) ExtendVotingDeadline(ctx context.Context, newEnd int64) (common.Hash, error) {
	return c.transact(ctx, c.txAccount, 0, "extendVotingDeadline", big.NewInt(newEnd))
}

// Vote casts a vote for the candidate index, sent from the voter's own
// account. The contract is the authority on duplicates and phase.
func (c *Client) Vote(ctx context.Context, from common.Address, candidateIndex uint64) (common.Hash, error) {
	return c.transact(ctx, from, voteGasLimit, "vote", new(big.Int).SetUint64(candidateIndex))
}

// RevokeVote revokes the sender's vote on the contract.
func (c *Client) RevokeVote(ctx context.Context, from common.Address) (common.Hash, error) {
	return c.transact(ctx, from, revokeGasLimit, "revokeVote")
}

func asUint8(v interface{}) (uint8, error) {
	switch n := v.(type) {
	case uint8:
		return n, nil
	case *big.Int:
		return uint8(n.Uint64()), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func asInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case *big.Int:
		return n.Int64(), nil
	case uint64:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
