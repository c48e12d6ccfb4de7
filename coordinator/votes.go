// votes.go - Casting and revoking votes
//
// The ledger is the source of truth for "has voted". The local check cuts
// off the obvious duplicate early, but a Reverted("Already voted") outcome
// is authoritative even when the local check passed. A Vote row is written
// only from a Success receipt, so no phantom votes can exist locally.

package coordinator

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"go-voting-backend/models"
)

// VoteResult is the combined outcome of a confirmed cast vote.
type VoteResult struct {
	TxResult
	VoteID        uint   `json:"db_vote_id"`
	CandidateName string `json:"candidate_name"`
	Duplicate     bool   `json:"-"` // apply-time race; existing row returned
}

// CastVote submits a vote for the candidate index from the user's own
// ledger account and mirrors the confirmed vote locally.
func (c *Coordinator) CastVote(ctx context.Context, user *models.User, candidateIndex uint64) (*VoteResult, *Error) {
	log := c.actionLog("cast_vote", user.UserID).WithField("candidate_index", candidateIndex)

	// Local preconditions. None of these touch the ledger.
	if user.EthereumAddress == nil {
		return nil, authzErr("user has no ledger address for voting")
	}
	var voter models.Voter
	if err := c.db.Where("user_id = ?", user.ID).First(&voter).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, authzErr("user is not registered as a voter")
		}
		return nil, internalErr(err, "loading voter record")
	}
	if !voter.IsRegisteredOnChain {
		return nil, authzErr("voter is not registered on the ledger")
	}

	var existing models.Vote
	if err := c.db.Where("voter_id = ?", voter.ID).First(&existing).Error; err == nil {
		return nil, conflictErr("voter has already voted")
	} else if err != gorm.ErrRecordNotFound {
		return nil, internalErr(err, "checking existing vote")
	}

	from := common.HexToAddress(*user.EthereumAddress)
	txHash, err := c.ledger.Vote(ctx, from, candidateIndex)
	if err != nil {
		log.WithError(err).Error("vote submission failed")
		return nil, submitErr(err)
	}
	log = log.WithField("tx", txHash.Hex())

	// The wait holds no lock and opens no local transaction. On timeout the
	// outcome is unknown; no Vote row is written and the hash is surfaced.
	rcpt, perr := c.await(ctx, txHash)
	if perr != nil {
		log.WithField("kind", perr.Kind).Warn("vote did not confirm")
		return nil, perr
	}

	// Apply to mirror. The candidate name is re-read from the contract so
	// the join key is the ledger's, not the caller's.
	name, _, err := c.ledger.Candidate(ctx, candidateIndex)
	if err != nil {
		log.WithError(err).Error("vote confirmed but candidate lookup failed")
		return nil, mirrorErr(err, txHash.Hex())
	}
	var detail models.CandidateDetails
	if err := c.db.Where("name = ?", name).First(&detail).Error; err != nil {
		log.WithError(err).WithField("candidate", name).
			Error("vote confirmed but candidate missing from local metadata")
		return nil, mirrorErr(err, txHash.Hex())
	}

	now := time.Now().UTC()
	vote := models.Vote{
		VoterID:         voter.ID,
		CandidateID:     detail.ID,
		TransactionHash: txHash.Hex(),
		BlockNumber:     rcpt.BlockNumber,
		VotedAtOnChain:  &now,
	}

	duplicate := false
	err = c.db.Transaction(func(tx *gorm.DB) error {
		// Re-check inside the transaction: a concurrent CastVote for the
		// same voter may have applied first. That row wins; this apply
		// becomes a no-op duplicate rather than a fatal error.
		var raced models.Vote
		if rerr := tx.Where("voter_id = ?", voter.ID).First(&raced).Error; rerr == nil {
			vote = raced
			duplicate = true
			return nil
		} else if rerr != gorm.ErrRecordNotFound {
			return rerr
		}
		return tx.Create(&vote).Error
	})
	if err != nil {
		log.WithError(err).Error("vote confirmed on ledger but mirror insert failed")
		return nil, mirrorErr(err, txHash.Hex())
	}

	if duplicate {
		log.WithField("vote_id", vote.ID).Warn("vote row already present at apply time; treated as duplicate")
	} else {
		log.WithField("vote_id", vote.ID).Info("vote cast and recorded")
	}
	return &VoteResult{
		TxResult:      TxResult{TxHash: txHash.Hex(), BlockNumber: rcpt.BlockNumber},
		VoteID:        vote.ID,
		CandidateName: name,
		Duplicate:     duplicate,
	}, nil
}

// RevokeVote revokes the user's vote on the ledger and removes the mirrored
// Vote row once the revocation is confirmed.
func (c *Coordinator) RevokeVote(ctx context.Context, user *models.User) (*TxResult, *Error) {
	log := c.actionLog("revoke_vote", user.UserID)

	if user.EthereumAddress == nil {
		return nil, authzErr("user has no ledger address for revoking a vote")
	}
	var voter models.Voter
	if err := c.db.Where("user_id = ?", user.ID).First(&voter).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, authzErr("user is not registered as a voter")
		}
		return nil, internalErr(err, "loading voter record")
	}

	var vote models.Vote
	if err := c.db.Where("voter_id = ?", voter.ID).First(&vote).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("no vote found for this voter to revoke")
		}
		return nil, internalErr(err, "loading vote record")
	}

	from := common.HexToAddress(*user.EthereumAddress)
	txHash, err := c.ledger.RevokeVote(ctx, from)
	if err != nil {
		log.WithError(err).Error("revoke submission failed")
		return nil, submitErr(err)
	}
	log = log.WithField("tx", txHash.Hex())

	rcpt, perr := c.await(ctx, txHash)
	if perr != nil {
		log.WithField("kind", perr.Kind).Warn("revoke did not confirm")
		return nil, perr
	}

	if err := c.db.Delete(&models.Vote{}, vote.ID).Error; err != nil {
		log.WithError(err).Error("revoke confirmed on ledger but mirror delete failed")
		return nil, mirrorErr(err, txHash.Hex())
	}

	log.WithField("vote_id", vote.ID).Info("vote revoked and removed from mirror")
	return &TxResult{TxHash: txHash.Hex(), BlockNumber: rcpt.BlockNumber}, nil
}
