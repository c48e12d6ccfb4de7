// candidates.go - Candidate registration and the chain/mirror join

package coordinator

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go-voting-backend/ledger"
	"go-voting-backend/models"
)

// AddCandidateInput carries the candidate name (registered on the ledger)
// and the off-chain metadata stored in the mirror.
type AddCandidateInput struct {
	Name        string
	Description string
	ImageURL    string
	Slogan      string
}

// AddCandidate registers a candidate on the ledger and stores its metadata
// locally. Only valid while the contract is Pending.
func (c *Coordinator) AddCandidate(ctx context.Context, admin *models.User, in AddCandidateInput) (*TxResult, *models.CandidateDetails, *Error) {
	log := c.actionLog("add_candidate", admin.UserID)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, validationErr("candidate name must be a non-empty string")
	}

	// Phase gate: candidates can only be added before voting starts.
	if _, perr := c.requirePhase(ctx, ledger.PhasePending); perr != nil {
		log.WithField("error", perr.Message).Warn("add candidate refused")
		return nil, nil, perr
	}

	var existing models.CandidateDetails
	if err := c.db.Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, nil, conflictErr("candidate with name '%s' already exists", name)
	} else if err != gorm.ErrRecordNotFound {
		return nil, nil, internalErr(err, "checking existing candidate")
	}

	txHash, err := c.ledger.AddCandidate(ctx, name)
	if err != nil {
		log.WithError(err).Error("add candidate submission failed")
		return nil, nil, submitErr(err)
	}
	log = log.WithField("tx", txHash.Hex())

	rcpt, perr := c.await(ctx, txHash)
	if perr != nil {
		log.WithField("kind", perr.Kind).Warn("add candidate did not confirm")
		return nil, nil, perr
	}

	candidate := models.CandidateDetails{
		Name:        name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Slogan:      in.Slogan,
	}
	if err := c.db.Create(&candidate).Error; err != nil {
		log.WithError(err).Error("candidate confirmed on ledger but mirror insert failed")
		return nil, nil, mirrorErr(err, txHash.Hex())
	}

	log.WithField("candidate_id", candidate.ID).Info("candidate added")
	return &TxResult{TxHash: txHash.Hex(), BlockNumber: rcpt.BlockNumber}, &candidate, nil
}

// CandidateView is the join of one ledger candidate (index, name, count)
// with its local metadata. Metadata fields are zero when the ledger knows a
// name the mirror does not - a detected inconsistency, logged but not fatal.
type CandidateView struct {
	IndexOnChain uint64     `json:"id_on_chain"`
	Name         string     `json:"name"`
	VoteCount    uint64     `json:"vote_count_from_chain"`
	ID           *uint      `json:"id"`
	Description  *string    `json:"description"`
	ImageURL     *string    `json:"image_url"`
	Slogan       *string    `json:"slogan"`
	CreatedAt    *time.Time `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// ListCandidates reads every candidate from the contract and joins the
// local metadata by name.
func (c *Coordinator) ListCandidates(ctx context.Context) ([]CandidateView, *Error) {
	count, err := c.ledger.CandidatesCount(ctx)
	if err != nil {
		return nil, ledgerReadErr(err)
	}

	views := make([]CandidateView, 0, count)
	for i := uint64(0); i < count; i++ {
		name, votes, err := c.ledger.Candidate(ctx, i)
		if err != nil {
			return nil, ledgerReadErr(err)
		}
		view := CandidateView{IndexOnChain: i, Name: name, VoteCount: votes}

		var detail models.CandidateDetails
		derr := c.db.Where("name = ?", name).First(&detail).Error
		switch derr {
		case nil:
			view.ID = &detail.ID
			view.Description = &detail.Description
			view.ImageURL = &detail.ImageURL
			view.Slogan = &detail.Slogan
			view.CreatedAt = &detail.CreatedAt
			view.UpdatedAt = &detail.UpdatedAt
		case gorm.ErrRecordNotFound:
			c.log.WithFields(logrus.Fields{
				"name": name, "chain_index": i,
			}).Warn("candidate found on ledger but missing from local metadata")
		default:
			return nil, internalErr(derr, "loading candidate metadata")
		}
		views = append(views, view)
	}
	return views, nil
}
