// applications.go - Voter application workflow
//
// An application transitions pending -> approved | rejected exactly once.
// Approval triggers on-chain voter registration; the admin's review decision
// and the chain registration are tracked as separate facts, so a failed
// registration leaves the application approved with an annotation rather
// than rolling the decision back.

package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go-voting-backend/models"
)

// ApplyToBeVoter files a pending application for the user. Purely local:
// nothing is submitted to the ledger until an admin approves.
func (c *Coordinator) ApplyToBeVoter(ctx context.Context, user *models.User) (*models.VoterApplication, *Error) {
	if user.IsAdmin() {
		return nil, authzErr("admin users cannot apply to be voters")
	}
	if user.EthereumAddress == nil {
		return nil, validationErr("user has no ledger address associated")
	}

	var voter models.Voter
	if err := c.db.Where("user_id = ?", user.ID).First(&voter).Error; err == nil {
		return nil, conflictErr("user is already a registered voter")
	} else if err != gorm.ErrRecordNotFound {
		return nil, internalErr(err, "checking voter record")
	}

	// At most one outstanding (pending or approved) application per user.
	var outstanding models.VoterApplication
	err := c.db.Where("user_id = ? AND status IN ?", user.ID,
		[]string{models.ApplicationPending, models.ApplicationApproved}).
		First(&outstanding).Error
	if err == nil {
		return nil, conflictErr("user already has a '%s' voter application", outstanding.Status)
	} else if err != gorm.ErrRecordNotFound {
		return nil, internalErr(err, "checking outstanding applications")
	}

	app := models.VoterApplication{
		UserID:      user.ID,
		Status:      models.ApplicationPending,
		SubmittedAt: time.Now().UTC(),
	}
	if err := c.db.Create(&app).Error; err != nil {
		return nil, internalErr(err, "creating voter application")
	}

	c.actionLog("apply_voter", user.UserID).
		WithField("application_id", app.ID).Info("voter application submitted")
	return &app, nil
}

// ReviewResult reports what a review did. AlreadyVoter marks the
// idempotence path where an approved applicant already had a Voter row, so
// no chain registration was attempted.
type ReviewResult struct {
	Application  *models.VoterApplication `json:"application"`
	Voter        *models.Voter            `json:"voter_record,omitempty"`
	TxHash       string                   `json:"txHash,omitempty"`
	AlreadyVoter bool                     `json:"already_voter,omitempty"`
}

// ReviewApplication applies an admin's approve/reject decision. Reviews are
// terminal; a second review of the same application is a conflict.
func (c *Coordinator) ReviewApplication(ctx context.Context, admin *models.User, applicationID uint, newStatus string) (*ReviewResult, *Error) {
	log := c.actionLog("review_application", admin.UserID).
		WithField("application_id", applicationID)

	if newStatus != models.ApplicationApproved && newStatus != models.ApplicationRejected {
		return nil, validationErr("status must be 'approved' or 'rejected'")
	}

	var app models.VoterApplication
	if err := c.db.First(&app, applicationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr("voter application %d not found", applicationID)
		}
		return nil, internalErr(err, "loading application")
	}
	if app.Status != models.ApplicationPending {
		return nil, conflictErr("application is already '%s' and cannot be reviewed again", app.Status)
	}

	var applicant models.User
	if err := c.db.First(&applicant, app.UserID).Error; err != nil {
		log.WithError(err).Error("applicant user missing for pending application")
		return nil, internalErr(err, "applicant user not found for this application")
	}
	if newStatus == models.ApplicationApproved && applicant.EthereumAddress == nil {
		return nil, validationErr("applicant has no ledger address; cannot approve")
	}

	now := time.Now().UTC()
	app.Status = newStatus
	app.ReviewedByAdminID = &admin.ID
	app.ReviewedAt = &now

	if newStatus == models.ApplicationRejected {
		if err := c.db.Save(&app).Error; err != nil {
			return nil, internalErr(err, "saving rejected application")
		}
		log.WithField("applicant", applicant.UserID).Info("voter application rejected")
		return &ReviewResult{Application: &app}, nil
	}

	// Idempotence guard: an approved applicant who already has a Voter row
	// (duplicate approval race) gets the status flip and nothing else.
	var existingVoter models.Voter
	if err := c.db.Where("user_id = ?", applicant.ID).First(&existingVoter).Error; err == nil {
		if err := c.db.Save(&app).Error; err != nil {
			return nil, internalErr(err, "saving approved application")
		}
		log.WithField("voter_id", existingVoter.ID).Warn("applicant was already a voter; skipped chain registration")
		return &ReviewResult{Application: &app, Voter: &existingVoter, AlreadyVoter: true}, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, internalErr(err, "checking existing voter record")
	}

	addr := common.HexToAddress(*applicant.EthereumAddress)
	log = log.WithField("voter_address", addr.Hex())

	txHash, err := c.ledger.RegisterVoter(ctx, addr)
	if err != nil {
		// The review decision stands; the chain failure is recorded on the
		// application for later reconciliation.
		c.annotateAndSave(&app, admin, fmt.Sprintf("chain registration submit failed: %v", err), log)
		perr := submitErr(err)
		log.WithError(err).Error("voter registration submission failed")
		return nil, perr
	}
	log = log.WithField("tx", txHash.Hex())

	if _, perr := c.await(ctx, txHash); perr != nil {
		c.annotateAndSave(&app, admin, fmt.Sprintf("chain registration did not confirm (%s, tx %s)", perr.Kind, txHash.Hex()), log)
		log.WithField("kind", perr.Kind).Error("voter registration did not confirm")
		return nil, perr
	}

	// Ledger confirmed: flip the application and create the Voter row in a
	// single local transaction.
	voter := models.Voter{
		UserID:              applicant.ID,
		IsRegisteredOnChain: true,
		RegisteredOnChainAt: &now,
	}
	hash := txHash.Hex()
	voter.ChainRegistrationTxHash = &hash

	err = c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&app).Error; err != nil {
			return err
		}
		return tx.Create(&voter).Error
	})
	if err != nil {
		log.WithError(err).Error("voter registered on ledger but mirror write failed")
		return nil, mirrorErr(err, hash)
	}

	log.WithField("voter_id", voter.ID).Info("voter application approved and voter registered on ledger")
	return &ReviewResult{
		Application: &app,
		Voter:       &voter,
		TxHash:      hash,
	}, nil
}

// annotateAndSave records a system note on the application and persists the
// review decision even though the chain step failed.
func (c *Coordinator) annotateAndSave(app *models.VoterApplication, admin *models.User, note string, log *logrus.Entry) {
	if app.AdminNotes != "" {
		app.AdminNotes += "\n"
	}
	app.AdminNotes += fmt.Sprintf("[system note by %s: %s]", admin.UserID, note)
	if err := c.db.Save(app).Error; err != nil {
		log.WithError(err).Error("failed to persist review annotation")
	}
}
