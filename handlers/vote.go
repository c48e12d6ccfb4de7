// vote.go - Public election views and voter actions

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Candidates returns every candidate: ledger tally joined with local
// metadata. Public.
func Candidates(c *gin.Context) {
	views, err := Coord.ListCandidates(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "candidates": views})
}

// VotingStatus returns the derived phase view. Public. On a ledger read
// failure a degraded "voting unavailable" shape is returned so clients fail
// safe.
func VotingStatus(c *gin.Context) {
	status, err := Coord.Status(c.Request.Context())
	if err != nil {
		c.JSON(err.HTTPStatus(), gin.H{
			"success":    false,
			"message":    err.Message,
			"phase":      "Error",
			"phase_code": -1,
			"isStarted":  false,
			"isEnded":    true,
			"startTime":  0,
			"endTime":    0,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"phase":      status.Phase,
		"phase_code": status.PhaseCode,
		"isStarted":  status.IsStarted,
		"isEnded":    status.IsEnded,
		"startTime":  status.StartTime,
		"endTime":    status.EndTime,
	})
}

// ElectionDeadline returns the contract's voting end timestamp. Public.
func ElectionDeadline(c *gin.Context) {
	status, err := Coord.Status(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":                 true,
		"deadline_timestamp":      status.EndTime,
		"current_block_timestamp": status.ChainTime,
		"isEnded":                 status.IsEnded,
	})
}

type CastVoteInput struct {
	CandidateIndex *uint64 `json:"candidate_index_on_chain" binding:"required"`
}

// CastVote submits the caller's vote for a candidate index.
func CastVote(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input CastVoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "candidate_index_on_chain is required"})
		return
	}

	result, err := Coord.CastVote(c.Request.Context(), user, *input.CandidateIndex)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "vote cast successfully on the ledger and recorded",
		"txHash":      result.TxHash,
		"blockNumber": result.BlockNumber,
		"db_vote_id":  result.VoteID,
	})
}

// RevokeVote revokes the caller's vote.
func RevokeVote(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := Coord.RevokeVote(c.Request.Context(), user)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "vote revoked on the ledger and removed",
		"txHash":      result.TxHash,
		"blockNumber": result.BlockNumber,
	})
}
