// admin.go - Admin election management handlers

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-voting-backend/coordinator"
	"go-voting-backend/database"
	"go-voting-backend/models"
)

type AddCandidateInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Slogan      string `json:"slogan"`
}

// AddCandidate registers a candidate on the ledger with local metadata.
func AddCandidate(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}

	var input AddCandidateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	result, candidate, err := Coord.AddCandidate(c.Request.Context(), admin, coordinator.AddCandidateInput{
		Name:        input.Name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Slogan:      input.Slogan,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "candidate added successfully",
		"txHash":  result.TxHash,
		"db_id":   candidate.ID,
	})
}

// ListApplications returns voter applications with a status filter and
// simple pagination.
func ListApplications(c *gin.Context) {
	statusFilter := c.DefaultQuery("status", models.ApplicationPending)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	query := database.DB.Model(&models.VoterApplication{})
	if statusFilter != "" && statusFilter != "all" {
		query = query.Where("status = ?", statusFilter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	var applications []models.VoterApplication
	err := query.Order("submitted_at desc").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&applications).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"applications": applications,
		"total":        total,
		"pages":        pages,
		"current_page": page,
	})
}

type ReviewInput struct {
	Status string `json:"status" binding:"required"`
}

// ReviewApplication applies an approve/reject decision to one application.
func ReviewApplication(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid application id"})
		return
	}

	var input ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "new status ('approved' or 'rejected') is required"})
		return
	}

	result, cerr := Coord.ReviewApplication(c.Request.Context(), admin, uint(id), input.Status)
	if cerr != nil {
		fail(c, cerr)
		return
	}

	body := gin.H{
		"success":     true,
		"application": result.Application,
	}
	switch {
	case result.AlreadyVoter:
		body["message"] = "application status updated; user was already a voter"
	case result.Application.Status == models.ApplicationRejected:
		body["message"] = "voter application rejected"
	default:
		body["message"] = "voter application approved; user registered on the ledger"
		body["voter_record"] = result.Voter
		body["txHash"] = result.TxHash
	}
	c.JSON(http.StatusOK, body)
}

type VotingPeriodInput struct {
	StartTime *int64 `json:"start_time_timestamp" binding:"required"`
	EndTime   *int64 `json:"end_time_timestamp" binding:"required"`
}

// SetVotingPeriod writes the voting period to the ledger and schedules the
// auto-start job.
func SetVotingPeriod(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}

	var input VotingPeriodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false,
			"message": "start_time_timestamp and end_time_timestamp are required and must be integers"})
		return
	}

	result, cerr := Coord.SetVotingPeriod(c.Request.Context(), admin, *input.StartTime, *input.EndTime)
	if cerr != nil {
		fail(c, cerr)
		return
	}

	body := gin.H{
		"success": true,
		"txHash":  result.TxHash,
	}
	if result.SchedulingError != "" {
		body["message"] = "voting period set on the ledger, but auto-start scheduling failed; check server logs"
		body["scheduling_error"] = result.SchedulingError
	} else {
		body["message"] = "voting period set and auto-start scheduled"
		body["auto_start_job_id"] = result.JobID
		body["auto_start_scheduled_at"] = result.ScheduledAt
	}
	c.JSON(http.StatusOK, body)
}

// StartVoting transitions the ledger to Active.
func StartVoting(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := Coord.StartVoting(c.Request.Context(), admin)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "voting started successfully", "txHash": result.TxHash})
}

// EndVoting transitions the ledger to Concluded.
func EndVoting(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	result, err := Coord.EndVoting(c.Request.Context(), admin)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "voting ended successfully", "txHash": result.TxHash})
}

type ExtendDeadlineInput struct {
	NewEndTime *int64 `json:"new_end_time_timestamp" binding:"required"`
}

// ExtendDeadline moves the ledger's voting end timestamp.
func ExtendDeadline(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}

	var input ExtendDeadlineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false,
			"message": "new_end_time_timestamp is required and must be an integer"})
		return
	}

	result, cerr := Coord.ExtendDeadline(c.Request.Context(), admin, *input.NewEndTime)
	if cerr != nil {
		fail(c, cerr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "voting deadline extended successfully", "txHash": result.TxHash})
}

// ContractStatus returns the detailed contract state for the admin UI.
func ContractStatus(c *gin.Context) {
	status, cerr := Coord.Status(c.Request.Context())
	if cerr != nil {
		fail(c, cerr)
		return
	}
	count, err := Coord.Ledger().CandidatesCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                 true,
		"phase":                   status.Phase,
		"phase_code":              status.PhaseCode,
		"start_time":              status.StartTime,
		"end_time":                status.EndTime,
		"current_block_timestamp": status.ChainTime,
		"candidates_count":        count,
	})
}
