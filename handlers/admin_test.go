// admin_test.go - Tests for admin endpoints and the full election flow
// Run with: go test ./...

package handlers

import (
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"go-voting-backend/database"
	"go-voting-backend/ledger"
	"go-voting-backend/models"
)

func TestAdminAddCandidate(t *testing.T) {
	fake := newFakeLedger(ledger.PhasePending)
	router := setupApp(t, fake)
	seedAdmin(t, fake)
	adminToken := login(t, router, "admin", "adminpass")

	w := doJSON(router, "POST", "/api/admin/add_candidate", adminToken, gin.H{
		"name":        "Alice",
		"description": "first candidate",
		"slogan":      "onward",
	})
	assert.Equal(t, 201, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["txHash"])
	assert.Equal(t, []string{"Alice"}, fake.candidates)

	// The public list joins the ledger entry with its metadata
	w = doJSON(router, "GET", "/api/candidates", "", nil)
	assert.Equal(t, 200, w.Code)
	candidates := decode(t, w)["candidates"].([]interface{})
	assert.Len(t, candidates, 1)
	first := candidates[0].(map[string]interface{})
	assert.Equal(t, "Alice", first["name"])
	assert.Equal(t, "onward", first["slogan"])
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	fake := newFakeLedger(ledger.PhasePending)
	router := setupApp(t, fake)
	seedAdmin(t, fake)
	userToken := registerUser(t, router, "alice", common.HexToAddress("0x01").Hex())

	// Ordinary user: refused before the handler runs, so neither the
	// ledger nor the mirror sees anything
	w := doJSON(router, "POST", "/api/admin/add_candidate", userToken, gin.H{"name": "X"})
	assert.Equal(t, 403, w.Code)
	assert.Empty(t, fake.candidates)

	var count int64
	database.DB.Model(&models.CandidateDetails{}).Count(&count)
	assert.Equal(t, int64(0), count)

	w = doJSON(router, "POST", "/api/admin/voting/start", userToken, nil)
	assert.Equal(t, 403, w.Code)
	assert.Equal(t, ledger.PhasePending, fake.status.Phase)

	w = doJSON(router, "PUT", "/api/admin/voter_applications/1/review", userToken, gin.H{"status": "approved"})
	assert.Equal(t, 403, w.Code)
	assert.Empty(t, fake.registered)

	// No token at all
	w = doJSON(router, "POST", "/api/admin/voting/start", "", nil)
	assert.Equal(t, 401, w.Code)
	assert.Equal(t, ledger.PhasePending, fake.status.Phase)
}

func TestVotingStatusPublic(t *testing.T) {
	fake := newFakeLedger(ledger.PhaseActive)
	router := setupApp(t, fake)

	w := doJSON(router, "GET", "/api/voting_status", "", nil)
	assert.Equal(t, 200, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Active", body["phase"])
	assert.Equal(t, true, body["isStarted"])
	assert.Equal(t, false, body["isEnded"])
}

func TestElectionDeadlinePublic(t *testing.T) {
	fake := newFakeLedger(ledger.PhaseActive)
	router := setupApp(t, fake)

	w := doJSON(router, "GET", "/api/election_deadline", "", nil)
	assert.Equal(t, 200, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(2000), body["deadline_timestamp"])
	assert.Equal(t, false, body["isEnded"])
}

func TestSetVotingPeriodValidatesBody(t *testing.T) {
	fake := newFakeLedger(ledger.PhasePending)
	router := setupApp(t, fake)
	seedAdmin(t, fake)
	adminToken := login(t, router, "admin", "adminpass")

	w := doJSON(router, "POST", "/api/admin/voting/period", adminToken, gin.H{
		"start_time_timestamp": 5000,
	})
	assert.Equal(t, 400, w.Code)

	// Start after end is refused before anything is submitted
	w = doJSON(router, "POST", "/api/admin/voting/period", adminToken, gin.H{
		"start_time_timestamp": 9000,
		"end_time_timestamp":   5000,
	})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "validation_error", decode(t, w)["kind"])
}

func TestContractStatus(t *testing.T) {
	fake := newFakeLedger(ledger.PhasePending)
	fake.candidates = []string{"Alice", "Bob"}
	router := setupApp(t, fake)
	seedAdmin(t, fake)
	adminToken := login(t, router, "admin", "adminpass")

	w := doJSON(router, "GET", "/api/admin/voting/contract_status", adminToken, nil)
	assert.Equal(t, 200, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Pending", body["phase"])
	assert.Equal(t, float64(2), body["candidates_count"])
}

// TestElectionFlow walks the whole lifecycle: candidate setup, voter
// application and approval, phase transitions, voting and revocation.
func TestElectionFlow(t *testing.T) {
	fake := newFakeLedger(ledger.PhasePending)
	router := setupApp(t, fake)
	seedAdmin(t, fake)
	adminToken := login(t, router, "admin", "adminpass")
	userToken := registerUser(t, router, "alice", common.HexToAddress("0x01").Hex())

	// Admin adds a candidate while the contract is Pending
	w := doJSON(router, "POST", "/api/admin/add_candidate", adminToken, gin.H{"name": "Alice"})
	assert.Equal(t, 201, w.Code)

	// User applies to be a voter
	w = doJSON(router, "POST", "/api/user/apply_voter", userToken, nil)
	assert.Equal(t, 201, w.Code)
	app := decode(t, w)["application"].(map[string]interface{})
	appID := int(app["id"].(float64))

	// Applying again while pending is a conflict
	w = doJSON(router, "POST", "/api/user/apply_voter", userToken, nil)
	assert.Equal(t, 409, w.Code)

	// Admin sees the pending application
	w = doJSON(router, "GET", "/api/admin/voter_applications", adminToken, nil)
	assert.Equal(t, 200, w.Code)
	listing := decode(t, w)
	assert.Equal(t, float64(1), listing["total"])

	// Approval registers the voter on the ledger
	w = doJSON(router, "PUT", fmt.Sprintf("/api/admin/voter_applications/%d/review", appID),
		adminToken, gin.H{"status": "approved"})
	assert.Equal(t, 200, w.Code)
	assert.Len(t, fake.registered, 1)

	var alice models.User
	assert.NoError(t, database.DB.Where("user_id = ?", "alice").First(&alice).Error)
	var voter models.Voter
	assert.NoError(t, database.DB.Where("user_id = ?", alice.ID).First(&voter).Error)
	assert.True(t, voter.IsRegisteredOnChain)

	// A second review of the same application is a conflict
	w = doJSON(router, "PUT", fmt.Sprintf("/api/admin/voter_applications/%d/review", appID),
		adminToken, gin.H{"status": "rejected"})
	assert.Equal(t, 409, w.Code)

	// Voting before the phase is Active is rejected by the contract; here
	// the admin starts voting first
	w = doJSON(router, "POST", "/api/admin/voting/period", adminToken, gin.H{
		"start_time_timestamp": time.Now().Add(time.Hour).Unix(),
		"end_time_timestamp":   time.Now().Add(2 * time.Hour).Unix(),
	})
	assert.Equal(t, 200, w.Code)

	w = doJSON(router, "POST", "/api/admin/voting/start", adminToken, nil)
	assert.Equal(t, 200, w.Code)

	// User votes
	w = doJSON(router, "POST", "/api/vote", userToken, gin.H{"candidate_index_on_chain": 0})
	assert.Equal(t, 201, w.Code)
	voteBody := decode(t, w)
	assert.NotEmpty(t, voteBody["txHash"])

	// Profile now reflects the vote
	w = doJSON(router, "GET", "/api/auth/me", userToken, nil)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, true, user["is_voter"])
	assert.Equal(t, true, user["has_voted"])
	assert.Equal(t, "approved", user["voter_application_status"])

	// Voting twice is refused locally
	w = doJSON(router, "POST", "/api/vote", userToken, gin.H{"candidate_index_on_chain": 0})
	assert.Equal(t, 409, w.Code)

	// Revoke, then the mirror row is gone
	w = doJSON(router, "POST", "/api/revoke_vote", userToken, nil)
	assert.Equal(t, 200, w.Code)

	var votes int64
	database.DB.Model(&models.Vote{}).Count(&votes)
	assert.Equal(t, int64(0), votes)

	// Admin ends voting
	w = doJSON(router, "POST", "/api/admin/voting/end", adminToken, nil)
	assert.Equal(t, 200, w.Code)

	w = doJSON(router, "GET", "/api/voting_status", "", nil)
	assert.Equal(t, true, decode(t, w)["isEnded"])
}
