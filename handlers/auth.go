// auth.go - Registration, login and profile handlers

package handlers

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"go-voting-backend/config"
	"go-voting-backend/database"
	"go-voting-backend/models"
)

type RegisterInput struct {
	UserID          string `json:"userid" binding:"required"`
	Password        string `json:"password" binding:"required,min=6"`
	EthereumAddress string `json:"ethereum_address" binding:"required"`
}

type LoginInput struct {
	UserID   string `json:"userid" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a user bound to one of the node's unused accounts.
func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if !common.IsHexAddress(input.EthereumAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid ledger address format"})
		return
	}
	addr := common.HexToAddress(input.EthereumAddress).Hex()

	var existing models.User
	if err := database.DB.Where("user_id = ?", input.UserID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "userid already exists"})
		return
	}
	if err := database.DB.Where("ethereum_address = ?", addr).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "ledger address is already taken"})
		return
	}

	// The chosen address must be one the node actually manages and that no
	// user (including the admin account) holds yet.
	if !addressAvailable(addr) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "selected ledger address is not available"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to hash password"})
		return
	}

	user := models.User{
		UserID:          input.UserID,
		PasswordHash:    string(hash),
		Role:            "user",
		EthereumAddress: &addr,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "user registered successfully", "user": user})
}

// Login authenticates and issues a JWT carrying id, login and role claims.
func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.Where("user_id = ?", input.UserID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid userid or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid userid or password"})
		return
	}

	cfg := config.Load()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"userid":  user.UserID,
		"role":    user.Role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to sign token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "access_token": tokenString, "user": user})
}

// Me returns the caller's profile with derived voter status.
func Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": profile(user)})
}

// AvailableAddresses lists node accounts not yet bound to any user. The
// designated transaction account is excluded.
func AvailableAddresses(c *gin.Context) {
	used := make(map[string]bool)
	var users []models.User
	if err := database.DB.Where("ethereum_address IS NOT NULL").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	for _, u := range users {
		if u.EthereumAddress != nil {
			used[*u.EthereumAddress] = true
		}
	}

	txAccount := Coord.Ledger().TxAccount().Hex()
	available := []string{}
	for _, acct := range Coord.Ledger().Accounts() {
		hex := acct.Hex()
		if hex != txAccount && !used[hex] {
			available = append(available, hex)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "available_addresses": available})
}

func addressAvailable(addr string) bool {
	txAccount := Coord.Ledger().TxAccount().Hex()
	if addr == txAccount {
		return false
	}
	for _, acct := range Coord.Ledger().Accounts() {
		if acct.Hex() == addr {
			return true
		}
	}
	return false
}

// profile is the original rich user view: identity plus voter, vote and
// application status, all derived at response time.
func profile(user *models.User) gin.H {
	out := gin.H{
		"id":               user.ID,
		"userid":           user.UserID,
		"role":             user.Role,
		"ethereum_address": user.EthereumAddress,
		"created_at":       user.CreatedAt,
		"updated_at":       user.UpdatedAt,
		"is_voter":         false,
		"voter_is_registered_on_chain": false,
		"has_voted":                    false,
	}

	var voter models.Voter
	if err := database.DB.Where("user_id = ?", user.ID).First(&voter).Error; err == nil {
		out["is_voter"] = true
		out["voter_is_registered_on_chain"] = voter.IsRegisteredOnChain

		var vote models.Vote
		if err := database.DB.Where("voter_id = ?", voter.ID).First(&vote).Error; err == nil {
			out["has_voted"] = true
		}
	}

	var app models.VoterApplication
	err := database.DB.Where("user_id = ? AND status IN ?", user.ID,
		[]string{models.ApplicationPending, models.ApplicationApproved}).
		Order("submitted_at desc").First(&app).Error
	if err != nil {
		err = database.DB.Where("user_id = ? AND status = ?", user.ID, models.ApplicationRejected).
			Order("submitted_at desc").First(&app).Error
	}
	if err == nil {
		out["voter_application_status"] = app.Status
		out["voter_application_id"] = app.ID
	} else {
		out["voter_application_status"] = nil
	}

	return out
}
