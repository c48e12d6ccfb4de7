// main.go - Entry point for the Go voting backend server

package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-voting-backend/config"
	"go-voting-backend/coordinator"
	"go-voting-backend/database"
	"go-voting-backend/handlers"
	"go-voting-backend/ledger"
	"go-voting-backend/middleware"
	"go-voting-backend/scheduler"
)

func main() {
	// STEP 1: Load configuration and establish connections
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := database.Connect(cfg.DBPath); err != nil {
		log.Fatal("DB connection error: ", err)
	}
	ledgerClient, err := ledger.Connect(cfg, logger)
	if err != nil {
		log.Fatal("ledger connection error: ", err)
	}

	// STEP 2: Bootstrap the admin account if requested
	if cfg.CreateAdmin {
		adminAddr := ledgerClient.TxAccount().Hex()
		if err := database.EnsureAdmin(cfg.AdminUserID, cfg.AdminPassword, adminAddr, logger); err != nil {
			log.Fatal("admin bootstrap error: ", err)
		}
	}

	// STEP 3: Wire the coordinator and restore any pending auto-start job
	sched := scheduler.New(database.DB, logger)
	coord := coordinator.New(database.DB, ledgerClient, sched, logger,
		time.Duration(cfg.ReceiptTimeout)*time.Second)
	sched.OnFire(coord.AutoStartVoting)
	if err := sched.Restore(); err != nil {
		logger.WithError(err).Error("could not restore scheduled auto-start job")
	}
	handlers.Setup(coord)

	// STEP 4: Create Gin router and configure routes
	r := gin.Default()

	// Public routes (no authentication required)
	r.POST("/api/auth/register", handlers.Register)
	r.POST("/api/auth/login", handlers.Login)
	r.GET("/api/auth/available_eth_addresses", handlers.AvailableAddresses)
	r.GET("/api/candidates", handlers.Candidates)
	r.GET("/api/voting_status", handlers.VotingStatus)
	r.GET("/api/election_deadline", handlers.ElectionDeadline)

	// Authenticated routes (require a valid JWT)
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/auth/me", handlers.Me)
		api.POST("/user/apply_voter", handlers.ApplyVoter)
		api.POST("/vote", handlers.CastVote)
		api.POST("/revoke_vote", handlers.RevokeVote)
	}

	// Admin routes (require the admin role, re-verified against the DB)
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminMiddleware())
	{
		admin.POST("/add_candidate", handlers.AddCandidate)
		admin.GET("/voter_applications", handlers.ListApplications)
		admin.PUT("/voter_applications/:id/review", handlers.ReviewApplication)
		admin.POST("/voting/period", handlers.SetVotingPeriod)
		admin.POST("/voting/start", handlers.StartVoting)
		admin.POST("/voting/end", handlers.EndVoting)
		admin.PUT("/voting/extend", handlers.ExtendDeadline)
		admin.GET("/voting/contract_status", handlers.ContractStatus)
	}

	// STEP 5: Start the web server
	r.Run(cfg.Port)
}
