// database.go - Handles database connection, migration and admin bootstrap

package database

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-voting-backend/models"
)

// DB is the global database connection.
var DB *gorm.DB

// Connect opens the mirror database and runs migrations.
func Connect(dbPath string) error {
	var err error
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	return DB.AutoMigrate(
		&models.User{},
		&models.CandidateDetails{},
		&models.VoterApplication{},
		&models.Voter{},
		&models.Vote{},
		&models.ScheduledJob{},
	)
}

// ErrAddressBound is returned when the bootstrap address already belongs to
// a different identity.
var ErrAddressBound = errors.New("ledger address already bound to another user")

// EnsureAdmin creates the single admin identity bound to the designated
// ledger transaction account. Idempotent: an existing admin with the given
// userid is left untouched. It refuses to proceed when the address is
// already bound to a different user.
func EnsureAdmin(userid, password, ethAddress string, log *logrus.Logger) error {
	var existing models.User
	err := DB.Where("user_id = ? AND role = ?", userid, "admin").First(&existing).Error
	if err == nil {
		log.WithField("userid", userid).Info("admin user already exists")
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	if password == "" {
		return errors.New("admin bootstrap requested but no admin password configured")
	}

	// Collision safety: the designated address must not belong to anyone else.
	var holder models.User
	err = DB.Where("ethereum_address = ?", ethAddress).First(&holder).Error
	if err == nil {
		return fmt.Errorf("%w: address %s is held by user %q", ErrAddressBound, ethAddress, holder.UserID)
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		UserID:          userid,
		PasswordHash:    string(hash),
		Role:            "admin",
		EthereumAddress: &ethAddress,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"userid": userid, "address": ethAddress}).
		Info("admin user created and bound to ledger account")
	return nil
}
