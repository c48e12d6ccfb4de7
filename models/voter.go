// voter.go - The local record of a ledger-registered voter

package models

import "time"

// Voter is created only after the ledger confirms registerVoter; it is
// never written speculatively. One Voter per User.
type Voter struct {
	ID                      uint       `gorm:"primaryKey" json:"id"`
	UserID                  uint       `gorm:"not null;unique" json:"user_id"`
	User                    User       `gorm:"foreignKey:UserID" json:"-"`
	IsRegisteredOnChain     bool       `gorm:"not null;default:false" json:"is_registered_on_chain"`
	ChainRegistrationTxHash *string    `json:"chain_registration_tx_hash"`
	RegisteredOnChainAt     *time.Time `json:"registered_on_chain_at"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}
