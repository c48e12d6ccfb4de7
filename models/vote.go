// vote.go - The local record of a cast, ledger-confirmed vote

package models

import "time"

// Vote mirrors one confirmed vote transaction. TransactionHash is unique so
// a receipt can never be recorded twice; the coordinator additionally
// enforces at most one Vote per Voter.
type Vote struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	VoterID         uint       `gorm:"not null" json:"voter_id"`
	Voter           Voter      `gorm:"foreignKey:VoterID" json:"-"`
	CandidateID     uint       `gorm:"not null" json:"candidate_id"`
	TransactionHash string     `gorm:"unique;not null" json:"transaction_hash"`
	BlockNumber     uint64     `json:"block_number"`
	VotedAtOnChain  *time.Time `json:"voted_at_on_chain"`
	CreatedAt       time.Time  `json:"created_at"`
}
