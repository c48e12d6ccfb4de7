// candidate.go - Off-chain candidate metadata

package models

import "time"

// CandidateDetails holds the off-chain half of a candidate. The name must
// match the name registered on the ledger; the authoritative vote count
// lives on the contract and is never stored here.
type CandidateDetails struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"unique;not null" json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Slogan      string    `json:"slogan"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
