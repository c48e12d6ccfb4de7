// voter_application.go - A user's request to become a voter

package models

import "time"

// Application status values. Transitions run pending -> approved or
// pending -> rejected exactly once; both outcomes are terminal.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// VoterApplication records one review cycle. A user may have at most one
// pending or approved application at a time. AdminNotes carries system
// annotations, e.g. when the on-chain registration failed after an approval.
type VoterApplication struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"not null" json:"user_id"`
	User              User       `gorm:"foreignKey:UserID" json:"-"`
	Status            string     `gorm:"not null;default:'pending'" json:"status"`
	SubmittedAt       time.Time  `json:"submitted_at"`
	ReviewedByAdminID *uint      `json:"reviewed_by_admin_id"`
	ReviewedAt        *time.Time `json:"reviewed_at"`
	AdminNotes        string     `json:"admin_notes,omitempty"`
}
