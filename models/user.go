// user.go - Defines the User model for the database

package models

import "time"

// User is an identity record. Role is fixed at creation; there is no
// promotion path. EthereumAddress is nullable but unique when set, so at
// most one user owns any ledger address.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"unique;not null" json:"userid"` // Login id
	PasswordHash    string    `gorm:"not null" json:"-"`
	Role            string    `gorm:"not null;default:'user'" json:"role"` // 'admin' or 'user'
	EthereumAddress *string   `gorm:"unique" json:"ethereum_address"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
