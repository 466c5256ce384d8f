package models

import "time"

// UserStatus reflects the account lifecycle state.
type UserStatus string

const (
	StatusActive   UserStatus = "ACTIVE"
	StatusLocked   UserStatus = "LOCKED"
	StatusDisabled UserStatus = "DISABLED"
)

// User represents a credential record stored in the users table.
// PasswordHash is never serialised into responses.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	Phone        string     `db:"phone" json:"phone"`
	Status       UserStatus `db:"status" json:"status"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
