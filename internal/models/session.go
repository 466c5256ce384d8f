package models

import "time"

// RefreshSession is the active refresh-token session for a user, one per
// username. A new login replaces the row, which is what invalidates the
// previously issued refresh token. The stored expiry is authoritative on
// refresh, independent of the expiry embedded in the token itself.
type RefreshSession struct {
	Username  string     `db:"username" json:"username"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
