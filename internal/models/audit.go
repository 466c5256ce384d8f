package models

import "time"

// AuditAction enumerates recorded authentication events.
type AuditAction string

const (
	AuditActionSignup AuditAction = "SIGNUP"
	AuditActionLogin  AuditAction = "LOGIN"
	AuditActionLogout AuditAction = "LOGOUT"
)

// AuditLog records an authentication event for operator review.
type AuditLog struct {
	ID        string      `db:"id" json:"id"`
	Username  string      `db:"username" json:"username"`
	Action    AuditAction `db:"action" json:"action"`
	Detail    string      `db:"detail" json:"detail"`
	IPAddress string      `db:"ip_address" json:"ip_address"`
	UserAgent string      `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
